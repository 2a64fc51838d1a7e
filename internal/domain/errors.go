package domain

import "fmt"

// GenericRequestMessage используется, когда API не вернул описание ошибки.
const GenericRequestMessage = "ошибка при выполнении запроса к API"

// RequestError описывает сбой запроса к API статусов.
// Err заполнен при сетевой ошибке, StatusCode — при ответе сервера.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ошибка при выполнении HTTP-запроса: %v", e.Err)
	}
	return fmt.Sprintf("API вернул код %d: %s", e.StatusCode, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ShapeReason классифицирует нарушение структуры ответа.
type ShapeReason int

const (
	ShapeNotObject ShapeReason = iota + 1
	ShapeMissingHomeworks
	ShapeHomeworksNotList
)

// ShapeError — ответ API не соответствует ожидаемой структуре.
type ShapeError struct {
	Reason ShapeReason
}

func (e *ShapeError) Error() string {
	switch e.Reason {
	case ShapeMissingHomeworks:
		return `в ответе API отсутствует ключ "homeworks"`
	case ShapeHomeworksNotList:
		return `в ответе API под ключом "homeworks" данные приходят не в виде списка`
	default:
		return "в ответе API структура данных не соответствует ожиданиям"
	}
}

// SemanticError — запись о домашней работе не содержит ключа или имеет неизвестный статус.
type SemanticError struct {
	Homework   string
	MissingKey string
	Status     Status
}

func (e *SemanticError) Error() string {
	if e.MissingKey != "" {
		return fmt.Sprintf("ответ API не содержит ключа %q", e.MissingKey)
	}
	return fmt.Sprintf("неожиданный статус домашней работы %s: %s", e.Homework, e.Status)
}

// DeliveryError — сообщение не удалось доставить в чат.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("ошибка при отправке сообщения в Telegram: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
