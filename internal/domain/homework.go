package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Status — статус проверки домашней работы.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict возвращает текст вердикта для известного статуса.
func Verdict(status Status) (string, bool) {
	v, ok := verdicts[status]
	return v, ok
}

const (
	KeyHomeworkName = "homework_name"
	KeyStatus       = "status"
)

// Homework — запись о домашней работе из ответа API.
// Декодирование мягкое: проверку обязательных ключей выполняет форматтер.
type Homework struct {
	ID              int64
	Name            string
	Status          Status
	LessonName      string
	ReviewerComment string
	DateUpdated     string

	hasName   bool
	hasStatus bool
}

// NewHomework создаёт запись с заполненными обязательными ключами.
func NewHomework(name string, status Status) Homework {
	return Homework{Name: name, Status: status, hasName: true, hasStatus: true}
}

// MissingKey возвращает первый отсутствующий обязательный ключ.
func (h Homework) MissingKey() (string, bool) {
	if !h.hasName {
		return KeyHomeworkName, true
	}
	if !h.hasStatus {
		return KeyStatus, true
	}
	return "", false
}

// UnmarshalJSON запоминает, какие ключи присутствовали в записи.
// Запись, не являющаяся объектом, декодируется как пустая.
func (h *Homework) UnmarshalJSON(data []byte) error {
	*h = Homework{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	if raw, ok := fields[KeyHomeworkName]; ok {
		h.hasName = true
		h.Name = rawText(raw)
	}
	if raw, ok := fields[KeyStatus]; ok {
		h.hasStatus = true
		h.Status = Status(rawText(raw))
	}
	if raw, ok := fields["id"]; ok {
		h.ID, _ = strconv.ParseInt(rawText(raw), 10, 64)
	}
	if raw, ok := fields["lesson_name"]; ok {
		h.LessonName = rawText(raw)
	}
	if raw, ok := fields["reviewer_comment"]; ok {
		h.ReviewerComment = rawText(raw)
	}
	if raw, ok := fields["date_updated"]; ok {
		h.DateUpdated = rawText(raw)
	}
	return nil
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	return strings.TrimSpace(string(trimmed))
}

// APIResponse — проверенный ответ API статусов домашних работ.
type APIResponse struct {
	Homeworks   []Homework
	CurrentDate *int64
}
