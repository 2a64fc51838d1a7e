package watch

import (
	"fmt"

	"homework-bot/internal/domain"
)

// ParseStatus формирует текст уведомления об изменении статуса работы.
func ParseStatus(hw domain.Homework) (string, error) {
	if key, missing := hw.MissingKey(); missing {
		return "", &domain.SemanticError{Homework: hw.Name, MissingKey: key}
	}
	verdict, ok := domain.Verdict(hw.Status)
	if !ok {
		return "", &domain.SemanticError{Homework: hw.Name, Status: hw.Status}
	}
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", hw.Name, verdict), nil
}
