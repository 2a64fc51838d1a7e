package watch

import (
	"bytes"
	"encoding/json"

	"homework-bot/internal/domain"
)

// ValidateResponse проверяет структуру ответа API и декодирует его.
// Лишние ключи игнорируются, current_date необязателен.
func ValidateResponse(body []byte) (domain.APIResponse, error) {
	var fields map[string]json.RawMessage
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.APIResponse{}, &domain.ShapeError{Reason: domain.ShapeNotObject}
	}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return domain.APIResponse{}, &domain.ShapeError{Reason: domain.ShapeNotObject}
	}

	raw, ok := fields["homeworks"]
	if !ok {
		return domain.APIResponse{}, &domain.ShapeError{Reason: domain.ShapeMissingHomeworks}
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return domain.APIResponse{}, &domain.ShapeError{Reason: domain.ShapeMissingHomeworks}
	}
	var homeworks []domain.Homework
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
		return domain.APIResponse{}, &domain.ShapeError{Reason: domain.ShapeHomeworksNotList}
	}
	if err := json.Unmarshal(raw, &homeworks); err != nil {
		return domain.APIResponse{}, &domain.ShapeError{Reason: domain.ShapeHomeworksNotList}
	}

	resp := domain.APIResponse{Homeworks: homeworks}
	if rawDate, ok := fields["current_date"]; ok {
		var date int64
		if err := json.Unmarshal(rawDate, &date); err == nil {
			resp.CurrentDate = &date
		}
	}
	return resp, nil
}
