package watch

import (
	"errors"
	"testing"
	"time"

	"homework-bot/internal/domain"
)

func TestInitialStateUsesStartTime(t *testing.T) {
	now := time.Unix(1700000000, 500)
	if st := InitialState(now); st.Cursor != 1700000000 {
		t.Fatalf("ожидали курсор 1700000000, получили %d", st.Cursor)
	}
}

func TestAdvanceNotifiesOnNewStatus(t *testing.T) {
	st := State{Cursor: 100}
	next, out := Advance(st, Poll{Body: []byte(`{"homeworks":[{"homework_name":"proj1","status":"approved"}],"current_date":200}`)})

	if out.Kind != OutcomeChanged {
		t.Fatalf("ожидали изменение, получили %s", out.Kind)
	}
	if out.Message != `Изменился статус проверки работы "proj1". Работа проверена: ревьюеру всё понравилось. Ура!` {
		t.Fatalf("неожиданный текст: %s", out.Message)
	}
	if next.Cursor != 200 || next.LastHomework != "proj1" || next.LastStatus != domain.StatusApproved {
		t.Fatalf("неожиданное состояние: %+v", next)
	}
}

func TestAdvanceDeduplicatesSameStatus(t *testing.T) {
	body := []byte(`{"homeworks":[{"homework_name":"proj1","status":"reviewing"}],"current_date":200}`)
	st, first := Advance(State{Cursor: 100}, Poll{Body: body})
	if first.Kind != OutcomeChanged {
		t.Fatalf("первый цикл должен уведомить")
	}
	_, second := Advance(st, Poll{Body: body})
	if second.Kind != OutcomeIdle {
		t.Fatalf("повторный статус не должен уведомлять, получили %s", second.Kind)
	}
}

func TestAdvanceNotifiesEachDistinctStatus(t *testing.T) {
	st := State{Cursor: 100}
	var changes int
	for _, status := range []string{"reviewing", "rejected", "reviewing", "approved"} {
		var out Outcome
		st, out = Advance(st, Poll{Body: []byte(`{"homeworks":[{"homework_name":"proj1","status":"` + status + `"}],"current_date":200}`)})
		if out.Kind == OutcomeChanged {
			changes++
		}
	}
	if changes != 4 {
		t.Fatalf("ожидали 4 уведомления, получили %d", changes)
	}
}

func TestAdvanceNewHomeworkWithSameStatusNotifies(t *testing.T) {
	st := State{Cursor: 1, LastHomework: "proj1", LastStatus: domain.StatusApproved}
	_, out := Advance(st, Poll{Body: []byte(`{"homeworks":[{"homework_name":"proj2","status":"approved"}]}`)})
	if out.Kind != OutcomeChanged {
		t.Fatalf("новая работа должна уведомлять, получили %s", out.Kind)
	}
	if out.Previous != "" {
		t.Fatalf("для новой работы предыдущего статуса нет, получили %q", out.Previous)
	}
}

func TestAdvanceCursorInvariant(t *testing.T) {
	polls := []struct {
		poll   Poll
		cursor int64
	}{
		{Poll{Err: &domain.RequestError{Err: errors.New("timeout")}}, 100},
		{Poll{Body: []byte(`{"homeworks":[],"current_date":150}`)}, 150},
		{Poll{Body: []byte(`[]`)}, 150},
		{Poll{Body: []byte(`{"current_date":999}`)}, 150},
		{Poll{Body: []byte(`{"homeworks":{},"current_date":999}`)}, 150},
		{Poll{Body: []byte(`{"homeworks":[{"homework_name":"a","status":"bogus"}],"current_date":170}`)}, 170},
		{Poll{Body: []byte(`{"homeworks":[],"current_date":120}`)}, 170},
		{Poll{Body: []byte(`{"homeworks":[]}`)}, 170},
		{Poll{Body: []byte(`{"homeworks":[],"current_date":300}`)}, 300},
	}
	st := State{Cursor: 100}
	for i, p := range polls {
		st, _ = Advance(st, p.poll)
		if st.Cursor != p.cursor {
			t.Fatalf("шаг %d: ожидали курсор %d, получили %d", i, p.cursor, st.Cursor)
		}
	}
}

func TestAdvanceListBodyIsShapeFailure(t *testing.T) {
	st := State{Cursor: 100, LastHomework: "proj1", LastStatus: domain.StatusReviewing}
	next, out := Advance(st, Poll{Body: []byte(`[{"homework_name":"proj1","status":"approved"}]`)})

	var shapeErr *domain.ShapeError
	if out.Kind != OutcomeFailed || !errors.As(out.Err, &shapeErr) || shapeErr.Reason != domain.ShapeNotObject {
		t.Fatalf("ожидали ошибку структуры, получили %+v", out)
	}
	if next != st {
		t.Fatalf("состояние не должно меняться: %+v", next)
	}
}

func TestAdvanceUnknownStatusKeepsLastStatus(t *testing.T) {
	st := State{Cursor: 100, LastHomework: "proj1", LastStatus: domain.StatusReviewing}
	next, out := Advance(st, Poll{Body: []byte(`{"homeworks":[{"homework_name":"proj1","status":"unknown_status"}],"current_date":200}`)})

	var semErr *domain.SemanticError
	if out.Kind != OutcomeFailed || !errors.As(out.Err, &semErr) {
		t.Fatalf("ожидали смысловую ошибку, получили %+v", out)
	}
	if next.LastStatus != domain.StatusReviewing || next.Cursor != 200 {
		t.Fatalf("неожиданное состояние: %+v", next)
	}
}

func TestAdvanceEmptyListIsIdle(t *testing.T) {
	_, out := Advance(State{Cursor: 1}, Poll{Body: []byte(`{"homeworks":[],"current_date":2}`)})
	if out.Kind != OutcomeIdle {
		t.Fatalf("ожидали отсутствие изменений, получили %s", out.Kind)
	}
}
