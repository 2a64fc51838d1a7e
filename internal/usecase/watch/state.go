package watch

import (
	"time"

	"homework-bot/internal/domain"
)

// State — состояние цикла опроса, передаётся между циклами по значению.
type State struct {
	Cursor       int64
	LastHomework string
	LastStatus   domain.Status
}

// InitialState начинает опрос с момента запуска процесса.
func InitialState(now time.Time) State {
	return State{Cursor: now.Unix()}
}

// OutcomeKind — результат цикла.
type OutcomeKind int

const (
	// OutcomeIdle — изменений нет.
	OutcomeIdle OutcomeKind = iota
	// OutcomeChanged — статус последней работы изменился, нужно уведомление.
	OutcomeChanged
	// OutcomeFailed — запрос, структура ответа или запись о работе некорректны.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeChanged:
		return "changed"
	case OutcomeFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Outcome описывает, что должен сделать драйвер после перехода.
type Outcome struct {
	Kind     OutcomeKind
	Message  string
	Err      error
	Homework domain.Homework
	Previous domain.Status
}

// Poll — результат запроса к API.
type Poll struct {
	Body []byte
	Err  error
}

// Advance вычисляет следующее состояние по результату опроса. Функция не выполняет ввода-вывода.
//
// Курсор сдвигается только на current_date из проверенного ответа и никогда не уменьшается.
// Повторное уведомление подавляется, если у самой свежей работы не изменились имя и статус.
func Advance(state State, poll Poll) (State, Outcome) {
	if poll.Err != nil {
		return state, Outcome{Kind: OutcomeFailed, Err: poll.Err}
	}
	resp, err := ValidateResponse(poll.Body)
	if err != nil {
		return state, Outcome{Kind: OutcomeFailed, Err: err}
	}

	next := state
	if resp.CurrentDate != nil && *resp.CurrentDate >= state.Cursor {
		next.Cursor = *resp.CurrentDate
	}
	if len(resp.Homeworks) == 0 {
		return next, Outcome{Kind: OutcomeIdle}
	}

	hw := resp.Homeworks[0]
	message, err := ParseStatus(hw)
	if err != nil {
		return next, Outcome{Kind: OutcomeFailed, Err: err, Homework: hw}
	}
	if hw.Name == state.LastHomework && hw.Status == state.LastStatus {
		return next, Outcome{Kind: OutcomeIdle, Homework: hw}
	}

	previous := state.LastStatus
	if hw.Name != state.LastHomework {
		previous = ""
	}
	next.LastHomework = hw.Name
	next.LastStatus = hw.Status
	return next, Outcome{Kind: OutcomeChanged, Message: message, Homework: hw, Previous: previous}
}
