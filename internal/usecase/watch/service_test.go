package watch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"homework-bot/internal/domain"
)

type fakeFetcher struct {
	bodies [][]byte
	errs   []error
	froms  []int64
	panic  bool
}

func (f *fakeFetcher) Fetch(_ context.Context, from int64) ([]byte, error) {
	if f.panic {
		panic("неожиданный nil")
	}
	i := len(f.froms)
	f.froms = append(f.froms, from)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var body []byte
	if i < len(f.bodies) {
		body = f.bodies[i]
	}
	return body, err
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return &domain.DeliveryError{Err: f.err}
	}
	return nil
}

type fakeJournal struct {
	changes []domain.StatusChange
	err     error
}

func (f *fakeJournal) Record(_ context.Context, change domain.StatusChange) error {
	f.changes = append(f.changes, change)
	return f.err
}

func countLevel(log string, level string) int {
	return strings.Count(log, `"level":"`+level+`"`)
}

func TestRunCycleNetworkFailure(t *testing.T) {
	var buf bytes.Buffer
	fetcher := &fakeFetcher{errs: []error{&domain.RequestError{Err: errors.New("dial tcp: connection refused")}}}
	notifier := &fakeNotifier{}
	svc := NewService(fetcher, notifier, zerolog.New(&buf), time.Minute)

	st := svc.RunCycle(context.Background(), State{Cursor: 100})

	if st.Cursor != 100 {
		t.Fatalf("курсор не должен меняться, получили %d", st.Cursor)
	}
	if n := countLevel(buf.String(), "error"); n != 1 {
		t.Fatalf("ожидали одну запись error, получили %d: %s", n, buf.String())
	}
	if len(notifier.texts) != 1 || !strings.Contains(notifier.texts[0], "connection refused") {
		t.Fatalf("ожидали одно уведомление с текстом ошибки, получили %q", notifier.texts)
	}
	if snap := svc.Snapshot(); snap.LastOutcome != "failed" || snap.LastError == "" {
		t.Fatalf("неожиданный снимок: %+v", snap)
	}
}

func TestRunCycleDeliveryFailureIsNotReported(t *testing.T) {
	var buf bytes.Buffer
	fetcher := &fakeFetcher{bodies: [][]byte{[]byte(`{"homeworks":[{"homework_name":"proj1","status":"approved"}],"current_date":200}`)}}
	notifier := &fakeNotifier{err: errors.New("Forbidden: bot was blocked by the user")}
	svc := NewService(fetcher, notifier, zerolog.New(&buf), time.Minute)

	st := svc.RunCycle(context.Background(), State{Cursor: 100})

	if len(notifier.texts) != 1 {
		t.Fatalf("ошибка доставки не должна отправляться повторно, попыток: %d", len(notifier.texts))
	}
	if countLevel(buf.String(), "error") != 0 {
		t.Fatalf("ошибку доставки логирует уведомитель, а не цикл: %s", buf.String())
	}
	if st.LastStatus != domain.StatusApproved || st.Cursor != 200 {
		t.Fatalf("неожиданное состояние: %+v", st)
	}
}

func TestRunCycleDeduplicatesAcrossCycles(t *testing.T) {
	body := []byte(`{"homeworks":[{"homework_name":"proj1","status":"reviewing"}],"current_date":200}`)
	changed := []byte(`{"homeworks":[{"homework_name":"proj1","status":"approved"}],"current_date":300}`)
	fetcher := &fakeFetcher{bodies: [][]byte{body, body, changed}}
	notifier := &fakeNotifier{}
	journal := &fakeJournal{}
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	svc := NewService(fetcher, notifier, zerolog.Nop(), time.Minute, WithJournal("test", journal), WithClock(clock))

	st := State{Cursor: 100}
	for i := 0; i < 3; i++ {
		st = svc.RunCycle(context.Background(), st)
	}

	if len(notifier.texts) != 2 {
		t.Fatalf("ожидали 2 уведомления, получили %d: %q", len(notifier.texts), notifier.texts)
	}
	if got := fetcher.froms; len(got) != 3 || got[0] != 100 || got[1] != 200 || got[2] != 200 {
		t.Fatalf("неожиданная последовательность from_date: %v", got)
	}
	if len(journal.changes) != 2 {
		t.Fatalf("ожидали 2 записи в журнале, получили %d", len(journal.changes))
	}
	last := journal.changes[1]
	if last.Status != domain.StatusApproved || last.PreviousStatus != domain.StatusReviewing || last.ID == "" {
		t.Fatalf("неожиданная запись журнала: %+v", last)
	}
	if !last.ObservedAt.Equal(clock()) || last.Cursor != 300 {
		t.Fatalf("неожиданные время или курсор: %+v", last)
	}
}

func TestRunCycleJournalFailureOnlyWarns(t *testing.T) {
	var buf bytes.Buffer
	fetcher := &fakeFetcher{bodies: [][]byte{[]byte(`{"homeworks":[{"homework_name":"proj1","status":"approved"}]}`)}}
	notifier := &fakeNotifier{}
	svc := NewService(fetcher, notifier, zerolog.New(&buf), time.Minute, WithJournal("pg", &fakeJournal{err: errors.New("db down")}))

	svc.RunCycle(context.Background(), State{Cursor: 1})

	if len(notifier.texts) != 1 {
		t.Fatalf("ошибка журнала не должна отправляться в чат: %q", notifier.texts)
	}
	if countLevel(buf.String(), "warn") != 1 {
		t.Fatalf("ожидали одно предупреждение: %s", buf.String())
	}
}

func TestRunCycleReportsSemanticError(t *testing.T) {
	fetcher := &fakeFetcher{bodies: [][]byte{[]byte(`{"homeworks":[{"homework_name":"proj1","status":"unknown_status"}],"current_date":5}`)}}
	notifier := &fakeNotifier{}
	svc := NewService(fetcher, notifier, zerolog.Nop(), time.Minute)

	st := svc.RunCycle(context.Background(), State{Cursor: 1})

	if len(notifier.texts) != 1 || !strings.Contains(notifier.texts[0], "unknown_status") {
		t.Fatalf("ожидали уведомление об ошибке статуса, получили %q", notifier.texts)
	}
	if strings.Contains(notifier.texts[0], "Изменился статус") {
		t.Fatalf("уведомление о статусе не должно отправляться")
	}
	if st.Cursor != 5 {
		t.Fatalf("после проверки структуры курсор должен сдвинуться, получили %d", st.Cursor)
	}
}

func TestRunCycleRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	notifier := &fakeNotifier{}
	svc := NewService(&fakeFetcher{panic: true}, notifier, zerolog.New(&buf), time.Minute)

	st := svc.RunCycle(context.Background(), State{Cursor: 7, LastStatus: domain.StatusRejected})

	if st.Cursor != 7 || st.LastStatus != domain.StatusRejected {
		t.Fatalf("состояние должно сохраниться: %+v", st)
	}
	if len(notifier.texts) != 1 || !strings.HasPrefix(notifier.texts[0], "Сбой в работе программы:") {
		t.Fatalf("ожидали сообщение о сбое, получили %q", notifier.texts)
	}
	if countLevel(buf.String(), "error") != 1 {
		t.Fatalf("ожидали одну запись error: %s", buf.String())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{bodies: [][]byte{[]byte(`{"homeworks":[],"current_date":50}`)}}
	notifier := &fakeNotifier{}
	svc := NewService(fetcher, notifier, zerolog.Nop(), time.Hour)

	done := make(chan State, 1)
	go func() { done <- svc.Run(ctx, State{Cursor: 10}) }()

	deadline := time.After(2 * time.Second)
	for svc.Snapshot().Cycles == 0 {
		select {
		case <-deadline:
			t.Fatal("цикл не выполнился")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case st := <-done:
		if st.Cursor != 50 {
			t.Fatalf("ожидали курсор 50, получили %d", st.Cursor)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
}

func TestRunRepeatsAfterPeriod(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher := &fakeFetcher{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	notifier := &fakeNotifier{}
	svc := NewService(fetcher, notifier, zerolog.Nop(), time.Millisecond)

	go svc.Run(ctx, State{Cursor: 1})

	deadline := time.After(2 * time.Second)
	for svc.Snapshot().Cycles < 3 {
		select {
		case <-deadline:
			t.Fatal("цикл не повторялся")
		case <-time.After(time.Millisecond):
		}
	}
}
