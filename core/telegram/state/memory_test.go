package state

import (
	"sync"
	"sync/atomic"
	"testing"

	tele "gopkg.in/telebot.v4"
)

type form struct {
	Kind string
	Op   string
}

func TestSessionLifecycle(t *testing.T) {
	m := NewMemoryManager[form]()

	if got := m.GetState(1); got != StateIdle {
		t.Fatalf("fresh session state = %q, want idle", got)
	}
	if m.InProgress(1) {
		t.Fatal("fresh session should not be in progress")
	}

	m.SetState(1, "await_details")
	m.SetForm(1, form{Kind: "expense", Op: "create"})

	if !m.InProgress(1) {
		t.Error("session with active state should be in progress")
	}
	f, ok := m.Form(1)
	if !ok || f.Kind != "expense" {
		t.Errorf("form = %+v ok=%v", f, ok)
	}

	m.ClearState(1)
	if got := m.GetState(1); got != StateIdle {
		t.Errorf("state after clear = %q, want idle", got)
	}
	if _, ok := m.Form(1); ok {
		t.Error("form should be discarded on return to idle")
	}
}

func TestSetStateIdleDiscardsForm(t *testing.T) {
	m := NewMemoryManager[form]()
	m.SetState(7, "await_details")
	m.SetForm(7, form{Kind: "income"})

	m.SetState(7, StateIdle)

	if _, ok := m.Form(7); ok {
		t.Error("moving to idle must zero the form buffer")
	}
}

func TestClearRecreatesIdleSession(t *testing.T) {
	m := NewMemoryManager[form]()
	m.SetState(2, "await_details")
	m.Clear(2)

	if got := m.GetState(2); got != StateIdle {
		t.Errorf("state after Clear = %q, want idle", got)
	}
	if m.InProgress(2) {
		t.Error("cleared session should not be in progress")
	}
}

func TestAcquireSerializesInFlightOps(t *testing.T) {
	m := NewMemoryManager[form]()

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Acquire(9) {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := acquired.Load(); got != 1 {
		t.Fatalf("concurrent Acquire succeeded %d times, want exactly 1", got)
	}

	m.Release(9)
	if !m.Acquire(9) {
		t.Error("Acquire should succeed again after Release")
	}
}

func TestAcquireIsPerSession(t *testing.T) {
	m := NewMemoryManager[form]()
	if !m.Acquire(1) {
		t.Fatal("first acquire failed")
	}
	if !m.Acquire(2) {
		t.Error("a busy session must not block other sessions")
	}
}

type stubContext struct {
	tele.Context
	sender *tele.User
	kv     map[string]any
}

func newStubContext(userID int64) *stubContext {
	return &stubContext{
		sender: &tele.User{ID: userID},
		kv:     make(map[string]any),
	}
}

func (s *stubContext) Sender() *tele.User  { return s.sender }
func (s *stubContext) Chat() *tele.Chat    { return &tele.Chat{ID: s.sender.ID} }
func (s *stubContext) Update() tele.Update { return tele.Update{ID: 1} }
func (s *stubContext) Get(k string) any    { return s.kv[k] }
func (s *stubContext) Set(k string, v any) { s.kv[k] = v }

func TestManagerHandlerRoutesByState(t *testing.T) {
	m := NewMemoryManager[form]()

	var handled atomic.Int32
	m.RegisterHandler("await_details", func(c tele.Context) error {
		handled.Add(1)
		return nil
	})

	c := newStubContext(5)

	// Idle: no handler registered, the event is swallowed.
	if err := m.ManagerHandler(c); err != nil {
		t.Fatalf("idle dispatch: %v", err)
	}
	if handled.Load() != 0 {
		t.Fatal("idle session must not reach a form handler")
	}

	m.SetState(5, "await_details")
	if err := m.ManagerHandler(c); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if handled.Load() != 1 {
		t.Errorf("handled = %d, want 1", handled.Load())
	}
}
