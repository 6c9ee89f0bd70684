package bot

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	tele "gopkg.in/telebot.v4"

	"finbot/bot/flow"
	coretelegram "finbot/core/telegram"
	"finbot/core/telegram/state"
	"finbot/ledger"
	"finbot/ledger/api"
)

type stubContext struct {
	tele.Context
	sender *tele.User
	text   string
	kv     map[string]any
	sent   []string
}

func newStubContext(userID int64, text string) *stubContext {
	return &stubContext{
		sender: &tele.User{ID: userID, Username: "alice"},
		text:   text,
		kv:     make(map[string]any),
	}
}

func (s *stubContext) Sender() *tele.User       { return s.sender }
func (s *stubContext) Chat() *tele.Chat         { return &tele.Chat{ID: s.sender.ID} }
func (s *stubContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (s *stubContext) Callback() *tele.Callback { return nil }
func (s *stubContext) Text() string             { return s.text }
func (s *stubContext) Get(k string) any         { return s.kv[k] }
func (s *stubContext) Set(k string, v any)      { s.kv[k] = v }

func (s *stubContext) Send(what interface{}, opts ...interface{}) error {
	if text, ok := what.(string); ok {
		s.sent = append(s.sent, text)
	}
	return nil
}

type stubRelay struct {
	calls []ledger.MutationRequest
}

func (r *stubRelay) Mutate(ctx context.Context, req ledger.MutationRequest) api.Outcome {
	r.calls = append(r.calls, req)
	return api.Outcome{Kind: api.Success}
}

type stubLookup struct{}

func (stubLookup) UserExists(ctx context.Context, username string) (bool, error) {
	return true, nil
}

func (stubLookup) RecordExists(ctx context.Context, kind ledger.Kind, id string) (bool, error) {
	return true, nil
}

func newTestApp() (*App, *stubRelay) {
	relay := &stubRelay{}
	a := &App{
		machine:  flow.New(relay, stubLookup{}, decimal.RequireFromString("10000000")),
		sessions: state.NewMemoryManager[flow.Form](),
	}
	a.registerFlowHandlers()
	return a, relay
}

const busyText = "Still processing your previous request. Please wait."

func TestBeginFormRejectedWhileBusy(t *testing.T) {
	a, _ := newTestApp()
	c := newStubContext(99, "")

	a.sessions.SetState(99, flow.StateAwaitExpenseDetails)
	if !a.sessions.Acquire(99) {
		t.Fatal("acquire failed on a fresh session")
	}

	h := a.beginForm(flow.Form{Kind: ledger.KindIncome, Op: ledger.OpCreate})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := a.sessions.GetState(99); got != flow.StateAwaitExpenseDetails {
		t.Errorf("state = %q, want untouched await_expense_details", got)
	}
	if len(c.sent) != 1 || c.sent[0] != busyText {
		t.Errorf("sent = %v, want busy reply", c.sent)
	}

	a.sessions.Release(99)
	if err := h(c); err != nil {
		t.Fatalf("handler after release: %v", err)
	}
	if got := a.sessions.GetState(99); got != flow.StateAwaitIncomeDetails {
		t.Errorf("state = %q, want await_income_details after release", got)
	}
}

func TestStartCallbackRejectedWhileBusy(t *testing.T) {
	a, _ := newTestApp()
	reg := coretelegram.NewRegistry()
	if err := a.registerCallbacks(reg); err != nil {
		t.Fatalf("register callbacks: %v", err)
	}
	h, ok := reg.GetCallback(cbStart)
	if !ok {
		t.Fatal("start callback not registered")
	}

	c := newStubContext(5, "")
	a.sessions.SetState(5, flow.StateAwaitExpenseDetails)
	if !a.sessions.Acquire(5) {
		t.Fatal("acquire failed")
	}

	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := a.sessions.GetState(5); got != flow.StateAwaitExpenseDetails {
		t.Errorf("state = %q, busy session must not be reset", got)
	}
	if len(c.sent) != 1 || c.sent[0] != busyText {
		t.Errorf("sent = %v, want busy reply", c.sent)
	}

	a.sessions.Release(5)
	if err := h(c); err != nil {
		t.Fatalf("handler after release: %v", err)
	}
	if got := a.sessions.GetState(5); got != state.StateIdle {
		t.Errorf("state = %q, want idle after back-to-start", got)
	}
}

func TestFlowHandlerPrefersBufferedForm(t *testing.T) {
	a, relay := newTestApp()
	c := newStubContext(7, "100 Lunch")

	// The buffered form, not the state, decides what gets relayed.
	a.sessions.SetState(7, flow.StateAwaitExpenseDetails)
	a.sessions.SetForm(7, flow.Form{Kind: ledger.KindIncome, Op: ledger.OpCreate})

	if err := a.sessions.ManagerHandler(c); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(relay.calls) != 1 {
		t.Fatalf("relay calls = %d, want 1", len(relay.calls))
	}
	if got := relay.calls[0].Kind; got != ledger.KindIncome {
		t.Errorf("relay kind = %s, want income", got)
	}
	if got := a.sessions.GetState(7); got != state.StateIdle {
		t.Errorf("state = %q, want idle after completion", got)
	}
	if _, ok := a.sessions.Form(7); ok {
		t.Error("form buffer should be discarded on return to idle")
	}
	if len(c.sent) != 1 || c.sent[0] != "Income added successfully." {
		t.Errorf("sent = %v, want success reply", c.sent)
	}
}
