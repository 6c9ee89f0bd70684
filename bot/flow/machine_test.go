package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"finbot/core/telegram/state"
	"finbot/ledger"
	"finbot/ledger/api"
	"finbot/ledger/validate"
)

type fakeRelay struct {
	calls []ledger.MutationRequest
	out   api.Outcome
}

func (f *fakeRelay) Mutate(ctx context.Context, req ledger.MutationRequest) api.Outcome {
	f.calls = append(f.calls, req)
	return f.out
}

type fakeLookup struct {
	users   map[string]bool
	records map[string]bool
	err     error
}

func (f *fakeLookup) UserExists(ctx context.Context, username string) (bool, error) {
	return f.users[username], f.err
}

func (f *fakeLookup) RecordExists(ctx context.Context, kind ledger.Kind, id string) (bool, error) {
	return f.records[string(kind)+":"+id], f.err
}

func newTestMachine(out api.Outcome, lookup *fakeLookup) (*Machine, *fakeRelay) {
	relay := &fakeRelay{out: out}
	return New(relay, lookup, decimal.RequireFromString("10000000")), relay
}

var alice = Visitor{Username: "alice", ChatID: 42}

func registeredLookup() *fakeLookup {
	return &fakeLookup{
		users:   map[string]bool{"alice": true},
		records: map[string]bool{"expense:7": true, "income:3": true},
	}
}

func TestPromptOpensForm(t *testing.T) {
	reply := Prompt(Form{Kind: ledger.KindExpense, Op: ledger.OpCreate})
	if reply.Next != StateAwaitExpenseDetails {
		t.Errorf("next = %q, want %q", reply.Next, StateAwaitExpenseDetails)
	}
	if !strings.Contains(reply.Text, "Amount Description") {
		t.Errorf("prompt should describe the expected format: %q", reply.Text)
	}
	if reply.Keyboard != KeyboardBackToStart {
		t.Errorf("keyboard = %v, want back-to-start", reply.Keyboard)
	}
}

func TestSubmitCreateSuccess(t *testing.T) {
	m, relay := newTestMachine(api.Outcome{Kind: api.Success}, registeredLookup())

	reply := m.Submit(context.Background(), StateAwaitExpenseDetails, alice, "100 Lunch")

	if reply.Text != "Expense added successfully." {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.Next != state.StateIdle {
		t.Errorf("next = %q, want idle", reply.Next)
	}
	if len(relay.calls) != 1 {
		t.Fatalf("relay calls = %d, want exactly 1", len(relay.calls))
	}
	req := relay.calls[0]
	if req.Kind != ledger.KindExpense || req.Op != ledger.OpCreate {
		t.Errorf("request = %s.%s", req.Kind, req.Op)
	}
	if !req.Amount.Equal(decimal.RequireFromString("100")) {
		t.Errorf("amount = %s, want 100", req.Amount)
	}
	if req.Description != "Lunch" {
		t.Errorf("description = %q, want Lunch", req.Description)
	}
	if req.ChatID != 42 {
		t.Errorf("chat_id = %d, want 42", req.ChatID)
	}
}

func TestCompleteUsesProvidedForm(t *testing.T) {
	m, relay := newTestMachine(api.Outcome{Kind: api.Success}, registeredLookup())

	reply := m.Complete(context.Background(), Form{Kind: ledger.KindIncome, Op: ledger.OpCreate}, alice, "100 Lunch")

	if reply.Text != "Income added successfully." {
		t.Errorf("text = %q", reply.Text)
	}
	if len(relay.calls) != 1 {
		t.Fatalf("relay calls = %d, want 1", len(relay.calls))
	}
	if got := relay.calls[0].Kind; got != ledger.KindIncome {
		t.Errorf("kind = %s, want income", got)
	}
}

func TestSubmitUnregisteredUserSkipsRelay(t *testing.T) {
	m, relay := newTestMachine(api.Outcome{Kind: api.Success}, &fakeLookup{})

	reply := m.Submit(context.Background(), StateAwaitExpenseDetails, alice, "100 Lunch")

	if reply.Text != validate.MsgUserNotFound {
		t.Errorf("text = %q, want registration reply", reply.Text)
	}
	if len(relay.calls) != 0 {
		t.Errorf("relay calls = %d, want 0", len(relay.calls))
	}
	if reply.Next != state.StateIdle {
		t.Errorf("next = %q, want idle", reply.Next)
	}
}

func TestSubmitValidationFailuresAbortToIdle(t *testing.T) {
	ceiling := decimal.RequireFromString("10000000")
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", validate.MsgEmptyDetails},
		{"single token", "100", validate.MsgBadPair},
		{"non numeric", "abc Lunch", validate.MsgBadAmount},
		{"over ceiling", "10000001 Lunch", validate.CeilingMessage(ceiling)},
		{"negative", "-5 Lunch", validate.CeilingMessage(ceiling)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, relay := newTestMachine(api.Outcome{Kind: api.Success}, registeredLookup())
			reply := m.Submit(context.Background(), StateAwaitIncomeDetails, alice, tc.in)
			if reply.Text != tc.want {
				t.Errorf("text = %q, want %q", reply.Text, tc.want)
			}
			if reply.Next != state.StateIdle {
				t.Errorf("next = %q, want idle (abort)", reply.Next)
			}
			if len(relay.calls) != 0 {
				t.Errorf("relay calls = %d, want 0", len(relay.calls))
			}
		})
	}
}

func TestSubmitUpdateSuccess(t *testing.T) {
	m, relay := newTestMachine(api.Outcome{Kind: api.Success}, registeredLookup())

	reply := m.Submit(context.Background(), StateAwaitExpenseUpdate, alice, "7 50 Groceries for the week")

	if reply.Text != "Expense updated successfully." {
		t.Errorf("text = %q", reply.Text)
	}
	if len(relay.calls) != 1 {
		t.Fatalf("relay calls = %d, want 1", len(relay.calls))
	}
	req := relay.calls[0]
	if req.RecordID != "7" || req.Op != ledger.OpUpdate {
		t.Errorf("request = %s %s id=%s", req.Kind, req.Op, req.RecordID)
	}
	if req.Description != "Groceries for the week" {
		t.Errorf("description = %q", req.Description)
	}
}

func TestSubmitUpdateMissingRecord(t *testing.T) {
	m, relay := newTestMachine(api.Outcome{Kind: api.Success}, registeredLookup())

	reply := m.Submit(context.Background(), StateAwaitExpenseUpdate, alice, "8 50 Groceries")

	if reply.Text != validate.RecordNotFoundMessage(ledger.KindExpense) {
		t.Errorf("text = %q", reply.Text)
	}
	if len(relay.calls) != 0 {
		t.Errorf("relay calls = %d, want 0", len(relay.calls))
	}
}

func TestSubmitDeleteSuccess(t *testing.T) {
	m, relay := newTestMachine(api.Outcome{Kind: api.Success}, registeredLookup())

	reply := m.Submit(context.Background(), StateAwaitIncomeDelete, alice, " 3 ")

	if reply.Text != "Income deleted successfully." {
		t.Errorf("text = %q", reply.Text)
	}
	if len(relay.calls) != 1 {
		t.Fatalf("relay calls = %d, want 1", len(relay.calls))
	}
	req := relay.calls[0]
	if req.Kind != ledger.KindIncome || req.Op != ledger.OpDelete || req.RecordID != "3" {
		t.Errorf("request = %s %s id=%s", req.Kind, req.Op, req.RecordID)
	}
}

func TestSubmitDeleteAlreadyDeleted(t *testing.T) {
	lookup := registeredLookup()
	delete(lookup.records, "income:3")
	m, relay := newTestMachine(api.Outcome{Kind: api.Success}, lookup)

	reply := m.Submit(context.Background(), StateAwaitIncomeDelete, alice, "3")

	if reply.Text != validate.RecordNotFoundMessage(ledger.KindIncome) {
		t.Errorf("text = %q, want record-not-found", reply.Text)
	}
	if len(relay.calls) != 0 {
		t.Errorf("relay calls = %d, want 0 (existence check precedes relay)", len(relay.calls))
	}
}

func TestSubmitRelayFailures(t *testing.T) {
	for _, kind := range []api.OutcomeKind{api.ApplicationFailure, api.TransportFailure} {
		m, _ := newTestMachine(api.Outcome{Kind: kind, Message: "boom"}, registeredLookup())
		reply := m.Submit(context.Background(), StateAwaitExpenseDetails, alice, "100 Lunch")
		if reply.Text != "Failed to add expense. Please try again later." {
			t.Errorf("%s: text = %q", kind, reply.Text)
		}
		if reply.Next != state.StateIdle {
			t.Errorf("%s: next = %q, want idle", kind, reply.Next)
		}
	}
}

func TestSubmitLookupError(t *testing.T) {
	m, relay := newTestMachine(api.Outcome{Kind: api.Success}, &fakeLookup{err: errors.New("db down")})

	reply := m.Submit(context.Background(), StateAwaitExpenseDetails, alice, "100 Lunch")

	if !strings.HasPrefix(reply.Text, "Error: ") || !strings.Contains(reply.Text, "db down") {
		t.Errorf("text = %q, want underlying detail appended", reply.Text)
	}
	if reply.Next != state.StateIdle {
		t.Errorf("next = %q, want idle (session must not get stuck)", reply.Next)
	}
	if len(relay.calls) != 0 {
		t.Errorf("relay calls = %d, want 0", len(relay.calls))
	}
}

func TestSubmitUnroutableStateIsSwallowed(t *testing.T) {
	m, relay := newTestMachine(api.Outcome{Kind: api.Success}, registeredLookup())

	reply := m.Submit(context.Background(), state.StateIdle, alice, "100 Lunch")

	if reply != (Reply{}) {
		t.Errorf("reply = %+v, want empty", reply)
	}
	if len(relay.calls) != 0 {
		t.Errorf("relay calls = %d, want 0", len(relay.calls))
	}
}

func TestStartMenuForcesIdle(t *testing.T) {
	if got := StartMenu().Next; got != state.StateIdle {
		t.Errorf("next = %q, want idle", got)
	}
}

func TestBusyLeavesStateUnchanged(t *testing.T) {
	if got := Busy().Next; got != "" {
		t.Errorf("next = %q, want unchanged", got)
	}
}

func TestStateFormRoundTrip(t *testing.T) {
	for _, st := range States() {
		form, ok := FormFor(st)
		if !ok {
			t.Fatalf("no form for state %q", st)
		}
		back, ok := AwaitState(form)
		if !ok || back != st {
			t.Errorf("AwaitState(FormFor(%q)) = %q", st, back)
		}
	}
	if len(States()) != 6 {
		t.Errorf("states = %d, want 6", len(States()))
	}
}
