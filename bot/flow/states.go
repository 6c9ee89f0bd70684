// Package flow implements the conversation state machine for the
// finance ledger forms. Handlers are pure with respect to the chat
// transport: they consume text input and produce a declarative Reply
// that the adapter renders and applies.
package flow

import (
	"finbot/core/telegram/state"
	"finbot/ledger"
)

// Conversation states. Idle is state.StateIdle; each awaiting state
// holds exactly one active form.
const (
	StateAwaitExpenseDetails state.State = "await_expense_details"
	StateAwaitExpenseUpdate  state.State = "await_expense_update"
	StateAwaitExpenseDelete  state.State = "await_expense_delete"
	StateAwaitIncomeDetails  state.State = "await_income_details"
	StateAwaitIncomeUpdate   state.State = "await_income_update"
	StateAwaitIncomeDelete   state.State = "await_income_delete"
)

// Form is the per-session buffer tracked while a form is active. The
// kind and operation are fixed the moment the user picks a menu action;
// the remaining fields arrive in the single completing message.
type Form struct {
	Kind ledger.Kind
	Op   ledger.Op
}

var awaitStates = map[Form]state.State{
	{Kind: ledger.KindExpense, Op: ledger.OpCreate}: StateAwaitExpenseDetails,
	{Kind: ledger.KindExpense, Op: ledger.OpUpdate}: StateAwaitExpenseUpdate,
	{Kind: ledger.KindExpense, Op: ledger.OpDelete}: StateAwaitExpenseDelete,
	{Kind: ledger.KindIncome, Op: ledger.OpCreate}:  StateAwaitIncomeDetails,
	{Kind: ledger.KindIncome, Op: ledger.OpUpdate}:  StateAwaitIncomeUpdate,
	{Kind: ledger.KindIncome, Op: ledger.OpDelete}:  StateAwaitIncomeDelete,
}

// AwaitState maps a form to the state that waits for its input.
func AwaitState(f Form) (state.State, bool) {
	st, ok := awaitStates[f]
	return st, ok
}

// FormFor is the inverse of AwaitState.
func FormFor(st state.State) (Form, bool) {
	for f, s := range awaitStates {
		if s == st {
			return f, true
		}
	}
	return Form{}, false
}

// States lists every awaiting state, for handler registration.
func States() []state.State {
	out := make([]state.State, 0, len(awaitStates))
	for _, s := range awaitStates {
		out = append(out, s)
	}
	return out
}
