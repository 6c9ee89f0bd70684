package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finbot/core/logger"
	"finbot/core/telegram/state"
	"finbot/ledger"
	"finbot/ledger/api"
	"finbot/ledger/validate"
	"log/slog"
)

// Relay performs one logical mutation against the remote ledger API.
type Relay interface {
	Mutate(ctx context.Context, req ledger.MutationRequest) api.Outcome
}

// Visitor identifies the session owner for one inbound event. Existence
// is re-checked per mutating action, never cached.
type Visitor struct {
	Username string
	ChatID   int64
}

// Machine holds the collaborators shared by every form handler.
type Machine struct {
	relay   Relay
	lookup  validate.Lookup
	ceiling decimal.Decimal
}

// New builds the state machine around its collaborators.
func New(relay Relay, lookup validate.Lookup, ceiling decimal.Decimal) *Machine {
	return &Machine{relay: relay, lookup: lookup, ceiling: ceiling}
}

// Submit handles the text input that completes the form awaited by st.
// Every validation failure aborts back to Idle; the user restarts the
// form. Unroutable states produce an empty Reply (swallowed upstream).
func (m *Machine) Submit(ctx context.Context, st state.State, v Visitor, input string) Reply {
	form, ok := FormFor(st)
	if !ok {
		logger.Debug(ctx, "flow", "submit.unroutable",
			slog.String("state", string(st)),
		)
		return Reply{}
	}
	return m.Complete(ctx, form, v, input)
}

// Complete finishes an open form with the user's input. The form is
// authoritative: callers pass the session's buffered form when one
// exists rather than re-deriving it from the state.
func (m *Machine) Complete(ctx context.Context, form Form, v Visitor, input string) Reply {
	var reply Reply
	switch form.Op {
	case ledger.OpCreate:
		reply = m.submitDetails(ctx, form, v, input)
	case ledger.OpUpdate:
		reply = m.submitUpdate(ctx, form, v, input)
	case ledger.OpDelete:
		reply = m.submitDelete(ctx, form, v, input)
	}

	logger.Debug(ctx, "flow", "submit.handled",
		slog.String("form", string(form.Kind)+"."+string(form.Op)),
	)
	return reply
}

// abort reports a validation failure and returns the session to Idle.
func abort(reason string) Reply {
	return Reply{Text: reason, Keyboard: KeyboardBackToStart, Next: state.StateIdle}
}

// internalFailure reports an unexpected collaborator error with the
// underlying detail appended. The session is still cleared so it cannot
// get stuck.
func internalFailure(err error) Reply {
	return Reply{
		Text:     fmt.Sprintf("Error: %v. Please try again later.", err),
		Keyboard: KeyboardBackToStart,
		Next:     state.StateIdle,
	}
}

func (m *Machine) submitDetails(ctx context.Context, form Form, v Visitor, input string) Reply {
	if !validate.NotEmpty(input) {
		return abort(validate.MsgEmptyDetails)
	}
	amount, description, res := validate.ParseAmountDescription(input)
	if !res.OK {
		return abort(res.Reason)
	}
	if !validate.WithinCeiling(amount, m.ceiling) {
		return abort(validate.CeilingMessage(m.ceiling))
	}

	registered, err := m.lookup.UserExists(ctx, v.Username)
	if err != nil {
		return internalFailure(err)
	}
	if !registered {
		return Reply{Text: validate.MsgUserNotFound, Keyboard: KeyboardStart, Next: state.StateIdle}
	}

	return m.relayOutcome(ctx, form, ledger.MutationRequest{
		Kind:        form.Kind,
		Op:          form.Op,
		Amount:      amount,
		Description: description,
		ChatID:      v.ChatID,
	})
}

func (m *Machine) submitUpdate(ctx context.Context, form Form, v Visitor, input string) Reply {
	if !validate.NotEmpty(input) {
		return abort(validate.MsgEmptyDetails)
	}
	id, amount, description, res := validate.ParseUpdateTriplet(input)
	if !res.OK {
		return abort(res.Reason)
	}
	if !validate.WithinCeiling(amount, m.ceiling) {
		return abort(validate.CeilingMessage(m.ceiling))
	}

	exists, err := m.lookup.RecordExists(ctx, form.Kind, id)
	if err != nil {
		return internalFailure(err)
	}
	if !exists {
		return abort(validate.RecordNotFoundMessage(form.Kind))
	}

	registered, err := m.lookup.UserExists(ctx, v.Username)
	if err != nil {
		return internalFailure(err)
	}
	if !registered {
		return Reply{Text: validate.MsgUserNotFound, Keyboard: KeyboardStart, Next: state.StateIdle}
	}

	return m.relayOutcome(ctx, form, ledger.MutationRequest{
		Kind:        form.Kind,
		Op:          form.Op,
		RecordID:    id,
		Amount:      amount,
		Description: description,
		ChatID:      v.ChatID,
	})
}

func (m *Machine) submitDelete(ctx context.Context, form Form, v Visitor, input string) Reply {
	if !validate.NotEmpty(input) {
		return abort(validate.MsgEmptyID)
	}
	id := strings.TrimSpace(input)

	exists, err := m.lookup.RecordExists(ctx, form.Kind, id)
	if err != nil {
		return internalFailure(err)
	}
	if !exists {
		return abort(validate.RecordNotFoundMessage(form.Kind))
	}

	registered, err := m.lookup.UserExists(ctx, v.Username)
	if err != nil {
		return internalFailure(err)
	}
	if !registered {
		return Reply{Text: validate.MsgUserNotFound, Keyboard: KeyboardStart, Next: state.StateIdle}
	}

	return m.relayOutcome(ctx, form, ledger.MutationRequest{
		Kind:     form.Kind,
		Op:       form.Op,
		RecordID: id,
		ChatID:   v.ChatID,
	})
}

// relayOutcome hands the fully validated request to the relay and turns
// the three-way outcome into a user reply. Always returns to Idle.
func (m *Machine) relayOutcome(ctx context.Context, form Form, req ledger.MutationRequest) Reply {
	out := m.relay.Mutate(ctx, req)
	switch out.Kind {
	case api.Success:
		return Reply{Text: successMessage(form), Keyboard: KeyboardStart, Next: state.StateIdle}
	default:
		logger.Warn(ctx, "flow", "mutation.failed",
			slog.String("form", string(form.Kind)+"."+string(form.Op)),
			slog.String("outcome", out.Kind.String()),
			slog.String("err", logger.SanitizeLimit(out.Message, 256)),
		)
		return Reply{Text: failMessage(form), Keyboard: KeyboardBackToStart, Next: state.StateIdle}
	}
}
