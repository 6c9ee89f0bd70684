package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Manager orchestrates user sessions and FSM state transitions. The
// type parameter F is the form payload accumulated across the steps of
// a conversation.
type Manager[F any] interface {
	// Dialog state
	SetState(userID int64, st State)
	GetState(userID int64) State
	HasState(userID int64) bool
	ClearState(userID int64)

	// Form payload
	SetForm(userID int64, form F)
	Form(userID int64) (F, bool)

	// Clear removes the entire session for a user.
	Clear(userID int64)

	// Acquire marks the session as busy with an in-flight operation.
	// It returns false when a previous operation has not finished yet;
	// callers must Release after a successful Acquire.
	Acquire(userID int64) bool
	Release(userID int64)

	// RegisterHandler binds a handler to a state for ManagerHandler routing.
	RegisterHandler(st State, h tele.HandlerFunc)

	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}
