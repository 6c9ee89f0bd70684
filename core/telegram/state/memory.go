package state

import (
	"sync"

	"finbot/core/logger"
	tghelpers "finbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

type session[F any] struct {
	state   State
	form    F
	hasForm bool
	busy    bool
}

type memoryManager[F any] struct {
	mu       sync.RWMutex
	sessions map[int64]*session[F]

	hmu      sync.RWMutex
	handlers map[State]tele.HandlerFunc
}

// NewMemoryManager constructs an in-memory Manager implementation.
func NewMemoryManager[F any]() Manager[F] {
	return &memoryManager[F]{
		sessions: make(map[int64]*session[F]),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

func (m *memoryManager[F]) session(userID int64) *session[F] {
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &session[F]{state: StateIdle}
		m.sessions[userID] = sess
	}
	return sess
}

// SetState sets the FSM state for the given user. Moving to StateIdle
// discards any accumulated form payload.
func (m *memoryManager[F]) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.session(userID)
	sess.state = st
	if st == StateIdle {
		var zero F
		sess.form = zero
		sess.hasForm = false
	}
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *memoryManager[F]) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.state
	}
	return StateIdle
}

// ClearState resets the FSM state to idle and zeroes the form payload.
func (m *memoryManager[F]) ClearState(userID int64) {
	m.SetState(userID, StateIdle)
}

// HasState checks if a user has an active state other than idle.
func (m *memoryManager[F]) HasState(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return ok && sess.state != StateIdle
}

// SetForm stores the form payload for the given user session.
func (m *memoryManager[F]) SetForm(userID int64, form F) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.session(userID)
	sess.form = form
	sess.hasForm = true
}

// Form retrieves the form payload for the given user session.
func (m *memoryManager[F]) Form(userID int64) (F, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok && sess.hasForm {
		return sess.form, true
	}
	var zero F
	return zero, false
}

// Clear removes the entire session for a user.
func (m *memoryManager[F]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Acquire marks the session busy. It fails while a previous operation
// for the same user is still in flight.
func (m *memoryManager[F]) Acquire(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.session(userID)
	if sess.busy {
		return false
	}
	sess.busy = true
	return true
}

// Release clears the busy flag set by Acquire.
func (m *memoryManager[F]) Release(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		sess.busy = false
	}
}

// RegisterHandler binds a handler function to a state.
func (m *memoryManager[F]) RegisterHandler(st State, h tele.HandlerFunc) {
	m.hmu.Lock()
	defer m.hmu.Unlock()
	m.handlers[st] = h
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager[F]) InProgress(userID int64) bool {
	return m.HasState(userID)
}

// ManagerHandler executes the handler registered for the user's current state, if any.
func (m *memoryManager[F]) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	current := m.GetState(userID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("state", string(current)),
	)

	m.hmu.RLock()
	handler, ok := m.handlers[current]
	m.hmu.RUnlock()
	if ok {
		return handler(c)
	}
	return nil
}
