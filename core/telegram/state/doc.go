// Package state provides a lightweight FSM/session manager for Telegram bots.
// Sessions carry a typed form payload; the manager also tracks an in-flight
// flag so concurrent messages from the same user are serialized.
package state
