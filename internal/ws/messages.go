// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/predyx/exchange/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeEventUpdate MsgType = "event_update"
	MsgTypeError       MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// EventUpdateMessage — pushed after every accepted wager and on resolution.
// ──────────────────────────────────────────────────────────────────────────────

// EventUpdateMessage carries a full event view so clients can redraw
// probabilities, pool totals, and outcome state without a follow-up fetch.
type EventUpdateMessage struct {
	Type      MsgType           `json:"type"`
	Event     *domain.EventView `json:"event"`
	Timestamp time.Time         `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ErrorMessage — sent to a single client on a non-fatal error.
// ──────────────────────────────────────────────────────────────────────────────

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
