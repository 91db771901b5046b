// Package events provides the in-memory bus carrying protocol events to
// off-chain consumers such as the storage indexer.
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Ledger events, one per emitted event of the on-chain program.
	AssetsLocked       EventType = "assets.locked"
	AssetsUnlocked     EventType = "assets.unlocked"
	DerivativeMinted   EventType = "derivative.minted"
	TokenWhitelisted   EventType = "token.whitelisted"
	DeveloperFeeShared EventType = "fee.developer_share"
	FounderFeeShared   EventType = "fee.founder_share"

	// Administrative events.
	ProgramInitialized EventType = "program.initialized"
	UpdaterAuthorized  EventType = "updater.authorized"
	UpdaterDeactivated EventType = "updater.deactivated"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// Publisher is the producer side of the bus. The protocol engine publishes
// through this interface so tests can capture events without a running bus.
type Publisher interface {
	Publish(event Event) error
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}
