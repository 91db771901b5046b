package protocol

import (
	"time"

	"github.com/twosidefinance/twoside-core/internal/events"
)

// Concrete events emitted by the engine, one per on-chain event of the
// program. Payload fields follow the program's event layouts.

// AssetsLockedEvent is emitted on every successful lock.
type AssetsLockedEvent struct {
	events.BaseEvent
	Account Address
	Token   Address
	Amount  uint64
	Tx      TxID
}

// AssetsUnlockedEvent is emitted on every successful unlock.
type AssetsUnlockedEvent struct {
	events.BaseEvent
	Account Address
	Token   Address
	Amount  uint64
	Tx      TxID
}

// DerivativeMintedEvent is emitted exactly once per underlying asset, on
// its first successful lock.
type DerivativeMintedEvent struct {
	events.BaseEvent
	Token      Address
	Derivative Address
	Tx         TxID
}

// TokenWhitelistedEvent is emitted when an asset is whitelisted.
type TokenWhitelistedEvent struct {
	events.BaseEvent
	Token Address
}

// DeveloperFeeShareEvent reports the developer's cut of a protocol fee.
type DeveloperFeeShareEvent struct {
	events.BaseEvent
	DeveloperWallet Address
	Token           Address
	Amount          uint64
	Tx              TxID
}

// FounderFeeShareEvent reports the founder's cut of a protocol fee.
type FounderFeeShareEvent struct {
	events.BaseEvent
	FounderWallet Address
	Token         Address
	Amount        uint64
	Tx            TxID
}

func baseEvent(t events.EventType, at time.Time) events.BaseEvent {
	return events.BaseEvent{EventType: t, EventTime: at}
}
