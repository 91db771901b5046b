package models

import "time"

// Operation statuses.
const (
	OperationPending   = "pending"
	OperationCompleted = "completed"
	OperationFailed    = "failed"
)

// Operation kinds.
const (
	OperationInitialize = "initialize_program"
	OperationAddUpdater = "add_authorized_updater"
	OperationWhitelist  = "whitelist"
	OperationLock       = "lock"
	OperationUnlock     = "unlock"
)

// Operation is one protocol call and its outcome: the off-chain trail a
// dashboard or support query reads instead of chain logs.
type Operation struct {
	BaseModel
	OperationID    string  `gorm:"unique;not null;type:varchar(36)"`
	Kind           string  `gorm:"index;not null;type:varchar(30)"`
	Caller         string  `gorm:"index;not null;type:varchar(66)"`
	Asset          string  `gorm:"index;type:varchar(66)"`
	Derivative     string  `gorm:"type:varchar(66)"`
	Amount         uint64  `gorm:"type:numeric(20,0)"`
	Fee            uint64  `gorm:"type:numeric(20,0)"`
	DeveloperShare uint64  `gorm:"type:numeric(20,0)"`
	FounderShare   uint64  `gorm:"type:numeric(20,0)"`
	TxID           string  `gorm:"index;type:varchar(128)"`
	Status         string  `gorm:"not null;type:varchar(20)"`
	ErrorMessage   string  `gorm:"type:text"`
	ExecutionTime  float64 `gorm:"type:decimal(10,3)"`
}

// EventRecord is one protocol event as published on the bus.
type EventRecord struct {
	BaseModel
	EventType string    `gorm:"index;not null;type:varchar(40)"`
	Asset     string    `gorm:"index;type:varchar(66)"`
	Account   string    `gorm:"type:varchar(66)"`
	Amount    uint64    `gorm:"type:numeric(20,0)"`
	TxID      string    `gorm:"index;type:varchar(128)"`
	EmittedAt time.Time `gorm:"index;not null"`
}
