// Package storage persists the off-chain operation and event trail.
package storage

import (
	"context"

	"github.com/twosidefinance/twoside-core/internal/storage/models"
)

// Storage is the persistence interface for protocol operations and events.
type Storage interface {
	// Operations. ListOperations returns newest first; an empty asset
	// matches every operation and limit <= 0 disables paging.
	SaveOperation(ctx context.Context, op *models.Operation) error
	GetOperation(ctx context.Context, operationID string) (*models.Operation, error)
	ListOperations(ctx context.Context, asset string, limit, offset int) ([]*models.Operation, error)
	UpdateOperationStatus(ctx context.Context, operationID string, status, txID, errorMsg string) error

	// Events
	SaveEvent(ctx context.Context, rec *models.EventRecord) error
	ListEvents(ctx context.Context, asset string, limit, offset int) ([]*models.EventRecord, error)

	// Migrations
	RunMigrations() error
}
