// Package service is the application layer: it fronts the protocol engine
// with operation tracking, persistence and lifecycle management.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/twosidefinance/twoside-core/internal/events"
	"github.com/twosidefinance/twoside-core/internal/export"
	"github.com/twosidefinance/twoside-core/internal/metrics"
	"github.com/twosidefinance/twoside-core/internal/protocol"
	"github.com/twosidefinance/twoside-core/internal/storage"
	"github.com/twosidefinance/twoside-core/internal/storage/models"
)

// Service wires the engine, the event bus and the persistence trail.
// Storage may be nil; operations then run without an off-chain record.
type Service struct {
	engine   *protocol.Engine
	bus      *events.Bus
	storage  storage.Storage
	logger   *zap.Logger
	indexer  *indexer
	exporter *export.Exporter
	metrics  *metrics.Collector
	watchers []Watcher
}

// Watcher streams chain activity into the bus while the service runs.
type Watcher interface {
	Run(ctx context.Context) error
}

// New builds a service over an already-constructed engine and bus.
func New(engine *protocol.Engine, bus *events.Bus, store storage.Storage, logger *zap.Logger) *Service {
	s := &Service{
		engine:   engine,
		bus:      bus,
		storage:  store,
		logger:   logger.Named("service"),
		exporter: export.NewExporter(logger.Named("export")),
		metrics:  metrics.NewCollector(),
	}
	if store != nil {
		s.indexer = newIndexer(bus, store, s.metrics, logger)
	}
	return s
}

// Run applies storage migrations and blocks until ctx is cancelled, then
// shuts the bus down so queued events drain before exit.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if s.storage == nil {
			return nil
		}
		return s.storage.RunMigrations()
	})
	for _, w := range s.watchers {
		w := w
		g.Go(func() error {
			return w.Run(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.bus.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// AddWatcher registers a chain watcher started by Run. Call before Run.
func (s *Service) AddWatcher(w Watcher) {
	s.watchers = append(s.watchers, w)
}

// InitializeProgram creates the global registry with the fee schedule and
// the two beneficiary wallets.
func (s *Service) InitializeProgram(ctx context.Context, developer, founder protocol.Address) error {
	op := s.beginOperation(ctx, models.OperationInitialize, developer, protocol.ZeroAddress, 0)
	err := s.engine.InitializeProgram(ctx, developer, founder)
	s.endOperation(ctx, op, "", nil, err)
	return err
}

// AddAuthorizedUpdater grants updater the right to whitelist assets.
func (s *Service) AddAuthorizedUpdater(ctx context.Context, signer, updater protocol.Address) error {
	op := s.beginOperation(ctx, models.OperationAddUpdater, signer, protocol.ZeroAddress, 0)
	err := s.engine.AddAuthorizedUpdater(ctx, signer, updater)
	s.endOperation(ctx, op, "", nil, err)
	return err
}

// DeactivateUpdater revokes a previously granted updater.
func (s *Service) DeactivateUpdater(ctx context.Context, signer, updater protocol.Address) error {
	return s.engine.DeactivateUpdater(ctx, signer, updater)
}

// Whitelist admits an underlying asset into the protocol.
func (s *Service) Whitelist(ctx context.Context, signer, asset protocol.Address) error {
	op := s.beginOperation(ctx, models.OperationWhitelist, signer, asset, 0)
	err := s.engine.Whitelist(ctx, signer, asset)
	s.endOperation(ctx, op, "", nil, err)
	return err
}

// Lock deposits amount of asset and mints the derivative to caller.
func (s *Service) Lock(ctx context.Context, req protocol.LockRequest) (*protocol.LockReceipt, error) {
	op := s.beginOperation(ctx, models.OperationLock, req.Caller, req.Asset, req.Amount)
	receipt, err := s.engine.Lock(ctx, req)
	if receipt != nil {
		s.endOperation(ctx, op, string(receipt.Tx), &feeDetail{
			derivative:     receipt.Derivative,
			fee:            receipt.Fee,
			developerShare: receipt.DeveloperShare,
			founderShare:   receipt.FounderShare,
		}, err)
	} else {
		s.endOperation(ctx, op, "", nil, err)
	}
	return receipt, err
}

// Unlock burns amount of the derivative and releases the underlying.
func (s *Service) Unlock(ctx context.Context, req protocol.UnlockRequest) (*protocol.UnlockReceipt, error) {
	op := s.beginOperation(ctx, models.OperationUnlock, req.Caller, req.Asset, req.Amount)
	receipt, err := s.engine.Unlock(ctx, req)
	if receipt != nil {
		s.endOperation(ctx, op, string(receipt.Tx), &feeDetail{
			derivative:     receipt.Derivative,
			fee:            receipt.Fee,
			developerShare: receipt.DeveloperShare,
			founderShare:   receipt.FounderShare,
		}, err)
	} else {
		s.endOperation(ctx, op, "", nil, err)
	}
	return receipt, err
}

// Operations returns the persisted operation trail for one asset.
func (s *Service) Operations(ctx context.Context, asset protocol.Address, limit, offset int) ([]*models.Operation, error) {
	if s.storage == nil {
		return nil, nil
	}
	return s.storage.ListOperations(ctx, asset.String(), limit, offset)
}

// ExportOperations writes the persisted operation trail to a CSV or JSON
// file and returns its path.
func (s *Service) ExportOperations(ctx context.Context, opts export.Options) (string, error) {
	if s.storage == nil {
		return "", errors.New("export requires storage to be configured")
	}
	ops, err := s.storage.ListOperations(ctx, opts.AssetFilter, 0, 0)
	if err != nil {
		return "", fmt.Errorf("failed to load operation trail: %w", err)
	}
	return s.exporter.ExportOperations(ops, opts)
}

type feeDetail struct {
	derivative     protocol.Address
	fee            uint64
	developerShare uint64
	founderShare   uint64
}

type pendingOperation struct {
	kind    string
	record  *models.Operation // nil when the trail is not configured
	started time.Time
}

func (s *Service) beginOperation(ctx context.Context, kind string, caller, asset protocol.Address, amount uint64) *pendingOperation {
	op := &pendingOperation{kind: kind, started: time.Now()}
	if s.storage == nil {
		return op
	}
	op.record = &models.Operation{
		OperationID: uuid.New().String(),
		Kind:        kind,
		Caller:      caller.String(),
		Amount:      amount,
		Status:      models.OperationPending,
	}
	if !asset.IsZero() {
		op.record.Asset = asset.String()
	}
	if err := s.storage.SaveOperation(ctx, op.record); err != nil {
		s.logger.Warn("Failed to record operation",
			zap.String("kind", kind), zap.Error(err))
		op.record = nil
	}
	return op
}

func (s *Service) endOperation(ctx context.Context, op *pendingOperation, txID string, detail *feeDetail, opErr error) {
	if op == nil {
		return
	}
	s.metrics.RecordOperation(ctx, op.kind, time.Since(op.started), opErr == nil)
	if detail != nil && opErr == nil {
		s.metrics.RecordFeeShares(detail.developerShare, detail.founderShare)
	}
	if op.record == nil {
		return
	}
	op.record.Status = models.OperationCompleted
	if opErr != nil {
		op.record.Status = models.OperationFailed
		op.record.ErrorMessage = opErr.Error()
	}
	op.record.TxID = txID
	op.record.ExecutionTime = time.Since(op.started).Seconds()
	if detail != nil {
		op.record.Derivative = detail.derivative.String()
		op.record.Fee = detail.fee
		op.record.DeveloperShare = detail.developerShare
		op.record.FounderShare = detail.founderShare
	}
	if err := s.storage.SaveOperation(ctx, op.record); err != nil {
		s.logger.Warn("Failed to update operation record",
			zap.String("operation_id", op.record.OperationID), zap.Error(err))
	}
}
