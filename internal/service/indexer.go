package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/twosidefinance/twoside-core/internal/events"
	"github.com/twosidefinance/twoside-core/internal/metrics"
	"github.com/twosidefinance/twoside-core/internal/protocol"
	"github.com/twosidefinance/twoside-core/internal/storage"
	"github.com/twosidefinance/twoside-core/internal/storage/models"
)

// indexer mirrors bus events into storage so the trail survives restarts.
type indexer struct {
	storage storage.Storage
	metrics *metrics.Collector
	logger  *zap.Logger
	subs    []events.Subscription
}

var indexedEventTypes = []events.EventType{
	events.AssetsLocked,
	events.AssetsUnlocked,
	events.DerivativeMinted,
	events.TokenWhitelisted,
	events.DeveloperFeeShared,
	events.FounderFeeShared,
	events.ProgramInitialized,
	events.UpdaterAuthorized,
	events.UpdaterDeactivated,
}

func newIndexer(bus *events.Bus, store storage.Storage, collector *metrics.Collector, logger *zap.Logger) *indexer {
	idx := &indexer{
		storage: store,
		metrics: collector,
		logger:  logger.Named("indexer"),
	}
	for _, t := range indexedEventTypes {
		idx.subs = append(idx.subs, bus.SubscribeFunc(t, idx.handle))
	}
	return idx
}

func (idx *indexer) handle(ctx context.Context, event events.Event) error {
	rec := &models.EventRecord{
		EventType: string(event.Type()),
		EmittedAt: event.Timestamp(),
	}

	switch e := event.(type) {
	case *protocol.AssetsLockedEvent:
		rec.Asset = e.Token.String()
		rec.Account = e.Account.String()
		rec.Amount = e.Amount
		rec.TxID = string(e.Tx)
	case *protocol.AssetsUnlockedEvent:
		rec.Asset = e.Token.String()
		rec.Account = e.Account.String()
		rec.Amount = e.Amount
		rec.TxID = string(e.Tx)
	case *protocol.DerivativeMintedEvent:
		rec.Asset = e.Token.String()
		rec.Account = e.Derivative.String()
		rec.TxID = string(e.Tx)
	case *protocol.TokenWhitelistedEvent:
		rec.Asset = e.Token.String()
	case *protocol.DeveloperFeeShareEvent:
		rec.Asset = e.Token.String()
		rec.Account = e.DeveloperWallet.String()
		rec.Amount = e.Amount
		rec.TxID = string(e.Tx)
	case *protocol.FounderFeeShareEvent:
		rec.Asset = e.Token.String()
		rec.Account = e.FounderWallet.String()
		rec.Amount = e.Amount
		rec.TxID = string(e.Tx)
	case *protocol.ProgramInitializedEvent:
		rec.Account = e.DeveloperWallet.String()
	case *protocol.UpdaterAuthorizedEvent:
		rec.Account = e.Updater.String()
	case *protocol.UpdaterDeactivatedEvent:
		rec.Account = e.Updater.String()
	}

	if err := idx.storage.SaveEvent(ctx, rec); err != nil {
		idx.logger.Error("Failed to persist event",
			zap.String("event_type", rec.EventType), zap.Error(err))
		return err
	}
	idx.metrics.RecordEventIndexed(rec.EventType)
	return nil
}
