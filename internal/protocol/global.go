package protocol

import (
	"context"

	"go.uber.org/zap"

	"github.com/twosidefinance/twoside-core/internal/events"
)

// Default protocol parameters, matching the deployed program: a 0.5% fee
// (5/1000) split evenly between the developer and founder wallets, with a
// floor of 2 base units so dust fees still split into two non-zero shares.
const (
	DefaultFeePercentage         uint8  = 5
	DefaultFeePercentageDivider  uint16 = 1000
	DefaultMinFeeForDistribution uint8  = 2
	DefaultMinFee                uint8  = 2
	DefaultDeveloperFeeShare     uint8  = 50
	DefaultFounderFeeShare       uint8  = 50
)

// InitializeProgram creates the GlobalInfo singleton. It fails with
// ErrAlreadyInitialized on any call after the first, leaving the existing
// record untouched, and rejects zero beneficiary addresses.
func (e *Engine) InitializeProgram(ctx context.Context, developer, founder Address) error {
	if developer.IsZero() || founder.IsZero() {
		return ErrInvalidPubkey
	}

	e.globalMu.Lock()
	defer e.globalMu.Unlock()

	if g, ok := e.store.Global(); ok && g.IsInitialized {
		return ErrAlreadyInitialized
	}

	g := GlobalInfo{
		IsInitialized:         true,
		DeveloperWallet:       developer,
		FounderWallet:         founder,
		FeePercentage:         DefaultFeePercentage,
		FeePercentageDivider:  DefaultFeePercentageDivider,
		MinFeeForDistribution: DefaultMinFeeForDistribution,
		MinFee:                DefaultMinFee,
		MinLockValue:          e.minLockValue,
		DeveloperFeeShare:     DefaultDeveloperFeeShare,
		FounderFeeShare:       DefaultFounderFeeShare,
	}
	e.store.PutGlobal(g)

	e.logger.Info("Program initialized",
		zap.String("developer_wallet", developer.Short()),
		zap.String("founder_wallet", founder.Short()))

	e.publish(&ProgramInitializedEvent{
		BaseEvent:       baseEvent(events.ProgramInitialized, e.now()),
		DeveloperWallet: developer,
		FounderWallet:   founder,
	})
	return nil
}

// AddAuthorizedUpdater grants updater permission to whitelist assets. Only
// the founder or developer wallet may call it. Re-adding an existing
// updater reactivates the record rather than failing; the operation is
// idempotent.
func (e *Engine) AddAuthorizedUpdater(ctx context.Context, signer, updater Address) error {
	if updater.IsZero() {
		return ErrInvalidPubkey
	}

	g, ok := e.store.Global()
	if !ok || !g.IsInitialized {
		return ErrNotInitialized
	}
	if signer != g.FounderWallet && signer != g.DeveloperWallet {
		return ErrNotAuthorized
	}

	e.store.PutUpdater(AuthorizedUpdaterInfo{
		IsInitialized: true,
		Key:           updater,
		Active:        true,
	})

	e.logger.Info("Authorized updater added", zap.String("updater", updater.Short()))

	e.publish(&UpdaterAuthorizedEvent{
		BaseEvent: baseEvent(events.UpdaterAuthorized, e.now()),
		Updater:   updater,
	})
	return nil
}

// DeactivateUpdater revokes a previously granted updater. Founder or
// developer only. Deactivating an unknown updater is not an error.
func (e *Engine) DeactivateUpdater(ctx context.Context, signer, updater Address) error {
	g, ok := e.store.Global()
	if !ok || !g.IsInitialized {
		return ErrNotInitialized
	}
	if signer != g.FounderWallet && signer != g.DeveloperWallet {
		return ErrNotAuthorized
	}

	info, ok := e.store.Updater(updater)
	if !ok {
		return nil
	}
	info.Active = false
	e.store.PutUpdater(info)

	e.logger.Info("Authorized updater deactivated", zap.String("updater", updater.Short()))

	e.publish(&UpdaterDeactivatedEvent{
		BaseEvent: baseEvent(events.UpdaterDeactivated, e.now()),
		Updater:   updater,
	})
	return nil
}

// ProgramInitializedEvent is emitted once, when the registry is created.
type ProgramInitializedEvent struct {
	events.BaseEvent
	DeveloperWallet Address
	FounderWallet   Address
}

// UpdaterAuthorizedEvent is emitted when an updater is granted.
type UpdaterAuthorizedEvent struct {
	events.BaseEvent
	Updater Address
}

// UpdaterDeactivatedEvent is emitted when an updater is revoked.
type UpdaterDeactivatedEvent struct {
	events.BaseEvent
	Updater Address
}
