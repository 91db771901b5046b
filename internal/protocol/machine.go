package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/twosidefinance/twoside-core/internal/events"
)

// Byte caps the metadata service imposes on derivative naming.
const (
	maxDerivativeNameBytes   = 32
	maxDerivativeSymbolBytes = 10
)

// Engine is the lock/unlock state machine. It validates requests against
// the ledger records, compiles them into plans, submits the plans through
// the chain backend and mutates ledger state only after the backend
// confirms. Requests for the same underlying asset are serialized by a
// per-asset mutex; different assets proceed in parallel.
type Engine struct {
	backend Backend
	store   Store
	bus     events.Publisher
	logger  *zap.Logger
	now     Clock

	minLockValue uint64

	globalMu sync.Mutex

	assetMu    sync.Mutex
	assetLocks map[Address]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine's time source.
func WithClock(now Clock) Option {
	return func(e *Engine) { e.now = now }
}

// WithMinLockValue sets the lock amount floor recorded at initialization.
func WithMinLockValue(v uint64) Option {
	return func(e *Engine) { e.minLockValue = v }
}

// NewEngine creates the state machine over the given backend and store.
// bus may be nil when no consumer cares about events.
func NewEngine(backend Backend, store Store, bus events.Publisher, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		backend:    backend,
		store:      store,
		bus:        bus,
		logger:     logger.Named("engine"),
		now:        time.Now,
		assetLocks: make(map[Address]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// lockAsset serializes operations on one underlying asset and returns the
// release function.
func (e *Engine) lockAsset(asset Address) func() {
	e.assetMu.Lock()
	mu, ok := e.assetLocks[asset]
	if !ok {
		mu = &sync.Mutex{}
		e.assetLocks[asset] = mu
	}
	e.assetMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (e *Engine) publish(event events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(event); err != nil {
		e.logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}

// LockRequest asks to deposit Amount of Asset into custody. Derivative is
// optional: when non-zero it is compared against the freshly re-derived
// derivative address and the request fails on mismatch.
type LockRequest struct {
	Caller     Address
	Asset      Address
	Amount     uint64
	Derivative Address
}

// LockReceipt reports the settled amounts of a successful lock.
type LockReceipt struct {
	Tx                TxID
	Asset             Address
	Derivative        Address
	DerivativeCreated bool
	Amount            uint64
	Fee               uint64
	DeveloperShare    uint64
	FounderShare      uint64
	Minted            uint64
}

// Lock deposits req.Amount of the underlying asset into the vault and
// mints the 1:1-backed derivative, net of the protocol fee, to the caller.
// The first lock of an asset also creates the derivative asset at its
// derived address and records it into TokenInfo exactly once.
func (e *Engine) Lock(ctx context.Context, req LockRequest) (*LockReceipt, error) {
	g, ok := e.store.Global()
	if !ok || !g.IsInitialized {
		return nil, ErrNotInitialized
	}
	if req.Caller.IsZero() || req.Asset.IsZero() {
		return nil, ErrInvalidPubkey
	}
	if req.Amount == 0 {
		return nil, ErrZeroAmountValue
	}
	if req.Amount < g.MinLockValue {
		return nil, ErrInvalidAmount
	}

	unlock := e.lockAsset(req.Asset)
	defer unlock()

	info, ok := e.store.TokenInfo(req.Asset)
	if !ok || !info.Whitelisted {
		return nil, ErrNotWhitelisted
	}

	fee, err := CalculateFee(req.Amount,
		uint64(g.FeePercentage), uint64(g.FeePercentageDivider),
		uint64(g.MinFeeForDistribution), uint64(g.MinFee))
	if err != nil {
		return nil, err
	}
	developerShare, founderShare := SplitFee(fee, uint64(g.DeveloperFeeShare))
	deducted := req.Amount - fee

	addrs, err := e.resolveAccounts(req.Caller, req.Asset, g)
	if err != nil {
		return nil, err
	}

	// Address-substitution guard: a caller-supplied derivative must match
	// the re-derived one, and a previously recorded derivative must too.
	if !req.Derivative.IsZero() && req.Derivative != addrs.derivative {
		return nil, ErrInvalidDerivativeAddress
	}
	firstLock := info.Derivative.IsZero()
	if !firstLock && info.Derivative != addrs.derivative {
		return nil, ErrInvalidDerivativeAddress
	}

	plan := &Plan{Asset: req.Asset, Caller: req.Caller}

	if firstLock {
		create, err := e.buildDerivativeCreation(ctx, req.Asset, addrs)
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, create)
	}

	plan.Steps = append(plan.Steps,
		TransferStep{Asset: req.Asset, From: addrs.callerUnderlying, To: addrs.vault, Amount: deducted},
		TransferStep{Asset: req.Asset, From: addrs.callerUnderlying, To: addrs.developer, Amount: developerShare},
		TransferStep{Asset: req.Asset, From: addrs.callerUnderlying, To: addrs.founder, Amount: founderShare},
		MintStep{Asset: addrs.derivative, To: addrs.callerDerivative, Amount: deducted, Authority: addrs.derivativeAuthority},
	)

	tx, err := e.backend.Submit(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("submit lock plan: %w", err)
	}

	now := e.now()
	if firstLock {
		// Recorded only after the backend confirmed the creation, under
		// the asset lock, so no second "first lock" can slip in between.
		info.Derivative = addrs.derivative
		e.store.PutTokenInfo(info)

		e.publish(&DerivativeMintedEvent{
			BaseEvent:  baseEvent(events.DerivativeMinted, now),
			Token:      req.Asset,
			Derivative: addrs.derivative,
			Tx:         tx,
		})
	}

	e.publishFeeShares(req.Asset, g, developerShare, founderShare, tx, now)
	e.publish(&AssetsLockedEvent{
		BaseEvent: baseEvent(events.AssetsLocked, now),
		Account:   req.Caller,
		Token:     req.Asset,
		Amount:    req.Amount,
		Tx:        tx,
	})

	e.logger.Info("Assets locked",
		zap.String("asset", req.Asset.Short()),
		zap.String("caller", req.Caller.Short()),
		zap.Uint64("amount", req.Amount),
		zap.Uint64("fee", fee),
		zap.Uint64("minted", deducted),
		zap.Bool("derivative_created", firstLock),
		zap.String("tx", string(tx)))

	return &LockReceipt{
		Tx:                tx,
		Asset:             req.Asset,
		Derivative:        addrs.derivative,
		DerivativeCreated: firstLock,
		Amount:            req.Amount,
		Fee:               fee,
		DeveloperShare:    developerShare,
		FounderShare:      founderShare,
		Minted:            deducted,
	}, nil
}

// UnlockRequest asks to burn Amount of the derivative and release the
// matching underlying from custody. Derivative is verified against the
// re-derived address when supplied.
type UnlockRequest struct {
	Caller     Address
	Asset      Address
	Amount     uint64
	Derivative Address
}

// UnlockReceipt reports the settled amounts of a successful unlock.
type UnlockReceipt struct {
	Tx             TxID
	Asset          Address
	Derivative     Address
	Amount         uint64
	Fee            uint64
	DeveloperShare uint64
	FounderShare   uint64
	Released       uint64
}

// Unlock burns req.Amount of the derivative from the caller and releases
// the underlying from the vault, minus the protocol fee which is paid out
// of vault funds to the beneficiaries.
func (e *Engine) Unlock(ctx context.Context, req UnlockRequest) (*UnlockReceipt, error) {
	g, ok := e.store.Global()
	if !ok || !g.IsInitialized {
		return nil, ErrNotInitialized
	}
	if req.Caller.IsZero() || req.Asset.IsZero() {
		return nil, ErrInvalidPubkey
	}
	if req.Amount == 0 {
		return nil, ErrZeroAmountValue
	}

	unlock := e.lockAsset(req.Asset)
	defer unlock()

	info, ok := e.store.TokenInfo(req.Asset)
	if !ok || !info.Whitelisted {
		return nil, ErrNotWhitelisted
	}
	if info.Derivative.IsZero() {
		return nil, ErrNoDerivativeDeployed
	}

	addrs, err := e.resolveAccounts(req.Caller, req.Asset, g)
	if err != nil {
		return nil, err
	}
	if addrs.derivative != info.Derivative {
		return nil, ErrInvalidDerivativeAddress
	}
	if !req.Derivative.IsZero() && req.Derivative != addrs.derivative {
		return nil, ErrInvalidDerivativeAddress
	}

	fee, err := CalculateFee(req.Amount,
		uint64(g.FeePercentage), uint64(g.FeePercentageDivider),
		uint64(g.MinFeeForDistribution), uint64(g.MinFee))
	if err != nil {
		return nil, err
	}
	developerShare, founderShare := SplitFee(fee, uint64(g.DeveloperFeeShare))
	deducted := req.Amount - fee

	// The full request amount leaves the vault: the released part to the
	// caller and the fee to the beneficiaries. Never under-deliver.
	vaultBalance, err := e.backend.BalanceOf(ctx, req.Asset, addrs.vault)
	if err != nil {
		return nil, fmt.Errorf("read vault balance: %w", err)
	}
	if vaultBalance < req.Amount {
		return nil, ErrInsufficientVaultBalance
	}

	vaultAuth := addrs.vaultAuthority
	plan := &Plan{
		Asset:  req.Asset,
		Caller: req.Caller,
		Steps: []Step{
			BurnStep{Asset: addrs.derivative, From: addrs.callerDerivative, Amount: req.Amount},
			TransferStep{Asset: req.Asset, From: addrs.vault, To: addrs.callerUnderlying, Amount: deducted, Authority: &vaultAuth},
			TransferStep{Asset: req.Asset, From: addrs.vault, To: addrs.developer, Amount: developerShare, Authority: &vaultAuth},
			TransferStep{Asset: req.Asset, From: addrs.vault, To: addrs.founder, Amount: founderShare, Authority: &vaultAuth},
		},
	}

	tx, err := e.backend.Submit(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("submit unlock plan: %w", err)
	}

	now := e.now()
	e.publishFeeShares(req.Asset, g, developerShare, founderShare, tx, now)
	e.publish(&AssetsUnlockedEvent{
		BaseEvent: baseEvent(events.AssetsUnlocked, now),
		Account:   req.Caller,
		Token:     req.Asset,
		Amount:    req.Amount,
		Tx:        tx,
	})

	e.logger.Info("Assets unlocked",
		zap.String("asset", req.Asset.Short()),
		zap.String("caller", req.Caller.Short()),
		zap.Uint64("amount", req.Amount),
		zap.Uint64("fee", fee),
		zap.Uint64("released", deducted),
		zap.String("tx", string(tx)))

	return &UnlockReceipt{
		Tx:             tx,
		Asset:          req.Asset,
		Derivative:     addrs.derivative,
		Amount:         req.Amount,
		Fee:            fee,
		DeveloperShare: developerShare,
		FounderShare:   founderShare,
		Released:       deducted,
	}, nil
}

// resolvedAccounts carries every derived or associated account one lock or
// unlock touches. All of them are re-derived per request.
type resolvedAccounts struct {
	derivative          Address
	derivativeBump      uint8
	derivativeAuthority DerivedAuthority
	vaultAuthority      DerivedAuthority
	vault               Address
	callerUnderlying    Address
	callerDerivative    Address
	developer           Address
	founder             Address
}

func (e *Engine) resolveAccounts(caller, asset Address, g GlobalInfo) (*resolvedAccounts, error) {
	derivative, err := e.backend.Derive(SeedDerivativeMint, asset)
	if err != nil {
		return nil, fmt.Errorf("derive derivative mint: %w", err)
	}
	derivativeAuth, err := e.deriveAuthority(SeedDerivativeAuthority, asset)
	if err != nil {
		return nil, err
	}
	vaultAuth, err := e.deriveAuthority(SeedVaultAuthority, asset)
	if err != nil {
		return nil, err
	}

	vault, err := e.backend.AssociatedAccount(vaultAuth.Address(), asset)
	if err != nil {
		return nil, fmt.Errorf("resolve vault account: %w", err)
	}
	callerUnderlying, err := e.backend.AssociatedAccount(caller, asset)
	if err != nil {
		return nil, fmt.Errorf("resolve caller account: %w", err)
	}
	callerDerivative, err := e.backend.AssociatedAccount(caller, derivative.Address)
	if err != nil {
		return nil, fmt.Errorf("resolve caller derivative account: %w", err)
	}
	developer, err := e.backend.AssociatedAccount(g.DeveloperWallet, asset)
	if err != nil {
		return nil, fmt.Errorf("resolve developer account: %w", err)
	}
	founder, err := e.backend.AssociatedAccount(g.FounderWallet, asset)
	if err != nil {
		return nil, fmt.Errorf("resolve founder account: %w", err)
	}

	return &resolvedAccounts{
		derivative:          derivative.Address,
		derivativeBump:      derivative.Bump,
		derivativeAuthority: derivativeAuth,
		vaultAuthority:      vaultAuth,
		vault:               vault,
		callerUnderlying:    callerUnderlying,
		callerDerivative:    callerDerivative,
		developer:           developer,
		founder:             founder,
	}, nil
}

// deriveAuthority wraps a derivation result into the opaque signing
// capability. Only the engine can mint DerivedAuthority values.
func (e *Engine) deriveAuthority(tag Seed, asset Address) (DerivedAuthority, error) {
	d, err := e.backend.Derive(tag, asset)
	if err != nil {
		return DerivedAuthority{}, fmt.Errorf("derive %s: %w", tag, err)
	}
	return DerivedAuthority{
		address: d.Address,
		seed:    tag,
		asset:   asset,
		bump:    d.Bump,
	}, nil
}

// buildDerivativeCreation assembles the one-time creation step for an
// asset's derivative: same decimals as the underlying, derived mint and
// freeze authority, and metadata derived from the underlying's.
func (e *Engine) buildDerivativeCreation(ctx context.Context, asset Address, addrs *resolvedAccounts) (CreateAssetStep, error) {
	meta, err := e.backend.AssetMetadata(ctx, asset)
	if err != nil {
		return CreateAssetStep{}, err
	}
	decimals, err := e.backend.Decimals(ctx, asset)
	if err != nil {
		return CreateAssetStep{}, fmt.Errorf("read asset decimals: %w", err)
	}
	return CreateAssetStep{
		Asset:     addrs.derivative,
		Decimals:  decimals,
		Authority: addrs.derivativeAuthority,
		Bump:      addrs.derivativeBump,
		Metadata:  DerivativeMetadata(meta),
	}, nil
}

func (e *Engine) publishFeeShares(asset Address, g GlobalInfo, developerShare, founderShare uint64, tx TxID, now time.Time) {
	e.publish(&DeveloperFeeShareEvent{
		BaseEvent:       baseEvent(events.DeveloperFeeShared, now),
		DeveloperWallet: g.DeveloperWallet,
		Token:           asset,
		Amount:          developerShare,
		Tx:              tx,
	})
	e.publish(&FounderFeeShareEvent{
		BaseEvent:     baseEvent(events.FounderFeeShared, now),
		FounderWallet: g.FounderWallet,
		Token:         asset,
		Amount:        founderShare,
		Tx:            tx,
	})
}
