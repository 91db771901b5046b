package protocol

import "sync"

// GlobalInfo is the singleton protocol configuration record. It is created
// once by InitializeProgram and afterwards only read.
type GlobalInfo struct {
	IsInitialized         bool
	DeveloperWallet       Address
	FounderWallet         Address
	FeePercentage         uint8
	FeePercentageDivider  uint16
	MinFeeForDistribution uint8
	MinFee                uint8
	MinLockValue          uint64
	DeveloperFeeShare     uint8
	FounderFeeShare       uint8
}

// TokenInfo tracks one underlying asset: its whitelisting status and the at
// most one derivative ever minted against it. Derivative stays the zero
// address until the asset's first successful lock.
type TokenInfo struct {
	IsInitialized      bool
	OriginalAsset      Address
	Whitelisted        bool
	Derivative         Address
	VaultAuthorityBump uint8
}

// AuthorizedUpdaterInfo grants a non-founder identity permission to
// whitelist assets. Revoked by flipping Active.
type AuthorizedUpdaterInfo struct {
	IsInitialized bool
	Key           Address
	Active        bool
}

// Store holds the persisted ledger records. Implementations must return
// copies or otherwise guarantee callers cannot mutate stored state except
// through Put methods.
type Store interface {
	Global() (GlobalInfo, bool)
	PutGlobal(GlobalInfo)

	TokenInfo(asset Address) (TokenInfo, bool)
	PutTokenInfo(TokenInfo)

	Updater(key Address) (AuthorizedUpdaterInfo, bool)
	PutUpdater(AuthorizedUpdaterInfo)
}

// MemStore is the in-memory Store used by the engine. Record-level
// serialization beyond the engine's own per-asset locking is provided by a
// single RWMutex; the record set is small and reads dominate.
type MemStore struct {
	mu       sync.RWMutex
	global   *GlobalInfo
	tokens   map[Address]TokenInfo
	updaters map[Address]AuthorizedUpdaterInfo
}

// NewMemStore creates an empty in-memory ledger store.
func NewMemStore() *MemStore {
	return &MemStore{
		tokens:   make(map[Address]TokenInfo),
		updaters: make(map[Address]AuthorizedUpdaterInfo),
	}
}

func (s *MemStore) Global() (GlobalInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.global == nil {
		return GlobalInfo{}, false
	}
	return *s.global, true
}

func (s *MemStore) PutGlobal(g GlobalInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = &g
}

func (s *MemStore) TokenInfo(asset Address) (TokenInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.tokens[asset]
	return info, ok
}

func (s *MemStore) PutTokenInfo(info TokenInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[info.OriginalAsset] = info
}

func (s *MemStore) Updater(key Address) (AuthorizedUpdaterInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.updaters[key]
	return info, ok
}

func (s *MemStore) PutUpdater(info AuthorizedUpdaterInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updaters[info.Key] = info
}
