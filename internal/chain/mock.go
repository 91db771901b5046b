// Package chain hosts the chain adapters that supply the protocol core
// with derivation, ledger reads and atomic plan submission. The package
// root provides an in-memory backend used in tests and local runs.
package chain

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/twosidefinance/twoside-core/internal/protocol"
)

// Mock is an in-memory protocol.Backend. Derivation is a pure hash of the
// inputs, balances and supplies live in maps, and Submit applies a plan's
// steps all-or-nothing, which makes it a faithful stand-in for the host
// ledger's transaction semantics in tests.
type Mock struct {
	mu        sync.Mutex
	decimals  map[protocol.Address]uint8
	metadata  map[protocol.Address]protocol.AssetMetadata
	balances  map[protocol.Address]map[protocol.Address]uint64
	supplies  map[protocol.Address]uint64
	created   map[protocol.Address]bool
	submitted []*protocol.Plan
	seq       int

	// SubmitErr, when set, fails every Submit before any state change.
	SubmitErr error
}

// NewMock creates an empty in-memory backend.
func NewMock() *Mock {
	return &Mock{
		decimals: make(map[protocol.Address]uint8),
		metadata: make(map[protocol.Address]protocol.AssetMetadata),
		balances: make(map[protocol.Address]map[protocol.Address]uint64),
		supplies: make(map[protocol.Address]uint64),
		created:  make(map[protocol.Address]bool),
	}
}

// RegisterAsset declares an underlying asset with its precision and
// metadata, mirroring a mint that already exists on the host ledger.
func (m *Mock) RegisterAsset(asset protocol.Address, decimals uint8, meta protocol.AssetMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decimals[asset] = decimals
	m.metadata[asset] = meta
}

// Fund credits owner with amount of asset.
func (m *Mock) Fund(asset, owner protocol.Address, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(asset, owner, amount)
	m.supplies[asset] += amount
}

// Derive hashes (tag, asset) into a deterministic address with a fixed
// bump. The same inputs always produce the same output.
func (m *Mock) Derive(tag protocol.Seed, asset protocol.Address) (protocol.Derived, error) {
	h := sha256.Sum256(append([]byte("pda:"+tag+":"), asset[:]...))
	return protocol.Derived{Address: protocol.Address(h), Bump: 255}, nil
}

// DeriveStatic hashes the tag alone.
func (m *Mock) DeriveStatic(tag protocol.Seed) (protocol.Derived, error) {
	h := sha256.Sum256([]byte("pda:" + tag))
	return protocol.Derived{Address: protocol.Address(h), Bump: 255}, nil
}

// AssociatedAccount hashes (owner, asset) into the owner's holding account.
func (m *Mock) AssociatedAccount(owner, asset protocol.Address) (protocol.Address, error) {
	b := append([]byte("ata:"), owner[:]...)
	b = append(b, asset[:]...)
	h := sha256.Sum256(b)
	return protocol.Address(h), nil
}

// Decimals returns the registered precision of asset.
func (m *Mock) Decimals(_ context.Context, asset protocol.Address) (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decimals[asset]
	if !ok {
		return 0, fmt.Errorf("asset %s not registered", asset.Short())
	}
	return d, nil
}

// BalanceOf returns the asset balance held in account.
func (m *Mock) BalanceOf(_ context.Context, asset, account protocol.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[asset][account], nil
}

// AssetMetadata returns the registered metadata of asset.
func (m *Mock) AssetMetadata(_ context.Context, asset protocol.Address) (protocol.AssetMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.metadata[asset]
	if !ok {
		return protocol.AssetMetadata{}, protocol.ErrUninitializedMetadata
	}
	return meta, nil
}

// Supply returns the total minted supply of asset.
func (m *Mock) Supply(asset protocol.Address) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supplies[asset]
}

// Created reports whether a CreateAssetStep for asset was executed.
func (m *Mock) Created(asset protocol.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created[asset]
}

// Submitted returns every plan accepted so far, in order.
func (m *Mock) Submitted() []*protocol.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*protocol.Plan, len(m.submitted))
	copy(out, m.submitted)
	return out
}

// Submit validates every step against a scratch copy of the ledger and
// commits only when all of them apply, mirroring the all-or-nothing
// transaction boundary of the host chain.
func (m *Mock) Submit(_ context.Context, plan *protocol.Plan) (protocol.TxID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}

	scratch := m.snapshot()
	for i, step := range plan.Steps {
		if err := scratch.apply(step); err != nil {
			return "", fmt.Errorf("step %d: %w", i, err)
		}
	}
	m.balances = scratch.balances
	m.supplies = scratch.supplies
	m.decimals = scratch.decimals
	m.metadata = scratch.metadata
	m.created = scratch.created

	m.submitted = append(m.submitted, plan)
	m.seq++
	return protocol.TxID(fmt.Sprintf("mock-tx-%04d", m.seq)), nil
}

type scratchLedger struct {
	balances map[protocol.Address]map[protocol.Address]uint64
	supplies map[protocol.Address]uint64
	decimals map[protocol.Address]uint8
	metadata map[protocol.Address]protocol.AssetMetadata
	created  map[protocol.Address]bool
}

func (m *Mock) snapshot() *scratchLedger {
	s := &scratchLedger{
		balances: make(map[protocol.Address]map[protocol.Address]uint64, len(m.balances)),
		supplies: make(map[protocol.Address]uint64, len(m.supplies)),
		decimals: make(map[protocol.Address]uint8, len(m.decimals)),
		metadata: make(map[protocol.Address]protocol.AssetMetadata, len(m.metadata)),
		created:  make(map[protocol.Address]bool, len(m.created)),
	}
	for asset, owners := range m.balances {
		copied := make(map[protocol.Address]uint64, len(owners))
		for owner, bal := range owners {
			copied[owner] = bal
		}
		s.balances[asset] = copied
	}
	for k, v := range m.supplies {
		s.supplies[k] = v
	}
	for k, v := range m.decimals {
		s.decimals[k] = v
	}
	for k, v := range m.metadata {
		s.metadata[k] = v
	}
	for k, v := range m.created {
		s.created[k] = v
	}
	return s
}

func (s *scratchLedger) apply(step protocol.Step) error {
	switch st := step.(type) {
	case protocol.TransferStep:
		if st.Amount == 0 {
			return nil
		}
		if s.balances[st.Asset][st.From] < st.Amount {
			return fmt.Errorf("insufficient balance: have %d, need %d", s.balances[st.Asset][st.From], st.Amount)
		}
		s.balances[st.Asset][st.From] -= st.Amount
		s.creditTo(st.Asset, st.To, st.Amount)
	case protocol.CreateAssetStep:
		if s.created[st.Asset] {
			return fmt.Errorf("asset %s already created", st.Asset.Short())
		}
		s.created[st.Asset] = true
		s.decimals[st.Asset] = st.Decimals
		s.metadata[st.Asset] = st.Metadata
	case protocol.MintStep:
		if !s.created[st.Asset] {
			return fmt.Errorf("mint of uncreated asset %s", st.Asset.Short())
		}
		s.creditTo(st.Asset, st.To, st.Amount)
		s.supplies[st.Asset] += st.Amount
	case protocol.BurnStep:
		if s.balances[st.Asset][st.From] < st.Amount {
			return fmt.Errorf("burn exceeds balance: have %d, need %d", s.balances[st.Asset][st.From], st.Amount)
		}
		s.balances[st.Asset][st.From] -= st.Amount
		s.supplies[st.Asset] -= st.Amount
	default:
		return fmt.Errorf("unknown step type %T", step)
	}
	return nil
}

func (s *scratchLedger) creditTo(asset, owner protocol.Address, amount uint64) {
	if s.balances[asset] == nil {
		s.balances[asset] = make(map[protocol.Address]uint64)
	}
	s.balances[asset][owner] += amount
}

func (m *Mock) credit(asset, owner protocol.Address, amount uint64) {
	if m.balances[asset] == nil {
		m.balances[asset] = make(map[protocol.Address]uint64)
	}
	m.balances[asset][owner] += amount
}
