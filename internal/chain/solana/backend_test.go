package solana

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twosidefinance/twoside-core/internal/protocol"
)

func lockPlan(t *testing.T, amounts [3]uint64) *protocol.Plan {
	t.Helper()
	caller := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	asset := fromPubkey(testMint)
	return &protocol.Plan{
		Asset:  asset,
		Caller: fromPubkey(caller),
		Steps: []protocol.Step{
			protocol.TransferStep{Asset: asset, Amount: amounts[0]},
			protocol.TransferStep{Asset: asset, Amount: amounts[1]},
			protocol.TransferStep{Asset: asset, Amount: amounts[2]},
			protocol.MintStep{Amount: amounts[0]},
		},
	}
}

func instructionAmount(t *testing.T, inst solana.Instruction) uint64 {
	t.Helper()
	data, err := inst.Data()
	require.NoError(t, err)
	require.Len(t, data, 16)
	return binary.LittleEndian.Uint64(data[8:])
}

func TestCompileLockPlan(t *testing.T) {
	b := &Backend{}
	// 9.95 to custody plus two 0.025 fee legs: gross 10 whole tokens.
	plan := lockPlan(t, [3]uint64{9_950_000_000, 25_000_000, 25_000_000})

	inst, err := b.compile(plan)
	require.NoError(t, err)

	assert.Equal(t, ProgramID, inst.ProgramID())
	assert.Len(t, inst.Accounts(), 20)
	assert.Equal(t, uint64(10_000_000_000), instructionAmount(t, inst))

	data, err := inst.Data()
	require.NoError(t, err)
	assert.Equal(t, lockDiscriminator, data[:8])
}

func TestCompileUnlockPlan(t *testing.T) {
	b := &Backend{}
	caller := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	asset := fromPubkey(testMint)
	plan := &protocol.Plan{
		Asset:  asset,
		Caller: fromPubkey(caller),
		Steps: []protocol.Step{
			protocol.BurnStep{Amount: 5_000_000_000},
			protocol.TransferStep{Asset: asset, Amount: 4_975_000_000},
			protocol.TransferStep{Asset: asset, Amount: 12_500_000},
			protocol.TransferStep{Asset: asset, Amount: 12_500_000},
		},
	}

	inst, err := b.compile(plan)
	require.NoError(t, err)

	assert.Len(t, inst.Accounts(), 15)
	assert.Equal(t, uint64(5_000_000_000), instructionAmount(t, inst))

	data, err := inst.Data()
	require.NoError(t, err)
	assert.Equal(t, unlockDiscriminator, data[:8])
}

func TestCompileRejectsMalformedPlan(t *testing.T) {
	b := &Backend{}
	_, err := b.compile(&protocol.Plan{
		Asset:  fromPubkey(testMint),
		Steps:  []protocol.Step{protocol.MintStep{Amount: 1}},
		Caller: fromPubkey(testMint),
	})
	assert.Error(t, err)
}
