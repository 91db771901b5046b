package solana

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionDiscriminators(t *testing.T) {
	h := sha256.Sum256([]byte("global:lock"))
	assert.Equal(t, h[:8], lockDiscriminator)

	h = sha256.Sum256([]byte("global:unlock"))
	assert.Equal(t, h[:8], unlockDiscriminator)

	h = sha256.Sum256([]byte("global:initialize_program"))
	assert.Equal(t, h[:8], initializeProgramDiscriminator)
}

func TestAmountData(t *testing.T) {
	data := amountData(lockDiscriminator, 10_000_000_000)
	require.Len(t, data, 16)
	assert.Equal(t, lockDiscriminator, data[:8])
	assert.Equal(t, uint64(10_000_000_000), binary.LittleEndian.Uint64(data[8:]))
}

func TestNewLockInstructionShape(t *testing.T) {
	signer := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	inst := NewLockInstruction(1_000, lockAccounts{
		TokenMint: testMint,
		Signer:    signer,
	})

	assert.Equal(t, ProgramID, inst.ProgramID())

	accounts := inst.Accounts()
	require.Len(t, accounts, 20)
	// Programs and sysvars lead, in declaration order.
	assert.Equal(t, solana.SystemProgramID, accounts[0].PublicKey)
	assert.Equal(t, solana.TokenProgramID, accounts[1].PublicKey)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, accounts[2].PublicKey)
	assert.Equal(t, MetadataProgramID, accounts[3].PublicKey)
	assert.Equal(t, testMint, accounts[6].PublicKey)
	assert.True(t, accounts[6].IsWritable)

	assert.Equal(t, signer, accounts[11].PublicKey)
	assert.True(t, accounts[11].IsSigner)
	assert.True(t, accounts[11].IsWritable)

	data, err := inst.Data()
	require.NoError(t, err)
	assert.Equal(t, amountData(lockDiscriminator, 1_000), data)
}

func TestNewUnlockInstructionShape(t *testing.T) {
	signer := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	inst := NewUnlockInstruction(500, unlockAccounts{
		TokenMint: testMint,
		Signer:    signer,
	})

	accounts := inst.Accounts()
	require.Len(t, accounts, 15)
	assert.Equal(t, testMint, accounts[3].PublicKey)
	assert.Equal(t, signer, accounts[6].PublicKey)
	assert.True(t, accounts[6].IsSigner)

	data, err := inst.Data()
	require.NoError(t, err)
	assert.Equal(t, amountData(unlockDiscriminator, 500), data)
}

func TestNewInitializeProgramInstruction(t *testing.T) {
	signer := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	inst, err := NewInitializeProgramInstruction(signer, signer, signer)
	require.NoError(t, err)

	globalInfo, _, err := DeriveGlobalInfoPDA()
	require.NoError(t, err)

	accounts := inst.Accounts()
	require.Len(t, accounts, 3)
	assert.Equal(t, globalInfo, accounts[2].PublicKey)

	data, err := inst.Data()
	require.NoError(t, err)
	// Discriminator plus the two beneficiary pubkeys.
	require.Len(t, data, 8+32+32)
	assert.Equal(t, initializeProgramDiscriminator, data[:8])
	assert.Equal(t, signer.Bytes(), data[8:40])
}

func TestNewWhitelistInstruction(t *testing.T) {
	signer := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	inst, err := NewWhitelistInstruction(signer, testMint)
	require.NoError(t, err)

	tokenInfo, _, err := DeriveTokenInfoPDA(testMint)
	require.NoError(t, err)

	accounts := inst.Accounts()
	require.Len(t, accounts, 6)
	assert.Equal(t, testMint, accounts[1].PublicKey)
	assert.Equal(t, tokenInfo, accounts[4].PublicKey)

	data, err := inst.Data()
	require.NoError(t, err)
	assert.Equal(t, whitelistDiscriminator, data)
}
