package evm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twosidefinance/twoside-core/internal/protocol"
)

func testDeriver() *Deriver {
	deployer := common.HexToAddress("0x00000000000000000000000000000000000Fac70")
	initCodeHash := crypto.Keccak256Hash([]byte("init-code"))
	return NewDeriver(deployer, initCodeHash)
}

func TestDeriveDeterministic(t *testing.T) {
	d := testDeriver()
	asset := fromEthAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))

	first, err := d.Derive(protocol.SeedDerivativeMint, asset)
	require.NoError(t, err)
	second, err := d.Derive(protocol.SeedDerivativeMint, asset)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, first.Address.IsZero())
}

func TestDeriveDistinctPerTagAndAsset(t *testing.T) {
	d := testDeriver()
	assetA := fromEthAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))
	assetB := fromEthAddress(common.HexToAddress("0x2222222222222222222222222222222222222222"))

	mintA, err := d.Derive(protocol.SeedDerivativeMint, assetA)
	require.NoError(t, err)
	vaultA, err := d.Derive(protocol.SeedVaultAuthority, assetA)
	require.NoError(t, err)
	mintB, err := d.Derive(protocol.SeedDerivativeMint, assetB)
	require.NoError(t, err)

	assert.NotEqual(t, mintA.Address, vaultA.Address)
	assert.NotEqual(t, mintA.Address, mintB.Address)
}

func TestDeriveMatchesCreate2(t *testing.T) {
	d := testDeriver()
	asset := fromEthAddress(common.HexToAddress("0x3333333333333333333333333333333333333333"))

	derived, err := d.Derive(protocol.SeedVaultAuthority, asset)
	require.NoError(t, err)

	want := crypto.CreateAddress2(
		common.HexToAddress("0x00000000000000000000000000000000000Fac70"),
		salt(protocol.SeedVaultAuthority, &asset),
		crypto.Keccak256Hash([]byte("init-code")).Bytes(),
	)
	assert.Equal(t, want, toEthAddress(derived.Address))
	// Derived addresses are 20 bytes wide, left-padded to 32.
	assert.Equal(t, [12]byte{}, [12]byte(derived.Address[:12]))
}

func TestDeriveStatic(t *testing.T) {
	d := testDeriver()

	global, err := d.DeriveStatic(protocol.SeedGlobalInfo)
	require.NoError(t, err)
	again, err := d.DeriveStatic(protocol.SeedGlobalInfo)
	require.NoError(t, err)

	assert.Equal(t, global, again)
}

func TestAssociatedAccountIsOwner(t *testing.T) {
	d := testDeriver()
	owner := fromEthAddress(common.HexToAddress("0x4444444444444444444444444444444444444444"))
	asset := fromEthAddress(common.HexToAddress("0x5555555555555555555555555555555555555555"))

	got, err := d.AssociatedAccount(owner, asset)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}
