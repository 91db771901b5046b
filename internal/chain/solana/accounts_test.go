package solana

import (
	"bytes"
	"crypto/sha256"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeAccount(t *testing.T, discriminator [8]byte, v interface{}) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	buf.Write(discriminator[:])
	require.NoError(t, bin.NewBorshEncoder(buf).Encode(v))
	return buf.Bytes()
}

func TestAccountDiscriminator(t *testing.T) {
	// First 8 bytes of sha256("account:GlobalInfo").
	h := sha256.Sum256([]byte("account:GlobalInfo"))
	assert.Equal(t, [8]byte(h[:8]), globalInfoDiscriminator)
	assert.NotEqual(t, globalInfoDiscriminator, tokenInfoDiscriminator)
	assert.NotEqual(t, tokenInfoDiscriminator, authorizedUpdaterDiscriminator)
}

func TestDecodeGlobalInfo(t *testing.T) {
	want := GlobalInfoAccount{
		IsInitialized:         true,
		DeveloperWallet:       solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"),
		FounderWallet:         testMint,
		FeePercentage:         5,
		FeePercentageDivider:  1000,
		MinFeeForDistribution: 2,
		MinFee:                2,
		DeveloperFeeShare:     50,
		FounderFeeShare:       50,
	}
	data := encodeAccount(t, globalInfoDiscriminator, want)

	got, err := DecodeGlobalInfo(data)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestDecodeTokenInfo(t *testing.T) {
	derivative, _, err := DeriveDerivativeMintPDA(testMint)
	require.NoError(t, err)
	want := TokenInfoAccount{
		IsInitialized:      true,
		OriginalMint:       testMint,
		Whitelisted:        true,
		DerivativeMint:     derivative,
		VaultAuthorityBump: 254,
	}
	data := encodeAccount(t, tokenInfoDiscriminator, want)

	got, err := DecodeTokenInfo(data)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestDecodeAuthorizedUpdaterInfo(t *testing.T) {
	want := AuthorizedUpdaterInfoAccount{
		IsInitialized: true,
		Key:           testMint,
		Active:        true,
	}
	data := encodeAccount(t, authorizedUpdaterDiscriminator, want)

	got, err := DecodeAuthorizedUpdaterInfo(data)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestDecodeRejectsWrongDiscriminator(t *testing.T) {
	data := encodeAccount(t, tokenInfoDiscriminator, GlobalInfoAccount{})
	_, err := DecodeGlobalInfo(data)
	assert.Error(t, err)
}

func TestDecodeRejectsShortData(t *testing.T) {
	_, err := DecodeTokenInfo([]byte{1, 2, 3})
	assert.Error(t, err)
}
