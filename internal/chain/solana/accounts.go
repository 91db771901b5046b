package solana

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/twosidefinance/twoside-core/internal/protocol"
)

// On-chain account layouts of the program, borsh-encoded behind an 8-byte
// Anchor discriminator. Field order matches the program's declarations.

// GlobalInfoAccount is the on-chain registry record.
type GlobalInfoAccount struct {
	IsInitialized         bool
	DeveloperWallet       solana.PublicKey
	FounderWallet         solana.PublicKey
	FeePercentage         uint8
	FeePercentageDivider  uint16
	MinFeeForDistribution uint8
	MinFee                uint8
	DeveloperFeeShare     uint8
	FounderFeeShare       uint8
}

// TokenInfoAccount is the on-chain per-asset ledger record.
type TokenInfoAccount struct {
	IsInitialized      bool
	OriginalMint       solana.PublicKey
	Whitelisted        bool
	DerivativeMint     solana.PublicKey
	VaultAuthorityBump uint8
}

// AuthorizedUpdaterInfoAccount is the on-chain updater authorization record.
type AuthorizedUpdaterInfoAccount struct {
	IsInitialized bool
	Key           solana.PublicKey
	Active        bool
}

// accountDiscriminator returns the Anchor discriminator for an account
// struct name: the first 8 bytes of sha256("account:<Name>").
func accountDiscriminator(name string) [8]byte {
	h := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], h[:8])
	return d
}

var (
	globalInfoDiscriminator        = accountDiscriminator("GlobalInfo")
	tokenInfoDiscriminator         = accountDiscriminator("TokenInfo")
	authorizedUpdaterDiscriminator = accountDiscriminator("AuthorizedUpdaterInfo")
)

func decodeAnchorAccount(data []byte, discriminator [8]byte, dst interface{}) error {
	if len(data) < 8 {
		return fmt.Errorf("account data too short: %d bytes", len(data))
	}
	if [8]byte(data[:8]) != discriminator {
		return fmt.Errorf("discriminator mismatch")
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(dst); err != nil {
		return fmt.Errorf("borsh decode: %w", err)
	}
	return nil
}

// DecodeGlobalInfo decodes a GlobalInfo account.
func DecodeGlobalInfo(data []byte) (*GlobalInfoAccount, error) {
	var acc GlobalInfoAccount
	if err := decodeAnchorAccount(data, globalInfoDiscriminator, &acc); err != nil {
		return nil, fmt.Errorf("decode GlobalInfo: %w", err)
	}
	return &acc, nil
}

// DecodeTokenInfo decodes a TokenInfo account.
func DecodeTokenInfo(data []byte) (*TokenInfoAccount, error) {
	var acc TokenInfoAccount
	if err := decodeAnchorAccount(data, tokenInfoDiscriminator, &acc); err != nil {
		return nil, fmt.Errorf("decode TokenInfo: %w", err)
	}
	return &acc, nil
}

// DecodeAuthorizedUpdaterInfo decodes an AuthorizedUpdaterInfo account.
func DecodeAuthorizedUpdaterInfo(data []byte) (*AuthorizedUpdaterInfoAccount, error) {
	var acc AuthorizedUpdaterInfoAccount
	if err := decodeAnchorAccount(data, authorizedUpdaterDiscriminator, &acc); err != nil {
		return nil, fmt.Errorf("decode AuthorizedUpdaterInfo: %w", err)
	}
	return &acc, nil
}

// splMint is the prefix of an SPL token mint account we care about.
type splMint struct {
	MintAuthorityOption uint32
	MintAuthority       solana.PublicKey
	Supply              uint64
	Decimals            uint8
	IsInitialized       bool
}

// metaplexMetadata is the prefix of a Metaplex metadata account. Strings
// are borsh-encoded and padded; trailing padding is stripped on read.
type metaplexMetadata struct {
	Key             uint8
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Name            string
	Symbol          string
	URI             string
}

// FetchTokenInfo reads and decodes the TokenInfo record for mint, or nil
// when the account does not exist yet.
func (b *Backend) FetchTokenInfo(ctx context.Context, mint solana.PublicKey) (*TokenInfoAccount, error) {
	addr, _, err := DeriveTokenInfoPDA(mint)
	if err != nil {
		return nil, err
	}
	result, err := b.client.GetAccountInfo(ctx, addr)
	if err != nil || result == nil || result.Value == nil {
		return nil, nil
	}
	return DecodeTokenInfo(result.Value.Data.GetBinary())
}

// Decimals implements protocol.Backend by reading the SPL mint account.
func (b *Backend) Decimals(ctx context.Context, asset protocol.Address) (uint8, error) {
	mint := toPubkey(asset)
	result, err := b.client.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("get mint account: %w", err)
	}
	if result == nil || result.Value == nil {
		return 0, fmt.Errorf("mint %s not found", mint.String())
	}
	var m splMint
	if err := bin.NewBinDecoder(result.Value.Data.GetBinary()).Decode(&m); err != nil {
		return 0, fmt.Errorf("decode mint: %w", err)
	}
	if !m.IsInitialized {
		return 0, fmt.Errorf("mint %s not initialized", mint.String())
	}
	return m.Decimals, nil
}

// BalanceOf implements protocol.Backend. The account argument is already
// the holding token account; owners are resolved by the core.
func (b *Backend) BalanceOf(ctx context.Context, asset, account protocol.Address) (uint64, error) {
	return b.client.GetTokenAccountBalance(ctx, toPubkey(account))
}

// AssetMetadata implements protocol.Backend by reading the Metaplex
// metadata PDA of the asset and verifying it references the same mint.
func (b *Backend) AssetMetadata(ctx context.Context, asset protocol.Address) (protocol.AssetMetadata, error) {
	mint := toPubkey(asset)
	addr, _, err := DeriveMetadataPDA(mint)
	if err != nil {
		return protocol.AssetMetadata{}, err
	}
	result, err := b.client.GetAccountInfo(ctx, addr)
	if err != nil || result == nil || result.Value == nil {
		return protocol.AssetMetadata{}, protocol.ErrUninitializedMetadata
	}
	if !result.Value.Owner.Equals(MetadataProgramID) {
		return protocol.AssetMetadata{}, protocol.ErrUninitializedMetadata
	}

	var meta metaplexMetadata
	if err := bin.NewBorshDecoder(result.Value.Data.GetBinary()).Decode(&meta); err != nil {
		return protocol.AssetMetadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	if !meta.Mint.Equals(mint) {
		return protocol.AssetMetadata{}, protocol.ErrMetadataMintMismatch
	}

	return protocol.AssetMetadata{
		Name:   strings.TrimRight(meta.Name, "\x00 "),
		Symbol: strings.TrimRight(meta.Symbol, "\x00 "),
		URI:    strings.TrimRight(meta.URI, "\x00 "),
	}, nil
}
