// Package solana adapts the Twoside protocol core to the Solana flavour of
// the deployment: program-derived addresses, SPL token instructions and
// transaction submission through an RPC node.
package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/twosidefinance/twoside-core/internal/protocol"
)

// ProgramID is the deployed Twoside program.
var ProgramID = solana.MustPublicKeyFromBase58("Dua4QHV8oHr8Mxna9jngcTgACVVpitrAdDK4xVHufjCG")

// MetadataProgramID is the Metaplex token metadata program.
var MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

var (
	seedGlobalInfo          = []byte("global_info")
	seedTokenInfo           = []byte("token_info")
	seedVaultAuthority      = []byte("vault_authority")
	seedAuthorizedUpdater   = []byte("authorized_updater_info")
	seedDerivativeAuthority = []byte("derivative_authority")
	seedDerivativeMint      = []byte("derivative_mint")
	seedMetadata            = []byte("metadata")
)

var seedBytes = map[protocol.Seed][]byte{
	protocol.SeedGlobalInfo:          seedGlobalInfo,
	protocol.SeedTokenInfo:           seedTokenInfo,
	protocol.SeedVaultAuthority:      seedVaultAuthority,
	protocol.SeedAuthorizedUpdater:   seedAuthorizedUpdater,
	protocol.SeedDerivativeAuthority: seedDerivativeAuthority,
	protocol.SeedDerivativeMint:      seedDerivativeMint,
	protocol.SeedMetadata:            seedMetadata,
}

// DeriveGlobalInfoPDA returns the singleton registry account.
func DeriveGlobalInfoPDA() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedGlobalInfo}, ProgramID)
}

// DeriveTokenInfoPDA returns the per-asset ledger record account.
func DeriveTokenInfoPDA(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedTokenInfo, mint.Bytes()}, ProgramID)
}

// DeriveVaultAuthorityPDA returns the custody authority for mint's vault.
func DeriveVaultAuthorityPDA(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedVaultAuthority, mint.Bytes()}, ProgramID)
}

// DeriveAuthorizedUpdaterPDA returns the authorization record for updater.
func DeriveAuthorizedUpdaterPDA(updater solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedAuthorizedUpdater, updater.Bytes()}, ProgramID)
}

// DeriveDerivativeAuthorityPDA returns the mint/freeze authority of the
// derivative tied to mint.
func DeriveDerivativeAuthorityPDA(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedDerivativeAuthority, mint.Bytes()}, ProgramID)
}

// DeriveDerivativeMintPDA returns the derivative mint derived from mint.
func DeriveDerivativeMintPDA(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedDerivativeMint, mint.Bytes()}, ProgramID)
}

// DeriveMetadataPDA returns the Metaplex metadata account for mint, owned
// by the metadata program.
func DeriveMetadataPDA(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{seedMetadata, MetadataProgramID.Bytes(), mint.Bytes()},
		MetadataProgramID,
	)
}

// Derive implements protocol.Deriver over the program's seed constants.
func (b *Backend) Derive(tag protocol.Seed, asset protocol.Address) (protocol.Derived, error) {
	seed, ok := seedBytes[tag]
	if !ok {
		return protocol.Derived{}, fmt.Errorf("unknown derivation tag %q", tag)
	}

	mint := toPubkey(asset)
	var (
		addr solana.PublicKey
		bump uint8
		err  error
	)
	if tag == protocol.SeedMetadata {
		addr, bump, err = DeriveMetadataPDA(mint)
	} else {
		addr, bump, err = solana.FindProgramAddress([][]byte{seed, mint.Bytes()}, ProgramID)
	}
	if err != nil {
		return protocol.Derived{}, fmt.Errorf("derive %s: %w", tag, err)
	}
	return protocol.Derived{Address: fromPubkey(addr), Bump: bump}, nil
}

// DeriveStatic implements protocol.Deriver for singleton accounts.
func (b *Backend) DeriveStatic(tag protocol.Seed) (protocol.Derived, error) {
	seed, ok := seedBytes[tag]
	if !ok {
		return protocol.Derived{}, fmt.Errorf("unknown derivation tag %q", tag)
	}
	addr, bump, err := solana.FindProgramAddress([][]byte{seed}, ProgramID)
	if err != nil {
		return protocol.Derived{}, fmt.Errorf("derive %s: %w", tag, err)
	}
	return protocol.Derived{Address: fromPubkey(addr), Bump: bump}, nil
}

// AssociatedAccount implements protocol.Deriver via the SPL associated
// token account derivation.
func (b *Backend) AssociatedAccount(owner, asset protocol.Address) (protocol.Address, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(toPubkey(owner), toPubkey(asset))
	if err != nil {
		return protocol.Address{}, fmt.Errorf("derive associated token account: %w", err)
	}
	return fromPubkey(ata), nil
}

func toPubkey(a protocol.Address) solana.PublicKey {
	return solana.PublicKeyFromBytes(a[:])
}

func fromPubkey(pk solana.PublicKey) protocol.Address {
	return protocol.AddressFromBytes(pk.Bytes())
}
