package solana

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// The adapter compiles a core plan into the deployed program's own
// instruction rather than loose SPL calls: custody and mint authorities
// are PDAs only the program can sign for. Instruction data is the Anchor
// layout, an 8-byte discriminator followed by borsh-encoded arguments.

// instructionDiscriminator returns the Anchor discriminator for a global
// instruction name: the first 8 bytes of sha256("global:<name>").
func instructionDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("global:" + name))
	return h[:8]
}

var (
	lockDiscriminator                 = instructionDiscriminator("lock")
	unlockDiscriminator               = instructionDiscriminator("unlock")
	whitelistDiscriminator            = instructionDiscriminator("whitelist")
	initializeProgramDiscriminator    = instructionDiscriminator("initialize_program")
	addAuthorizedUpdaterDiscriminator = instructionDiscriminator("add_authorized_updater")
)

func amountData(discriminator []byte, amount uint64) []byte {
	data := make([]byte, 0, 16)
	data = append(data, discriminator...)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], amount)
	return append(data, buf[:]...)
}

// lockAccounts is the full account list of the program's lock instruction,
// in declaration order.
type lockAccounts struct {
	TokenMint           solana.PublicKey
	TokenMetadata       solana.PublicKey
	DerivativeAuthority solana.PublicKey
	DerivativeMint      solana.PublicKey
	DerivativeMetadata  solana.PublicKey
	Signer              solana.PublicKey
	SignerTokenATA      solana.PublicKey
	SignerDerivativeATA solana.PublicKey
	TokenInfo           solana.PublicKey
	VaultAuthority      solana.PublicKey
	VaultATA            solana.PublicKey
	GlobalInfo          solana.PublicKey
	FounderATA          solana.PublicKey
	DeveloperATA        solana.PublicKey
}

// NewLockInstruction builds the program's lock instruction.
func NewLockInstruction(amount uint64, accs lockAccounts) solana.Instruction {
	metas := solana.AccountMetaSlice{
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
		solana.Meta(MetadataProgramID),
		solana.Meta(solana.SysVarInstructionsPubkey),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(accs.TokenMint).WRITE(),
		solana.Meta(accs.TokenMetadata).WRITE(),
		solana.Meta(accs.DerivativeAuthority),
		solana.Meta(accs.DerivativeMint).WRITE(),
		solana.Meta(accs.DerivativeMetadata).WRITE(),
		solana.Meta(accs.Signer).WRITE().SIGNER(),
		solana.Meta(accs.SignerTokenATA).WRITE(),
		solana.Meta(accs.SignerDerivativeATA).WRITE(),
		solana.Meta(accs.TokenInfo).WRITE(),
		solana.Meta(accs.VaultAuthority),
		solana.Meta(accs.VaultATA).WRITE(),
		solana.Meta(accs.GlobalInfo).WRITE(),
		solana.Meta(accs.FounderATA).WRITE(),
		solana.Meta(accs.DeveloperATA).WRITE(),
	}
	return solana.NewInstruction(ProgramID, metas, amountData(lockDiscriminator, amount))
}

// unlockAccounts is the account list of the unlock instruction.
type unlockAccounts struct {
	TokenMint           solana.PublicKey
	DerivativeAuthority solana.PublicKey
	DerivativeMint      solana.PublicKey
	Signer              solana.PublicKey
	SignerTokenATA      solana.PublicKey
	SignerDerivativeATA solana.PublicKey
	TokenInfo           solana.PublicKey
	VaultAuthority      solana.PublicKey
	VaultATA            solana.PublicKey
	GlobalInfo          solana.PublicKey
	FounderATA          solana.PublicKey
	DeveloperATA        solana.PublicKey
}

// NewUnlockInstruction builds the program's unlock instruction.
func NewUnlockInstruction(amount uint64, accs unlockAccounts) solana.Instruction {
	metas := solana.AccountMetaSlice{
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
		solana.Meta(accs.TokenMint).WRITE(),
		solana.Meta(accs.DerivativeAuthority),
		solana.Meta(accs.DerivativeMint).WRITE(),
		solana.Meta(accs.Signer).WRITE().SIGNER(),
		solana.Meta(accs.SignerTokenATA).WRITE(),
		solana.Meta(accs.SignerDerivativeATA).WRITE(),
		solana.Meta(accs.TokenInfo).WRITE(),
		solana.Meta(accs.VaultAuthority),
		solana.Meta(accs.VaultATA).WRITE(),
		solana.Meta(accs.GlobalInfo).WRITE(),
		solana.Meta(accs.FounderATA).WRITE(),
		solana.Meta(accs.DeveloperATA).WRITE(),
	}
	return solana.NewInstruction(ProgramID, metas, amountData(unlockDiscriminator, amount))
}

// NewInitializeProgramInstruction builds the registry creation instruction.
func NewInitializeProgramInstruction(signer, developerWallet, founderWallet solana.PublicKey) (solana.Instruction, error) {
	globalInfo, _, err := DeriveGlobalInfoPDA()
	if err != nil {
		return nil, err
	}
	data := append([]byte{}, initializeProgramDiscriminator...)
	data = append(data, developerWallet.Bytes()...)
	data = append(data, founderWallet.Bytes()...)

	metas := solana.AccountMetaSlice{
		solana.Meta(solana.SystemProgramID),
		solana.Meta(signer).WRITE().SIGNER(),
		solana.Meta(globalInfo).WRITE(),
	}
	return solana.NewInstruction(ProgramID, metas, data), nil
}

// NewWhitelistInstruction builds the whitelist instruction for mint,
// signed by an authorized updater.
func NewWhitelistInstruction(signer, mint solana.PublicKey) (solana.Instruction, error) {
	updaterInfo, _, err := DeriveAuthorizedUpdaterPDA(signer)
	if err != nil {
		return nil, err
	}
	tokenInfo, _, err := DeriveTokenInfoPDA(mint)
	if err != nil {
		return nil, err
	}
	vaultAuthority, _, err := DeriveVaultAuthorityPDA(mint)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		solana.Meta(solana.SystemProgramID),
		solana.Meta(mint),
		solana.Meta(updaterInfo).WRITE(),
		solana.Meta(signer).WRITE().SIGNER(),
		solana.Meta(tokenInfo).WRITE(),
		solana.Meta(vaultAuthority),
	}
	return solana.NewInstruction(ProgramID, metas, append([]byte{}, whitelistDiscriminator...)), nil
}

// NewAddAuthorizedUpdaterInstruction builds the updater grant instruction.
func NewAddAuthorizedUpdaterInstruction(signer, updater solana.PublicKey) (solana.Instruction, error) {
	updaterInfo, _, err := DeriveAuthorizedUpdaterPDA(updater)
	if err != nil {
		return nil, err
	}
	globalInfo, _, err := DeriveGlobalInfoPDA()
	if err != nil {
		return nil, err
	}
	data := append([]byte{}, addAuthorizedUpdaterDiscriminator...)
	data = append(data, updater.Bytes()...)

	metas := solana.AccountMetaSlice{
		solana.Meta(solana.SystemProgramID),
		solana.Meta(signer).WRITE().SIGNER(),
		solana.Meta(updaterInfo).WRITE(),
		solana.Meta(globalInfo),
	}
	return solana.NewInstruction(ProgramID, metas, data), nil
}
