package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/twosidefinance/twoside-core/internal/protocol"
	"github.com/twosidefinance/twoside-core/internal/wallet"
)

// Backend executes protocol plans against the deployed Solana program.
// Derivation and reads go straight to the chain; Submit compiles a plan
// into the matching program instruction, since only the program can sign
// for the vault and mint authorities.
type Backend struct {
	client *Client
	wallet *wallet.Wallet
	logger *zap.Logger
}

// NewBackend wires a backend over an RPC client and a signing wallet.
func NewBackend(client *Client, w *wallet.Wallet, logger *zap.Logger) *Backend {
	return &Backend{
		client: client,
		wallet: w,
		logger: logger.Named("solana_backend"),
	}
}

// Submit implements protocol.Backend. The wallet must be the plan's
// caller: the program requires the locking or unlocking party to sign.
func (b *Backend) Submit(ctx context.Context, plan *protocol.Plan) (protocol.TxID, error) {
	if fromPubkey(b.wallet.PublicKey) != plan.Caller {
		return "", fmt.Errorf("wallet %s is not the plan caller", b.wallet.PublicKey)
	}

	instruction, err := b.compile(plan)
	if err != nil {
		return "", fmt.Errorf("compile plan: %w", err)
	}

	tx, err := b.createSignedTransaction(ctx, []solana.Instruction{instruction})
	if err != nil {
		return "", err
	}

	sig, err := b.submitTransaction(ctx, tx)
	if err != nil {
		return "", err
	}

	b.logger.Info("Plan submitted",
		zap.String("asset", plan.Asset.String()),
		zap.String("signature", sig.String()))
	return protocol.TxID(sig.String()), nil
}

// compile maps a plan onto the program instruction that performs it. A
// plan with a burn step is an unlock; everything else is a lock. The
// instruction amount is the gross request amount, which the program
// splits into custody and fee legs itself.
func (b *Backend) compile(plan *protocol.Plan) (solana.Instruction, error) {
	transfers := make([]protocol.TransferStep, 0, 3)
	var burn *protocol.BurnStep
	for _, step := range plan.Steps {
		switch s := step.(type) {
		case protocol.TransferStep:
			transfers = append(transfers, s)
		case protocol.BurnStep:
			burn = &s
		}
	}
	if len(transfers) != 3 {
		return nil, fmt.Errorf("unexpected plan shape: %d transfer steps", len(transfers))
	}

	tokenMint := toPubkey(plan.Asset)
	signer := toPubkey(plan.Caller)

	derivativeMint, _, err := DeriveDerivativeMintPDA(tokenMint)
	if err != nil {
		return nil, err
	}
	derivativeAuthority, _, err := DeriveDerivativeAuthorityPDA(tokenMint)
	if err != nil {
		return nil, err
	}
	tokenInfo, _, err := DeriveTokenInfoPDA(tokenMint)
	if err != nil {
		return nil, err
	}
	vaultAuthority, _, err := DeriveVaultAuthorityPDA(tokenMint)
	if err != nil {
		return nil, err
	}
	globalInfo, _, err := DeriveGlobalInfoPDA()
	if err != nil {
		return nil, err
	}
	vaultATA, _, err := solana.FindAssociatedTokenAddress(vaultAuthority, tokenMint)
	if err != nil {
		return nil, err
	}
	signerTokenATA, _, err := solana.FindAssociatedTokenAddress(signer, tokenMint)
	if err != nil {
		return nil, err
	}
	signerDerivativeATA, _, err := solana.FindAssociatedTokenAddress(signer, derivativeMint)
	if err != nil {
		return nil, err
	}

	// Fee beneficiary accounts ride in the plan: the second transfer pays
	// the developer, the third pays the founder.
	developerATA := toPubkey(transfers[1].To)
	founderATA := toPubkey(transfers[2].To)

	if burn != nil {
		return NewUnlockInstruction(burn.Amount, unlockAccounts{
			TokenMint:           tokenMint,
			DerivativeAuthority: derivativeAuthority,
			DerivativeMint:      derivativeMint,
			Signer:              signer,
			SignerTokenATA:      signerTokenATA,
			SignerDerivativeATA: signerDerivativeATA,
			TokenInfo:           tokenInfo,
			VaultAuthority:      vaultAuthority,
			VaultATA:            vaultATA,
			GlobalInfo:          globalInfo,
			FounderATA:          founderATA,
			DeveloperATA:        developerATA,
		}), nil
	}

	amount := transfers[0].Amount + transfers[1].Amount + transfers[2].Amount

	tokenMetadata, _, err := DeriveMetadataPDA(tokenMint)
	if err != nil {
		return nil, err
	}
	derivativeMetadata, _, err := DeriveMetadataPDA(derivativeMint)
	if err != nil {
		return nil, err
	}
	return NewLockInstruction(amount, lockAccounts{
		TokenMint:           tokenMint,
		TokenMetadata:       tokenMetadata,
		DerivativeAuthority: derivativeAuthority,
		DerivativeMint:      derivativeMint,
		DerivativeMetadata:  derivativeMetadata,
		Signer:              signer,
		SignerTokenATA:      signerTokenATA,
		SignerDerivativeATA: signerDerivativeATA,
		TokenInfo:           tokenInfo,
		VaultAuthority:      vaultAuthority,
		VaultATA:            vaultATA,
		GlobalInfo:          globalInfo,
		FounderATA:          founderATA,
		DeveloperATA:        developerATA,
	}), nil
}

func (b *Backend) createSignedTransaction(ctx context.Context, instructions []solana.Instruction) (*solana.Transaction, error) {
	blockhash, err := b.client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(b.wallet.PublicKey),
	)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if err := b.wallet.SignTransaction(tx); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

// submitTransaction sends tx with retries, rebuilding nothing: the
// blockhash inside stays valid long enough for the retry window.
func (b *Backend) submitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	operation := func() (solana.Signature, error) {
		sig, err := b.client.SendTransaction(ctx, tx)
		if err != nil {
			b.logger.Warn("Transaction submission failed, retrying", zap.Error(err))
			return solana.Signature{}, err
		}
		return sig, nil
	}

	sig, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(15*time.Second),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("submit transaction: %w", err)
	}
	return sig, nil
}
