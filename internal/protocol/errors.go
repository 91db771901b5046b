package protocol

import "errors"

// Typed rejection reasons. Every failure is detected before any state
// mutation, so a returned error always means the ledger is unchanged.
// The codes mirror the on-chain program's error set so client tooling can
// render the same messages for every flavour of the protocol.
var (
	ErrNotAuthorized              = errors.New("account not authorized")
	ErrZeroAmountValue            = errors.New("amount value is zero")
	ErrInvalidPubkey              = errors.New("pubkey cannot be the default value")
	ErrInvalidAmount              = errors.New("amount below minimum lock value")
	ErrNoDerivativeDeployed       = errors.New("derivative not minted")
	ErrInvalidDerivativeAddress   = errors.New("derivative is not for this token")
	ErrNotWhitelisted             = errors.New("token not whitelisted")
	ErrUninitializedMetadata      = errors.New("token metadata not initialized")
	ErrMetadataMintMismatch       = errors.New("metadata is not for the token submitted")
	ErrInvalidATA                 = errors.New("associated token account is invalid")
	ErrAlreadyInitialized         = errors.New("already initialized")
	ErrAlreadyWhitelisted         = errors.New("token already whitelisted")
	ErrNotInitialized             = errors.New("program not initialized")
	ErrAmountInsufficientAfterFee = errors.New("fee >= amount: insufficient after fee")
	ErrOverflow                   = errors.New("arithmetic overflow")
	ErrInsufficientVaultBalance   = errors.New("vault balance insufficient for requested release")
)
