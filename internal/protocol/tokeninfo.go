package protocol

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/twosidefinance/twoside-core/internal/events"
)

// Whitelist permits asset to be locked. The signer must be the founder
// wallet or hold an active AuthorizedUpdaterInfo record; the record is
// looked up fresh, never trusted from the caller. Whitelisting an asset
// that is already whitelisted fails with ErrAlreadyWhitelisted.
func (e *Engine) Whitelist(ctx context.Context, signer, asset Address) error {
	if asset.IsZero() {
		return ErrInvalidPubkey
	}

	g, ok := e.store.Global()
	if !ok || !g.IsInitialized {
		return ErrNotInitialized
	}
	if !e.canWhitelist(signer, g) {
		return ErrNotAuthorized
	}

	unlock := e.lockAsset(asset)
	defer unlock()

	if info, ok := e.store.TokenInfo(asset); ok && info.Whitelisted {
		return ErrAlreadyWhitelisted
	}

	// The asset must exist on the host ledger before it can be admitted.
	if _, err := e.backend.Decimals(ctx, asset); err != nil {
		return fmt.Errorf("asset not initialized on ledger: %w", err)
	}

	vaultAuthority, err := e.backend.Derive(SeedVaultAuthority, asset)
	if err != nil {
		return fmt.Errorf("derive vault authority: %w", err)
	}

	e.store.PutTokenInfo(TokenInfo{
		IsInitialized:      true,
		OriginalAsset:      asset,
		Whitelisted:        true,
		Derivative:         ZeroAddress,
		VaultAuthorityBump: vaultAuthority.Bump,
	})

	e.logger.Info("Token whitelisted",
		zap.String("asset", asset.Short()),
		zap.String("vault_authority", vaultAuthority.Address.Short()))

	e.publish(&TokenWhitelistedEvent{
		BaseEvent: baseEvent(events.TokenWhitelisted, e.now()),
		Token:     asset,
	})
	return nil
}

// canWhitelist reports whether signer may whitelist assets: the founder
// wallet always can, anyone else needs an active updater record.
func (e *Engine) canWhitelist(signer Address, g GlobalInfo) bool {
	if signer == g.FounderWallet {
		return true
	}
	info, ok := e.store.Updater(signer)
	return ok && info.IsInitialized && info.Active && info.Key == signer
}
