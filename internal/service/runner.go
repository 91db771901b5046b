package service

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/twosidefinance/twoside-core/internal/chain/evm"
	chainsolana "github.com/twosidefinance/twoside-core/internal/chain/solana"
	"github.com/twosidefinance/twoside-core/internal/config"
	"github.com/twosidefinance/twoside-core/internal/events"
	"github.com/twosidefinance/twoside-core/internal/protocol"
	"github.com/twosidefinance/twoside-core/internal/storage/postgres"
	"github.com/twosidefinance/twoside-core/internal/wallet"
)

// NewFromConfig assembles the full service for the configured chain:
// backend, engine, event bus and, when a DSN is set, the postgres trail.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	backend, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(logger, cfg.EventBuffer)
	store := protocol.NewMemStore()
	engine := protocol.NewEngine(backend, store, bus, logger,
		protocol.WithMinLockValue(cfg.MinLockValue))

	var svc *Service
	if cfg.PostgresURL != "" {
		db, err := postgres.NewStorage(cfg.PostgresURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect storage: %w", err)
		}
		svc = New(engine, bus, db, logger)
	} else {
		svc = New(engine, bus, nil, logger)
	}

	if cfg.WatchEvents {
		svc.AddWatcher(chainsolana.NewWatcher(cfg.WSURL, bus, logger))
	}
	return svc, nil
}

func buildBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (protocol.Backend, error) {
	switch cfg.Chain {
	case "solana":
		w, err := wallet.New(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("load wallet: %w", err)
		}
		client := chainsolana.NewClient(cfg.RPCURL, logger)
		return chainsolana.NewBackend(client, w, logger), nil
	case "evm":
		sender, err := evm.NewRPCSender(ctx, cfg.RPCURL, cfg.PrivateKey, logger)
		if err != nil {
			return nil, fmt.Errorf("build evm sender: %w", err)
		}
		deriver := evm.NewDeriver(
			common.HexToAddress(cfg.EVMDeployer),
			common.HexToHash(cfg.EVMInitCodeHash),
		)
		return evm.NewBackend(deriver, common.HexToAddress(cfg.EVMLocker), sender, logger), nil
	default:
		return nil, fmt.Errorf("unsupported chain %q", cfg.Chain)
	}
}
