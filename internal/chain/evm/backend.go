package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/twosidefinance/twoside-core/internal/protocol"
)

// Sender abstracts transaction submission and read-only calls. The
// concrete implementation (nonce management, gas, signing) lives in the
// deployment's submission layer.
type Sender interface {
	// Call executes a read-only call against contract and returns the
	// raw return data.
	Call(ctx context.Context, contract common.Address, data []byte) ([]byte, error)
	// Send submits a state-changing call and returns its transaction hash.
	Send(ctx context.Context, contract common.Address, data []byte) (string, error)
}

const erc20ABIJSON = `[
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]}
]`

const lockerABIJSON = `[
	{"name":"lock","type":"function","stateMutability":"nonpayable","inputs":[{"type":"address"},{"type":"uint256"}],"outputs":[]},
	{"name":"unlock","type":"function","stateMutability":"nonpayable","inputs":[{"type":"address"},{"type":"uint256"}],"outputs":[]}
]`

var (
	erc20ABI  = mustABI(erc20ABIJSON)
	lockerABI = mustABI(lockerABIJSON)
)

func mustABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Backend executes protocol plans against the deployed locker contract.
// Fee routing and derivative creation happen inside the contract, so a
// whole plan collapses to one lock or unlock call.
type Backend struct {
	*Deriver
	locker common.Address
	sender Sender
	logger *zap.Logger
}

// NewBackend wires a backend over the locker contract and a sender.
func NewBackend(deriver *Deriver, locker common.Address, sender Sender, logger *zap.Logger) *Backend {
	return &Backend{
		Deriver: deriver,
		locker:  locker,
		sender:  sender,
		logger:  logger.Named("evm_backend"),
	}
}

// Decimals implements protocol.Backend.
func (b *Backend) Decimals(ctx context.Context, asset protocol.Address) (uint8, error) {
	out, err := b.view(ctx, asset, "decimals")
	if err != nil {
		return 0, err
	}
	return out[0].(uint8), nil
}

// BalanceOf implements protocol.Backend. On EVM the holding account is
// the owner address itself.
func (b *Backend) BalanceOf(ctx context.Context, asset, account protocol.Address) (uint64, error) {
	out, err := b.view(ctx, asset, "balanceOf", toEthAddress(account))
	if err != nil {
		return 0, err
	}
	balance := out[0].(*big.Int)
	if !balance.IsUint64() {
		return 0, protocol.ErrOverflow
	}
	return balance.Uint64(), nil
}

// AssetMetadata implements protocol.Backend. ERC20 carries no URI; tokens
// without name and symbol are treated as lacking metadata.
func (b *Backend) AssetMetadata(ctx context.Context, asset protocol.Address) (protocol.AssetMetadata, error) {
	nameOut, err := b.view(ctx, asset, "name")
	if err != nil {
		return protocol.AssetMetadata{}, protocol.ErrUninitializedMetadata
	}
	symbolOut, err := b.view(ctx, asset, "symbol")
	if err != nil {
		return protocol.AssetMetadata{}, protocol.ErrUninitializedMetadata
	}
	return protocol.AssetMetadata{
		Name:   nameOut[0].(string),
		Symbol: symbolOut[0].(string),
	}, nil
}

// Submit implements protocol.Backend. A plan with a burn step is an
// unlock, otherwise a lock; the call amount is the gross request amount.
func (b *Backend) Submit(ctx context.Context, plan *protocol.Plan) (protocol.TxID, error) {
	var (
		method string
		amount uint64
	)
	for _, step := range plan.Steps {
		switch s := step.(type) {
		case protocol.BurnStep:
			method = "unlock"
			amount = s.Amount
		case protocol.TransferStep:
			if method == "" {
				amount += s.Amount
			}
		}
	}
	if method == "" {
		method = "lock"
	}

	data, err := lockerABI.Pack(method, toEthAddress(plan.Asset), new(big.Int).SetUint64(amount))
	if err != nil {
		return "", fmt.Errorf("pack %s call: %w", method, err)
	}
	txHash, err := b.sender.Send(ctx, b.locker, data)
	if err != nil {
		return "", fmt.Errorf("send %s: %w", method, err)
	}

	b.logger.Info("Plan submitted",
		zap.String("method", method),
		zap.String("asset", plan.Asset.String()),
		zap.String("tx", txHash))
	return protocol.TxID(txHash), nil
}

func (b *Backend) view(ctx context.Context, token protocol.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s call: %w", method, err)
	}
	raw, err := b.sender.Call(ctx, toEthAddress(token), data)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := erc20ABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	return out, nil
}
