package solana

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"github.com/twosidefinance/twoside-core/internal/events"
	"github.com/twosidefinance/twoside-core/internal/protocol"
)

// Anchor prints emitted events as "Program data: <base64>" log lines. The
// payload is an 8-byte event discriminator followed by the borsh-encoded
// fields.
const programDataPrefix = "Program data: "

// eventDiscriminator returns the Anchor discriminator for an event name:
// the first 8 bytes of sha256("event:<Name>").
func eventDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("event:" + name))
	return h[:8]
}

var (
	assetsLockedEventDisc     = eventDiscriminator("AssetsLocked")
	assetsUnlockedEventDisc   = eventDiscriminator("AssetsUnlocked")
	derivativeMintedEventDisc = eventDiscriminator("DerivativeTokenMinted")
	tokenWhitelistedEventDisc = eventDiscriminator("TokenWhitelisted")
	developerFeeEventDisc     = eventDiscriminator("DeveloperFeeShareDistributed")
	founderFeeEventDisc       = eventDiscriminator("FounderFeeShareDistributed")
)

// Borsh layouts of the program's emitted events.

type lockedEventData struct {
	Account   solana.PublicKey
	Token     solana.PublicKey
	Amount    uint64
	Timestamp int64
}

type derivativeMintedEventData struct {
	Token      solana.PublicKey
	Derivative solana.PublicKey
	Timestamp  int64
}

type tokenWhitelistedEventData struct {
	Token     solana.PublicKey
	Timestamp int64
}

type feeShareEventData struct {
	Wallet    solana.PublicKey
	Token     solana.PublicKey
	Amount    uint64
	Timestamp int64
}

// Watcher subscribes to the program's logs over a websocket endpoint and
// republishes decoded events on the bus, so the off-chain trail also sees
// activity submitted by other parties.
type Watcher struct {
	wsURL     string
	publisher events.Publisher
	logger    *zap.Logger
}

func NewWatcher(wsURL string, publisher events.Publisher, logger *zap.Logger) *Watcher {
	return &Watcher{
		wsURL:     wsURL,
		publisher: publisher,
		logger:    logger.Named("watcher"),
	}
}

// Run keeps one log subscription alive until ctx is cancelled, reconnecting
// with exponential backoff when the endpoint drops.
func (w *Watcher) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	for {
		started := time.Now()
		err := w.watch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(started) > time.Minute {
			bo.Reset()
		}
		w.logger.Warn("Log subscription dropped, reconnecting", zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(bo.NextBackOff()):
		}
	}
}

func (w *Watcher) watch(ctx context.Context) error {
	client, err := ws.Connect(ctx, w.wsURL)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer client.Close()

	sub, err := client.LogsSubscribeMentions(ProgramID, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("logs subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	w.logger.Info("Watching program logs",
		zap.String("program", ProgramID.String()),
		zap.String("endpoint", w.wsURL))

	for {
		got, err := sub.Recv(ctx)
		if err != nil {
			return fmt.Errorf("log subscription read: %w", err)
		}
		if got == nil || got.Value.Err != nil {
			continue
		}
		w.handleLogs(got.Value.Signature, got.Value.Logs)
	}
}

func (w *Watcher) handleLogs(signature solana.Signature, logs []string) {
	tx := protocol.TxID(signature.String())
	for _, line := range logs {
		encoded, ok := strings.CutPrefix(line, programDataPrefix)
		if !ok {
			continue
		}
		payload, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(payload) < 8 {
			continue
		}
		event, err := decodeEvent(payload, tx)
		if err != nil {
			w.logger.Warn("Undecodable program event",
				zap.String("tx", string(tx)), zap.Error(err))
			continue
		}
		if event == nil {
			continue
		}
		if err := w.publisher.Publish(event); err != nil {
			w.logger.Warn("Failed to publish chain event",
				zap.String("tx", string(tx)), zap.Error(err))
		}
	}
}

// decodeEvent maps one "Program data:" payload to a protocol event. Unknown
// discriminators return (nil, nil): the program may log events this build
// does not track.
func decodeEvent(payload []byte, tx protocol.TxID) (events.Event, error) {
	disc, body := payload[:8], payload[8:]

	switch {
	case bytes.Equal(disc, assetsLockedEventDisc):
		var d lockedEventData
		if err := bin.NewBorshDecoder(body).Decode(&d); err != nil {
			return nil, fmt.Errorf("decode AssetsLocked: %w", err)
		}
		return &protocol.AssetsLockedEvent{
			BaseEvent: chainBaseEvent(events.AssetsLocked, d.Timestamp),
			Account:   fromPubkey(d.Account),
			Token:     fromPubkey(d.Token),
			Amount:    d.Amount,
			Tx:        tx,
		}, nil

	case bytes.Equal(disc, assetsUnlockedEventDisc):
		var d lockedEventData
		if err := bin.NewBorshDecoder(body).Decode(&d); err != nil {
			return nil, fmt.Errorf("decode AssetsUnlocked: %w", err)
		}
		return &protocol.AssetsUnlockedEvent{
			BaseEvent: chainBaseEvent(events.AssetsUnlocked, d.Timestamp),
			Account:   fromPubkey(d.Account),
			Token:     fromPubkey(d.Token),
			Amount:    d.Amount,
			Tx:        tx,
		}, nil

	case bytes.Equal(disc, derivativeMintedEventDisc):
		var d derivativeMintedEventData
		if err := bin.NewBorshDecoder(body).Decode(&d); err != nil {
			return nil, fmt.Errorf("decode DerivativeTokenMinted: %w", err)
		}
		return &protocol.DerivativeMintedEvent{
			BaseEvent:  chainBaseEvent(events.DerivativeMinted, d.Timestamp),
			Token:      fromPubkey(d.Token),
			Derivative: fromPubkey(d.Derivative),
			Tx:         tx,
		}, nil

	case bytes.Equal(disc, tokenWhitelistedEventDisc):
		var d tokenWhitelistedEventData
		if err := bin.NewBorshDecoder(body).Decode(&d); err != nil {
			return nil, fmt.Errorf("decode TokenWhitelisted: %w", err)
		}
		return &protocol.TokenWhitelistedEvent{
			BaseEvent: chainBaseEvent(events.TokenWhitelisted, d.Timestamp),
			Token:     fromPubkey(d.Token),
		}, nil

	case bytes.Equal(disc, developerFeeEventDisc):
		var d feeShareEventData
		if err := bin.NewBorshDecoder(body).Decode(&d); err != nil {
			return nil, fmt.Errorf("decode DeveloperFeeShareDistributed: %w", err)
		}
		return &protocol.DeveloperFeeShareEvent{
			BaseEvent:       chainBaseEvent(events.DeveloperFeeShared, d.Timestamp),
			DeveloperWallet: fromPubkey(d.Wallet),
			Token:           fromPubkey(d.Token),
			Amount:          d.Amount,
			Tx:              tx,
		}, nil

	case bytes.Equal(disc, founderFeeEventDisc):
		var d feeShareEventData
		if err := bin.NewBorshDecoder(body).Decode(&d); err != nil {
			return nil, fmt.Errorf("decode FounderFeeShareDistributed: %w", err)
		}
		return &protocol.FounderFeeShareEvent{
			BaseEvent:     chainBaseEvent(events.FounderFeeShared, d.Timestamp),
			FounderWallet: fromPubkey(d.Wallet),
			Token:         fromPubkey(d.Token),
			Amount:        d.Amount,
			Tx:            tx,
		}, nil
	}

	return nil, nil
}

func chainBaseEvent(t events.EventType, unixSeconds int64) events.BaseEvent {
	return events.BaseEvent{EventType: t, EventTime: time.Unix(unixSeconds, 0).UTC()}
}
