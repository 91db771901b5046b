package solana

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/twosidefinance/twoside-core/internal/events"
	"github.com/twosidefinance/twoside-core/internal/protocol"
)

type capturePublisher struct {
	published []events.Event
}

func (c *capturePublisher) Publish(e events.Event) error {
	c.published = append(c.published, e)
	return nil
}

func encodeEventLog(t *testing.T, disc []byte, v interface{}) string {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(disc)
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(v))
	return programDataPrefix + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestEventDiscriminators(t *testing.T) {
	// Anchor hashes "event:<Name>"; distinct names must never collide.
	seen := map[string]bool{}
	for _, disc := range [][]byte{
		assetsLockedEventDisc, assetsUnlockedEventDisc, derivativeMintedEventDisc,
		tokenWhitelistedEventDisc, developerFeeEventDisc, founderFeeEventDisc,
	} {
		require.Len(t, disc, 8)
		assert.False(t, seen[string(disc)])
		seen[string(disc)] = true
	}
}

func TestDecodeLockedEvent(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	token := solana.NewWallet().PublicKey()
	emitted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	line := encodeEventLog(t, assetsLockedEventDisc, lockedEventData{
		Account:   account,
		Token:     token,
		Amount:    10_000_000_000,
		Timestamp: emitted.Unix(),
	})

	payload, err := base64.StdEncoding.DecodeString(line[len(programDataPrefix):])
	require.NoError(t, err)

	event, err := decodeEvent(payload, "sig-1")
	require.NoError(t, err)

	locked, ok := event.(*protocol.AssetsLockedEvent)
	require.True(t, ok)
	assert.Equal(t, events.AssetsLocked, locked.Type())
	assert.Equal(t, fromPubkey(account), locked.Account)
	assert.Equal(t, fromPubkey(token), locked.Token)
	assert.Equal(t, uint64(10_000_000_000), locked.Amount)
	assert.Equal(t, protocol.TxID("sig-1"), locked.Tx)
	assert.Equal(t, emitted, locked.Timestamp())
}

func TestDecodeUnknownEventSkipped(t *testing.T) {
	payload := append(eventDiscriminator("SomethingElse"), make([]byte, 40)...)

	event, err := decodeEvent(payload, "sig-2")
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestDecodeTruncatedEvent(t *testing.T) {
	payload := append([]byte{}, assetsLockedEventDisc...)
	payload = append(payload, 0x01, 0x02)

	_, err := decodeEvent(payload, "sig-3")
	assert.Error(t, err)
}

func TestHandleLogsPublishesDecodedEvents(t *testing.T) {
	pub := &capturePublisher{}
	w := NewWatcher("ws://localhost:8900", pub, zaptest.NewLogger(t))

	token := solana.NewWallet().PublicKey()
	derivative := solana.NewWallet().PublicKey()
	wallet := solana.NewWallet().PublicKey()
	now := time.Now().Unix()

	logs := []string{
		"Program Dua4QHV8oHr8Mxna9jngcTgACVVpitrAdDK4xVHufjCG invoke [1]",
		encodeEventLog(t, derivativeMintedEventDisc, derivativeMintedEventData{
			Token:      token,
			Derivative: derivative,
			Timestamp:  now,
		}),
		encodeEventLog(t, developerFeeEventDisc, feeShareEventData{
			Wallet:    wallet,
			Token:     token,
			Amount:    25_000_000,
			Timestamp: now,
		}),
		programDataPrefix + "not-base64!!!",
		"Program Dua4QHV8oHr8Mxna9jngcTgACVVpitrAdDK4xVHufjCG success",
	}

	var sig solana.Signature
	w.handleLogs(sig, logs)

	require.Len(t, pub.published, 2)

	minted, ok := pub.published[0].(*protocol.DerivativeMintedEvent)
	require.True(t, ok)
	assert.Equal(t, fromPubkey(derivative), minted.Derivative)

	fee, ok := pub.published[1].(*protocol.DeveloperFeeShareEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(25_000_000), fee.Amount)
	assert.Equal(t, fromPubkey(wallet), fee.DeveloperWallet)
}
