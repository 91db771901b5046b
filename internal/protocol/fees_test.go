package protocol

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFeeExactPercentage(t *testing.T) {
	// 10 tokens at 9 decimals, 0.5% fee schedule.
	fee, err := CalculateFee(10_000_000_000, 5, 1000, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000), fee)
}

func TestCalculateFeeTruncates(t *testing.T) {
	// 1001 * 5 / 1000 = 5.005, truncated to 5.
	fee, err := CalculateFee(1001, 5, 1000, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), fee)
}

func TestCalculateFeeMinimumFloor(t *testing.T) {
	// Floored fee below the distribution minimum snaps to min_fee.
	fee, err := CalculateFee(100, 5, 1000, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), fee)
}

func TestCalculateFeeInsufficientAmount(t *testing.T) {
	_, err := CalculateFee(2, 5, 1000, 2, 2)
	assert.ErrorIs(t, err, ErrAmountInsufficientAfterFee)

	_, err = CalculateFee(1, 5, 1000, 2, 2)
	assert.ErrorIs(t, err, ErrAmountInsufficientAfterFee)
}

func TestCalculateFeeOverflow(t *testing.T) {
	_, err := CalculateFee(math.MaxUint64, 2000, 1000, 2, 2)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestCalculateFeeZeroDivider(t *testing.T) {
	_, err := CalculateFee(1000, 5, 0, 2, 2)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestCalculateFeeLargeAmountNoOverflow(t *testing.T) {
	// The 128-bit intermediate keeps amounts near the u64 ceiling exact.
	amount := uint64(math.MaxUint64)
	fee, err := CalculateFee(amount, 5, 1000, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, amount/1000*5+(amount%1000)*5/1000, fee)
}

func TestSplitFeeEven(t *testing.T) {
	developer, founder := SplitFee(50_000_000, 50)
	assert.Equal(t, uint64(25_000_000), developer)
	assert.Equal(t, uint64(25_000_000), founder)
}

func TestSplitFeeRemainderToFounder(t *testing.T) {
	developer, founder := SplitFee(3, 50)
	assert.Equal(t, uint64(1), developer)
	assert.Equal(t, uint64(2), founder)
	assert.Equal(t, uint64(3), developer+founder)
}

func TestSplitFeeConservation(t *testing.T) {
	for _, fee := range []uint64{0, 1, 2, 7, 99, 101, 123_456_789} {
		developer, founder := SplitFee(fee, 50)
		assert.Equal(t, fee, developer+founder)
	}
}

func TestSplitFeeUnevenShares(t *testing.T) {
	developer, founder := SplitFee(100, 70)
	assert.Equal(t, uint64(70), developer)
	assert.Equal(t, uint64(30), founder)
}
