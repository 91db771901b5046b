package protocol

import "math/bits"

// CalculateFee computes the protocol fee on amount in base units. The
// division truncates toward zero; the intermediate product is 128-bit so
// amounts near the u64 ceiling do not overflow. A truncated fee below
// minFeeForDistribution is raised to minFee so dust operations still fund
// both beneficiaries. The fee must leave something to lock, otherwise
// ErrAmountInsufficientAfterFee.
func CalculateFee(amount, feePercentage, feeDivider, minFeeForDistribution, minFee uint64) (uint64, error) {
	if feeDivider == 0 {
		return 0, ErrOverflow
	}

	hi, lo := bits.Mul64(amount, feePercentage)
	if hi >= feeDivider {
		// Quotient would not fit in 64 bits.
		return 0, ErrOverflow
	}
	fee, _ := bits.Div64(hi, lo, feeDivider)

	if fee < minFeeForDistribution {
		fee = minFee
	}
	if fee >= amount {
		return 0, ErrAmountInsufficientAfterFee
	}
	return fee, nil
}

// SplitFee divides fee between the developer and founder beneficiaries.
// The developer share truncates; the founder absorbs the rounding
// remainder, so developer + founder == fee for every non-negative fee,
// including share percentages that do not divide cleanly.
func SplitFee(fee uint64, developerSharePct uint64) (developer, founder uint64) {
	if developerSharePct > 100 {
		developerSharePct = 100
	}
	hi, lo := bits.Mul64(fee, developerSharePct)
	developer, _ = bits.Div64(hi, lo, 100)
	founder = fee - developer
	return developer, founder
}
