package pricing

import "github.com/shopspring/decimal"

var cent = decimal.New(1, -2)

// proportion returns total * part / whole, or zero when whole is zero.
func proportion(total, part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return total.Mul(part).Div(whole)
}

// Apportion turns raw per-bucket shares into cent amounts summing exactly to
// target. The gap between target and the raw sum goes to the largest share
// (first one wins a tie), every bucket is then rounded to cents, and any
// residual cent left by that rounding lands on the same bucket.
func Apportion(shares []decimal.Decimal, target decimal.Decimal) []decimal.Decimal {
	if len(shares) == 0 {
		return nil
	}
	largest := largestIndex(shares)

	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}

	final := make([]decimal.Decimal, len(shares))
	copy(final, shares)
	final[largest] = final[largest].Add(target.Sub(sum))

	sumFinal := decimal.Zero
	for i := range final {
		final[i] = final[i].Round(2)
		sumFinal = sumFinal.Add(final[i])
	}

	if residual := target.Sub(sumFinal); residual.Abs().GreaterThanOrEqual(cent) {
		final[largest] = final[largest].Add(residual).Round(2)
	}
	return final
}

func largestIndex(shares []decimal.Decimal) int {
	idx := 0
	for i := 1; i < len(shares); i++ {
		if shares[i].GreaterThan(shares[idx]) {
			idx = i
		}
	}
	return idx
}
