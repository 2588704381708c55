package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DefaultRoundingSteps is the step-25 ladder: 1-25 -> 25, 26-50 -> 50,
// 51-75 -> 75, 76-99 -> next hundred.
func DefaultRoundingSteps() []RoundingStep {
	return []RoundingStep{
		{UptoRemainder: 25, RoundedRemainder: 25},
		{UptoRemainder: 50, RoundedRemainder: 50},
		{UptoRemainder: 75, RoundedRemainder: 75},
		{UptoRemainder: 99, RoundedRemainder: 100},
	}
}

// RoundStepUp rounds amount up to the default step-25 ladder. The fractional
// part is dropped first, so 199.99 lands on 200 and 200.50 stays 200.
func RoundStepUp(amount decimal.Decimal) decimal.Decimal {
	return roundWithSteps(amount, DefaultRoundingSteps())
}

// Round applies the tariff's own ladder, falling back to the default one.
func (t *Tariff) Round(amount decimal.Decimal) decimal.Decimal {
	if len(t.RoundingSteps) == 0 {
		return RoundStepUp(amount)
	}
	return roundWithSteps(amount, t.RoundingSteps)
}

func roundWithSteps(amount decimal.Decimal, steps []RoundingStep) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	whole := amount.Floor()
	hundreds := whole.Div(hundred).Floor()
	remainder := whole.Mod(hundred).IntPart()
	if remainder == 0 {
		return whole
	}
	base := hundreds.Mul(hundred)
	for _, step := range steps {
		if remainder <= step.UptoRemainder {
			return base.Add(decimal.NewFromInt(step.RoundedRemainder))
		}
	}
	return base.Add(hundred)
}
