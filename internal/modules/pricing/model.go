// README: Tariff tables, quote request and quote result for the fare engine.
package pricing

import (
	"github.com/shopspring/decimal"

	"mova/internal/types"
)

// BusFeePolicy selects how the mobile-money fee is applied to the operator payout.
type BusFeePolicy string

const (
	// BusFeeAdditive adds the fee on top of the payout (busBase + busFees).
	BusFeeAdditive BusFeePolicy = "additive"
	// BusFeeWithdrawal deducts the fee from the payout (busBase - busFees).
	BusFeeWithdrawal BusFeePolicy = "withdrawal"
)

const (
	RoundingStep25Up = "step25_up"
	EventNone        = "none"
	DefaultCurrency  = "XAF"
)

type VehicleTariff struct {
	Label             string
	PerKm             decimal.Decimal
	MotivationPercent decimal.Decimal
}

// RoundingStep maps every remainder (mod 100) up to UptoRemainder onto RoundedRemainder.
type RoundingStep struct {
	UptoRemainder    int64
	RoundedRemainder int64
}

// Tariff is an immutable pricing snapshot. Callers must not mutate a Tariff
// once it has been handed to ComputeQuote or published through a TariffSource.
type Tariff struct {
	Currency              string
	Vehicles              map[string]VehicleTariff
	Events                map[string]decimal.Decimal
	ClientMoneyFeePercent decimal.Decimal
	CommissionPercent     decimal.Decimal
	BusMoneyFeePercent    decimal.Decimal
	MinDistanceKm         decimal.Decimal
	BusFeePolicy          BusFeePolicy
	RoundingMode          string
	RoundingSteps         []RoundingStep
}

// QuoteRequest describes a trip to price. Exactly one vehicle representation
// is honored: VehicleTypes, then VehicleCounts, then VehicleType/Buses.
type QuoteRequest struct {
	VehicleTypes  []string
	VehicleCounts map[string]int
	VehicleType   string
	Buses         int
	DistanceKm    decimal.Decimal
	EventType     string
}

// Breakdown holds the global amounts of a quote.
type Breakdown struct {
	Base          decimal.Decimal
	Motivation    decimal.Decimal
	Event         decimal.Decimal
	Majorated     decimal.Decimal
	ClientFees    decimal.Decimal
	ClientRaw     decimal.Decimal
	ClientRounded decimal.Decimal
	Commission    decimal.Decimal
	BusBase       decimal.Decimal
	BusFees       decimal.Decimal
	BusRaw        decimal.Decimal
	BusRounded    decimal.Decimal
}

// VehicleBreakdown is the share of a quote attributed to one vehicle type.
type VehicleBreakdown struct {
	Type              string
	Label             string
	Count             int
	PerKm             decimal.Decimal
	MotivationPercent decimal.Decimal
	Base              decimal.Decimal
	Motivation        decimal.Decimal
	EventShare        decimal.Decimal
	MajoratedShare    decimal.Decimal
	ClientFeeShare    decimal.Decimal
	ClientRawShare    decimal.Decimal
	ClientScaledShare decimal.Decimal
	CommissionShare   decimal.Decimal
	BusBaseShare      decimal.Decimal
	BusFeeShare       decimal.Decimal
	BusRawShare       decimal.Decimal
	BusFinal          decimal.Decimal
}

// Meta records the inputs and rates a quote was computed with.
type Meta struct {
	EventType             string
	DistanceKm            decimal.Decimal
	BilledDistanceKm      decimal.Decimal
	Buses                 int
	EventPercent          decimal.Decimal
	ClientMoneyFeePercent decimal.Decimal
	CommissionPercent     decimal.Decimal
	BusMoneyFeePercent    decimal.Decimal
	BusFeePolicy          BusFeePolicy
	RoundingMode          string
}

type QuoteResult struct {
	Currency  string
	Breakdown Breakdown
	Vehicles  []VehicleBreakdown
	Meta      Meta
}

func (r *QuoteResult) ClientPayable() types.Money {
	return types.NewMoney(r.Breakdown.ClientRounded, r.Currency)
}

func (r *QuoteResult) BusPayable() types.Money {
	return types.NewMoney(r.Breakdown.BusRounded, r.Currency)
}

// Vehicle returns the breakdown for a vehicle type code.
func (r *QuoteResult) Vehicle(code string) (VehicleBreakdown, bool) {
	for _, v := range r.Vehicles {
		if v.Type == code {
			return v, true
		}
	}
	return VehicleBreakdown{}, false
}
