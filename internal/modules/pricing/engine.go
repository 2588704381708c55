// README: Fare engine; prices a vehicle composition and allocates every
// adjustment back onto each vehicle type.
package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type unitCount struct {
	code  string
	count int
}

// ComputeQuote prices req against tariff. It is pure: the same inputs always
// yield the same result and neither argument is modified.
func ComputeQuote(req QuoteRequest, tariff *Tariff) (*QuoteResult, error) {
	if tariff == nil {
		return nil, fmt.Errorf("%w: no tariff loaded", ErrInvalidTariff)
	}

	units := normalizeComposition(req)
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: no vehicles requested", ErrInvalidInput)
	}

	eventType := normalizeCode(req.EventType)
	if eventType == "" {
		eventType = EventNone
	}
	eventPct, ok := tariff.Events[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, eventType)
	}

	vehicles := make([]VehicleBreakdown, len(units))
	totalUnits := 0
	for i, u := range units {
		vt, ok := tariff.Vehicles[u.code]
		if !ok {
			return nil, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, u.code)
		}
		vehicles[i] = VehicleBreakdown{
			Type:              u.code,
			Label:             vt.Label,
			Count:             u.count,
			PerKm:             vt.PerKm,
			MotivationPercent: vt.MotivationPercent,
		}
		totalUnits += u.count
	}

	distance := billedDistance(req.DistanceKm, tariff.MinDistanceKm)

	var b Breakdown
	for i := range vehicles {
		v := &vehicles[i]
		v.Base = v.PerKm.Mul(distance).Mul(decimal.NewFromInt(int64(v.Count)))
		v.Motivation = v.Base.Mul(v.MotivationPercent)
		b.Base = b.Base.Add(v.Base)
		b.Motivation = b.Motivation.Add(v.Motivation)
	}

	b.Event = b.Base.Mul(eventPct)
	b.Majorated = b.Base.Add(b.Motivation).Add(b.Event)
	b.ClientFees = b.Majorated.Mul(tariff.ClientMoneyFeePercent)
	b.ClientRaw = b.Majorated.Add(b.ClientFees)
	b.ClientRounded = tariff.Round(b.ClientRaw)

	b.Commission = b.ClientRounded.Mul(tariff.CommissionPercent)
	b.BusBase = b.ClientRounded.Sub(b.Commission)
	b.BusFees = b.BusBase.Mul(tariff.BusMoneyFeePercent)
	b.BusRaw = tariff.applyBusFee(b.BusBase, b.BusFees)
	b.BusRounded = tariff.Round(b.BusRaw)

	allocate(vehicles, b, tariff)

	return &QuoteResult{
		Currency:  tariff.currency(),
		Breakdown: b,
		Vehicles:  vehicles,
		Meta: Meta{
			EventType:             eventType,
			DistanceKm:            req.DistanceKm,
			BilledDistanceKm:      distance,
			Buses:                 totalUnits,
			EventPercent:          eventPct,
			ClientMoneyFeePercent: tariff.ClientMoneyFeePercent,
			CommissionPercent:     tariff.CommissionPercent,
			BusMoneyFeePercent:    tariff.BusMoneyFeePercent,
			BusFeePolicy:          tariff.busFeePolicy(),
			RoundingMode:          tariff.roundingMode(),
		},
	}, nil
}

// allocate spreads the event uplift, client fee, client rounding, commission
// and bus fee over the vehicle types pro rata, then reconciles the bus side
// against the rounded bus total.
func allocate(vehicles []VehicleBreakdown, b Breakdown, tariff *Tariff) {
	totalS := b.Base.Add(b.Motivation)
	shares := make([]decimal.Decimal, len(vehicles))

	for i := range vehicles {
		v := &vehicles[i]
		s := v.Base.Add(v.Motivation)

		v.EventShare = proportion(b.Event, s, totalS)
		v.MajoratedShare = s.Add(v.EventShare)
		v.ClientFeeShare = proportion(b.ClientFees, v.MajoratedShare, b.Majorated)
		v.ClientRawShare = v.MajoratedShare.Add(v.ClientFeeShare)
		if b.ClientRaw.IsZero() {
			v.ClientScaledShare = v.ClientRawShare
		} else {
			v.ClientScaledShare = proportion(v.ClientRawShare, b.ClientRounded, b.ClientRaw)
		}

		v.CommissionShare = v.ClientScaledShare.Mul(tariff.CommissionPercent)
		v.BusBaseShare = v.ClientScaledShare.Sub(v.CommissionShare)
		v.BusFeeShare = v.BusBaseShare.Mul(tariff.BusMoneyFeePercent)
		v.BusRawShare = tariff.applyBusFee(v.BusBaseShare, v.BusFeeShare)
		shares[i] = v.BusRawShare
	}

	for i, final := range Apportion(shares, b.BusRounded) {
		vehicles[i].BusFinal = final
	}
}

// normalizeComposition resolves the request's vehicle representation into an
// ordered list of distinct codes with their unit counts.
func normalizeComposition(req QuoteRequest) []unitCount {
	switch {
	case len(req.VehicleTypes) > 0:
		var units []unitCount
		index := make(map[string]int, len(req.VehicleTypes))
		for _, raw := range req.VehicleTypes {
			code := normalizeCode(raw)
			if pos, ok := index[code]; ok {
				units[pos].count++
				continue
			}
			index[code] = len(units)
			units = append(units, unitCount{code: code, count: 1})
		}
		return units

	case len(req.VehicleCounts) > 0:
		counts := make(map[string]int, len(req.VehicleCounts))
		for raw, n := range req.VehicleCounts {
			if n < 1 {
				continue
			}
			counts[normalizeCode(raw)] += n
		}
		codes := make([]string, 0, len(counts))
		for code := range counts {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		units := make([]unitCount, len(codes))
		for i, code := range codes {
			units[i] = unitCount{code: code, count: counts[code]}
		}
		return units

	case strings.TrimSpace(req.VehicleType) != "":
		return []unitCount{{code: normalizeCode(req.VehicleType), count: max(req.Buses, 1)}}
	}
	return nil
}

func normalizeCode(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func billedDistance(distanceKm, minDistanceKm decimal.Decimal) decimal.Decimal {
	return decimal.Max(distanceKm, decimal.Zero, minDistanceKm)
}

func (t *Tariff) applyBusFee(base, fee decimal.Decimal) decimal.Decimal {
	if t.busFeePolicy() == BusFeeWithdrawal {
		return base.Sub(fee)
	}
	return base.Add(fee)
}

func (t *Tariff) busFeePolicy() BusFeePolicy {
	if t.BusFeePolicy == "" {
		return BusFeeAdditive
	}
	return t.BusFeePolicy
}

func (t *Tariff) roundingMode() string {
	if t.RoundingMode == "" {
		return RoundingStep25Up
	}
	return t.RoundingMode
}

func (t *Tariff) currency() string {
	if t.Currency == "" {
		return DefaultCurrency
	}
	return t.Currency
}
