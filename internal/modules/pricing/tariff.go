package pricing

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"mova/internal/config"
)

// DefaultTariff returns the built-in Hiace/Coaster tariff used when no tariff
// file is configured.
func DefaultTariff() *Tariff {
	events := map[string]float64{
		"none":          0,
		"simple_rental": 0,

		"private_transport": 0.10,

		"church":             0.20,
		"school_trip":        0.20,
		"university_trip":    0.20,
		"educational_tour":   0.20,
		"student_transport":  0.20,
		"school_competition": 0.20,
		"site_visit":         0.20,

		"funeral":                0.25,
		"conference":             0.25,
		"seminar":                0.25,
		"company_trip":           0.25,
		"business_mission":       0.25,
		"staff_shuttle":          0.25,
		"sports_tournament":      0.25,
		"tourist_trip":           0.25,
		"group_excursion":        0.25,
		"airport_transfer":       0.25,
		"administrative_mission": 0.25,
		"official_trip":          0.25,
		"election_campaign":      0.25,
		"special_event":          0.25,

		"wedding":        0.30,
		"birthday":       0.30,
		"baptism":        0.30,
		"family_meeting": 0.30,
		"football_match": 0.30,
		"concert":        0.30,
		"festival":       0.30,
	}

	t := &Tariff{
		Currency: DefaultCurrency,
		Vehicles: map[string]VehicleTariff{
			"hiace": {
				Label:             "Hiace",
				PerKm:             decimal.NewFromInt(425),
				MotivationPercent: decimal.RequireFromString("0.40"),
			},
			"coaster": {
				Label:             "Coaster",
				PerKm:             decimal.NewFromInt(725),
				MotivationPercent: decimal.RequireFromString("0.25"),
			},
		},
		Events:                make(map[string]decimal.Decimal, len(events)),
		ClientMoneyFeePercent: decimal.RequireFromString("0.04"),
		CommissionPercent:     decimal.RequireFromString("0.13"),
		BusMoneyFeePercent:    decimal.RequireFromString("0.035"),
		MinDistanceKm:         decimal.Zero,
		BusFeePolicy:          BusFeeAdditive,
		RoundingMode:          RoundingStep25Up,
		RoundingSteps:         DefaultRoundingSteps(),
	}
	for code, pct := range events {
		t.Events[code] = decimal.NewFromFloat(pct)
	}
	return t
}

// NewTariff converts a decoded tariff file into a validated snapshot.
func NewTariff(f config.TariffFile) (*Tariff, error) {
	if err := checkFinite(f); err != nil {
		return nil, err
	}
	t := &Tariff{
		Currency:              strings.TrimSpace(f.Currency),
		Vehicles:              make(map[string]VehicleTariff, len(f.Vehicles)),
		Events:                make(map[string]decimal.Decimal, len(f.Events)),
		ClientMoneyFeePercent: decimal.NewFromFloat(f.ClientMoneyFeePercent),
		CommissionPercent:     decimal.NewFromFloat(f.CommissionPercent),
		BusMoneyFeePercent:    decimal.NewFromFloat(f.BusMoneyFeePercent),
		MinDistanceKm:         decimal.NewFromFloat(f.MinDistanceKm),
		BusFeePolicy:          BusFeePolicy(strings.ToLower(strings.TrimSpace(f.BusFeePolicy))),
		RoundingMode:          strings.ToLower(strings.TrimSpace(f.Rounding.Mode)),
	}
	if t.Currency == "" {
		t.Currency = DefaultCurrency
	}
	if t.BusFeePolicy == "" {
		t.BusFeePolicy = BusFeeAdditive
	}
	if t.RoundingMode == "" {
		t.RoundingMode = RoundingStep25Up
	}

	for code, v := range f.Vehicles {
		label := v.Label
		if label == "" {
			label = code
		}
		t.Vehicles[normalizeCode(code)] = VehicleTariff{
			Label:             label,
			PerKm:             decimal.NewFromFloat(v.PerKm),
			MotivationPercent: decimal.NewFromFloat(v.MotivationPercent),
		}
	}
	for code, pct := range f.Events {
		t.Events[normalizeCode(code)] = decimal.NewFromFloat(pct)
	}

	if len(f.Rounding.Steps) == 0 {
		t.RoundingSteps = DefaultRoundingSteps()
	} else {
		t.RoundingSteps = make([]RoundingStep, len(f.Rounding.Steps))
		for i, s := range f.Rounding.Steps {
			t.RoundingSteps[i] = RoundingStep{UptoRemainder: s.Upto, RoundedRemainder: s.To}
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the tariff invariants: at least one vehicle, non-negative
// rates, a known fee policy and an ascending ladder that never rounds down.
func (t *Tariff) Validate() error {
	if len(t.Vehicles) == 0 {
		return fmt.Errorf("%w: no vehicle types defined", ErrInvalidTariff)
	}
	for code, v := range t.Vehicles {
		if code == "" {
			return fmt.Errorf("%w: empty vehicle type code", ErrInvalidTariff)
		}
		if v.PerKm.IsNegative() || v.MotivationPercent.IsNegative() {
			return fmt.Errorf("%w: vehicle %q has a negative rate", ErrInvalidTariff, code)
		}
	}
	for code, pct := range t.Events {
		if pct.IsNegative() {
			return fmt.Errorf("%w: event %q has a negative percent", ErrInvalidTariff, code)
		}
	}

	rates := map[string]decimal.Decimal{
		"client money fee": t.ClientMoneyFeePercent,
		"commission":       t.CommissionPercent,
		"bus money fee":    t.BusMoneyFeePercent,
		"minimum distance": t.MinDistanceKm,
	}
	for name, v := range rates {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidTariff, name)
		}
	}

	switch t.BusFeePolicy {
	case "", BusFeeAdditive, BusFeeWithdrawal:
	default:
		return fmt.Errorf("%w: unknown bus fee policy %q", ErrInvalidTariff, t.BusFeePolicy)
	}
	switch t.RoundingMode {
	case "", RoundingStep25Up:
	default:
		return fmt.Errorf("%w: unknown rounding mode %q", ErrInvalidTariff, t.RoundingMode)
	}

	prev := int64(0)
	for i, s := range t.RoundingSteps {
		if s.UptoRemainder <= prev || s.UptoRemainder > 99 {
			return fmt.Errorf("%w: rounding step %d must cover remainders in ascending order within 1-99", ErrInvalidTariff, i+1)
		}
		if s.RoundedRemainder < s.UptoRemainder || s.RoundedRemainder > 100 {
			return fmt.Errorf("%w: rounding step %d rounds outside [%d, 100]", ErrInvalidTariff, i+1, s.UptoRemainder)
		}
		prev = s.UptoRemainder
	}
	return nil
}

// VehicleCodes returns the vehicle type codes in ascending order.
func (t *Tariff) VehicleCodes() []string {
	return slices.Sorted(maps.Keys(t.Vehicles))
}

// EventCodes returns the event codes in ascending order.
func (t *Tariff) EventCodes() []string {
	return slices.Sorted(maps.Keys(t.Events))
}

// checkFinite rejects NaN and infinite rates, which decimal cannot represent.
func checkFinite(f config.TariffFile) error {
	bad := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidTariff, name)
		}
		return nil
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"mobile_money_client_percent", f.ClientMoneyFeePercent},
		{"commission_percent", f.CommissionPercent},
		{"mobile_money_bus_percent", f.BusMoneyFeePercent},
		{"min_distance_km", f.MinDistanceKm},
	}
	for _, fl := range fields {
		if err := bad(fl.name, fl.v); err != nil {
			return err
		}
	}
	for code, v := range f.Vehicles {
		if err := bad("vehicles."+code+".per_km", v.PerKm); err != nil {
			return err
		}
		if err := bad("vehicles."+code+".motivation_percent", v.MotivationPercent); err != nil {
			return err
		}
	}
	for code, pct := range f.Events {
		if err := bad("events."+code, pct); err != nil {
			return err
		}
	}
	return nil
}
