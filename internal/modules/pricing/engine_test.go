package pricing

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeQuote_SingleHiace(t *testing.T) {
	res, err := ComputeQuote(QuoteRequest{
		VehicleTypes: []string{"hiace"},
		DistanceKm:   dec("10"),
		EventType:    "none",
	}, DefaultTariff())
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}

	b := res.Breakdown
	assertDecimal(t, "base", b.Base, "4250")
	assertDecimal(t, "motivation", b.Motivation, "1700")
	assertDecimal(t, "event", b.Event, "0")
	assertDecimal(t, "majorated", b.Majorated, "5950")
	assertDecimal(t, "client fees", b.ClientFees, "238")
	assertDecimal(t, "client raw", b.ClientRaw, "6188")
	assertDecimal(t, "client rounded", b.ClientRounded, "6200")
	assertDecimal(t, "commission", b.Commission, "806")
	assertDecimal(t, "bus base", b.BusBase, "5394")
	assertDecimal(t, "bus fees", b.BusFees, "188.79")
	assertDecimal(t, "bus raw", b.BusRaw, "5582.79")
	assertDecimal(t, "bus rounded", b.BusRounded, "5600")

	if len(res.Vehicles) != 1 {
		t.Fatalf("expected 1 vehicle breakdown, got %d", len(res.Vehicles))
	}
	v := res.Vehicles[0]
	if v.Type != "hiace" || v.Label != "Hiace" || v.Count != 1 {
		t.Errorf("unexpected vehicle header %+v", v)
	}
	assertDecimal(t, "client scaled share", v.ClientScaledShare, "6200")
	assertDecimal(t, "bus raw share", v.BusRawShare, "5582.79")
	assertDecimal(t, "bus final", v.BusFinal, "5600")

	if res.Currency != "XAF" {
		t.Errorf("currency = %q, want XAF", res.Currency)
	}
	if got := res.ClientPayable().String(); got != "6200.00 XAF" {
		t.Errorf("ClientPayable = %q", got)
	}
	if res.Meta.EventType != "none" || res.Meta.Buses != 1 || res.Meta.BusFeePolicy != BusFeeAdditive {
		t.Errorf("unexpected meta %+v", res.Meta)
	}
}

func TestComputeQuote_WithdrawalPolicy(t *testing.T) {
	tariff := DefaultTariff()
	tariff.BusFeePolicy = BusFeeWithdrawal

	res, err := ComputeQuote(QuoteRequest{VehicleTypes: []string{"hiace"}, DistanceKm: dec("10")}, tariff)
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}
	assertDecimal(t, "client rounded", res.Breakdown.ClientRounded, "6200")
	assertDecimal(t, "bus raw", res.Breakdown.BusRaw, "5205.21")
	assertDecimal(t, "bus rounded", res.Breakdown.BusRounded, "5225")
	assertDecimal(t, "bus final", res.Vehicles[0].BusFinal, "5225")
}

func TestComputeQuote_MixedFleetWithEvent(t *testing.T) {
	res, err := ComputeQuote(QuoteRequest{
		VehicleTypes: []string{"hiace", "coaster", "hiace"},
		DistanceKm:   dec("100"),
		EventType:    "wedding",
	}, DefaultTariff())
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}

	b := res.Breakdown
	assertDecimal(t, "base", b.Base, "157500")
	assertDecimal(t, "motivation", b.Motivation, "52125")
	assertDecimal(t, "event", b.Event, "47250")
	assertDecimal(t, "majorated", b.Majorated, "256875")
	assertDecimal(t, "client fees", b.ClientFees, "10275")
	assertDecimal(t, "client rounded", b.ClientRounded, "267150")
	assertDecimal(t, "commission", b.Commission, "34729.5")
	assertDecimal(t, "bus fees", b.BusFees, "8134.7175")
	assertDecimal(t, "bus rounded", b.BusRounded, "240575")

	if len(res.Vehicles) != 2 {
		t.Fatalf("expected 2 vehicle types, got %d", len(res.Vehicles))
	}
	hiace, okHiace := res.Vehicle("hiace")
	coaster, okCoaster := res.Vehicle("coaster")
	if !okHiace || !okCoaster || hiace.Count != 2 || coaster.Count != 1 {
		t.Fatalf("unexpected composition: %+v", res.Vehicles)
	}
	if _, ok := res.Vehicle("sprinter"); ok {
		t.Error("found a vehicle type that was not requested")
	}
	assertDecimal(t, "hiace base", hiace.Base, "85000")
	assertDecimal(t, "hiace motivation", hiace.Motivation, "34000")
	assertDecimal(t, "coaster base", coaster.Base, "72500")
	assertDecimal(t, "coaster motivation", coaster.Motivation, "18125")

	var events, finals, scaled decimal.Decimal
	for _, v := range res.Vehicles {
		events = events.Add(v.EventShare)
		finals = finals.Add(v.BusFinal)
		scaled = scaled.Add(v.ClientScaledShare)
		if !v.BusFinal.Equal(v.BusFinal.Round(2)) {
			t.Errorf("%s bus final %s is not a cent amount", v.Type, v.BusFinal)
		}
	}
	assertDecimal(t, "sum of bus finals", finals, "240575")
	if events.Sub(b.Event).Abs().GreaterThan(dec("0.01")) {
		t.Errorf("event shares sum to %s, want ~%s", events, b.Event)
	}
	if scaled.Sub(b.ClientRounded).Abs().GreaterThan(dec("0.01")) {
		t.Errorf("client shares sum to %s, want ~%s", scaled, b.ClientRounded)
	}
}

func TestComputeQuote_CompositionForms(t *testing.T) {
	tariff := DefaultTariff()
	cases := []struct {
		name      string
		req       QuoteRequest
		wantTypes []string
		wantBuses int
	}{
		{
			name:      "list counts repeats in first-seen order",
			req:       QuoteRequest{VehicleTypes: []string{"coaster", " Hiace ", "coaster"}},
			wantTypes: []string{"coaster", "hiace"},
			wantBuses: 3,
		},
		{
			name:      "map sorted by code, zero counts ignored",
			req:       QuoteRequest{VehicleCounts: map[string]int{"hiace": 2, "coaster": 1, "ghost": 0}},
			wantTypes: []string{"coaster", "hiace"},
			wantBuses: 3,
		},
		{
			name:      "legacy single type with count",
			req:       QuoteRequest{VehicleType: "HIACE", Buses: 3},
			wantTypes: []string{"hiace"},
			wantBuses: 3,
		},
		{
			name:      "legacy type without count means one bus",
			req:       QuoteRequest{VehicleType: "coaster"},
			wantTypes: []string{"coaster"},
			wantBuses: 1,
		},
		{
			name:      "list wins over map and legacy",
			req:       QuoteRequest{VehicleTypes: []string{"hiace"}, VehicleCounts: map[string]int{"coaster": 4}, VehicleType: "coaster", Buses: 2},
			wantTypes: []string{"hiace"},
			wantBuses: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.DistanceKm = dec("20")
			res, err := ComputeQuote(tc.req, tariff)
			if err != nil {
				t.Fatalf("ComputeQuote: %v", err)
			}
			if res.Meta.Buses != tc.wantBuses {
				t.Errorf("buses = %d, want %d", res.Meta.Buses, tc.wantBuses)
			}
			if len(res.Vehicles) != len(tc.wantTypes) {
				t.Fatalf("got %d vehicle types, want %d", len(res.Vehicles), len(tc.wantTypes))
			}
			for i, want := range tc.wantTypes {
				if res.Vehicles[i].Type != want {
					t.Errorf("vehicle %d = %q, want %q", i, res.Vehicles[i].Type, want)
				}
			}
		})
	}
}

func TestComputeQuote_InvalidInput(t *testing.T) {
	tariff := DefaultTariff()
	cases := []struct {
		name string
		req  QuoteRequest
	}{
		{"empty composition", QuoteRequest{DistanceKm: dec("10")}},
		{"empty map", QuoteRequest{VehicleCounts: map[string]int{"hiace": 0}, DistanceKm: dec("10")}},
		{"unknown vehicle", QuoteRequest{VehicleTypes: []string{"minibus"}, DistanceKm: dec("10")}},
		{"unknown event", QuoteRequest{VehicleTypes: []string{"hiace"}, DistanceKm: dec("10"), EventType: "rave"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ComputeQuote(tc.req, tariff)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if res != nil {
				t.Errorf("expected no result on error, got %+v", res)
			}
		})
	}

	res, err := ComputeQuote(QuoteRequest{VehicleTypes: []string{"hiace"}}, nil)
	if !errors.Is(err, ErrInvalidTariff) {
		t.Errorf("expected ErrInvalidTariff for nil tariff, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result for nil tariff, got %+v", res)
	}
}

func TestComputeQuote_DistanceFloors(t *testing.T) {
	tariff := DefaultTariff()
	res, err := ComputeQuote(QuoteRequest{VehicleTypes: []string{"hiace"}, DistanceKm: dec("-5")}, tariff)
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}
	assertDecimal(t, "billed distance", res.Meta.BilledDistanceKm, "0")
	assertDecimal(t, "client rounded", res.Breakdown.ClientRounded, "0")
	assertDecimal(t, "bus final", res.Vehicles[0].BusFinal, "0")

	tariff.MinDistanceKm = dec("50")
	res, err = ComputeQuote(QuoteRequest{VehicleTypes: []string{"hiace"}, DistanceKm: dec("10")}, tariff)
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}
	assertDecimal(t, "requested distance", res.Meta.DistanceKm, "10")
	assertDecimal(t, "billed distance", res.Meta.BilledDistanceKm, "50")
	assertDecimal(t, "base", res.Breakdown.Base, "21250")
}

func TestComputeQuote_MonotonicInDistance(t *testing.T) {
	tariff := DefaultTariff()
	prevClient, prevBus := decimal.Zero, decimal.Zero
	for km := int64(0); km <= 400; km += 3 {
		res, err := ComputeQuote(QuoteRequest{
			VehicleCounts: map[string]int{"hiace": 1, "coaster": 2},
			DistanceKm:    decimal.NewFromInt(km),
			EventType:     "conference",
		}, tariff)
		if err != nil {
			t.Fatalf("ComputeQuote(%d km): %v", km, err)
		}
		if res.Breakdown.ClientRounded.LessThan(prevClient) || res.Breakdown.BusRounded.LessThan(prevBus) {
			t.Fatalf("quote decreased at %d km: client %s bus %s", km, res.Breakdown.ClientRounded, res.Breakdown.BusRounded)
		}
		if res.Breakdown.BusRounded.GreaterThan(res.Breakdown.ClientRounded) {
			t.Fatalf("bus payout %s exceeds client price %s at %d km", res.Breakdown.BusRounded, res.Breakdown.ClientRounded, km)
		}
		prevClient, prevBus = res.Breakdown.ClientRounded, res.Breakdown.BusRounded
	}
}

func TestComputeQuote_BusFinalsReconcile(t *testing.T) {
	fleets := []map[string]int{
		{"hiace": 1},
		{"coaster": 3},
		{"hiace": 2, "coaster": 1},
		{"hiace": 5, "coaster": 2},
		{"hiace": 1, "coaster": 7},
	}
	for _, policy := range []BusFeePolicy{BusFeeAdditive, BusFeeWithdrawal} {
		tariff := DefaultTariff()
		tariff.BusFeePolicy = policy
		for _, event := range tariff.EventCodes() {
			for _, fleet := range fleets {
				for km := dec("0"); km.LessThan(dec("300")); km = km.Add(dec("7.37")) {
					res, err := ComputeQuote(QuoteRequest{VehicleCounts: fleet, DistanceKm: km, EventType: event}, tariff)
					if err != nil {
						t.Fatalf("%s/%s/%v/%s km: %v", policy, event, fleet, km, err)
					}
					sum := decimal.Zero
					for _, v := range res.Vehicles {
						if !v.BusFinal.Equal(v.BusFinal.Round(2)) {
							t.Fatalf("%s/%s/%v/%s km: %s bus final %s is not a cent amount", policy, event, fleet, km, v.Type, v.BusFinal)
						}
						sum = sum.Add(v.BusFinal)
					}
					if !sum.Equal(res.Breakdown.BusRounded) {
						t.Fatalf("%s/%s/%v/%s km: bus finals sum to %s, want %s", policy, event, fleet, km, sum, res.Breakdown.BusRounded)
					}
				}
			}
		}
	}
}

func TestComputeQuote_EventCodeNormalized(t *testing.T) {
	tariff := DefaultTariff()
	blank, err := ComputeQuote(QuoteRequest{VehicleTypes: []string{"hiace"}, DistanceKm: dec("10")}, tariff)
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}
	if blank.Meta.EventType != EventNone {
		t.Errorf("blank event resolved to %q", blank.Meta.EventType)
	}

	upper, err := ComputeQuote(QuoteRequest{VehicleTypes: []string{"hiace"}, DistanceKm: dec("10"), EventType: " Wedding "}, tariff)
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}
	assertDecimal(t, "event percent", upper.Meta.EventPercent, "0.3")
}

func TestComputeQuote_ConcurrentCallsAgree(t *testing.T) {
	tariff := DefaultTariff()
	req := QuoteRequest{
		VehicleTypes: []string{"hiace", "coaster", "coaster"},
		DistanceKm:   dec("137.5"),
		EventType:    "funeral",
	}
	want, err := ComputeQuote(req, tariff)
	if err != nil {
		t.Fatalf("ComputeQuote: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ComputeQuote(req, tariff)
			if err != nil {
				errs <- err.Error()
				return
			}
			if !got.Breakdown.ClientRounded.Equal(want.Breakdown.ClientRounded) ||
				!got.Breakdown.BusRounded.Equal(want.Breakdown.BusRounded) {
				errs <- "concurrent quote differs"
				return
			}
			for j := range got.Vehicles {
				if !got.Vehicles[j].BusFinal.Equal(want.Vehicles[j].BusFinal) {
					errs <- "concurrent vehicle share differs"
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
	if len(req.VehicleTypes) != 3 || req.VehicleTypes[0] != "hiace" {
		t.Errorf("request was modified: %v", req.VehicleTypes)
	}
}
