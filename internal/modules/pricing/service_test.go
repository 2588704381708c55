package pricing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"mova/internal/types"
)

type fakeDirectory struct {
	types map[int64]string
	err   error
	calls int
}

func (f *fakeDirectory) BusTypes(_ context.Context, ids []int64) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for _, id := range ids {
		if t, ok := f.types[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeRoutes struct {
	km  float64
	err error
}

func (f *fakeRoutes) DistanceKm(_ context.Context, _, _ string) (float64, error) {
	return f.km, f.err
}

func newTestService(buses BusDirectory, routes RouteResolver) *Service {
	return NewService(NewTariffSource(DefaultTariff()), buses, routes, zerolog.Nop())
}

func floatPtr(v float64) *float64 { return &v }

func TestService_QuoteFromBusIDs(t *testing.T) {
	dir := &fakeDirectory{types: map[int64]string{1: "hiace", 2: "coaster", 3: "hiace"}}
	svc := newTestService(dir, nil)

	res, err := svc.Quote(context.Background(), QuoteCommand{
		BusIDs:     []int64{1, 2, 3, 99},
		Vehicles:   []string{"coaster", "coaster", "coaster", "coaster"},
		DistanceKm: floatPtr(100),
		EventType:  "wedding",
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if dir.calls != 1 {
		t.Errorf("directory called %d times", dir.calls)
	}
	if res.Meta.Buses != 3 {
		t.Errorf("buses = %d, want 3 (bus ids win over vehicles)", res.Meta.Buses)
	}
	assertDecimal(t, "client rounded", res.Breakdown.ClientRounded, "267150")
	assertDecimal(t, "bus rounded", res.Breakdown.BusRounded, "240575")
}

func TestService_BusIDErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestService(nil, nil).Quote(ctx, QuoteCommand{BusIDs: []int64{1}, DistanceKm: floatPtr(10)})
	if !errors.Is(err, ErrBusLookup) {
		t.Errorf("expected ErrBusLookup, got %v", err)
	}

	boom := errors.New("db down")
	_, err = newTestService(&fakeDirectory{err: boom}, nil).Quote(ctx, QuoteCommand{BusIDs: []int64{1}, DistanceKm: floatPtr(10)})
	if !errors.Is(err, boom) || !errors.Is(err, ErrBusLookup) {
		t.Errorf("expected wrapped lookup error, got %v", err)
	}

	_, err = newTestService(&fakeDirectory{}, nil).Quote(ctx, QuoteCommand{BusIDs: []int64{7}, DistanceKm: floatPtr(10)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown buses, got %v", err)
	}
}

func TestService_DistanceResolution(t *testing.T) {
	pickup := &types.Point{Lat: -4.2634, Lng: 15.2429}
	dropoff := &types.Point{Lat: -4.7692, Lng: 11.8664}

	cases := []struct {
		name    string
		routes  RouteResolver
		cmd     QuoteCommand
		wantKm  string
		wantErr error
	}{
		{
			name:   "explicit distance wins over route",
			routes: &fakeRoutes{km: 500},
			cmd:    QuoteCommand{DistanceKm: floatPtr(10), Origin: "Brazzaville", Destination: "Pointe-Noire"},
			wantKm: "10",
		},
		{
			name:   "route lookup",
			routes: &fakeRoutes{km: 512.3456},
			cmd:    QuoteCommand{Origin: "Brazzaville", Destination: "Pointe-Noire"},
			wantKm: "512.346",
		},
		{
			name:    "route lookup failure",
			routes:  &fakeRoutes{err: errors.New("ZERO_RESULTS")},
			cmd:     QuoteCommand{Origin: "Brazzaville", Destination: "Nowhere"},
			wantErr: ErrDistanceUnavailable,
		},
		{
			name:    "explicit distance not finite",
			cmd:     QuoteCommand{DistanceKm: floatPtr(math.NaN())},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "route lookup returns infinity",
			routes:  &fakeRoutes{km: math.Inf(1)},
			cmd:     QuoteCommand{Origin: "Brazzaville", Destination: "Pointe-Noire"},
			wantErr: ErrDistanceUnavailable,
		},
		{
			name:    "route lookup not configured",
			cmd:     QuoteCommand{Origin: "Brazzaville", Destination: "Pointe-Noire"},
			wantErr: ErrDistanceUnavailable,
		},
		{
			name: "coordinates fallback",
			cmd:  QuoteCommand{Pickup: pickup, Dropoff: dropoff},
		},
		{
			name:    "coordinates out of range",
			cmd:     QuoteCommand{Pickup: &types.Point{Lat: 91}, Dropoff: dropoff},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "no distance at all",
			cmd:     QuoteCommand{},
			wantErr: ErrInvalidInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(nil, tc.routes)
			tc.cmd.Vehicles = []string{"hiace"}
			res, err := svc.Quote(context.Background(), tc.cmd)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Quote: %v", err)
			}
			if tc.wantKm != "" {
				assertDecimal(t, "distance", res.Meta.DistanceKm, tc.wantKm)
				return
			}
			if !res.Meta.DistanceKm.IsPositive() {
				t.Errorf("expected a positive straight-line distance, got %s", res.Meta.DistanceKm)
			}
		})
	}
}

func TestService_TariffFollowsSource(t *testing.T) {
	src := NewTariffSource(DefaultTariff())
	svc := NewService(src, nil, nil, zerolog.Nop())

	next := DefaultTariff()
	next.BusFeePolicy = BusFeeWithdrawal
	if err := src.Publish(next); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if svc.Tariff() != next {
		t.Error("service did not pick up the published tariff")
	}

	res, err := svc.Quote(context.Background(), QuoteCommand{Vehicles: []string{"hiace"}, DistanceKm: floatPtr(10)})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	assertDecimal(t, "bus rounded", res.Breakdown.BusRounded, "5225")
}
