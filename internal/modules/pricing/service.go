// README: Pricing service resolves fleet and distance inputs, then runs the fare engine.
package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"mova/internal/maps"
	"mova/internal/types"
)

type BusDirectory interface {
	BusTypes(ctx context.Context, ids []int64) ([]string, error)
}

type RouteResolver interface {
	DistanceKm(ctx context.Context, origin, destination string) (float64, error)
}

type Service struct {
	tariffs *TariffSource
	buses   BusDirectory
	routes  RouteResolver
	log     zerolog.Logger
}

// NewService wires the engine to its collaborators. buses and routes may be
// nil; quotes that need them then fail instead of guessing.
func NewService(tariffs *TariffSource, buses BusDirectory, routes RouteResolver, log zerolog.Logger) *Service {
	return &Service{tariffs: tariffs, buses: buses, routes: routes, log: log}
}

// QuoteCommand is a quote as submitted by a caller. Vehicles are taken from
// BusIDs, then Vehicles, then VehicleCounts, then VehicleType/Buses. Distance
// is taken from DistanceKm, then Origin/Destination, then Pickup/Dropoff.
type QuoteCommand struct {
	BusIDs        []int64
	Vehicles      []string
	VehicleCounts map[string]int
	VehicleType   string
	Buses         int
	DistanceKm    *float64
	Origin        string
	Destination   string
	Pickup        *types.Point
	Dropoff       *types.Point
	EventType     string
}

func (s *Service) Quote(ctx context.Context, cmd QuoteCommand) (*QuoteResult, error) {
	req := QuoteRequest{
		VehicleTypes:  cmd.Vehicles,
		VehicleCounts: cmd.VehicleCounts,
		VehicleType:   cmd.VehicleType,
		Buses:         cmd.Buses,
		EventType:     cmd.EventType,
	}

	if len(cmd.BusIDs) > 0 {
		vehicleTypes, err := s.resolveBuses(ctx, cmd.BusIDs)
		if err != nil {
			return nil, err
		}
		req.VehicleTypes = vehicleTypes
	}

	distance, err := s.resolveDistance(ctx, cmd)
	if err != nil {
		return nil, err
	}
	req.DistanceKm = distance

	// One snapshot per quote, even if a reload lands mid-computation.
	tariff := s.tariffs.Current()
	result, err := ComputeQuote(req, tariff)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("event", result.Meta.EventType).
		Int("buses", result.Meta.Buses).
		Str("distance_km", result.Meta.BilledDistanceKm.String()).
		Str("client_payable", result.Breakdown.ClientRounded.String()).
		Str("bus_payable", result.Breakdown.BusRounded.String()).
		Msg("quote computed")
	return result, nil
}

// Tariff returns the snapshot currently used for quotes.
func (s *Service) Tariff() *Tariff {
	return s.tariffs.Current()
}

func (s *Service) resolveBuses(ctx context.Context, ids []int64) ([]string, error) {
	if s.buses == nil {
		return nil, fmt.Errorf("%w: bus directory is not configured", ErrBusLookup)
	}
	vehicleTypes, err := s.buses.BusTypes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBusLookup, err)
	}
	if len(vehicleTypes) == 0 {
		return nil, fmt.Errorf("%w: none of the requested buses has a vehicle type", ErrInvalidInput)
	}
	return vehicleTypes, nil
}

func (s *Service) resolveDistance(ctx context.Context, cmd QuoteCommand) (decimal.Decimal, error) {
	switch {
	case cmd.DistanceKm != nil:
		if !finite(*cmd.DistanceKm) {
			return decimal.Zero, fmt.Errorf("%w: distance_km must be a finite number", ErrInvalidInput)
		}
		return decimal.NewFromFloat(*cmd.DistanceKm), nil

	case cmd.Origin != "" && cmd.Destination != "":
		if s.routes == nil {
			return decimal.Zero, fmt.Errorf("%w: route lookup is not configured", ErrDistanceUnavailable)
		}
		km, err := s.routes.DistanceKm(ctx, cmd.Origin, cmd.Destination)
		if err != nil {
			s.log.Warn().Err(err).Str("origin", cmd.Origin).Str("destination", cmd.Destination).Msg("route lookup failed")
			return decimal.Zero, fmt.Errorf("%w: %v", ErrDistanceUnavailable, err)
		}
		if !finite(km) || km < 0 {
			return decimal.Zero, fmt.Errorf("%w: route lookup returned %v km", ErrDistanceUnavailable, km)
		}
		return decimal.NewFromFloat(km).Round(3), nil

	case cmd.Pickup != nil && cmd.Dropoff != nil:
		if !cmd.Pickup.Valid() || !cmd.Dropoff.Valid() {
			return decimal.Zero, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
		}
		return decimal.NewFromFloat(maps.HaversineKm(*cmd.Pickup, *cmd.Dropoff)).Round(3), nil
	}
	return decimal.Zero, fmt.Errorf("%w: distance_km is required", ErrInvalidInput)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
