package pricing

import "errors"

var (
	// ErrInvalidInput covers unknown vehicle or event codes and empty compositions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDistanceUnavailable is returned when a trip distance could not be resolved.
	ErrDistanceUnavailable = errors.New("distance unavailable")
	// ErrBusLookup is returned when bus ids cannot be resolved to vehicle types.
	ErrBusLookup = errors.New("bus lookup failed")
	// ErrInvalidTariff is returned when a tariff snapshot fails validation.
	ErrInvalidTariff = errors.New("invalid tariff")
)
