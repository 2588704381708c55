package maps

import (
	"math"
	"testing"

	"mova/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: -4.2634, Lng: 15.2429},
			b:         types.Point{Lat: -4.2634, Lng: 15.2429},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Brazzaville to Pointe-Noire (~379km)",
			a:         types.Point{Lat: -4.2634, Lng: 15.2429},
			b:         types.Point{Lat: -4.7692, Lng: 11.8664},
			wantKm:    379,
			tolerance: 5,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         types.Point{Lat: 40.7128, Lng: -74.0060},
			b:         types.Point{Lat: 34.0522, Lng: -118.2437},
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	a := types.Point{Lat: -4.0, Lng: 15.0}
	b := types.Point{Lat: -5.0, Lng: 12.0}
	d1 := HaversineKm(a, b)
	d2 := HaversineKm(b, a)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}
