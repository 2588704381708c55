package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// TariffFile mirrors the YAML tariff layout (see configs/pricing.yaml).
type TariffFile struct {
	Currency              string                 `mapstructure:"currency"`
	Vehicles              map[string]VehicleRate `mapstructure:"vehicles"`
	Events                map[string]float64     `mapstructure:"events"`
	ClientMoneyFeePercent float64                `mapstructure:"mobile_money_client_percent"`
	CommissionPercent     float64                `mapstructure:"commission_percent"`
	BusMoneyFeePercent    float64                `mapstructure:"mobile_money_bus_percent"`
	MinDistanceKm         float64                `mapstructure:"min_distance_km"`
	BusFeePolicy          string                 `mapstructure:"bus_fee_policy"`
	Rounding              RoundingFile           `mapstructure:"rounding"`
}

type VehicleRate struct {
	Label             string  `mapstructure:"label"`
	PerKm             float64 `mapstructure:"per_km"`
	MotivationPercent float64 `mapstructure:"motivation_percent"`
}

type RoundingFile struct {
	Mode  string         `mapstructure:"mode"`
	Steps []RoundingStep `mapstructure:"steps"`
}

type RoundingStep struct {
	Upto int64 `mapstructure:"upto"`
	To   int64 `mapstructure:"to"`
}

// LoadTariffFile reads a tariff file with its own viper instance so the
// caller can watch it independently of the process environment.
func LoadTariffFile(path string) (*viper.Viper, TariffFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, TariffFile{}, fmt.Errorf("read tariff file: %w", err)
	}
	file, err := DecodeTariff(v)
	if err != nil {
		return nil, TariffFile{}, err
	}
	return v, file, nil
}

func DecodeTariff(v *viper.Viper) (TariffFile, error) {
	var file TariffFile
	if err := v.Unmarshal(&file); err != nil {
		return TariffFile{}, fmt.Errorf("decode tariff file: %w", err)
	}
	return file, nil
}
