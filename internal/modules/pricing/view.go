package pricing

import "github.com/shopspring/decimal"

// QuoteView is the JSON shape of a quote returned to API and CLI callers.
type QuoteView struct {
	Currency      string        `json:"currency"`
	Breakdown     BreakdownView `json:"breakdown"`
	Meta          MetaView      `json:"meta"`
	ClientPayable float64       `json:"client_payable"`
	BusPayable    float64       `json:"bus_payable"`
}

type BreakdownView struct {
	Base          float64 `json:"base"`
	Motivation    float64 `json:"motivation"`
	Event         float64 `json:"event"`
	Majorated     float64 `json:"majorated"`
	ClientFees    float64 `json:"client_fees"`
	ClientRaw     float64 `json:"client_raw"`
	ClientRounded float64 `json:"client_rounded"`
	Commission    float64 `json:"commission"`
	BusBase       float64 `json:"bus_base"`
	BusFees       float64 `json:"bus_fees"`
	BusRaw        float64 `json:"bus_raw"`
	BusRounded    float64 `json:"bus_rounded"`
}

type VehicleView struct {
	Label             string  `json:"label"`
	Count             int     `json:"count"`
	PerKm             float64 `json:"per_km"`
	MotivationPercent float64 `json:"motivation_percent"`
	Base              float64 `json:"base"`
	Motivation        float64 `json:"motivation"`
	EventShare        float64 `json:"event_share"`
	MajoratedShare    float64 `json:"majorated_share"`
	ClientFeeShare    float64 `json:"client_fee_share"`
	ClientRawShare    float64 `json:"client_raw_share"`
	ClientScaledShare float64 `json:"client_scaled_share"`
	CommissionShare   float64 `json:"commission_share"`
	BusBaseShare      float64 `json:"bus_base_share"`
	BusFeeShare       float64 `json:"bus_fee_share"`
	BusRawShare       float64 `json:"bus_raw_share"`
	BusFinal          float64 `json:"bus_final"`
}

type MetaView struct {
	Vehicles              map[string]VehicleView `json:"vehicles"`
	VehicleOrder          []string               `json:"vehicle_order"`
	Event                 string                 `json:"event"`
	EventPercent          float64                `json:"event_percent"`
	DistanceKm            float64                `json:"distance_km"`
	BilledDistanceKm      float64                `json:"billed_distance_km"`
	Buses                 int                    `json:"buses"`
	ClientMoneyFeePercent float64                `json:"mobile_money_client_percent"`
	CommissionPercent     float64                `json:"commission_percent"`
	BusMoneyFeePercent    float64                `json:"mobile_money_bus_percent"`
	BusFeePolicy          string                 `json:"bus_fee_policy"`
	Rounding              string                 `json:"rounding"`
}

// NewQuoteView flattens r for serialization. Intermediate amounts keep four
// decimals; bus finals are already cent amounts.
func NewQuoteView(r *QuoteResult) QuoteView {
	b := r.Breakdown
	view := QuoteView{
		Currency: r.Currency,
		Breakdown: BreakdownView{
			Base:          num(b.Base),
			Motivation:    num(b.Motivation),
			Event:         num(b.Event),
			Majorated:     num(b.Majorated),
			ClientFees:    num(b.ClientFees),
			ClientRaw:     num(b.ClientRaw),
			ClientRounded: num(b.ClientRounded),
			Commission:    num(b.Commission),
			BusBase:       num(b.BusBase),
			BusFees:       num(b.BusFees),
			BusRaw:        num(b.BusRaw),
			BusRounded:    num(b.BusRounded),
		},
		Meta: MetaView{
			Vehicles:              make(map[string]VehicleView, len(r.Vehicles)),
			VehicleOrder:          make([]string, 0, len(r.Vehicles)),
			Event:                 r.Meta.EventType,
			EventPercent:          num(r.Meta.EventPercent),
			DistanceKm:            num(r.Meta.DistanceKm),
			BilledDistanceKm:      num(r.Meta.BilledDistanceKm),
			Buses:                 r.Meta.Buses,
			ClientMoneyFeePercent: num(r.Meta.ClientMoneyFeePercent),
			CommissionPercent:     num(r.Meta.CommissionPercent),
			BusMoneyFeePercent:    num(r.Meta.BusMoneyFeePercent),
			BusFeePolicy:          string(r.Meta.BusFeePolicy),
			Rounding:              r.Meta.RoundingMode,
		},
		ClientPayable: num(b.ClientRounded),
		BusPayable:    num(b.BusRounded),
	}
	for _, v := range r.Vehicles {
		view.Meta.VehicleOrder = append(view.Meta.VehicleOrder, v.Type)
		view.Meta.Vehicles[v.Type] = VehicleView{
			Label:             v.Label,
			Count:             v.Count,
			PerKm:             num(v.PerKm),
			MotivationPercent: num(v.MotivationPercent),
			Base:              num(v.Base),
			Motivation:        num(v.Motivation),
			EventShare:        num(v.EventShare),
			MajoratedShare:    num(v.MajoratedShare),
			ClientFeeShare:    num(v.ClientFeeShare),
			ClientRawShare:    num(v.ClientRawShare),
			ClientScaledShare: num(v.ClientScaledShare),
			CommissionShare:   num(v.CommissionShare),
			BusBaseShare:      num(v.BusBaseShare),
			BusFeeShare:       num(v.BusFeeShare),
			BusRawShare:       num(v.BusRawShare),
			BusFinal:          num(v.BusFinal),
		}
	}
	return view
}

type VehicleOption struct {
	Code              string  `json:"code"`
	Label             string  `json:"label"`
	PerKm             float64 `json:"per_km"`
	MotivationPercent float64 `json:"motivation_percent"`
}

type EventOption struct {
	Code    string  `json:"code"`
	Percent float64 `json:"percent"`
}

// TariffView lists what a caller may put in a quote request.
type TariffView struct {
	Currency              string          `json:"currency"`
	Vehicles              []VehicleOption `json:"vehicles"`
	Events                []EventOption   `json:"events"`
	ClientMoneyFeePercent float64         `json:"mobile_money_client_percent"`
	CommissionPercent     float64         `json:"commission_percent"`
	BusMoneyFeePercent    float64         `json:"mobile_money_bus_percent"`
	MinDistanceKm         float64         `json:"min_distance_km"`
	BusFeePolicy          string          `json:"bus_fee_policy"`
	Rounding              string          `json:"rounding"`
}

func NewTariffView(t *Tariff) TariffView {
	view := TariffView{
		Currency:              t.currency(),
		Vehicles:              make([]VehicleOption, 0, len(t.Vehicles)),
		Events:                make([]EventOption, 0, len(t.Events)),
		ClientMoneyFeePercent: num(t.ClientMoneyFeePercent),
		CommissionPercent:     num(t.CommissionPercent),
		BusMoneyFeePercent:    num(t.BusMoneyFeePercent),
		MinDistanceKm:         num(t.MinDistanceKm),
		BusFeePolicy:          string(t.busFeePolicy()),
		Rounding:              t.roundingMode(),
	}
	for _, code := range t.VehicleCodes() {
		v := t.Vehicles[code]
		view.Vehicles = append(view.Vehicles, VehicleOption{
			Code:              code,
			Label:             v.Label,
			PerKm:             num(v.PerKm),
			MotivationPercent: num(v.MotivationPercent),
		})
	}
	for _, code := range t.EventCodes() {
		view.Events = append(view.Events, EventOption{Code: code, Percent: num(t.Events[code])})
	}
	return view
}

func num(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}
