// README: Quote handlers: price a trip, list tariff options, export a PDF devis.
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mova/internal/modules/pricing"
	"mova/internal/pdf"
	"mova/internal/types"
)

type QuoteHandler struct {
	pricing *pricing.Service
	pdf     *pdf.Generator
	log     zerolog.Logger
}

func NewQuoteHandler(svc *pricing.Service, gen *pdf.Generator, log zerolog.Logger) *QuoteHandler {
	return &QuoteHandler{pricing: svc, pdf: gen, log: log}
}

type quoteReq struct {
	BusIDs        []int64        `json:"bus_ids"`
	Vehicles      []string       `json:"vehicles"`
	VehicleCounts map[string]int `json:"vehicle_counts"`
	VehicleType   string         `json:"vehicle_type"`
	Buses         int            `json:"buses"`
	DistanceKm    *float64       `json:"distance_km"`
	Origin        string         `json:"origin"`
	Destination   string         `json:"destination"`
	Pickup        *types.Point   `json:"pickup"`
	Dropoff       *types.Point   `json:"dropoff"`
	Event         string         `json:"event"`
	When          *time.Time     `json:"when"`
	Customer      string         `json:"customer"`
}

func (r quoteReq) command() pricing.QuoteCommand {
	return pricing.QuoteCommand{
		BusIDs:        r.BusIDs,
		Vehicles:      r.Vehicles,
		VehicleCounts: r.VehicleCounts,
		VehicleType:   r.VehicleType,
		Buses:         r.Buses,
		DistanceKm:    r.DistanceKm,
		Origin:        strings.TrimSpace(r.Origin),
		Destination:   strings.TrimSpace(r.Destination),
		Pickup:        r.Pickup,
		Dropoff:       r.Dropoff,
		EventType:     r.Event,
	}
}

func (h *QuoteHandler) bind(c *gin.Context) (quoteReq, bool) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return req, false
	}
	if req.DistanceKm != nil && *req.DistanceKm < 0 {
		writeError(c, http.StatusBadRequest, "distance_km must not be negative")
		return req, false
	}
	if req.Buses < 0 {
		writeError(c, http.StatusBadRequest, "buses must not be negative")
		return req, false
	}
	return req, true
}

func (h *QuoteHandler) Quote(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	res, err := h.pricing.Quote(c.Request.Context(), req.command())
	if err != nil {
		writePricingError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, pricing.NewQuoteView(res))
}

func (h *QuoteHandler) Options(c *gin.Context) {
	writeJSON(c, http.StatusOK, pricing.NewTariffView(h.pricing.Tariff()))
}

func (h *QuoteHandler) PDF(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	res, err := h.pricing.Quote(c.Request.Context(), req.command())
	if err != nil {
		writePricingError(c, h.log, err)
		return
	}

	var tripDate time.Time
	if req.When != nil {
		tripDate = *req.When
	}
	ref := "Q-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	out, err := h.pdf.Generate(pdf.QuoteDocument{
		Reference: ref,
		IssuedAt:  time.Now(),
		TripDate:  tripDate,
		Customer:  strings.TrimSpace(req.Customer),
		Route:     routeLabel(req.Origin, req.Destination),
		Quote:     res,
	})
	if err != nil {
		h.log.Error().Err(err).Str("reference", ref).Msg("render quote pdf")
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	fileName := fmt.Sprintf("devis-%s.pdf", ref)
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/pdf", out)
}

func routeLabel(origin, destination string) string {
	origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return ""
	}
	return origin + " - " + destination
}
