// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"mova/internal/modules/pricing"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writePricingError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrDistanceUnavailable):
		writeError(c, http.StatusBadGateway, "could not resolve trip distance")
	case errors.Is(err, pricing.ErrBusLookup):
		log.Error().Err(err).Msg("bus lookup failed")
		writeError(c, http.StatusServiceUnavailable, "bus directory unavailable")
	default:
		log.Error().Err(err).Msg("quote failed")
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
