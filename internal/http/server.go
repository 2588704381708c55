// README: API gateway; holds the service dependencies behind the HTTP routes.
package http

import (
	"github.com/rs/zerolog"

	"mova/internal/infra"
	"mova/internal/modules/pricing"
	"mova/internal/pdf"
)

type ServerDeps struct {
	Pricing     *pricing.Service
	PDF         *pdf.Generator
	Verifier    infra.TokenVerifier
	Log         zerolog.Logger
	CORSOrigins []string
}

type Server struct {
	pricing     *pricing.Service
	pdf         *pdf.Generator
	verifier    infra.TokenVerifier
	log         zerolog.Logger
	corsOrigins []string
}

func NewServer(deps ServerDeps) *Server {
	gen := deps.PDF
	if gen == nil {
		gen = pdf.NewGenerator("")
	}
	return &Server{
		pricing:     deps.Pricing,
		pdf:         gen,
		verifier:    deps.Verifier,
		log:         deps.Log,
		corsOrigins: deps.CORSOrigins,
	}
}
