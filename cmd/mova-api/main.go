// README: Entry point; loads config, wires the pricing service and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mova/internal/config"
	httptransport "mova/internal/http"
	"mova/internal/infra"
	"mova/internal/logger"
	"mova/internal/maps"
	"mova/internal/modules/pricing"
	"mova/internal/pdf"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := infra.NewJWTVerifier(cfg.Auth.AccessSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("init token verifier")
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()
	if err := infra.PingRedis(ctx, redisClient); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable; bus lookups go to postgres")
	}

	tariffs, tariffFile, err := pricing.LoadTariffSource(cfg.Pricing.TariffFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load tariff")
	}
	if cfg.Pricing.WatchTariff {
		tariffs.Watch(tariffFile, log)
	}
	log.Info().
		Str("file", cfg.Pricing.TariffFile).
		Strs("vehicles", tariffs.Current().VehicleCodes()).
		Bool("watch", cfg.Pricing.WatchTariff).
		Msg("tariff loaded")

	var routes pricing.RouteResolver
	if cfg.Maps.APIKey != "" {
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("init maps client")
		}
		routes = routeSvc
	} else {
		log.Warn().Msg("MOVA_MAPS_API_KEY not set; address-based quotes are disabled")
	}

	busStore := pricing.NewStore(dbPool, redisClient, cfg.Redis.BusCacheTTL)
	pricingSvc := pricing.NewService(tariffs, busStore, routes, log)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Pricing:     pricingSvc,
		PDF:         pdf.NewGenerator("Mova"),
		Verifier:    verifier,
		Log:         log,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("starting mova api")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}
