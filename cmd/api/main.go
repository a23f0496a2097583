package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/riskcast-api/internal/config"
	"github.com/jwalitptl/riskcast-api/internal/handler"
	accidentHandler "github.com/jwalitptl/riskcast-api/internal/handler/accident"
	"github.com/jwalitptl/riskcast-api/internal/handler/dashboard"
	hospitalHandler "github.com/jwalitptl/riskcast-api/internal/handler/hospital"
	"github.com/jwalitptl/riskcast-api/internal/middleware"
	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/internal/router"
	accidentService "github.com/jwalitptl/riskcast-api/internal/service/accident"
	hospitalService "github.com/jwalitptl/riskcast-api/internal/service/hospital"
	"github.com/jwalitptl/riskcast-api/internal/service/session"
	"github.com/jwalitptl/riskcast-api/internal/weather"
	"github.com/jwalitptl/riskcast-api/pkg/logger"
	"github.com/jwalitptl/riskcast-api/pkg/messaging"
	"github.com/jwalitptl/riskcast-api/pkg/messaging/redis"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
	"github.com/jwalitptl/riskcast-api/pkg/scoring"
)

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(cfg.Log.ToLoggerConfig())

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry, "riskcast")

	// Models are loaded once; a missing artifact degrades its module.
	models := scoring.Load(cfg.Models.ToPaths())
	availability := model.ModelAvailability{
		HospitalLoaded: models.HospitalLoaded(),
		AccidentLoaded: models.AccidentLoaded(),
	}
	log.Info().
		Bool("hospital_loaded", availability.HospitalLoaded).
		Bool("accident_loaded", availability.AccidentLoaded).
		Msg("model availability")

	if cfg.Weather.APIKey == "" {
		log.Warn().Msg("weather api key not set, accident forecasts will fail upstream")
	}

	broker := newBroker(cfg.Redis)
	defer broker.Close()

	// Initialize services
	engine := hospitalService.NewEngine(models, hospitalService.Config{DemoBypass: cfg.Hospital.DemoBypass}, m)
	store := session.NewStore()
	weatherClient := weather.NewClient(cfg.Weather.ToClientConfig(), m)
	accidentSvc := accidentService.NewService(weatherClient, models.Accident, m, accidentService.Config{
		Location:    cfg.Weather.Location(),
		HorizonDays: cfg.Weather.HorizonDays,
	})

	// Initialize handlers
	h := handler.NewHandler(availability, registry)
	hospitalH := hospitalHandler.NewHandler(engine, store, broker, cfg.Redis.Channel, m)
	dashboardH := dashboard.NewHandler(store)
	accidentH := accidentHandler.NewHandler(accidentSvc)

	// Setup router
	r := router.NewRouter(h, hospitalH, dashboardH, accidentH, m, router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RateEnabled:    cfg.RateLimit.Enabled,
		RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:      cfg.RateLimit.Burst,
		CORSConfig:     middleware.CORSConfig{AllowOrigins: cfg.CORS.AllowedOrigins, MaxAge: 12 * time.Hour},
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   middleware.DefaultMaxBodySize,
	})
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

// newBroker connects to Redis when a URL is configured. Ingest events are
// best effort, so an unreachable broker is logged and replaced by a no-op.
func newBroker(cfg config.RedisConfig) messaging.Broker {
	if cfg.URL == "" {
		log.Info().Msg("redis url not set, ingest events disabled")
		return messaging.NopBroker{}
	}

	broker, err := redis.NewRedisBroker(context.Background(), cfg.ToBrokerConfig())
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, ingest events disabled")
		return messaging.NopBroker{}
	}
	return broker
}
