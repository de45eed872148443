package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pkordes/jetjot/internal/config"
	"github.com/pkordes/jetjot/internal/geocode"
	"github.com/pkordes/jetjot/internal/handler"
	"github.com/pkordes/jetjot/internal/imaging"
	"github.com/pkordes/jetjot/internal/logging"
	"github.com/pkordes/jetjot/internal/middleware"
	"github.com/pkordes/jetjot/internal/ratelimit"
	"github.com/pkordes/jetjot/internal/service"
	"github.com/pkordes/jetjot/internal/token"
	"github.com/pkordes/jetjot/internal/weather"
	"github.com/pkordes/jetjot/spec"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, migrate bool) error {
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// --- Stores -----------------------------------------------------------
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	if migrate {
		provider, err := st.migrator(cfg)
		if err != nil {
			return err
		}
		results, err := provider.Up(ctx)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "count", len(results))
	}

	// --- Services ---------------------------------------------------------
	guard := ratelimit.NewGuard(
		ratelimit.New(cfg.RateLimit.GlobalMax, cfg.RateLimit.GlobalWindow),
		ratelimit.New(cfg.RateLimit.UserMax, cfg.RateLimit.UserWindow),
	)
	geocoder := geocode.New(cfg.GeocodeURL, cfg.OutboundTimeout, logger)
	forecasts := weather.New(weather.Options{
		ForecastURL: cfg.Weather.ForecastURL,
		ArchiveURL:  cfg.Weather.ArchiveURL,
		Timezone:    cfg.Weather.Timezone,
		Timeout:     cfg.OutboundTimeout,
	}, logger)

	api := handler.NewServer(handler.Services{
		Auth:      service.NewAuthService(st.creds, guard, cfg.BcryptCost, cfg.AuthLookupTimeout, logger),
		Tokens:    token.NewIssuer(cfg.JWTSecret, cfg.SessionTTL),
		Sprints:   service.NewSprintService(st.sprints, cfg.MaxSprintDays),
		Recurring: service.NewRecurringService(st.sprints),
		Travel:    service.NewTravelLogService(st.sprints, geocoder),
		Weather: service.NewWeatherService(st.sprints, forecasts, service.Coordinates{
			Lat: cfg.Weather.DefaultLat,
			Lng: cfg.Weather.DefaultLng,
		}),
		Export:  service.NewExportService(st.sprints),
		Admin:   service.NewAdminService(st.creds, st.sprints, logger),
		Photos:  imaging.EncodeDataURL,
		OpenAPI: spec.OpenAPI,
		Logger:  logger,
	})

	// --- Router -----------------------------------------------------------
	// RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", api.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Weather responses may wait on OutboundTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10*time.Second + cfg.OutboundTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for a signal, then give in-flight requests
	// up to 15 seconds to complete.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-stop:
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
