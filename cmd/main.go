package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"log-triage-backend/config"
	"log-triage-backend/internal/app"
	"log-triage-backend/internal/controller"
	"log-triage-backend/internal/metrics"
	"log-triage-backend/internal/scheduler"
)

// @title           Log Triage API
// @version         1.0
// @description     Groups application log lines into signatures, annotates them, files deduplicated tickets and posts a digest.

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @tag.name         triage
// @tag.description  Triage runs and reports

func main() {
	fxApp := fx.New(
		// Core Dependencies
		fx.Provide(
			NewConfig,
		),
		app.Module,
		// HTTP
		fx.Provide(
			NewGinEngine,
			controller.NewTriageController,
			scheduler.NewScheduler,
		),
		fx.Invoke(
			RegisterAPIRoutes,
			func(*cron.Cron) {},
		),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second) // Timeout for startup
	defer cancelStart()
	if err := fxApp.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	<-fxApp.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second) // Timeout for graceful shutdown
	defer cancelStop()
	log.Info().Msg("Shutting down application...")
	if err := fxApp.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown due to error or timeout")
	}
	log.Info().Msg("All background processes finished. Exiting.")
}

func NewConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg.Server)
	return cfg, nil
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	return r
}

func RegisterAPIRoutes(
	lifecycle fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	triageController *controller.TriageController,
	recorder *metrics.Recorder,
) {
	controller.RegisterTriageRoutes(router, triageController)
	controller.RegisterMetricsRoute(router, recorder)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Starting HTTP server on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server ListenAndServe error")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Shutting down HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
