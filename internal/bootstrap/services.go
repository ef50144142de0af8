package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtapi/booking-engine/config"
	"github.com/dtapi/booking-engine/internal/adapters/eligibility"
	"github.com/dtapi/booking-engine/internal/adapters/gateway"
	"github.com/dtapi/booking-engine/internal/adapters/sweeper"
	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/internal/data"
	"github.com/dtapi/booking-engine/internal/service"
)

const shutdownWaitTimeout = 10 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Booking     *service.BookingService
	Assignment  *service.AssignmentService
	Dispatch    *service.DispatchService
	Telemetry   *service.TelemetryService
	Attempts    core.AttemptRepository
	Eligibility *eligibility.RedisProvider
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Jobs        *data.JobRepo
	Offers      *data.OfferRepo
	Assignments *data.AssignmentRepo
	Attempts    *data.AttemptRepo
}

func buildRepositories(db *sql.DB, logger *slog.Logger) *serviceRepositories {
	cfg := data.RepoConfig{Logger: logger}
	return &serviceRepositories{
		Jobs:        data.NewJobRepo(db, cfg),
		Offers:      data.NewOfferRepo(db, cfg),
		Assignments: data.NewAssignmentRepo(db, cfg),
		Attempts:    data.NewAttemptRepo(db, cfg),
	}
}

// buildGateways builds the outbound notification clients. A provider with no
// configured URL is left nil; dispatch reports it as a failed channel instead
// of refusing to start.
func buildGateways(cfg config.DispatchConfig, logger *slog.Logger) service.DispatchGateways {
	var gateways service.DispatchGateways

	if cfg.PushURL != "" {
		push, err := gateway.NewPushClient(gateway.PushConfig{
			URL:        cfg.PushURL,
			AuthToken:  cfg.PushAuthToken,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("push gateway disabled", "error", err)
		} else {
			gateways.Push = push
		}
	} else {
		logger.Warn("push gateway not configured")
	}

	if cfg.SMSURL != "" {
		sms, err := gateway.NewSMSClient(gateway.SMSConfig{
			URL:        cfg.SMSURL,
			AuthToken:  cfg.SMSAuthToken,
			Sender:     cfg.SMSSender,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("sms gateway disabled", "error", err)
		} else {
			gateways.SMS = sms
		}
	} else {
		logger.Warn("sms gateway not configured")
	}

	return gateways
}

// NewServices wires repositories, adapters and services.
func NewServices(deps *ServiceDeps) ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB, logger)

	roster := eligibility.NewRedisProvider(deps.RedisClient, eligibility.Options{Logger: logger})

	dispatchSvc := service.NewDispatchService(service.DispatchServiceOptions{
		Gateways: buildGateways(deps.Config.Dispatch, logger),
		Attempts: repos.Attempts,
		Config:   deps.Config.Dispatch,
		Logger:   logger,
	})

	assignmentSvc := service.NewAssignmentService(service.AssignmentServiceOptions{
		Repos: service.AssignmentRepos{
			Jobs:        repos.Jobs,
			Offers:      repos.Offers,
			Assignments: repos.Assignments,
		},
		Eligibility: roster,
		Logger:      logger,
	})

	bookingSvc := service.NewBookingService(service.BookingServiceOptions{
		Jobs:       repos.Jobs,
		Assignment: assignmentSvc,
		Dispatch:   dispatchSvc,
		Logger:     logger,
	})

	telemetrySvc := service.NewTelemetryService(service.TelemetryServiceOptions{
		Jobs:   repos.Jobs,
		Logger: logger,
	})

	return ServiceContainer{
		Booking:     bookingSvc,
		Assignment:  assignmentSvc,
		Dispatch:    dispatchSvc,
		Telemetry:   telemetrySvc,
		Attempts:    repos.Attempts,
		Eligibility: roster,
	}
}

// ServiceOrchestrationConfig contains everything needed to run the enabled services.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, len(enabled)+1)

	var httpServer *http.Server
	if enabled[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			DB:       cfg.DB,
			Logger:   logger,
			ErrCh:    errCh,
		})
	}

	var backgrounds []backgroundServiceHandle
	if enabled[config.ServiceModeSweeper] {
		handle, sweepErr := startSweeper(serviceCtx, cfg, logger, errCh)
		if sweepErr != nil {
			return sweepErr
		}
		backgrounds = append(backgrounds, handle)
	}

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  httpServer,
		logger:      logger,
		backgrounds: backgrounds,
	})
}

func startSweeper(
	ctx context.Context,
	cfg *ServiceOrchestrationConfig,
	logger *slog.Logger,
	errCh chan<- error,
) (backgroundServiceHandle, error) {
	runner, err := sweeper.NewRunner(sweeper.RunnerOptions{
		DB:     cfg.DB,
		Config: cfg.Config.Sweeper,
		Logger: logger,
	})
	if err != nil {
		return backgroundServiceHandle{}, fmt.Errorf("wire sweeper: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("starting sweeper", "interval", cfg.Config.Sweeper.Interval)
		if runErr := runner.Run(ctx); runErr != nil {
			errCh <- fmt.Errorf("sweeper: %w", runErr)
		}
	}()

	return backgroundServiceHandle{name: "sweeper", done: done}, nil
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
