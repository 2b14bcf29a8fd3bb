// Package app wires the ambient pieces every batch command shares: dotenv
// and environment config, the logger, run metrics, signal handling, the
// optional status server and the Pushgateway push at exit.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	statushttp "github.com/couchcryptid/station-temperature-etl/internal/adapter/http"
	"github.com/couchcryptid/station-temperature-etl/internal/config"
	"github.com/couchcryptid/station-temperature-etl/internal/domain"
	"github.com/couchcryptid/station-temperature-etl/internal/observability"
)

// Env is the runtime environment of one command invocation.
type Env struct {
	Job     string
	RunID   string
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics

	stop   context.CancelFunc
	server *statushttp.Server
}

// Start loads configuration and returns a context cancelled on SIGINT or
// SIGTERM. envFile may be empty.
func Start(job, envFile string) (context.Context, *Env, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.NewString()
	logger := observability.NewLogger(cfg.Log()).With("job", job, "run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx, &Env{
		Job:     job,
		RunID:   runID,
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		stop:    stop,
	}, nil
}

// alwaysReady is used by commands without a meaningful readiness signal.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

// Serve starts the status server when METRICS_ADDR is set. ready and status
// may be nil.
func (e *Env) Serve(ready statushttp.ReadinessChecker, status statushttp.StatusFunc) {
	if e.Config.MetricsAddr == "" {
		return
	}
	if ready == nil {
		ready = alwaysReady{}
	}
	e.server = statushttp.NewServer(e.Config.MetricsAddr, ready, status, e.Metrics.Registry, e.Logger)
	go func() {
		if err := e.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Error("status server error", "error", err)
		}
	}()
}

// Finish records the run outcome, stops the status server and pushes the
// run metrics. It returns the process exit code.
func (e *Env) Finish(runErr error) int {
	defer e.stop()

	code := 0
	if runErr != nil {
		e.Logger.Error("run failed", "error", runErr)
		code = 1
	} else {
		e.Metrics.LastRunSuccess.Set(float64(domain.Now().Unix()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.Config.ShutdownTimeout)
	defer cancel()

	if e.server != nil {
		if err := e.server.Shutdown(ctx); err != nil {
			e.Logger.Error("status server shutdown error", "error", err)
		}
	}
	if err := observability.Push(ctx, e.Config.PushgatewayURL, e.Job, e.RunID, e.Metrics); err != nil {
		e.Logger.Warn("push metrics failed", "error", err)
	}
	e.Logger.Info("shutdown complete", "exit_code", code)
	return code
}

// Fail logs a startup error with a bare logger and returns exit code 1.
func Fail(msg string, err error) int {
	slog.Error(msg, "error", err)
	return 1
}

// Exit terminates the process with code when it is non-zero.
func Exit(code int) {
	if code != 0 {
		os.Exit(code)
	}
}
