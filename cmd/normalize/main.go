// Command normalize reads every registered station file, normalizes it to
// hourly UTC Celsius means and writes the master temperature table and the
// station registry with observed date ranges.
//
// Usage:
//
//	go run ./cmd/normalize -data-root /data/greenland -out-dir out
//	go run ./cmd/normalize -registry stations.yaml -out-dir out
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	kafkaadapter "github.com/couchcryptid/station-temperature-etl/internal/adapter/kafka"
	"github.com/couchcryptid/station-temperature-etl/internal/adapter/parquet"
	"github.com/couchcryptid/station-temperature-etl/internal/adapter/s3"
	"github.com/couchcryptid/station-temperature-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/station-temperature-etl/internal/adapter/stationfile"
	"github.com/couchcryptid/station-temperature-etl/internal/app"
	"github.com/couchcryptid/station-temperature-etl/internal/pipeline"
	"github.com/couchcryptid/station-temperature-etl/internal/registry"
)

func main() {
	registryPath := flag.String("registry", "", "station registry YAML (default: built-in study registry)")
	dataRoot := flag.String("data-root", ".", "directory the built-in registry's source paths are relative to")
	outDir := flag.String("out-dir", ".", "directory for aws_temperature.csv and aws_stations.csv")
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	ctx, env, err := app.Start("normalize", *envFile)
	if err != nil {
		app.Exit(app.Fail("failed to load config", err))
	}
	app.Exit(env.Finish(run(ctx, env, *registryPath, *dataRoot, *outDir)))
}

func run(ctx context.Context, env *app.Env, registryPath, dataRoot, outDir string) error {
	reg, err := loadRegistry(registryPath, dataRoot)
	if err != nil {
		return err
	}
	env.Logger.Info("registry loaded", "stations", reg.Len())

	loaders, closers, err := sinks(env)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				env.Logger.Warn("sink close failed", "error", err)
			}
		}
	}()
	if err != nil {
		return err
	}

	out := pipeline.Output{
		MasterPath:   filepath.Join(outDir, "aws_temperature.csv"),
		RegistryPath: filepath.Join(outDir, "aws_stations.csv"),
	}
	p := pipeline.New(reg, stationfile.NewExtractor(), out, env.Logger, env.Metrics, env.Config.NormalizeWorkers, loaders...)
	env.Serve(p, func() any { return p.Progress() })

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		env.Logger.Warn("some stations were skipped", "failed", len(report.Failed), "processed", len(report.Processed))
	}

	if env.Config.S3.Enabled() {
		up, err := s3.NewUploader(env.Config.S3, env.Logger)
		if err != nil {
			return err
		}
		if _, err := up.Upload(ctx, env.RunID, out.MasterPath, out.RegistryPath); err != nil {
			env.Logger.Warn("artifact upload failed", "error", err)
			env.Metrics.SinkErrors.WithLabelValues("s3").Inc()
		}
	}
	return nil
}

func loadRegistry(path, dataRoot string) (*registry.Registry, error) {
	if path != "" {
		reg, err := registry.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		return reg, nil
	}
	reg, err := registry.Default(dataRoot)
	if err != nil {
		return nil, fmt.Errorf("built-in registry: %w", err)
	}
	return reg, nil
}

// sinks builds the optional loaders enabled by the environment.
func sinks(env *app.Env) ([]pipeline.Loader, []io.Closer, error) {
	cfg := env.Config
	var (
		loaders []pipeline.Loader
		closers []io.Closer
	)
	if cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(cfg, env.Logger)
		loaders = append(loaders, w)
		closers = append(closers, w)
	}
	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(cfg.SQLitePath, env.Logger)
		if err != nil {
			return nil, closers, err
		}
		loaders = append(loaders, store)
		closers = append(closers, store)
	}
	if cfg.ParquetPath != "" {
		w, err := parquet.NewWriter(cfg.ParquetPath, cfg.ParquetCompression, env.Logger)
		if err != nil {
			return nil, closers, err
		}
		loaders = append(loaders, w)
	}
	for _, l := range loaders {
		env.Logger.Info("sink enabled", "sink", l.Name())
	}
	return loaders, closers, nil
}
