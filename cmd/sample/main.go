// Command sample extracts, for every registered station, the time series of
// the nearest cell of a gridded reanalysis product.
//
// Usage:
//
//	go run ./cmd/sample -grid carra_skt.csv -var skt -kelvin -out carra_skt_stations.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/couchcryptid/station-temperature-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/station-temperature-etl/internal/adapter/grid"
	"github.com/couchcryptid/station-temperature-etl/internal/app"
	"github.com/couchcryptid/station-temperature-etl/internal/domain"
	"github.com/couchcryptid/station-temperature-etl/internal/registry"
)

func main() {
	gridPath := flag.String("grid", "", "long-format gridded CSV: time,latitude,longitude,<var>")
	variable := flag.String("var", "", "variable column (default: first non-coordinate column)")
	kelvin := flag.Bool("kelvin", false, "convert grid values from kelvin to Celsius")
	registryPath := flag.String("registry", "", "station registry YAML (default: built-in study registry)")
	out := flag.String("out", "grid_stations.csv", "output CSV: Date,<var>,aws")
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	if *gridPath == "" {
		flag.Usage()
		app.Exit(1)
	}

	ctx, env, err := app.Start("sample", *envFile)
	if err != nil {
		app.Exit(app.Fail("failed to load config", err))
	}
	env.Serve(nil, nil)
	app.Exit(env.Finish(run(ctx, env, *gridPath, *variable, *kelvin, *registryPath, *out)))
}

func run(ctx context.Context, env *app.Env, gridPath, variable string, kelvin bool, registryPath, out string) error {
	var (
		reg *registry.Registry
		err error
	)
	if registryPath != "" {
		reg, err = registry.Load(registryPath)
	} else {
		reg, err = registry.Default("")
	}
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	g, err := grid.ReadCSV(gridPath, variable)
	if err != nil {
		return err
	}
	loc, err := domain.NewLocator(g.Cells())
	if err != nil {
		return err
	}
	env.Logger.Info("grid loaded", "variable", g.Variable, "cells", len(g.Cells()), "times", len(g.Times()))

	var samples []domain.Sample
	for _, st := range reg.Stations() {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, dist := loc.Nearest(st.Lat, st.Lon)
		series, err := domain.SampleStation(g, loc, st, kelvin)
		if err != nil {
			env.Logger.Warn("sample station failed, skipping", "station", st.ID, "error", err)
			env.Metrics.GridStationsFailed.Inc()
			continue
		}
		env.Logger.Info("station sampled", "station", st.ID, "cell", cell, "distance_deg", dist, "values", len(series))
		samples = append(samples, series...)
	}
	if len(samples) == 0 {
		return errors.New("no station could be sampled")
	}

	if err := csvfile.WriteSamples(out, g.Variable, samples); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	env.Logger.Info("samples written", "path", out, "rows", len(samples))
	return nil
}
