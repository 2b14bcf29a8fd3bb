// Command calibrate fits a linear correction of a remote-sensing or
// reanalysis product against the station master table and writes the
// coefficients.
//
// Usage:
//
//	go run ./cmd/calibrate -truth aws_temperature.csv -product landsat.csv -var ST_B10 \
//	  -tolerance 1h -out calibration.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/couchcryptid/station-temperature-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/station-temperature-etl/internal/app"
	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

type options struct {
	truth      string
	product    string
	variable   string
	tolerance  time.Duration
	allowExact bool
	daily      bool
	out        string
}

func main() {
	var o options
	flag.StringVar(&o.truth, "truth", "aws_temperature.csv", "master temperature table")
	flag.StringVar(&o.product, "product", "", "product CSV with Date, aws and the product variable")
	flag.StringVar(&o.variable, "var", "", "product variable column, e.g. ST_B10 or airtemp")
	flag.DurationVar(&o.tolerance, "tolerance", time.Hour, "maximum time gap of a joined pair (0 = unlimited)")
	flag.BoolVar(&o.allowExact, "allow-exact", false, "allow pairs with identical timestamps (default true with -daily)")
	flag.BoolVar(&o.daily, "daily", false, "re-aggregate the truth to daily means before joining")
	flag.StringVar(&o.out, "out", "calibration.csv", "output CSV: coefficient,intercept,r_squared")
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading the environment")
	flag.Parse()
	o.allowExact = allowExact(o.daily, o.allowExact, isSet("allow-exact"))

	if o.product == "" || o.variable == "" {
		flag.Usage()
		app.Exit(1)
	}

	ctx, env, err := app.Start("calibrate", *envFile)
	if err != nil {
		app.Exit(app.Fail("failed to load config", err))
	}
	env.Serve(nil, nil)
	app.Exit(env.Finish(run(ctx, env, o)))
}

func run(_ context.Context, env *app.Env, o options) error {
	rows, err := csvfile.ReadHourly(o.truth)
	if err != nil {
		return fmt.Errorf("read truth: %w", err)
	}
	truth := csvfile.Truth(rows)
	if o.daily {
		truth = daily(truth)
	}
	product, err := csvfile.ReadSamples(o.product, o.variable)
	if err != nil {
		return fmt.Errorf("read product: %w", err)
	}

	pairs := domain.NearestJoin(truth, product, o.tolerance, o.allowExact)
	env.Metrics.CalibrationPairs.Set(float64(len(pairs)))
	env.Logger.Info("joined", "truth", len(truth), "product", len(product), "pairs", len(pairs))

	cal, err := domain.Calibrate(pairs, env.Config.CalibrationSeed)
	if err != nil {
		return err
	}
	env.Logger.Info("model fitted",
		"coefficient", cal.Model.Coefficient,
		"intercept", cal.Model.Intercept,
		"r_squared", cal.RSquared,
		"rmse", cal.RMSE,
		"train", cal.Train,
		"test", cal.Test,
	)
	for _, s := range cal.Stations {
		env.Logger.Info("station agreement",
			"station", s.Station,
			"pairs", s.Pairs,
			"r_squared_before", s.RSquaredBefore,
			"r_squared_after", s.RSquaredAfter,
			"rmse_before", s.RMSEBefore,
			"rmse_after", s.RMSEAfter,
		)
	}

	if err := csvfile.WriteCalibration(o.out, cal); err != nil {
		return fmt.Errorf("write calibration: %w", err)
	}
	env.Logger.Info("calibration written", "path", o.out)
	return nil
}

// allowExact resolves the exact-match policy: off for the hourly join, on for
// daily means, which are stamped at midnight. An explicit flag wins.
func allowExact(daily, value, explicit bool) bool {
	if explicit {
		return value
	}
	return daily
}

func isSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// daily re-aggregates hourly truth samples to daily means per station.
func daily(samples []domain.Sample) []domain.Sample {
	var (
		order []string
		by    = make(map[string][]domain.Reading)
	)
	for _, s := range samples {
		if _, ok := by[s.Station]; !ok {
			order = append(order, s.Station)
		}
		by[s.Station] = append(by[s.Station], domain.Reading{Time: s.Time, Celsius: s.Value})
	}
	var out []domain.Sample
	for _, id := range order {
		for _, r := range domain.AggregateDaily(id, by[id]) {
			out = append(out, domain.Sample{Station: r.Station, Time: r.Time, Value: r.Temperature})
		}
	}
	return out
}
