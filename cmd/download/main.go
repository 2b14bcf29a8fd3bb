// Command download mirrors the files of a remote HTTPS directory listing
// whose names match a pattern.
//
// Usage:
//
//	DOWNLOAD_USERNAME=... DOWNLOAD_PASSWORD=... go run ./cmd/download \
//	  -url https://example.org/carra/skt/ -match '^skt_2021_.*\.csv$' -dir data/carra
package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"

	"github.com/couchcryptid/station-temperature-etl/internal/adapter/download"
	"github.com/couchcryptid/station-temperature-etl/internal/app"
)

func main() {
	listing := flag.String("url", "", "directory listing URL")
	match := flag.String("match", ".", "regular expression applied to file names")
	dir := flag.String("dir", ".", "destination directory")
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	if *listing == "" {
		flag.Usage()
		app.Exit(1)
	}
	pattern, err := regexp.Compile(*match)
	if err != nil {
		app.Exit(app.Fail("invalid -match", err))
	}

	ctx, env, err := app.Start("download", *envFile)
	if err != nil {
		app.Exit(app.Fail("failed to load config", err))
	}
	env.Serve(nil, nil)
	app.Exit(env.Finish(run(ctx, env, *listing, pattern, *dir)))
}

func run(ctx context.Context, env *app.Env, listing string, pattern *regexp.Regexp, dir string) error {
	cfg := env.Config
	client := download.NewClient(download.Config{
		Username: cfg.DownloadUsername,
		Password: cfg.DownloadPassword,
		Timeout:  cfg.DownloadTimeout,
		Workers:  cfg.DownloadWorkers,
	}, env.Logger)
	client.OnFile(func(_, outcome string) {
		env.Metrics.Downloads.WithLabelValues(outcome).Inc()
	})

	urls, err := client.List(ctx, listing, pattern)
	if err != nil {
		return err
	}
	env.Logger.Info("listing fetched", "matches", len(urls), "workers", cfg.DownloadWorkers)

	sum, err := client.Mirror(ctx, urls, dir)
	env.Logger.Info("download summary",
		"downloaded", len(sum.Downloaded),
		"skipped", len(sum.Skipped),
		"failed", len(sum.Failed),
	)
	if err != nil {
		return err
	}
	if len(sum.Failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(sum.Failed), len(urls))
	}
	return nil
}
