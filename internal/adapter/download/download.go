// Package download mirrors files linked from an HTTPS directory listing.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// Outcome labels, used for the downloads metric.
const (
	Downloaded = "downloaded"
	Skipped    = "skipped"
	Failed     = "failed"
)

// Config holds the downloader settings.
type Config struct {
	Username string
	Password string
	Timeout  time.Duration
	Workers  int
}

// Summary reports the outcome of a mirror run.
type Summary struct {
	Downloaded []string
	Skipped    []string
	Failed     map[string]error
}

// Observer is called once per file with its outcome label.
type Observer func(file, outcome string)

// Client lists and fetches files from a remote directory.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	observe    Observer
}

// NewClient creates a download client. Each request is bounded by cfg.Timeout.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		observe:    func(string, string) {},
	}
}

// OnFile registers an observer for per-file outcomes.
func (c *Client) OnFile(fn Observer) {
	if fn != nil {
		c.observe = fn
	}
}

// List fetches the listing at base and returns the absolute URLs of links
// whose basename matches pattern, sorted and deduplicated.
func (c *Client) List(ctx context.Context, base string, pattern *regexp.Regexp) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	resp, err := c.get(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()

	hrefs, err := links(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, href := range hrefs {
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		u := baseURL.ResolveReference(ref)
		name := path.Base(u.Path)
		if name == "" || name == "/" || name == "." || strings.HasSuffix(u.Path, "/") {
			continue
		}
		if pattern != nil && !pattern.MatchString(name) {
			continue
		}
		if s := u.String(); !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func links(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" && a.Val != "" {
					out = append(out, a.Val)
				}
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return out, nil
}

// Mirror downloads every url into dir using the configured number of
// workers. Files that already exist with a non-zero size are skipped. A failed
// file does not stop the others. Of several urls sharing a file name only the
// first is fetched.
func (c *Client) Mirror(ctx context.Context, urls []string, dir string) (Summary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create download dir: %w", err)
	}

	var (
		mu  sync.Mutex
		sum = Summary{Failed: make(map[string]error)}
	)
	record := func(name, outcome string, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case Downloaded:
			sum.Downloaded = append(sum.Downloaded, name)
		case Skipped:
			sum.Skipped = append(sum.Skipped, name)
		case Failed:
			sum.Failed[name] = err
		}
		c.observe(name, outcome)
	}

	type job struct{ url, name string }
	var (
		jobs []job
		seen = make(map[string]string, len(urls))
	)
	for _, u := range urls {
		name, err := basename(u)
		if err != nil {
			record(u, Failed, err)
			continue
		}
		if first, dup := seen[name]; dup {
			c.logger.Warn("duplicate file name, ignoring url", "file", name, "url", u, "kept", first)
			continue
		}
		seen[name] = u
		jobs = append(jobs, job{url: u, name: name})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for _, j := range jobs {
		u, name := j.url, j.name
		g.Go(func() error {
			dst := filepath.Join(dir, name)
			if info, err := os.Stat(dst); err == nil && info.Size() > 0 {
				c.logger.Debug("file exists, skipping", "file", name)
				record(name, Skipped, nil)
				return nil
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := c.fetch(gctx, u, dst); err != nil {
				c.logger.Warn("download failed", "file", name, "error", err)
				record(name, Failed, err)
				return nil
			}
			c.logger.Info("downloaded", "file", name)
			record(name, Downloaded, nil)
			return nil
		})
	}
	err := g.Wait()

	sort.Strings(sum.Downloaded)
	sort.Strings(sum.Skipped)
	if err != nil {
		return sum, fmt.Errorf("mirror: %w", err)
	}
	return sum, nil
}

func basename(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("url %q has no file name", raw)
	}
	return name, nil
}

func (c *Client) fetch(ctx context.Context, u, dst string) error {
	resp, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	part := dst + ".part"
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create %s: %w", part, err)
	}
	_, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("write %s: %w", part, err)
	}
	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("rename %s: %w", part, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("request %s: status %d: %s", u, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}
