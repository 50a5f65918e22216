// Package goproxy fetches module metadata and source archives from a Go
// module proxy.
package goproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

const (
	defaultProxy         = "https://proxy.golang.org,direct"
	defaultTimeout       = 30 * time.Second
	defaultRetryInterval = 500 * time.Millisecond
	defaultUserAgent     = "apicompat/0.1.0"
)

// ErrNotFound is returned when no proxy in the chain knows the requested
// module or version.
var ErrNotFound = errors.New("not found on any proxy")

// Options configures a Client. Zero fields other than Retries take defaults.
type Options struct {
	// Proxy is a GOPROXY-style list. Empty means the GOPROXY environment
	// variable, then proxy.golang.org.
	Proxy   string
	Timeout time.Duration

	// Retries is the number of extra attempts after a transient failure.
	// Zero disables retrying.
	Retries       uint64
	RetryInterval time.Duration
	UserAgent     string
}

// Client downloads module zip files and version lists from the proxy chain.
type Client struct {
	httpClient    *http.Client
	userAgent     string
	proxies       []string
	retries       uint64
	retryInterval time.Duration
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	goproxy := opts.Proxy
	if strings.TrimSpace(goproxy) == "" {
		goproxy = os.Getenv("GOPROXY")
	}
	if strings.TrimSpace(goproxy) == "" {
		goproxy = defaultProxy
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		userAgent:     userAgent,
		proxies:       splitProxyList(goproxy),
		retries:       opts.Retries,
		retryInterval: interval,
	}
}

// splitProxyList splits a comma- or pipe-separated GOPROXY value.
func splitProxyList(goproxy string) []string {
	normalized := strings.NewReplacer("|", ",").Replace(goproxy)
	parts := strings.Split(normalized, ",")
	proxies := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimRight(strings.TrimSpace(p), "/"); trimmed != "" {
			proxies = append(proxies, trimmed)
		}
	}
	return proxies
}

// DownloadZip fetches the zip archive for the given module version.
func (c *Client) DownloadZip(ctx context.Context, mod, version string) ([]byte, error) {
	escapedVersion, err := module.EscapeVersion(version)
	if err != nil {
		return nil, fmt.Errorf("escaping version %q: %w", version, err)
	}
	data, err := c.get(ctx, mod, "@v/"+escapedVersion+".zip")
	if err != nil {
		return nil, fmt.Errorf("downloading %s@%s: %w", mod, version, err)
	}
	return data, nil
}

// Versions lists the tagged versions of mod known to the proxy, sorted by
// semantic version. Invalid entries are dropped.
func (c *Client) Versions(ctx context.Context, mod string) ([]string, error) {
	data, err := c.get(ctx, mod, "@v/list")
	if err != nil {
		return nil, fmt.Errorf("listing versions of %s: %w", mod, err)
	}

	var versions []string
	for _, line := range strings.Split(string(data), "\n") {
		v := strings.TrimSpace(line)
		if semver.IsValid(v) {
			versions = append(versions, v)
		}
	}
	semver.Sort(versions)
	return slices.Compact(versions), nil
}

// PreviousVersion returns the highest release of mod below version.
// Pre-releases are only considered when version is one itself.
func (c *Client) PreviousVersion(ctx context.Context, mod, version string) (string, error) {
	if !semver.IsValid(version) {
		return "", fmt.Errorf("invalid version %q", version)
	}
	versions, err := c.Versions(ctx, mod)
	if err != nil {
		return "", err
	}
	if prev := previous(versions, version); prev != "" {
		return prev, nil
	}
	return "", fmt.Errorf("no version of %s before %s: %w", mod, version, ErrNotFound)
}

// previous picks the highest entry of the sorted list below version.
func previous(sorted []string, version string) string {
	allowPre := semver.Prerelease(version) != ""
	for i := len(sorted) - 1; i >= 0; i-- {
		v := sorted[i]
		if semver.Compare(v, version) >= 0 {
			continue
		}
		if !allowPre && semver.Prerelease(v) != "" {
			continue
		}
		return v
	}
	return ""
}

// get walks the proxy chain for mod/suffix. A proxy answering 404 or 410
// passes the request to the next one.
func (c *Client) get(ctx context.Context, mod, suffix string) ([]byte, error) {
	escapedMod, err := module.EscapePath(mod)
	if err != nil {
		return nil, fmt.Errorf("escaping module path %q: %w", mod, err)
	}

	lastErr := ErrNotFound
	for _, proxy := range c.proxies {
		switch proxy {
		case "direct":
			slog.Debug("direct mode not supported, skipping")
			continue
		case "off":
			slog.Debug("proxy chain contains 'off', stopping")
			return nil, lastErr
		}

		url := fmt.Sprintf("%s/%s/%s", proxy, escapedMod, suffix)
		data, fetchErr := c.fetch(ctx, url)
		if fetchErr == nil {
			return data, nil
		}
		if !errors.Is(fetchErr, ErrNotFound) {
			return nil, fetchErr
		}
		lastErr = fetchErr
	}
	return nil, lastErr
}

// fetch GETs url, retrying network errors and 5xx responses with
// exponential backoff.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx)

	op := func() ([]byte, error) {
		return c.fetchOnce(ctx, url)
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("proxy request failed, retrying", "url", url, "error", err, "wait", wait)
	}
	return backoff.RetryNotifyWithData(op, policy, notify)
}

// fetchOnce performs a single GET. Errors that retrying cannot fix are
// wrapped as permanent.
func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("building request for %s: %w", url, err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, backoff.Permanent(fmt.Errorf("proxy returned %d for %s: %w", resp.StatusCode, url, ErrNotFound))
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("proxy returned %d for %s", resp.StatusCode, url)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body from %s: %w", url, err)
	}
	return data, nil
}
