// Package fetch implements the downloads of §5's fetch phase (the
// concurrency bound is applied by the caller): repo descriptor sync and
// package blob retrieval, wrapped with retry and
// per-host circuit breaking so one unreachable repo cannot stall the rest.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
	circuit "github.com/rubyist/circuitbreaker"
)

var (
	ErrNotFound     = errors.New("artifact not found")
	ErrUpstreamDown = errors.New("upstream repo unavailable")
)

// Fetcher downloads repo descriptors and package blobs over HTTP with
// retry and DNS caching. Non-goal per §1: transport tuning beyond this is
// out of scope, so a plain net/http Transport with a DNS-caching dialer
// carries the load.
type Fetcher struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration

	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// New builds a Fetcher with a DNS-cached dialer, refreshed every 5
// minutes, matching the resilience layering git-pkgs-registries applies
// around its own artifact downloads.
func New() *Fetcher {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}

	return &Fetcher{
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					host, port, err := net.SplitHostPort(addr)
					if err != nil {
						return nil, err
					}
					ips, err := resolver.LookupHost(ctx, host)
					if err != nil {
						return nil, err
					}
					for _, ip := range ips {
						conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
						if err == nil {
							return conn, nil
						}
					}
					return nil, fmt.Errorf("failed to dial any resolved address for %s", host)
				},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		breakers:   make(map[string]*circuit.Breaker),
	}
}

func (f *Fetcher) breaker(registry string) *circuit.Breaker {
	f.mu.RLock()
	b, ok := f.breakers[registry]
	f.mu.RUnlock()
	if ok {
		return b
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.breakers[registry]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	f.breakers[registry] = b
	return b
}

// FetchToFile downloads url to destPath, retrying on transient failures
// with jittered exponential backoff and short-circuiting via a
// per-host breaker once a repo has failed repeatedly.
func (f *Fetcher) FetchToFile(ctx context.Context, rawURL, destPath string) error {
	b := f.breaker(registryOf(rawURL))
	if !b.Ready() {
		return fmt.Errorf("circuit open for %s: %w", registryOf(rawURL), ErrUpstreamDown)
	}

	return b.Call(func() error {
		return f.fetchWithRetry(ctx, rawURL, destPath)
	}, 0)
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL, destPath string) error {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := f.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			delay += time.Duration(float64(delay) * rand.Float64() * 0.1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := f.doFetch(ctx, rawURL, destPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return fmt.Errorf("failed to fetch %s after %d attempts: %w", rawURL, f.maxRetries+1, lastErr)
}

func (f *Fetcher) doFetch(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		out, err := createFile(destPath)
		if err != nil {
			return err
		}
		defer out.Close()
		if _, err := io.Copy(out, resp.Body); err != nil {
			return fmt.Errorf("failed to write %s: %w", destPath, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s returned %d: %w", rawURL, resp.StatusCode, ErrUpstreamDown)
	default:
		return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}
}

func registryOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
