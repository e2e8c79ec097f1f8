package validation

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// ConnectivityChecker probes backend services over HTTP.
//
// It holds a timeout and a TLS policy so that callers can reuse a single
// checker for every endpoint in the startup suite.
type ConnectivityChecker struct {
	timeout              time.Duration
	allowSelfSignedCerts bool
}

// ConnectivityResult carries the outcome of a single probe.
type ConnectivityResult struct {
	Reachable  bool
	StatusCode int
	Message    string
	Latency    time.Duration
	Error      error
}

// NewConnectivityChecker creates a checker with the given timeout.
func NewConnectivityChecker(timeout time.Duration, allowSelfSignedCerts bool) *ConnectivityChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ConnectivityChecker{
		timeout:              timeout,
		allowSelfSignedCerts: allowSelfSignedCerts,
	}
}

// CheckEndpoint sends a HEAD request to the URL and reports reachability.
// Any HTTP status counts as reachable: a 404 from a server still proves the
// host is up and listening.
func (c *ConnectivityChecker) CheckEndpoint(serviceURL string) ConnectivityResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, serviceURL, nil)
	if err != nil {
		return ConnectivityResult{
			Reachable: false,
			Message:   fmt.Sprintf("invalid URL: %v", err),
			Latency:   time.Since(start),
			Error:     err,
		}
	}

	client := &http.Client{Timeout: c.timeout}
	if c.allowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return ConnectivityResult{
			Reachable: false,
			Message:   fmt.Sprintf("unreachable: %v", err),
			Latency:   latency,
			Error:     err,
		}
	}
	defer resp.Body.Close()

	return ConnectivityResult{
		Reachable:  true,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("reachable (HTTP %d, %dms)", resp.StatusCode, latency.Milliseconds()),
		Latency:    latency,
	}
}
