// Package connectivity decides whether remote model backends are reachable.
package connectivity

import (
	"context"
	"net/http"
	"time"

	"dreamweaver-ai/internal/contextutil"
)

// Checker reports whether the network is usable.
type Checker interface {
	Online(ctx context.Context) bool
}

// Probe checks reachability with a short GET against a fixed endpoint.
type Probe struct {
	URL     string
	Timeout time.Duration
	client  *http.Client
}

// NewProbe creates a probe for url. A zero timeout defaults to two seconds.
func NewProbe(url string, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Probe{
		URL:     url,
		Timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Online reports true when the endpoint answers with a non-5xx status within the timeout.
// Any failure, including a malformed URL or a panic in the transport, yields false.
func (p *Probe) Online(ctx context.Context) (online bool) {
	logger := contextutil.LoggerFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.WarnContext(ctx, "connectivity probe panicked", "url", p.URL, "panic", r)
			online = false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		logger.DebugContext(ctx, "connectivity probe request invalid", "url", p.URL, "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logger.DebugContext(ctx, "connectivity probe failed", "url", p.URL, "error", err)
		return false
	}
	_ = resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}

// Static is a Checker with a fixed answer.
type Static bool

// Online returns the fixed answer.
func (s Static) Online(context.Context) bool {
	return bool(s)
}
