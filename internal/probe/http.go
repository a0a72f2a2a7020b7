package probe

import (
	"context"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 2 * time.Second

// HTTPProbe issues a best-effort GET against a health endpoint. Any
// transport failure or timeout is reported as unhealthy, not as an
// error, so a status query never blocks on a dead endpoint.
type HTTPProbe struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client // optional override, used by tests
}

func (p HTTPProbe) Check(ctx context.Context) (bool, error) {
	if p.URL == "" {
		return false, nil
	}
	to := p.Timeout
	if to <= 0 {
		to = defaultHTTPTimeout
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: to}
	}
	cctx, cancel := context.WithTimeout(ctx, to)
	defer cancel()
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, nil
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

func (p HTTPProbe) Describe() string { return "http:" + p.URL }
