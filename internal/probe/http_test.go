package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProbeHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ok, err := HTTPProbe{URL: srv.URL}.Check(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected healthy, got ok=%v err=%v", ok, err)
	}
}

func TestHTTPProbeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ok, err := HTTPProbe{URL: srv.URL}.Check(context.Background())
	if err != nil {
		t.Fatalf("probe must not error on 5xx: %v", err)
	}
	if ok {
		t.Fatalf("5xx must report unhealthy")
	}
}

func TestHTTPProbeUnreachableReturnsWithinTimeout(t *testing.T) {
	// Reserved TEST-NET-1 address; connection attempts hang until timeout.
	p := HTTPProbe{URL: "http://192.0.2.1:9/health", Timeout: 300 * time.Millisecond}
	start := time.Now()
	ok, err := p.Check(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("unreachable endpoint must not error: %v", err)
	}
	if ok {
		t.Fatalf("unreachable endpoint must report unhealthy")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("probe blocked too long: %v", elapsed)
	}
}
