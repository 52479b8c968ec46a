package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestServer_Health(t *testing.T) {
	degraded := false
	srv := NewServer("", func(ctx context.Context) HealthStatus {
		if degraded {
			return HealthStatus{Status: "degraded", Components: map[string]string{"build": "spawn failed"}}
		}
		return HealthStatus{Status: "up", Timestamp: time.Now(), Components: map[string]string{"tree": "ok"}}
	})
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Components["tree"] != "ok" {
		t.Errorf("unexpected components %v", status.Components)
	}

	degraded = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	BuildEventsTotal.WithLabelValues("started").Inc()

	rec := httptest.NewRecorder()
	NewServer("", nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "orbit_build_events_total") {
		t.Errorf("expected orbit metrics in exposition")
	}
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestInitTracing_RequiresEndpoint(t *testing.T) {
	if _, err := InitTracing(context.Background(), TracingConfig{ServiceName: "orbit"}); err == nil {
		t.Fatal("expected error without endpoint")
	}
}
