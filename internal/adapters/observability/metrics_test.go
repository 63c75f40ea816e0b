package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"douro_cms/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveTranslation("en", "ok", 80*time.Millisecond)
	observability.ObserveMedia("store", nil)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{"douro_http_requests_total", "douro_translation_calls_total", "douro_media_operations_total"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func scrape(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	observability.MetricsHandler(observability.InitRegistry()).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	return rr.Body.String()
}

func TestObserveMedia_Outcome(t *testing.T) {
	observability.ObserveMedia("delete", errors.New("gone"))
	out := scrape(t)
	if !strings.Contains(out, `douro_media_operations_total{op="delete",outcome="error"}`) {
		t.Fatalf("delete error not counted:\n%s", out)
	}
}

func TestObserveTranslation_DisabledSkipsLatency(t *testing.T) {
	observability.ObserveTranslation("xx", "disabled", time.Second)
	out := scrape(t)
	if !strings.Contains(out, `douro_translation_calls_total{lang="xx",outcome="disabled"} 1`) {
		t.Fatalf("disabled call not counted:\n%s", out)
	}
	if strings.Contains(out, `douro_translation_duration_seconds_count{lang="xx"}`) {
		t.Fatalf("disabled call observed latency")
	}
}
