package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

// scrape gathers the registry over HTTP and parses the exposition text.
func scrape(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()

	parser := expfmt.NewTextParser(model.LegacyValidation)
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("parse exposition: %v\n%s", err, body)
	}

	values := make(map[string]float64)
	for name, family := range families {
		for _, m := range family.GetMetric() {
			key := name
			for _, l := range m.GetLabel() {
				key += "," + l.GetName() + "=" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			}
		}
	}
	return values
}

func TestCollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.AttemptDone("job-a", true, 100*time.Millisecond)
	c.AttemptDone("job-a", false, 50*time.Millisecond)
	c.AttemptDone("job-a", false, 50*time.Millisecond)
	c.RetryScheduled("job-a")
	c.SetStarted("job-a", true)

	values := scrape(t, reg)

	if got := values["cmd_watchdog_attempts_total,job=job-a,outcome=success"]; got != 1 {
		t.Errorf("success attempts = %v, want 1", got)
	}
	if got := values["cmd_watchdog_attempts_total,job=job-a,outcome=failure"]; got != 2 {
		t.Errorf("failure attempts = %v, want 2", got)
	}
	if got := values["cmd_watchdog_retries_total,job=job-a"]; got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
	if got := values["cmd_watchdog_session_started,job=job-a"]; got != 1 {
		t.Errorf("started gauge = %v, want 1", got)
	}
}

func TestCollectorExternalTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ExternalTransition("job-b", true)
	c.ExternalTransition("job-b", false)

	values := scrape(t, reg)

	if got := values["cmd_watchdog_external_running,job=job-b"]; got != 0 {
		t.Errorf("external running gauge = %v, want 0 after last transition", got)
	}
	if got := values["cmd_watchdog_external_transitions_total,job=job-b"]; got != 2 {
		t.Errorf("transitions = %v, want 2", got)
	}
}

func TestServerHealth(t *testing.T) {
	// Exercise the mux through httptest rather than binding the addr.
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", healthHandler)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}
