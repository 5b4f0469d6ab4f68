package telemetry

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/visiona/framebench/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSnapshotServesLatestPublished(t *testing.T) {
	s := NewServer(discardLogger())
	s.Publish(metrics.LiveStats{SessionID: "abc", CurrentFPS: 29.7, TotalFrames: 120})
	s.Publish(metrics.LiveStats{SessionID: "abc", CurrentFPS: 30.1, TotalFrames: 150})

	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/snapshot")
	if err != nil {
		t.Fatalf("GET /snapshot: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got metrics.LiveStats
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if got.TotalFrames != 150 || got.CurrentFPS != 30.1 {
		t.Errorf("snapshot = %+v, want the second published stats", got)
	}
}

func TestMetricsEndpointExposesGauges(t *testing.T) {
	s := NewServer(discardLogger())
	s.Publish(metrics.LiveStats{CurrentFPS: 24, AverageFPS: 23.5, TotalFrames: 48, DroppedFrames: 2})

	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}

	text := string(body)
	for _, want := range []string{
		"framebench_current_fps 24",
		"framebench_average_fps 23.5",
		"framebench_frames_total 48",
		"framebench_dropped_frames_total 2",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
