// Package telemetry exposes live playback statistics over HTTP: a
// Prometheus endpoint, a JSON snapshot and a WebSocket push feed.
//
// The metrics collector is single-owner, so the telemetry server never
// reads it directly. The driving loop publishes LiveStats snapshots; the
// server only serves its latest published copy.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/visiona/framebench/metrics"
)

// gauges holds the Prometheus instruments, registered on a private
// registry so the endpoint only exposes playback metrics.
type gauges struct {
	registry      *prometheus.Registry
	currentFPS    prometheus.Gauge
	averageFPS    prometheus.Gauge
	memoryMB      prometheus.Gauge
	cpuPercent    prometheus.Gauge
	framesTotal   prometheus.Gauge
	droppedTotal  prometheus.Gauge
	elapsedSecond prometheus.Gauge
}

func newGauges() *gauges {
	registry := prometheus.NewRegistry()

	currentFPS := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framebench_current_fps",
		Help: "Instantaneous FPS over the bounded frame window",
	})
	averageFPS := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framebench_average_fps",
		Help: "Cumulative session-average FPS",
	})
	memoryMB := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framebench_memory_mb",
		Help: "Process resident memory in megabytes",
	})
	cpuPercent := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framebench_cpu_percent",
		Help: "Process CPU usage percent",
	})
	framesTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framebench_frames_total",
		Help: "Total frames recorded this session",
	})
	droppedTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framebench_dropped_frames_total",
		Help: "Total frames counted as dropped this session",
	})
	elapsedSecond := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framebench_session_elapsed_seconds",
		Help: "Wall-clock session duration in seconds",
	})

	registry.MustRegister(
		currentFPS,
		averageFPS,
		memoryMB,
		cpuPercent,
		framesTotal,
		droppedTotal,
		elapsedSecond,
	)

	return &gauges{
		registry:      registry,
		currentFPS:    currentFPS,
		averageFPS:    averageFPS,
		memoryMB:      memoryMB,
		cpuPercent:    cpuPercent,
		framesTotal:   framesTotal,
		droppedTotal:  droppedTotal,
		elapsedSecond: elapsedSecond,
	}
}

func (g *gauges) set(ls metrics.LiveStats) {
	g.currentFPS.Set(ls.CurrentFPS)
	g.averageFPS.Set(ls.AverageFPS)
	g.memoryMB.Set(ls.MemoryMB)
	g.cpuPercent.Set(ls.CPUPercent)
	g.framesTotal.Set(float64(ls.TotalFrames))
	g.droppedTotal.Set(float64(ls.DroppedFrames))
	g.elapsedSecond.Set(ls.ElapsedSeconds)
}
