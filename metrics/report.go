// Package metrics collects playback performance telemetry: per-frame
// samples, a bounded sliding window for instantaneous FPS, cumulative
// session counters and running memory/CPU peaks, with consistent
// point-in-time and finalized views.
package metrics

import "time"

// Snapshot is one reading of the process's resource usage.
type Snapshot struct {
	// MemoryMB is the current resident memory in megabytes
	MemoryMB float64
	// CPUPercent is the current CPU usage percent
	CPUPercent float64
}

// Sampler supplies process resource snapshots on demand. Each call must
// refresh before reading; the collector assumes no implicit caching.
type Sampler interface {
	Sample() (Snapshot, error)
}

// FrameSample is one append-only entry of the session's sample log.
// Never mutated after creation.
type FrameSample struct {
	// FrameNumber is the frame's monotonic number
	FrameNumber uint64 `json:"frame_number"`
	// Timestamp is the frame's stream time in seconds
	Timestamp float64 `json:"timestamp"`
	// ProcessingTimeMS is the wall-clock delta since the previous sample
	// in milliseconds (0 for the first sample)
	ProcessingTimeMS float64 `json:"processing_time_ms"`
	// MemoryUsageMB is the resident memory at record time
	MemoryUsageMB float64 `json:"memory_usage_mb"`
	// CPUUsagePercent is the CPU usage at record time
	CPUUsagePercent float64 `json:"cpu_usage_percent"`
}

// Report is a finalized session snapshot: a pure function of the
// collector's state at the moment of creation, never mutated afterward.
type Report struct {
	SessionID         string        `json:"session_id"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time"`
	TotalFrames       uint64        `json:"total_frames"`
	Duration          float64       `json:"duration"`
	AverageFPS        float64       `json:"average_fps"`
	MaxFPS            float64       `json:"max_fps"`
	MinFPS            float64       `json:"min_fps"`
	PeakMemoryMB      float64       `json:"peak_memory_mb"`
	AverageMemoryMB   float64       `json:"average_memory_mb"`
	AverageCPUPercent float64       `json:"average_cpu_percent"`
	PeakCPUPercent    float64       `json:"peak_cpu_percent"`
	DroppedFrames     uint64        `json:"dropped_frames"`
	Samples           []FrameSample `json:"samples"`
}

// LiveStats is a point-in-time view for display surfaces (terminal, HTTP,
// WebSocket feed). Read-only for consumers.
type LiveStats struct {
	SessionID      string  `json:"session_id"`
	CurrentFPS     float64 `json:"current_fps"`
	AverageFPS     float64 `json:"average_fps"`
	MemoryMB       float64 `json:"memory_mb"`
	CPUPercent     float64 `json:"cpu_percent"`
	TotalFrames    uint64  `json:"total_frames"`
	DroppedFrames  uint64  `json:"dropped_frames"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}
