// Package sysinfo samples the current process's resource usage for the
// metrics collector.
package sysinfo

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/visiona/framebench/metrics"
)

const bytesPerMB = 1024 * 1024

// Provider implements metrics.Sampler for the running process using
// gopsutil. One shared instance should be injected into the collector; CPU
// percentages are computed against the interval since the previous call,
// so each read reflects fresh state.
type Provider struct {
	proc *process.Process
}

// NewProvider returns a sampler bound to the current process.
func NewProvider() (*Provider, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("sysinfo: attaching to process %d: %w", os.Getpid(), err)
	}
	return &Provider{proc: proc}, nil
}

// Sample implements metrics.Sampler. Resident memory is normalized to MB.
func (p *Provider) Sample() (metrics.Snapshot, error) {
	mem, err := p.proc.MemoryInfo()
	if err != nil {
		return metrics.Snapshot{}, fmt.Errorf("sysinfo: reading memory info: %w", err)
	}

	// Interval 0 measures usage since the previous Sample call.
	cpu, err := p.proc.Percent(0)
	if err != nil {
		return metrics.Snapshot{}, fmt.Errorf("sysinfo: reading cpu usage: %w", err)
	}

	return metrics.Snapshot{
		MemoryMB:   float64(mem.RSS) / bytesPerMB,
		CPUPercent: cpu,
	}, nil
}
