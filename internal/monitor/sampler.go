package monitor

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessMemory breaks down the host process's memory usage in bytes.
type ProcessMemory struct {
	Resident  uint64 `json:"resident"`
	HeapTotal uint64 `json:"heapTotal"`
	HeapUsed  uint64 `json:"heapUsed"`
	External  uint64 `json:"external"`
}

// CPUTimes holds cumulative process CPU time in seconds.
type CPUTimes struct {
	User   float64 `json:"user"`
	System float64 `json:"system"`
}

// SystemMemory holds system-wide memory counters in bytes.
type SystemMemory struct {
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}

// ResourceSample is one immutable reading of process and system counters.
// Samples are emitted and forgotten; consumers own any history.
type ResourceSample struct {
	Process   ProcessMemory `json:"process"`
	CPU       CPUTimes      `json:"cpu"`
	System    SystemMemory  `json:"system"`
	Timestamp time.Time     `json:"timestamp"`
}

// ThresholdAlert is the advisory event raised when a sampled metric
// crosses its configured limit.
type ThresholdAlert struct {
	Resource  string    `json:"resource"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// UsedPercent computes system memory utilization as (total−free)/total×100.
func UsedPercent(total, free uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-free) / float64(total) * 100
}

// Sampler reads process and system resource counters.
type Sampler interface {
	Sample() (*ResourceSample, error)
}

// systemSampler reads counters through gopsutil plus the Go runtime's
// heap statistics.
type systemSampler struct {
	proc *process.Process
}

// NewSampler creates a sampler bound to the current process.
func NewSampler() (Sampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to open own process handle: %w", err)
	}
	return &systemSampler{proc: proc}, nil
}

func (s *systemSampler) Sample() (*ResourceSample, error) {
	memInfo, err := s.proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to read process memory: %w", err)
	}

	cpuTimes, err := s.proc.Times()
	if err != nil {
		return nil, fmt.Errorf("failed to read process CPU times: %w", err)
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to read system memory: %w", err)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return &ResourceSample{
		Process: ProcessMemory{
			Resident:  memInfo.RSS,
			HeapTotal: ms.HeapSys,
			HeapUsed:  ms.HeapAlloc,
			External:  ms.Sys - ms.HeapSys,
		},
		CPU: CPUTimes{
			User:   cpuTimes.User,
			System: cpuTimes.System,
		},
		System: SystemMemory{
			Total:       vm.Total,
			Free:        vm.Free,
			UsedPercent: UsedPercent(vm.Total, vm.Free),
		},
		Timestamp: time.Now(),
	}, nil
}
