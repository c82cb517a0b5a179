package session

import (
	"math"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/terminal"
)

// Resources are the machine gauges, each a percentage in [0, 100].
type Resources struct {
	CPU     float64 `json:"cpu"`
	Memory  float64 `json:"memory"`
	Disk    float64 `json:"disk"`
	Network float64 `json:"network"`
}

// NewResources returns the gauges at session start.
func NewResources() Resources {
	return Resources{
		CPU:     constants.InitialCPU,
		Memory:  constants.InitialMemory,
		Disk:    constants.InitialDisk,
		Network: constants.InitialNetwork,
	}
}

// Apply adds a command cost to the gauges.
func (r *Resources) Apply(c terminal.Cost) {
	r.CPU = clampPercent(r.CPU + c.CPU)
	r.Memory = clampPercent(r.Memory + c.Memory)
	r.Disk = clampPercent(r.Disk + c.Disk)
	r.Network = clampPercent(r.Network + c.Network)
}

// Recover applies one tick of natural recovery. Disk never recovers.
func (r *Resources) Recover() {
	r.CPU = clampPercent(r.CPU - constants.CPURecoveryPerTick)
	r.Memory = clampPercent(r.Memory - constants.MemoryRecoveryPerTick)
	r.Network = clampPercent(r.Network - constants.NetworkRecoveryPerTick)
}

// Warning is a resource overload condition.
type Warning string

const (
	WarningCPU    Warning = "High CPU Usage: system running slow. Close some processes."
	WarningMemory Warning = "Low Memory: memory nearly full. Close some files."
	WarningDisk   Warning = "Disk Full: no disk space remaining!"
)

// Warnings returns the overload conditions currently in effect.
func (r Resources) Warnings() []Warning {
	var out []Warning
	if r.CPU >= constants.CPUWarning {
		out = append(out, WarningCPU)
	}
	if r.Memory >= constants.MemoryWarning {
		out = append(out, WarningMemory)
	}
	if r.Disk >= constants.DiskWarning {
		out = append(out, WarningDisk)
	}
	return out
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
