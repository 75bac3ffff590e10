package renderer

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
)

// SystemInfo describes the machine a render runs on
type SystemInfo struct {
	CPUModel     string
	LogicalCores int
	ClockGHz     float64
	TotalRAMGB   uint64
}

// GetSystemInfo queries CPU and memory details
func GetSystemInfo() (SystemInfo, error) {
	info := SystemInfo{LogicalCores: DefaultWorkerCount()}

	cpuInfo, err := cpu.Info()
	if err != nil {
		return info, err
	}
	if len(cpuInfo) > 0 {
		info.CPUModel = cpuInfo[0].ModelName
		info.ClockGHz = cpuInfo[0].Mhz / 1000
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return info, err
	}
	info.TotalRAMGB = memInfo.Total / (1024 * 1024 * 1024)

	return info, nil
}

// LogSystemInfo prints the machine summary, or the reason it is unavailable
func LogSystemInfo(logger core.Logger) {
	info, err := GetSystemInfo()
	if err != nil {
		logger.Printf("System info unavailable: %v\n", err)
		return
	}
	logger.Printf("CPU: %s (%d logical cores, %.2f GHz), RAM: %d GB\n",
		info.CPUModel, info.LogicalCores, info.ClockGHz, info.TotalRAMGB)
}
