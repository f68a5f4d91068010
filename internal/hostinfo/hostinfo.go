// Package hostinfo records the machine a training run executed on.
package hostinfo

import (
	"fmt"
	"log"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"github.com/signalnine/tspselect/internal/result"
)

const FileName = "host.json"

type Info struct {
	Hostname    string `json:"hostname"`
	Platform    string `json:"platform"`
	CPU         string `json:"cpu"`
	LogicalCPUs int    `json:"logical_cpus"`
	MemoryGB    uint64 `json:"memory_gb"`
	GoVersion   string `json:"go_version"`
}

// Collect gathers whatever the platform exposes. Lookups that fail leave
// their fields empty and log a warning.
func Collect() Info {
	info := Info{GoVersion: runtime.Version(), LogicalCPUs: logicalCPUs()}
	if h, err := host.Info(); err != nil {
		log.Printf("warning: host info: %v", err)
	} else {
		info.Hostname = h.Hostname
		info.Platform = fmt.Sprintf("%s %s", h.Platform, h.PlatformVersion)
	}
	if c, err := cpu.Info(); err != nil || len(c) == 0 {
		log.Printf("warning: cpu info: %v", err)
	} else {
		info.CPU = c[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err != nil {
		log.Printf("warning: memory info: %v", err)
	} else {
		info.MemoryGB = vm.Total / 1024 / 1024 / 1024
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s), %s, %d CPUs, %d GB, %s",
		i.Hostname, i.Platform, i.CPU, i.LogicalCPUs, i.MemoryGB, i.GoVersion)
}

// Write stores the info as host.json in runDir.
func (i Info) Write(runDir string) error {
	return result.WriteJSON(runDir, FileName, i)
}

// Workers returns n when positive, otherwise the logical CPU count.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return logicalCPUs()
}

func logicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}
