package commands

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// handleStats shows host and runtime statistics
func (h *Handler) handleStats(ctx context.Context, inv Invocation) error {
	stats := h.deps.Stats(ctx)
	return h.reply(ctx, inv, formatStats(stats))
}

// SystemStats holds host and bot statistics
type SystemStats struct {
	Hostname string
	Platform string
	Uptime   time.Duration

	CPUModel   string
	CPUThreads int
	CPUUsage   float64

	TotalMemory   uint64
	UsedMemory    uint64
	MemoryPercent float64

	DiskTotal   uint64
	DiskUsed    uint64
	DiskPercent float64

	NetworkSent uint64
	NetworkRecv uint64

	GoVersion  string
	GoRoutines int
	MemAlloc   uint64
	NumGC      uint32

	BotUptime time.Duration
	Latency   time.Duration
}

var botStartTime = time.Now()

const cpuSampleInterval = 500 * time.Millisecond

// gatherSystemStats collects statistics. Probes that fail leave zero values.
func gatherSystemStats(ctx context.Context, latency time.Duration) *SystemStats {
	stats := &SystemStats{}

	if hostInfo, err := host.InfoWithContext(ctx); err == nil {
		stats.Hostname = hostInfo.Hostname
		stats.Platform = strings.TrimSpace(hostInfo.Platform + " " + hostInfo.PlatformVersion)
		stats.Uptime = time.Duration(hostInfo.Uptime) * time.Second
	}

	if cpuInfo, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfo) > 0 {
		stats.CPUModel = cpuInfo[0].ModelName
	}
	stats.CPUThreads = runtime.NumCPU()

	if cpuPercent, err := cpu.PercentWithContext(ctx, cpuSampleInterval, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUUsage = cpuPercent[0]
	}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.TotalMemory = memInfo.Total
		stats.UsedMemory = memInfo.Used
		stats.MemoryPercent = memInfo.UsedPercent
	}

	if diskInfo, err := disk.UsageWithContext(ctx, "/"); err == nil {
		stats.DiskTotal = diskInfo.Total
		stats.DiskUsed = diskInfo.Used
		stats.DiskPercent = diskInfo.UsedPercent
	}

	if netIO, err := net.IOCountersWithContext(ctx, false); err == nil && len(netIO) > 0 {
		stats.NetworkSent = netIO[0].BytesSent
		stats.NetworkRecv = netIO[0].BytesRecv
	}

	stats.GoVersion = runtime.Version()
	stats.GoRoutines = runtime.NumGoroutine()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.MemAlloc = m.Alloc
	stats.NumGC = m.NumGC

	stats.BotUptime = time.Since(botStartTime)
	stats.Latency = latency

	return stats
}

func formatStats(s *SystemStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Host: %s (%s), up %s\n", orUnknown(s.Hostname), orUnknown(s.Platform), formatDuration(s.Uptime))
	fmt.Fprintf(&b, "CPU: %s, %d threads, %.1f%% used\n", orUnknown(truncateString(s.CPUModel, 40)), s.CPUThreads, s.CPUUsage)
	fmt.Fprintf(&b, "Memory: %s / %s (%.1f%%)\n", formatBytes(s.UsedMemory), formatBytes(s.TotalMemory), s.MemoryPercent)
	fmt.Fprintf(&b, "Disk: %s / %s (%.1f%%)\n", formatBytes(s.DiskUsed), formatBytes(s.DiskTotal), s.DiskPercent)
	fmt.Fprintf(&b, "Network: %s sent, %s received\n", formatBytes(s.NetworkSent), formatBytes(s.NetworkRecv))
	fmt.Fprintf(&b, "Runtime: %s, %d goroutines, %s allocated, %d GC cycles\n", s.GoVersion, s.GoRoutines, formatBytes(s.MemAlloc), s.NumGC)
	fmt.Fprintf(&b, "Bot: up %s, gateway latency %dms", formatDuration(s.BotUptime), s.Latency.Milliseconds())
	return b.String()
}

// Helper functions

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
