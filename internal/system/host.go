package system

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// Describe reports the machine serving the local locations
func Describe(ctx context.Context) (*Host, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to describe host: %w", err)
	}

	boot := time.Unix(int64(info.BootTime), 0).UTC()
	return &Host{
		Hostname:      info.Hostname,
		OS:            info.OS,
		Platform:      strings.TrimSpace(info.Platform + " " + info.PlatformVersion),
		Kernel:        info.KernelVersion,
		Arch:          info.KernelArch,
		BootTime:      boot,
		Uptime:        formatUptime(time.Duration(info.Uptime) * time.Second),
		PathSeparator: string(os.PathSeparator),
	}, nil
}

// formatUptime renders d as "1d 2h 3m", dropping leading zero units
func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	minutes := (d - hours*time.Hour) / time.Minute

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
