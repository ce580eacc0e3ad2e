package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

// GetUsage reports disk usage for the file system holding path
func GetUsage(ctx context.Context, path string) (*Usage, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk usage of %s: %w", path, err)
	}

	return &Usage{
		Path:        path,
		Fstype:      usage.Fstype,
		Total:       usage.Total,
		Used:        usage.Used,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
		TotalHuman:  formatBytes(usage.Total),
		FreeHuman:   formatBytes(usage.Free),
	}, nil
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
