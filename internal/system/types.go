package system

import "time"

// Host describes the machine serving local locations
type Host struct {
	Hostname      string    `json:"hostname"`
	OS            string    `json:"os"`
	Platform      string    `json:"platform"`
	Kernel        string    `json:"kernel"`
	Arch          string    `json:"arch"`
	BootTime      time.Time `json:"boot_time"`
	Uptime        string    `json:"uptime"`
	PathSeparator string    `json:"path_separator"`
}

// Usage is the disk usage of the file system holding a location root
type Usage struct {
	Path        string  `json:"path"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
	TotalHuman  string  `json:"total_human"`
	FreeHuman   string  `json:"free_human"`
}
