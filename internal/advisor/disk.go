package advisor

import (
	"os"
	"strings"
)

// Disk reports storage usage from the size of the database file against a
// configured quota. Connectivity and power stay unanswered.
type Disk struct {
	Path       string
	QuotaBytes int64
}

// NewDisk constructs a disk advisor; a zero quota disables the signal.
func NewDisk(path string, quotaBytes int64) *Disk {
	return &Disk{Path: strings.TrimSpace(path), QuotaBytes: quotaBytes}
}

func (d *Disk) Signals() Signals {
	if d == nil || d.Path == "" || d.QuotaBytes <= 0 {
		return Signals{}
	}

	info, err := os.Stat(d.Path)
	if err != nil {
		return Signals{}
	}

	usage := float64(info.Size()) / float64(d.QuotaBytes)
	if usage > 1 {
		usage = 1
	}
	return Signals{StorageUsage: &usage}
}

// UsageFraction is a helper for store accounting; it returns 0 when the
// signal is unavailable.
func (d *Disk) UsageFraction() float64 {
	if s := d.Signals(); s.StorageUsage != nil {
		return *s.StorageUsage
	}
	return 0
}
