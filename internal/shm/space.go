package shm

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// FreeBytes returns the free space of the filesystem holding dir.
func FreeBytes(dir string) (uint64, error) {
	stat, err := disk.Usage(dir)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", dir, err)
	}
	return stat.Free, nil
}

// HasSpace reports whether the filesystem holding dir has at least size free bytes.
func HasSpace(dir string, size uint64) (bool, error) {
	free, err := FreeBytes(dir)
	if err != nil {
		return false, err
	}
	return free >= size, nil
}
