// Package shm contains platform-specific helpers for mapping named shared memory regions.
package shm

import "errors"

// ErrUnsupportedPlatform is returned by MapRegion on platforms without a shared memory backend.
var ErrUnsupportedPlatform = errors.New("shared memory is not supported on this platform")

// MappedRegion represents a memory-mapped shared region.
type MappedRegion struct {
	Addr []byte
	Name string
	// platform handle: fd on unix, mapping handle on windows
	handle uintptr
}

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	// Name is a file path on Linux and a kernel object name on Windows.
	Name string
	// Size is the number of bytes to map. When zero on open, the whole object is mapped.
	Size int
	// Create allocates a new object and fails if one already exists.
	Create   bool
	ReadOnly bool
}

// Function implementations are provided in platform-specific files (platform_linux.go, platform_windows.go, platform_other.go).
