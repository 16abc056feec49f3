//go:build !linux && !windows

package shm

// MapRegion is not implemented on this platform.
func MapRegion(opts MapOptions) (*MappedRegion, error) {
	return nil, ErrUnsupportedPlatform
}

// UnmapRegion is not implemented on this platform.
func UnmapRegion(region *MappedRegion) error {
	return nil
}

// RemoveRegion is not implemented on this platform.
func RemoveRegion(name string) (bool, error) {
	return false, ErrUnsupportedPlatform
}
