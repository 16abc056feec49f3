//go:build !linux && !windows

package shm

func newOSAccessor(opts Options) (Accessor, error) {
	return nil, ErrUnsupportedPlatform
}
