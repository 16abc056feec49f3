//go:build linux

package shm

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapRegion maps or creates a shared memory region backed by a file under a tmpfs mount.
func MapRegion(opts MapOptions) (*MappedRegion, error) {
	flags := unix.O_RDWR | unix.O_CLOEXEC
	prot := unix.PROT_READ | unix.PROT_WRITE
	if opts.ReadOnly && !opts.Create {
		flags = unix.O_RDONLY | unix.O_CLOEXEC
		prot = unix.PROT_READ
	}
	if opts.Create {
		flags |= unix.O_CREAT | unix.O_EXCL
	}
	fd, err := unix.Open(opts.Name, flags, 0600)
	if err != nil {
		if errors.Is(err, unix.EEXIST) {
			return nil, fmt.Errorf("open %s: %w", opts.Name, os.ErrExist)
		}
		if errors.Is(err, unix.ENOENT) {
			return nil, fmt.Errorf("open %s: %w", opts.Name, os.ErrNotExist)
		}
		return nil, fmt.Errorf("open %s: %w", opts.Name, err)
	}
	size := opts.Size
	if opts.Create {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			_ = unix.Close(fd)
			_ = unix.Unlink(opts.Name)
			return nil, fmt.Errorf("ftruncate: %w", err)
		}
	} else {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("fstat: %w", err)
		}
		if size == 0 {
			size = int(st.Size)
		}
		if int64(size) > st.Size {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("map %d bytes of %s: object holds %d bytes", size, opts.Name, st.Size)
		}
	}
	if size <= 0 {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("map %s: invalid size %d", opts.Name, size)
	}
	addr, err := unix.Mmap(fd, 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		if opts.Create {
			_ = unix.Unlink(opts.Name)
		}
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &MappedRegion{
		Addr:   addr,
		Name:   opts.Name,
		handle: uintptr(fd),
	}, nil
}

// UnmapRegion unmaps and closes the shared memory region.
func UnmapRegion(region *MappedRegion) error {
	if region == nil || region.Addr == nil {
		return nil
	}
	if err := unix.Munmap(region.Addr); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	region.Addr = nil
	if err := unix.Close(int(region.handle)); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// RemoveRegion unlinks the named object. It reports false when nothing was removed.
func RemoveRegion(name string) (bool, error) {
	if err := unix.Unlink(name); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return false, nil
		}
		return false, fmt.Errorf("unlink %s: %w", name, err)
	}
	return true, nil
}
