//go:build windows

package shm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MapRegion maps or creates a named file mapping backed by the system paging file.
func MapRegion(opts MapOptions) (*MappedRegion, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("map %s: invalid size %d", opts.Name, opts.Size)
	}
	name, err := windows.UTF16PtrFromString(opts.Name)
	if err != nil {
		return nil, err
	}
	access := uint32(windows.FILE_MAP_READ | windows.FILE_MAP_WRITE)
	if opts.ReadOnly && !opts.Create {
		access = windows.FILE_MAP_READ
	}
	var h windows.Handle
	if opts.Create {
		size := uint64(opts.Size)
		h, err = windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE,
			uint32(size>>32), uint32(size), name)
		if err != nil {
			return nil, fmt.Errorf("CreateFileMapping %s: %w", opts.Name, err)
		}
	} else {
		h, err = windows.OpenFileMapping(access, false, name)
		if err != nil {
			return nil, fmt.Errorf("OpenFileMapping %s: %w", opts.Name, err)
		}
	}
	addr, err := windows.MapViewOfFile(h, access, 0, 0, uintptr(opts.Size))
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("MapViewOfFile: %w", err)
	}
	return &MappedRegion{
		Addr:   unsafe.Slice((*byte)(unsafe.Pointer(addr)), opts.Size),
		Name:   opts.Name,
		handle: uintptr(h),
	}, nil
}

// UnmapRegion unmaps the view and closes the mapping handle. The kernel object
// goes away once every process has closed its handle.
func UnmapRegion(region *MappedRegion) error {
	if region == nil || region.Addr == nil {
		return nil
	}
	if err := windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&region.Addr[0]))); err != nil {
		return fmt.Errorf("UnmapViewOfFile: %w", err)
	}
	region.Addr = nil
	if err := windows.CloseHandle(windows.Handle(region.handle)); err != nil {
		return fmt.Errorf("CloseHandle: %w", err)
	}
	return nil
}

// RemoveRegion is a no-op on Windows: named mappings have no filesystem entry.
func RemoveRegion(name string) (bool, error) {
	return false, nil
}
