//go:build windows

package shm

import (
	"fmt"

	"go.uber.org/zap"

	internalshm "github.com/srediag/shmbridge/internal/shm"
)

// windowsAccessor uses named file mappings backed by the paging file.
// A mapping lives as long as some process holds a handle to it.
type windowsAccessor struct {
	log *zap.Logger
}

func newOSAccessor(opts Options) (Accessor, error) {
	return &windowsAccessor{log: opts.Logger}, nil
}

func (a *windowsAccessor) Open(name string, size int, access Access) (*Region, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	mapped, err := internalshm.MapRegion(internalshm.MapOptions{
		Name:     name,
		Size:     size,
		ReadOnly: access == AccessRead,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRegionNotFound, name, err)
	}
	return wrapMapped(name, mapped, access == AccessRead), nil
}

func (a *windowsAccessor) Create(name string, size int) (*Region, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	mapped, err := internalshm.MapRegion(internalshm.MapOptions{
		Name:   name,
		Size:   size,
		Create: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create region %s: %w", name, err)
	}
	region := wrapMapped(name, mapped, false)
	// CreateFileMapping silently opens an existing mapping of the same name.
	if err := checkNewRegion(region); err != nil {
		_ = region.Close()
		return nil, err
	}
	return region, nil
}

func (a *windowsAccessor) Delete(name string, region *Region) bool {
	if region == nil {
		return false
	}
	released, err := region.unmap()
	if err != nil {
		a.log.Warn("unmap region failed", zap.String("region", name), zap.Error(err))
		return false
	}
	return released
}

func wrapMapped(name string, mapped *internalshm.MappedRegion, readOnly bool) *Region {
	return newRegion(name, mapped.Addr, readOnly, func() error {
		return internalshm.UnmapRegion(mapped)
	})
}
