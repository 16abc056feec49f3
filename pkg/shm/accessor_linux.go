//go:build linux

package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	internalshm "github.com/srediag/shmbridge/internal/shm"
)

// linuxAccessor keeps regions as files on tmpfs mounts such as /dev/shm.
type linuxAccessor struct {
	dirs []string
	log  *zap.Logger
}

func newOSAccessor(opts Options) (Accessor, error) {
	dirs := validDirs(opts.Dirs, opts.DirSuffix, opts.Logger)
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no usable shared memory directory in %v", opts.Dirs)
	}
	return &linuxAccessor{dirs: dirs, log: opts.Logger}, nil
}

// validDirs resolves <dir>/<suffix> for every configured directory, creating
// the suffix directory when missing and dropping the ones that fail.
func validDirs(dirs []string, suffix string, log *zap.Logger) []string {
	valid := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			log.Debug("skip shared memory dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		path := filepath.Join(dir, suffix)
		if err := os.MkdirAll(path, 0o700); err != nil {
			log.Warn("cannot create shared memory dir", zap.String("dir", path), zap.Error(err))
			continue
		}
		valid = append(valid, path)
	}
	return valid
}

// Dirs returns the resolved directories searched for regions.
func (a *linuxAccessor) Dirs() []string {
	return append([]string(nil), a.dirs...)
}

func (a *linuxAccessor) Open(name string, size int, access Access) (*Region, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	for _, dir := range a.dirs {
		path := filepath.Join(dir, name)
		mapped, err := internalshm.MapRegion(internalshm.MapOptions{
			Name:     path,
			Size:     size,
			ReadOnly: access == AccessRead,
		})
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open region %s: %w", name, err)
		}
		return wrapMapped(name, mapped, access == AccessRead), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, name)
}

func (a *linuxAccessor) Create(name string, size int) (*Region, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("create region %s: invalid size %d", name, size)
	}
	for _, dir := range a.dirs {
		ok, err := internalshm.HasSpace(dir, uint64(size))
		if err != nil {
			a.log.Warn("cannot stat shared memory dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		if !ok {
			a.log.Debug("shared memory dir is full", zap.String("dir", dir), zap.Int("size", size))
			continue
		}
		mapped, err := internalshm.MapRegion(internalshm.MapOptions{
			Name:   filepath.Join(dir, name),
			Size:   size,
			Create: true,
		})
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrRegionExists, name)
		}
		if err != nil {
			return nil, fmt.Errorf("create region %s: %w", name, err)
		}
		region := wrapMapped(name, mapped, false)
		if err := checkNewRegion(region); err != nil {
			_ = region.Close()
			return nil, err
		}
		return region, nil
	}
	return nil, fmt.Errorf("%w: %s (%d bytes)", ErrInsufficientSpace, name, size)
}

func (a *linuxAccessor) Delete(name string, region *Region) bool {
	if region != nil {
		if err := region.Close(); err != nil {
			a.log.Warn("unmap region failed", zap.String("region", name), zap.Error(err))
		}
	}
	if validateName(name) != nil {
		return false
	}
	removed := false
	for _, dir := range a.dirs {
		ok, err := internalshm.RemoveRegion(filepath.Join(dir, name))
		if err != nil {
			a.log.Warn("remove region failed", zap.String("region", name), zap.String("dir", dir), zap.Error(err))
			continue
		}
		removed = removed || ok
	}
	return removed
}

func wrapMapped(name string, mapped *internalshm.MappedRegion, readOnly bool) *Region {
	return newRegion(name, mapped.Addr, readOnly, func() error {
		return internalshm.UnmapRegion(mapped)
	})
}
