package shm

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryAccessor keeps regions in process memory. Regions opened under the
// same name share their backing bytes, which lets tests and single-process
// deployments exercise the header protocol without an OS backend.
type MemoryAccessor struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryAccessor returns an empty MemoryAccessor.
func NewMemoryAccessor() *MemoryAccessor {
	return &MemoryAccessor{objects: make(map[string][]byte)}
}

func (a *MemoryAccessor) Open(name string, size int, access Access) (*Region, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	obj, ok := a.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, name)
	}
	if size == 0 {
		size = len(obj)
	}
	if size < 0 || size > len(obj) {
		return nil, fmt.Errorf("open %d bytes of %s (%d bytes): %w", size, name, len(obj), ErrOutOfRange)
	}
	return newRegion(name, obj[:size:size], access == AccessRead, nil), nil
}

func (a *MemoryAccessor) Create(name string, size int) (*Region, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("create region %s: invalid size %d", name, size)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.objects[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrRegionExists, name)
	}
	obj := make([]byte, size)
	a.objects[name] = obj
	return newRegion(name, obj, false, nil), nil
}

func (a *MemoryAccessor) Delete(name string, region *Region) bool {
	if region != nil {
		_ = region.Close()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.objects[name]; !ok {
		return false
	}
	delete(a.objects, name)
	return true
}

// Names returns the names of live regions in sorted order.
func (a *MemoryAccessor) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.objects))
	for name := range a.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
