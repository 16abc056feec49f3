package shm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Access selects the protection a region is opened with.
type Access uint8

const (
	AccessRead Access = iota + 1
	AccessReadWrite
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("Access(%d)", uint8(a))
	}
}

// Accessor opens, creates and deletes named shared memory regions.
// One implementation exists per backend; NewAccessor picks it at start-up.
type Accessor interface {
	// Open attaches to an existing region. size is the number of bytes to map.
	// It fails if the region does not exist or cannot be mapped with access.
	Open(name string, size int, access Access) (*Region, error)
	// Create allocates a new region of exactly size bytes. It fails on a name
	// collision, a permission problem or when resources are exhausted.
	Create(name string, size int) (*Region, error)
	// Delete unmaps region when given and removes the name. It reports false
	// when nothing was removed and never fails, so it may be called twice.
	Delete(name string, region *Region) bool
}

// Backend names an Accessor implementation.
type Backend string

const (
	// BackendOS uses the operating system's named shared memory.
	BackendOS Backend = "os"
	// BackendMemory keeps regions in the heap of the current process.
	BackendMemory Backend = "memory"
)

// Options configures NewAccessor.
type Options struct {
	Backend Backend
	// Dirs are the directories searched for regions on Linux, in order.
	Dirs []string
	// DirSuffix is appended to every entry in Dirs.
	DirSuffix string
	Logger    *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Backend == "" {
		o.Backend = BackendOS
	}
	if len(o.Dirs) == 0 {
		o.Dirs = DefaultDirs()
	}
	if o.DirSuffix == "" {
		o.DirSuffix = DefaultDirSuffix
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// NewAccessor returns the Accessor selected by opts.Backend.
func NewAccessor(opts Options) (Accessor, error) {
	opts.setDefaults()
	switch opts.Backend {
	case BackendOS:
		return newOSAccessor(opts)
	case BackendMemory:
		return NewMemoryAccessor(), nil
	default:
		return nil, fmt.Errorf("unknown shared memory backend %q", opts.Backend)
	}
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// checkNewRegion rejects a freshly mapped region whose dirty bit is already
// set: somebody else created and populated it under the same name.
func checkNewRegion(r *Region) error {
	fresh, err := IsFresh(r)
	if err != nil {
		return err
	}
	if !fresh {
		return fmt.Errorf("%w: %s is already populated", ErrRegionExists, r.Name())
	}
	return nil
}
