// Package health builds liveness and readiness checks over the shared memory
// directories.
package health

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/heptiolabs/healthcheck"

	"github.com/srediag/shmbridge/internal/shm"
)

const checkTimeout = 2 * time.Second

// Options configures NewHandler.
type Options struct {
	// Dirs are the region directories, suffix included.
	Dirs []string
	// MinFreeBytes is the free space each directory needs to be ready.
	MinFreeBytes uint64
	// Ready, when set, is an extra readiness check, e.g. "manager is open".
	Ready healthcheck.Check
}

// NewHandler returns an http.Handler serving /live and /ready.
func NewHandler(opts Options) healthcheck.Handler {
	h := healthcheck.NewHandler()
	for _, dir := range opts.Dirs {
		h.AddLivenessCheck("writable:"+dir, healthcheck.Timeout(WritableCheck(dir), checkTimeout))
		h.AddReadinessCheck("space:"+dir, healthcheck.Timeout(SpaceCheck(dir, opts.MinFreeBytes), checkTimeout))
	}
	if opts.Ready != nil {
		h.AddReadinessCheck("manager", opts.Ready)
	}
	return h
}

// WritableCheck fails unless a file can be created in dir.
func WritableCheck(dir string) healthcheck.Check {
	return func() error {
		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			return fmt.Errorf("%s is not writable: %w", dir, err)
		}
		name := f.Name()
		_ = f.Close()
		return os.Remove(name)
	}
}

// SpaceCheck fails when dir has less than minFree bytes available.
func SpaceCheck(dir string, minFree uint64) healthcheck.Check {
	return func() error {
		ok, err := shm.HasSpace(filepath.Clean(dir), minFree)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s has less than %d bytes free", dir, minFree)
		}
		return nil
	}
}

// ManagerCheck fails once the region manager reports it is closed.
func ManagerCheck(m interface{ Closed() bool }) healthcheck.Check {
	return func() error {
		if m.Closed() {
			return errors.New("region manager is closed")
		}
		return nil
	}
}
