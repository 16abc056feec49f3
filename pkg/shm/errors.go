package shm

import (
	"errors"

	internalshm "github.com/srediag/shmbridge/internal/shm"
)

var (
	ErrRegionExists      = errors.New("shared memory region already exists")
	ErrRegionNotFound    = errors.New("shared memory region not found")
	ErrRegionNotReady    = errors.New("shared memory region not populated yet")
	ErrOutOfRange        = errors.New("range exceeds shared memory region")
	ErrInsufficientSpace = errors.New("no shared memory directory has enough free space")
	ErrInvalidName       = errors.New("invalid shared memory region name")
	ErrPayloadTooLarge   = errors.New("payload exceeds maximum region size")
	ErrReadOnly          = errors.New("shared memory region is read-only")
	ErrClosed            = errors.New("shared memory region is closed")
	ErrManagerClosed     = errors.New("shared memory manager is closed")
	// ErrUnsupportedPlatform is returned when no OS backend exists for the running platform.
	ErrUnsupportedPlatform = internalshm.ErrUnsupportedPlatform
)
