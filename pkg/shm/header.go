package shm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// State is the readiness of a region as recorded by its dirty bit.
// The only transition is StateFresh -> StatePopulated.
type State uint8

const (
	// StateFresh means the region was allocated but its payload is not complete.
	StateFresh State = iota
	// StatePopulated means the producer finished writing and the payload is safe to read.
	StatePopulated
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StatePopulated:
		return "populated"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HeaderState reads the dirty bit of r. A region is fresh iff byte 0 still
// holds ZeroByte; any other value counts as populated.
func HeaderState(r *Region) (State, error) {
	b, err := readAtStart(r, dirtyBitOffset, DirtyBitFlagNumBytes)
	if err != nil {
		return StateFresh, err
	}
	if b[0] == ZeroByte {
		return StateFresh, nil
	}
	return StatePopulated, nil
}

// IsFresh reports whether r has never been populated.
func IsFresh(r *Region) (bool, error) {
	s, err := HeaderState(r)
	return s == StateFresh, err
}

// IsDirtyBitSet reports whether r has been populated.
func IsDirtyBitSet(r *Region) (bool, error) {
	s, err := HeaderState(r)
	return s == StatePopulated, err
}

// SetDirtyBit marks r as populated. The producer must call it after the
// payload and content length are written.
func SetDirtyBit(r *Region) error {
	return writeAtStart(r, dirtyBitOffset, []byte{DirtyBitSet})
}

// ContentLength returns the payload length recorded in the header.
func ContentLength(r *Region) (uint64, error) {
	b, err := readAtStart(r, contentLengthOffset, ContentLengthNumBytes)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// SetContentLength records the payload length in the header.
func SetContentLength(r *Region, n uint64) error {
	var b [ContentLengthNumBytes]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return writeAtStart(r, contentLengthOffset, b[:])
}

// readAtStart reads n bytes at off through the cursor and leaves the cursor at 0.
func readAtStart(r *Region, off int64, n int) ([]byte, error) {
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	defer r.Seek(0, io.SeekStart) //nolint:errcheck
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read header of %s: %w", r.Name(), err)
	}
	return b, nil
}

// writeAtStart writes p at off through the cursor and leaves the cursor at 0.
func writeAtStart(r *Region, off int64, p []byte) error {
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return err
	}
	defer r.Seek(0, io.SeekStart) //nolint:errcheck
	if _, err := r.Write(p); err != nil {
		return fmt.Errorf("write header of %s: %w", r.Name(), err)
	}
	return nil
}

// peekState is HeaderState through ReadAt. It leaves the cursor alone, so
// concurrent readers holding the same view do not interfere.
func peekState(r *Region) (State, error) {
	var b [DirtyBitFlagNumBytes]byte
	if _, err := r.ReadAt(b[:], dirtyBitOffset); err != nil {
		return StateFresh, fmt.Errorf("read header of %s: %w", r.Name(), err)
	}
	if b[0] == ZeroByte {
		return StateFresh, nil
	}
	return StatePopulated, nil
}

// peekContentLength is ContentLength through ReadAt.
func peekContentLength(r *Region) (uint64, error) {
	var b [ContentLengthNumBytes]byte
	if _, err := r.ReadAt(b[:], contentLengthOffset); err != nil {
		return 0, fmt.Errorf("read header of %s: %w", r.Name(), err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
