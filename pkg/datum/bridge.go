package datum

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/srediag/shmbridge/pkg/rpc"
)

// RegionManager names, allocates and reclaims shared memory regions. A false
// result means the manager could not serve the call.
type RegionManager interface {
	GetBytes(name string, offset, count uint64) ([]byte, bool)
	GetString(name string, offset, count uint64) (string, bool)
	PutBytes(b []byte) (string, bool)
	PutString(s string) (string, bool)
}

// Recorder observes bridge transfers. internal/metrics provides a
// prometheus backed implementation.
type Recorder interface {
	ObserveTransfer(direction string, kind Kind, size int)
	ObserveFailure(direction string, kind Kind)
}

const (
	DirectionRead  = "read"
	DirectionWrite = "write"
)

const (
	// DefaultMinTransferSize is the smallest value worth moving through
	// shared memory instead of inline.
	DefaultMinTransferSize = 1 << 20
	// DefaultMaxTransferSize bounds a single region.
	DefaultMaxTransferSize = 2 << 30
)

// Bridge moves bytes and string datums through shared memory regions owned
// by a RegionManager.
type Bridge struct {
	mgr     RegionManager
	log     *zap.Logger
	rec     Recorder
	minSize uint64
	maxSize uint64
}

type BridgeOption func(*Bridge)

func WithLogger(l *zap.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

func WithRecorder(r Recorder) BridgeOption {
	return func(b *Bridge) { b.rec = r }
}

// WithTransferWindow sets the inclusive size range ShouldTransfer accepts.
func WithTransferWindow(lo, hi uint64) BridgeOption {
	return func(b *Bridge) {
		b.minSize = lo
		b.maxSize = hi
	}
}

func NewBridge(mgr RegionManager, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		mgr:     mgr,
		log:     zap.NewNop(),
		minSize: DefaultMinTransferSize,
		maxSize: DefaultMaxTransferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Read loads the range named by desc. It returns nil and no error when the
// manager cannot serve the range. Only bytes and string descriptors are
// accepted.
func (b *Bridge) Read(desc *rpc.RpcSharedMemory) (*Datum, error) {
	if desc == nil {
		return nil, nil
	}
	switch desc.Type {
	case rpc.RpcDataTypeBytes:
		v, ok := b.mgr.GetBytes(desc.Name, desc.Offset, desc.Count)
		if !ok {
			b.miss(desc, KindBytes)
			return nil, nil
		}
		b.observe(DirectionRead, KindBytes, len(v))
		return NewBytes(v), nil
	case rpc.RpcDataTypeString:
		v, ok := b.mgr.GetString(desc.Name, desc.Offset, desc.Count)
		if !ok {
			b.miss(desc, KindString)
			return nil, nil
		}
		b.observe(DirectionRead, KindString, len(v))
		return NewString(v), nil
	default:
		return nil, fmt.Errorf("%w: shared memory type %s", ErrUnsupportedKind, desc.Type)
	}
}

// Write places d in a new region at offset 0. Only bytes and string datums
// are accepted; anything else fails before the manager is called. Count in
// the returned descriptor is the value's length in bytes.
func (b *Bridge) Write(d *Datum) (*rpc.RpcSharedMemory, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: absent datum", ErrUnsupportedKind)
	}
	var (
		name  string
		ok    bool
		count int
		typ   rpc.RpcDataType
	)
	switch raw := d.raw.(type) {
	case Bytes:
		name, ok = b.mgr.PutBytes(raw)
		count, typ = len(raw), rpc.RpcDataTypeBytes
	case String:
		name, ok = b.mgr.PutString(string(raw))
		count, typ = len(raw), rpc.RpcDataTypeString
	default:
		return nil, fmt.Errorf("%w: %s cannot use shared memory", ErrUnsupportedKind, d.Kind())
	}
	if !ok {
		if b.rec != nil {
			b.rec.ObserveFailure(DirectionWrite, d.Kind())
		}
		return nil, fmt.Errorf("%w: %s value of %d bytes", ErrTransferFailure, d.Kind(), count)
	}
	b.observe(DirectionWrite, d.Kind(), count)
	return &rpc.RpcSharedMemory{
		Name:   name,
		Offset: 0,
		Count:  uint64(count),
		Type:   typ,
	}, nil
}

// ShouldTransfer reports whether d is a bytes or string value whose size
// lies inside the transfer window.
func (b *Bridge) ShouldTransfer(d *Datum) bool {
	if d == nil {
		return false
	}
	var size uint64
	switch raw := d.raw.(type) {
	case Bytes:
		size = uint64(len(raw))
	case String:
		size = uint64(len(raw))
	default:
		return false
	}
	return size >= b.minSize && size <= b.maxSize
}

// DecodeInput turns an inbound binding into a Datum, reading shared memory
// when the binding points there.
func (b *Bridge) DecodeInput(p *rpc.ParameterBinding) (*Datum, error) {
	if p == nil {
		return nil, nil
	}
	if p.RpcSharedMemory != nil {
		d, err := b.Read(p.RpcSharedMemory)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", p.Name, err)
		}
		return d, nil
	}
	d, err := FromTypedData(p.Data)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", p.Name, err)
	}
	return d, nil
}

// EncodeOutput builds the outbound binding for d, through shared memory when
// ShouldTransfer allows it and inline otherwise.
func (b *Bridge) EncodeOutput(name string, d *Datum) (*rpc.ParameterBinding, error) {
	if b.ShouldTransfer(d) {
		desc, err := b.Write(d)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		return &rpc.ParameterBinding{Name: name, RpcSharedMemory: desc}, nil
	}
	td, err := ToTypedData(d)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", name, err)
	}
	return &rpc.ParameterBinding{Name: name, Data: td}, nil
}

func (b *Bridge) miss(desc *rpc.RpcSharedMemory, kind Kind) {
	b.log.Debug("shared memory read missed",
		zap.String("region", desc.Name),
		zap.Uint64("offset", desc.Offset),
		zap.Uint64("count", desc.Count))
	if b.rec != nil {
		b.rec.ObserveFailure(DirectionRead, kind)
	}
}

func (b *Bridge) observe(direction string, kind Kind, size int) {
	if b.rec != nil {
		b.rec.ObserveTransfer(direction, kind, size)
	}
}
