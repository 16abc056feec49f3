package shm

// Header layout shared with the host process.
const (
	// DirtyBitFlagNumBytes is the length of the flag telling a new region from a populated one.
	DirtyBitFlagNumBytes = 1
	// ContentLengthNumBytes is the length of the content length field.
	ContentLengthNumBytes = 8
	// HeaderSize is the total header length. The payload starts right after it.
	HeaderSize = DirtyBitFlagNumBytes + ContentLengthNumBytes

	dirtyBitOffset      = 0
	contentLengthOffset = dirtyBitOffset + DirtyBitFlagNumBytes
	payloadOffset       = HeaderSize
)

const (
	// DirtyBitSet marks a region whose payload has been fully written.
	DirtyBitSet byte = 0x01
	// ZeroByte is the content of byte 0 in a region nobody has populated yet.
	ZeroByte byte = 0x00
)

// DefaultDirSuffix names the subdirectory both processes use under each
// shared memory directory.
const DefaultDirSuffix = "AzureFunctions"

// DefaultDirs lists the directories searched for memory maps on Linux.
func DefaultDirs() []string {
	return []string{"/dev/shm"}
}
