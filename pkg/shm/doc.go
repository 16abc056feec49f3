// Package shm exchanges payloads between two processes through named shared
// memory regions.
//
// Every region starts with a fixed header:
//
//	offset 0    : 1 byte  dirty bit (0x00 fresh, 0x01 populated)
//	offset 1..8 : 8 bytes content length, little-endian
//	offset 9..  : payload
//
// A producer creates the region, writes the content length and the payload and
// flips the dirty bit last. A consumer that still sees a fresh region treats it
// as not ready. The dirty bit never goes back to fresh, so a region carries
// exactly one payload; a new name is minted for every transfer.
//
// Accessor hides the platform mechanics of opening, creating and deleting a
// named region. Manager builds on it to place payloads in shared memory and
// read them back.
//
// Example usage:
//
//	acc, err := shm.NewAccessor(shm.Options{Backend: shm.BackendOS})
//	// ...
//	mgr, err := shm.NewManager(acc)
//	name, ok := mgr.PutBytes([]byte("hello world"))
package shm
