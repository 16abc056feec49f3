package datum

import "errors"

var (
	// ErrUnsupportedKind is returned when a kind is outside the set an
	// operation accepts. It is a contract violation and must not be retried.
	ErrUnsupportedKind = errors.New("datum: unsupported kind")
	// ErrMalformedPayload is returned by Decode when json text does not parse.
	ErrMalformedPayload = errors.New("datum: malformed payload")
	// ErrTransferFailure is returned when the region manager could not place
	// an outbound value in shared memory.
	ErrTransferFailure = errors.New("datum: shared memory transfer failed")
)
