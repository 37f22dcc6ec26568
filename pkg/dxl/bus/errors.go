package bus

import (
	"fmt"
)

// MutexError wraps a failure to acquire exclusive use of the transport.
type MutexError struct {
	Err error
}

func (e *MutexError) Error() string { return fmt.Sprintf("bus: %v", e.Err) }
func (e *MutexError) Unwrap() error { return e.Err }

// TransportError wraps a failure reported by the underlying transport.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("bus: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// CodecError wraps a failure reported by the packet codec while decoding
// a status frame.
type CodecError struct {
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf("bus: %v", e.Err) }
func (e *CodecError) Unwrap() error { return e.Err }

// ErrDuplicateID is returned by Register when an id is already bound to a
// live Actuator and the bus was constructed WithStrictIDs(true).
type ErrDuplicateID struct {
	ID byte
}

func (e *ErrDuplicateID) Error() string { return fmt.Sprintf("bus: id %d is already registered", e.ID) }

// ErrInvalidID is returned by Register/Unregister for an id outside the
// addressable range 1..252 (0xFE is reserved for broadcast, 0xFF for a
// reply-suppressed variant this driver never sends).
type ErrInvalidID struct {
	ID byte
}

func (e *ErrInvalidID) Error() string { return fmt.Sprintf("bus: id %d is not addressable", e.ID) }
