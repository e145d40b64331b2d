package tabula

import (
	"errors"
	"fmt"
)

var (
	// ErrNilContext is returned by Ref.Resolve when no context is supplied.
	ErrNilContext = errors.New("tabula: nil context")

	// ErrUnregisteredType is returned by Ref.Resolve when no table
	// repository for the referenced record type has been installed.
	ErrUnregisteredType = errors.New("tabula: no table registered for type")

	// ErrKeyNotFound is returned by Ref.Resolve when the target table is
	// installed but holds no record for the key.
	ErrKeyNotFound = errors.New("tabula: key not found")

	// ErrUnknownSlot is returned by Reload for a name that matches no
	// declared repository slot.
	ErrUnknownSlot = errors.New("tabula: unknown slot")

	// ErrNoRowCodec reports a dataset that resolved to the row format but
	// was registered without a generated row codec.
	ErrNoRowCodec = errors.New("tabula: no row codec for model")
)

// SlotError wraps a per-dataset load or save failure. LoadAll and SaveAll
// aggregate these with errors.Join; one failing dataset never aborts the
// others.
type SlotError struct {
	Slot string
	Op   string // "load" or "save"
	Err  error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("tabula: %s %q: %v", e.Op, e.Slot, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }

// DecodeError reports malformed text for the chosen codec, with the slot
// name for context.
type DecodeError struct {
	Slot string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("tabula: decode %q: %v", e.Slot, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
