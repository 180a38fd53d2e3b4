package minitls

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by Send and Flush once the connection is closed.
	ErrClosed = errors.New("minitls: connection closed")

	// ErrBufferAlloc reports that the output buffer could not be allocated.
	ErrBufferAlloc = errors.New("minitls: output buffer allocation failed")

	// ErrRecordTooLarge reports a payload or fragment beyond protocol limits.
	ErrRecordTooLarge = errors.New("minitls: record too large")

	// ErrSequenceOverflow is returned when a write sequence number would wrap.
	ErrSequenceOverflow = errors.New("minitls: sequence number overflow")
)

// ResizeKind classifies output buffer resize failures.
type ResizeKind int

const (
	// ResizeAlloc: storage for the new capacity could not be obtained.
	ResizeAlloc ResizeKind = iota
	// ResizeInUse: the new capacity cannot hold bytes still waiting to be sent.
	ResizeInUse
	// ResizeInvalid: the requested capacity is out of range.
	ResizeInvalid
)

func (k ResizeKind) String() string {
	switch k {
	case ResizeAlloc:
		return "alloc"
	case ResizeInUse:
		return "in_use"
	case ResizeInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("resize_kind(%d)", int(k))
	}
}

// ResizeError represents a failed output buffer resize. Only Kind ResizeAlloc
// is recoverable, and only while adjusting the record size.
type ResizeError struct {
	Kind ResizeKind
	From int
	To   int
	Err  error // Underlying error if any
}

func (e *ResizeError) Error() string {
	msg := fmt.Sprintf("resize output buffer %d -> %d (%s)", e.From, e.To, e.Kind)
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ResizeError) Unwrap() error {
	return e.Err
}

// IsAllocFailure reports whether err is a resize that failed for lack of memory.
func IsAllocFailure(err error) bool {
	var re *ResizeError
	return errors.As(err, &re) && re.Kind == ResizeAlloc
}

// TransportError wraps a fatal failure of the underlying transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AlertError carries a TLS alert, either received from the peer or one the
// caller wants to send in response to a failure.
type AlertError struct {
	Level       uint8
	Description uint8
}

func (e *AlertError) Error() string {
	level := "warning"
	if e.Level == AlertLevelFatal {
		level = "fatal"
	}
	return fmt.Sprintf("tls: %s alert: %s", level, AlertDescriptionString(e.Description))
}

// AlertLevel returns the TLS alert level for this error
func (e *AlertError) AlertLevel() uint8 {
	return e.Level
}

// AlertDescription returns the TLS alert description for this error
func (e *AlertError) AlertDescription() uint8 {
	return e.Description
}
