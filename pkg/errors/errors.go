// Package errors provides the error and warning taxonomy used across the
// binned-dataset core. It wraps github.com/cockroachdb/errors for stack
// traces and implements zerolog.LogObjectMarshaler on ContractViolation and
// Warning so callers can log a warning/error as a structured event instead of a bare
// string.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("gbdtbin-warning: %v\n", w)
	}
	zerologWarnFunc func(warning error)
)

// SetWarningHandler overrides how non-fatal Warning values are reported.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc wires a zerolog-backed sink for Warn (set by pkg/log to
// avoid a circular import between pkg/errors and pkg/log).
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn reports a non-fatal Warning. State is never changed by a warning.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	ContractViolation — fatal, reported via the fatal channel (spec §7)
//
// ===========================================================================

// ContractViolation reports a caller contract breach: length mismatches,
// nil buffers where required, or row-count disagreements in AddFeaturesFrom
// or CopySubset. An existing destination file on save is not reported with
// it: Dataset.SaveBinary reports that as a Warning.
type ContractViolation struct {
	Op      string
	Message string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("gbdtbin: %s: contract violation: %s", e.Op, e.Message)
}

// MarshalZerologObject lets a ContractViolation be logged as a structured event.
func (e *ContractViolation) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("op", e.Op).Str("message", e.Message).Str("type", "ContractViolation")
}

// NewContractViolation builds a ContractViolation with a stack trace attached.
func NewContractViolation(op, format string, args ...interface{}) error {
	err := &ContractViolation{Op: op, Message: fmt.Sprintf(format, args...)}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Warning — non-fatal, state unchanged (spec §7)
//
// ===========================================================================

// Warning reports an attempt to change immutable post-construction config,
// a "no meaningful features" bundling result, or a file-already-exists
// condition on save.
type Warning struct {
	Op      string
	Message string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("gbdtbin: %s: %s", w.Op, w.Message)
}

// MarshalZerologObject lets a Warning be logged as a structured event.
func (w *Warning) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("op", w.Op).Str("message", w.Message).Str("type", "Warning")
}

// NewWarning builds a Warning. It does not attach a stack trace: warnings
// are routine, not exceptional.
func NewWarning(op, format string, args ...interface{}) error {
	return &Warning{Op: op, Message: fmt.Sprintf(format, args...)}
}

// ===========================================================================
//
//	cockroachdb/errors re-exports, matching the teacher's wrapper shape
//
// ===========================================================================

// Is reports whether err matches target per errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be assigned to target per errors.As semantics.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap attaches a message to err, preserving its stack trace.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf attaches a formatted message to err, preserving its stack trace.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace attached.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace attached.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common sentinel errors
//
// ===========================================================================

var (
	// ErrFileExists names the destination-already-exists condition. SaveBinary
	// does not return it: it reports that condition through Warn and
	// returns nil.
	ErrFileExists = New("file already exists")

	// ErrNotFinishedLoad names the FinishLoad-not-yet-run condition. No
	// function in this module returns it.
	ErrNotFinishedLoad = New("dataset has not finished loading")
)
