package reactive

import (
	"errors"
	"fmt"
)

// ErrCycleDetected is the sentinel wrapped by every CycleError. Use
// errors.Is to classify.
var ErrCycleDetected = errors.New("reactive: circular dependency detected")

// CycleError reports a memo whose evaluator re-entered itself, directly or
// through other memos.
type CycleError struct {
	NodeID uint64
	Name   string
}

func (e *CycleError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("reactive: circular dependency in memo %q (id=%d)", e.Name, e.NodeID)
	}
	return fmt.Sprintf("reactive: circular dependency in memo id=%d", e.NodeID)
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// EffectPanicError wraps a panic recovered from an effect body for logging.
// OnError handlers receive the raw panic value instead; the effect itself
// stays armed and re-runs on the next dependency change.
type EffectPanicError struct {
	EffectID uint64
	Name     string
	Value    any
}

func (e *EffectPanicError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("reactive: effect %q (id=%d) panicked: %v", e.Name, e.EffectID, e.Value)
	}
	return fmt.Sprintf("reactive: effect id=%d panicked: %v", e.EffectID, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *EffectPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
