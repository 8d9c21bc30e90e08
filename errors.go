package flashfs

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrEndOfMedium is returned when the region is full and no more space can
// be reclaimed. The only such configuration is a region of a single
// sector; a device fault during erase is reported as ErrDeviceFault
// instead.
var ErrEndOfMedium = errors.New("flashfs: end of medium")

// ErrBusyErasing is returned by WriteByte/WriteBytes when an arming-time
// erase pass (BackgroundErase == false) has not yet completed.
var ErrBusyErasing = errors.New("flashfs: busy erasing")

// ErrDeviceFault wraps an error surfaced by the Device during a program or
// erase. It latches the filesystem into the Faulted state until Init or
// EraseAll is called again.
var ErrDeviceFault = errors.New("flashfs: device fault")

// ErrCorruption is returned by Init when pointer recovery finds more than
// one written/free boundary in the region. Use errors.As to recover the
// *CorruptionError and choose a repair policy.
var ErrCorruption = errors.New("flashfs: corruption detected")

// CorruptionError carries every anomalous written/free transition pointer
// recovery found while scanning the region, and offers the two repair
// policies the design allows.
type CorruptionError struct {
	// Anomalies aggregates one entry per unexpected transition, so a
	// caller inspecting the error sees the whole picture rather than
	// just the first inconsistency found.
	Anomalies *multierror.Error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("flashfs: corruption detected: %v", e.Anomalies)
}

func (e *CorruptionError) Unwrap() error {
	return ErrCorruption
}

func newCorruptionError(anomalies ...error) *CorruptionError {
	var me *multierror.Error
	for _, a := range anomalies {
		me = multierror.Append(me, a)
	}
	return &CorruptionError{Anomalies: me}
}

// RepairPolicy selects how a corrupted region is brought back to a
// consistent state. The caller elects one; the core never picks on its
// own, since either choice silently discards information (either the
// older data, or the ambiguity itself).
type RepairPolicy int

const (
	// RepairAsFull treats the whole region as already written, matching
	// §4.C's "all-written" case: head = regionStart, tail reserves the
	// last page as a sentinel. Preserves data, sacrifices nothing but
	// capacity until the next erase reclaims a sector.
	RepairAsFull RepairPolicy = iota
	// RepairAsEmpty discards everything and treats the region as freshly
	// erased. Used when the host would rather lose a corrupted log than
	// risk reading back garbage.
	RepairAsEmpty
)
