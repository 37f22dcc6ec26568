package actuator

import (
	"fmt"

	"github.com/librescoot/dynamixel/pkg/dxl/packet"
)

// LockFailed wraps a failure to acquire exclusive use of the bus.
type LockFailed struct {
	Err error
}

func (e *LockFailed) Error() string { return fmt.Sprintf("actuator: %v", e.Err) }
func (e *LockFailed) Unwrap() error { return e.Err }

// BusError wraps any error surfaced by the bus package that is not a
// device-reported hardware fault and not a lock failure — a wire-level or
// codec failure.
type BusError struct {
	Err error
}

func (e *BusError) Error() string { return fmt.Sprintf("actuator: %v", e.Err) }
func (e *BusError) Unwrap() error { return e.Err }

// HardwareResolved reports that a device-reported hardware fault was
// diagnosed, and the device was rebooted and re-armed (torque re-enabled)
// afterward. Status names the fault flags read before the reboot. The
// caller owns whatever retry decision follows; this driver never retries
// the failed operation automatically.
type HardwareResolved struct {
	Status packet.HardwareErrorStatus
}

func (e *HardwareResolved) Error() string {
	return fmt.Sprintf("actuator: hardware error resolved (%s); device rebooted and torque re-enabled", e.Status)
}

// HardwareUnresolved reports that recovery from a device-reported hardware
// fault did not complete: Hardware Error Status could not be read, or ctx
// ended before torque was re-enabled. A failed reboot alone does not
// produce it.
type HardwareUnresolved struct {
	Err error
}

func (e *HardwareUnresolved) Error() string {
	return fmt.Sprintf("actuator: hardware error reported, but recovery failed: %v", e.Err)
}
func (e *HardwareUnresolved) Unwrap() error { return e.Err }

// ErrPositionOutOfRange is returned by GoTo and FollowTo for a normalised
// position outside [0, 1].
type ErrPositionOutOfRange struct {
	ID       byte
	Position float32
}

func (e *ErrPositionOutOfRange) Error() string {
	return fmt.Sprintf("actuator: Dynamixel ID %d received position %g, which is outside [0, 1]", e.ID, e.Position)
}
