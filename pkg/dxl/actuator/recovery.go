package actuator

import (
	"context"
	"errors"
	"time"

	"github.com/librescoot/dynamixel/pkg/dxl/bus"
	"github.com/librescoot/dynamixel/pkg/dxl/packet"
)

// completeError classifies a bus-level error. A nil err passes through
// unchanged. Any error other than a device-reported hardware fault is
// wrapped as *BusError. A hardware fault triggers recovery: read
// Hardware Error Status, reboot, then loop re-enabling torque until it
// succeeds, tolerating every error along the way (the device is still
// rebooting and won't answer immediately) — matching
// complete_packet_error in the original firmware, a reboot failure is
// logged but not fatal, and the torque-enable loop never gives up short
// of ctx; recovery always resolves into *HardwareResolved with the
// already-diagnosed status once torque is re-enabled, or
// *HardwareUnresolved only when ctx ends first or Hardware Error Status
// itself could not be read. This driver never retries the operation
// that triggered the fault — that decision belongs to the caller.
func (a *Actuator) completeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var hwErr *packet.HardwareErrorReported
	if !errors.As(err, &hwErr) {
		var lockErr *bus.MutexError
		if errors.As(err, &lockErr) {
			return &LockFailed{Err: err}
		}
		return &BusError{Err: err}
	}

	a.log().Printf("%s: hardware error reported; reading Hardware Error Status...", a)
	status, statusErr := a.bus.ReadHardwareErrorStatus(ctx, a.id)
	if statusErr != nil {
		var hwErr2 *packet.HardwareErrorReported
		if errors.As(statusErr, &hwErr2) && len(hwErr2.Payload) == 1 {
			status = packet.ParseHardwareErrorStatus(hwErr2.Payload[0])
		} else {
			a.log().Printf("%s: could not read Hardware Error Status: %v", a, statusErr)
			return &HardwareUnresolved{Err: statusErr}
		}
	}
	a.log().Printf("%s: HARDWARE ERROR: %s", a, status)

	if rebootErr := a.bus.Reboot(ctx, a.id); rebootErr != nil {
		a.log().Printf("%s: reboot failed, still trying to re-enable torque: %v", a, rebootErr)
	}

	for {
		torqueErr := a.bus.WriteTorqueEnable(ctx, a.id, true)
		if torqueErr == nil {
			break
		}
		a.log().Printf("%s: still waiting to re-enable torque (probably still rebooting): %v", a, torqueErr)
		select {
		case <-ctx.Done():
			return &HardwareUnresolved{Err: ctx.Err()}
		case <-time.After(a.pollInterval):
		}
	}

	return &HardwareResolved{Status: status}
}
