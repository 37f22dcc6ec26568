// Package actuator is the per-device facade over a bus.Bus: cached
// calibration, normalised-position motion primitives, and structured
// recovery from device-reported hardware faults.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/librescoot/dynamixel/pkg/dxl/bus"
	"github.com/librescoot/dynamixel/pkg/dxl/packet"
)

// defaultAcceleration is the factory-default Profile Acceleration value:
// snappy enough without feeling mechanical.
const defaultAcceleration = 128

// defaultPollInterval paces follow_to's convergence polling; this is the
// Go rendering of the original firmware's cooperative yield between
// polls, which here has no scheduler to yield to.
const defaultPollInterval = 20 * time.Millisecond

// KnownLimits is an actuator's cached position range, read once from its
// Min/Max Position Limit registers.
type KnownLimits struct {
	Min   float64
	Range float64
}

// Actuator is a single Dynamixel device addressed over a shared Bus.
type Actuator struct {
	bus         *bus.Bus
	id          byte
	description string
	pollInterval time.Duration
	logger      *log.Logger

	limits *KnownLimits
}

// Option configures an Actuator at construction.
type Option func(*Actuator)

// WithPollInterval overrides the polling cadence FollowTo uses while
// waiting for a device to reach its goal.
func WithPollInterval(d time.Duration) Option {
	return func(a *Actuator) { a.pollInterval = d }
}

// WithLogger attaches trace-level logging matching the original
// firmware's defmt::trace!/info!/error! call sites.
func WithLogger(l *log.Logger) Option {
	return func(a *Actuator) { a.logger = l }
}

func (a *Actuator) log() *log.Logger {
	if a.logger != nil {
		return a.logger
	}
	return log.Default()
}

func (a *Actuator) String() string {
	return fmt.Sprintf("Dynamixel ID %d (%q)", a.id, a.description)
}

// InitUnconfigured registers id on b (duplicate-id tracked when the bus
// was constructed WithStrictIDs(true)) and returns an Actuator with no
// cached calibration and its control-table parameters left untouched.
func InitUnconfigured(ctx context.Context, b *bus.Bus, id byte, description string, opts ...Option) (*Actuator, error) {
	if err := b.Register(id); err != nil {
		return nil, fmt.Errorf("actuator: %w", err)
	}
	a := &Actuator{
		bus:          b,
		id:           id,
		description:  description,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// initWithMaxVelocity calls InitUnconfigured, then writes the largest
// Profile Velocity the device will accept: starting at the register's
// full-width maximum and halving it every time the device reports
// DataRangeError, until a value is accepted.
func initWithMaxVelocity(ctx context.Context, b *bus.Bus, id byte, description string, opts ...Option) (*Actuator, error) {
	a, err := InitUnconfigured(ctx, b, id, description, opts...)
	if err != nil {
		return nil, err
	}

	max := uint32(0xFFFFFFFF)
	for {
		err := a.bus.WriteProfileVelocity(ctx, a.id, max)
		if err == nil {
			return a, nil
		}
		var softErr *packet.SoftwareErrorReported
		if errors.As(err, &softErr) && softErr.Code == packet.DataRangeError {
			a.log().Printf("%s: maximum velocity of %d is too much; halving to %d", a, max, max>>1)
			max >>= 1
			continue
		}
		return nil, fmt.Errorf("actuator: writing profile velocity for %s: %w", a, a.completeError(ctx, err))
	}
}

// initWithProfile calls initWithMaxVelocity, then resets Profile
// Acceleration to its factory default.
func initWithProfile(ctx context.Context, b *bus.Bus, id byte, description string, opts ...Option) (*Actuator, error) {
	a, err := initWithMaxVelocity(ctx, b, id, description, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.resetAccelerationProfile(ctx); err != nil {
		return nil, fmt.Errorf("actuator: resetting acceleration profile for %s: %w", a, err)
	}
	return a, nil
}

// InitInPlace brings a device up with its default motion profile and
// enables torque without commanding any motion — the device holds
// whatever position it was already in.
func InitInPlace(ctx context.Context, b *bus.Bus, id byte, description string, opts ...Option) (*Actuator, error) {
	a, err := initWithProfile(ctx, b, id, description, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.TorqueOn(ctx); err != nil {
		return nil, fmt.Errorf("actuator: enabling torque for %s: %w", a, err)
	}
	return a, nil
}

// InitAtPosition brings a device up at the smoothest possible
// acceleration, enables torque, slowly moves to position (see FollowTo),
// then restores the default acceleration profile.
func InitAtPosition(ctx context.Context, b *bus.Bus, id byte, description string, position, tolerance float64, opts ...Option) (*Actuator, error) {
	a, err := initWithMaxVelocity(ctx, b, id, description, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.bus.WriteProfileAcceleration(ctx, a.id, 1); err != nil {
		return nil, fmt.Errorf("actuator: setting acceleration for %s: %w", a, a.completeError(ctx, err))
	}
	a.log().Printf("%s: slowly moving to position %g...", a, position)
	if err := a.TorqueOn(ctx); err != nil {
		return nil, fmt.Errorf("actuator: enabling torque for %s: %w", a, err)
	}
	if err := a.FollowTo(ctx, position, tolerance); err != nil {
		return nil, fmt.Errorf("actuator: moving %s to position %g: %w", a, position, err)
	}
	a.log().Printf("%s: reached its goal position of %g", a, position)
	if err := a.resetAccelerationProfile(ctx); err != nil {
		return nil, fmt.Errorf("actuator: resetting acceleration profile for %s: %w", a, err)
	}
	return a, nil
}

func (a *Actuator) resetAccelerationProfile(ctx context.Context) error {
	if err := a.bus.WriteProfileAcceleration(ctx, a.id, defaultAcceleration); err != nil {
		return a.completeError(ctx, err)
	}
	return nil
}

// TorqueOn enables torque.
func (a *Actuator) TorqueOn(ctx context.Context) error {
	return a.completeError(ctx, a.bus.WriteTorqueEnable(ctx, a.id, true))
}

// TorqueOff disables torque.
func (a *Actuator) TorqueOff(ctx context.Context) error {
	return a.completeError(ctx, a.bus.WriteTorqueEnable(ctx, a.id, false))
}

// Limits returns the actuator's cached position range, reading Min/Max
// Position Limit on first call and retaining the result thereafter.
func (a *Actuator) Limits(ctx context.Context) (KnownLimits, error) {
	if a.limits != nil {
		return *a.limits, nil
	}
	max, err := a.bus.ReadMaxPositionLimit(ctx, a.id)
	if err != nil {
		return KnownLimits{}, a.completeError(ctx, err)
	}
	min, err := a.bus.ReadMinPositionLimit(ctx, a.id)
	if err != nil {
		return KnownLimits{}, a.completeError(ctx, err)
	}
	a.log().Printf("%s: position limits: [%d..%d]", a, min, max)
	limits := KnownLimits{Min: float64(min), Range: float64(max - min)}
	a.limits = &limits
	return limits, nil
}

func (a *Actuator) makeAbsolute(ctx context.Context, relative float64) (uint32, error) {
	if relative < 0 || relative > 1 {
		return 0, &ErrPositionOutOfRange{ID: a.id, Position: float32(relative)}
	}
	limits, err := a.Limits(ctx)
	if err != nil {
		return 0, err
	}
	return uint32(math.Round(limits.Min + limits.Range*relative)), nil
}

func (a *Actuator) makeRelative(ctx context.Context, absolute uint32) (float64, error) {
	limits, err := a.Limits(ctx)
	if err != nil {
		return 0, err
	}
	return (float64(absolute) - limits.Min) / limits.Range, nil
}

// GoTo fails for a position outside [0, 1]; otherwise it translates the
// normalised position to a device tick count and writes Goal Position
// without waiting for the device to arrive.
func (a *Actuator) GoTo(ctx context.Context, position float64) error {
	ticks, err := a.makeAbsolute(ctx, position)
	if err != nil {
		return err
	}
	return a.completeError(ctx, a.bus.WriteGoalPosition(ctx, a.id, ticks))
}

// Pos reads Present Position and normalises it against the actuator's
// cached limits.
func (a *Actuator) Pos(ctx context.Context) (float64, error) {
	ticks, err := a.bus.ReadPresentPosition(ctx, a.id)
	if err != nil {
		return 0, a.completeError(ctx, err)
	}
	return a.makeRelative(ctx, ticks)
}

// FollowTo writes the goal position, then polls Present Position at the
// actuator's poll interval until it is within tolerance of position, or
// ctx is done, or an error surfaces.
func (a *Actuator) FollowTo(ctx context.Context, position, tolerance float64) error {
	if err := a.GoTo(ctx, position); err != nil {
		return err
	}

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	for {
		actual, err := a.Pos(ctx)
		if err != nil {
			return err
		}
		if abs(position-actual) <= tolerance {
			a.log().Printf("%s: reached its goal position (%g)", a, position)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
