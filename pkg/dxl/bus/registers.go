package bus

import (
	"context"
	"encoding/binary"

	"github.com/librescoot/dynamixel/pkg/dxl/packet"
	"github.com/librescoot/dynamixel/pkg/dxl/table"
)

// Named helpers for the registers the actuator facade actually drives.
// Every other catalogued register remains reachable through ReadItem,
// WriteItem, and RegWriteItem.

func (b *Bus) ReadPresentPosition(ctx context.Context, id byte) (uint32, error) {
	v, err := b.ReadItem(ctx, id, table.Entry(table.PresentPosition))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v), nil
}

func (b *Bus) ReadMinPositionLimit(ctx context.Context, id byte) (uint32, error) {
	v, err := b.ReadItem(ctx, id, table.Entry(table.MinPositionLimit))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v), nil
}

func (b *Bus) ReadMaxPositionLimit(ctx context.Context, id byte) (uint32, error) {
	v, err := b.ReadItem(ctx, id, table.Entry(table.MaxPositionLimit))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v), nil
}

func (b *Bus) ReadHardwareErrorStatus(ctx context.Context, id byte) (packet.HardwareErrorStatus, error) {
	v, err := b.ReadItem(ctx, id, table.Entry(table.HardwareErrorStatus))
	if err != nil {
		return 0, err
	}
	return packet.ParseHardwareErrorStatus(v[0]), nil
}

func (b *Bus) WriteGoalPosition(ctx context.Context, id byte, position uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, position)
	return b.WriteItem(ctx, id, table.Entry(table.GoalPosition), buf)
}

func (b *Bus) WriteProfileVelocity(ctx context.Context, id byte, velocity uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, velocity)
	return b.WriteItem(ctx, id, table.Entry(table.ProfileVelocity), buf)
}

func (b *Bus) WriteProfileAcceleration(ctx context.Context, id byte, acceleration uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, acceleration)
	return b.WriteItem(ctx, id, table.Entry(table.ProfileAcceleration), buf)
}

func (b *Bus) WriteTorqueEnable(ctx context.Context, id byte, on bool) error {
	v := byte(0)
	if on {
		v = 1
	}
	return b.WriteItem(ctx, id, table.Entry(table.TorqueEnable), []byte{v})
}
