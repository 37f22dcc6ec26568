// Package telemetry mirrors actuator state into Redis: a hash per device
// plus a pub/sub notification on every update, so other processes on the
// same host can observe motion without polling the bus themselves. This is
// ambient/demo tooling, not part of the driver core.
package telemetry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Mirror publishes actuator state to Redis.
type Mirror struct {
	client *redis.Client
}

// Open connects to a Redis instance at addr.
func Open(ctx context.Context, addr, password string, db int) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("telemetry: connect to redis: %w", err)
	}
	return &Mirror{client: client}, nil
}

// Close releases the Redis connection.
func (m *Mirror) Close() error {
	return m.client.Close()
}

func key(id byte) string {
	return fmt.Sprintf("dynamixel:%d", id)
}

// WritePosition mirrors an actuator's last-known normalised position and
// publishes an update notification on the device's key.
func (m *Mirror) WritePosition(ctx context.Context, id byte, position float64) error {
	field := "position"
	value := strconv.FormatFloat(position, 'f', 4, 64)
	pipe := m.client.Pipeline()
	pipe.HSet(ctx, key(id), field, value)
	pipe.Publish(ctx, key(id), fmt.Sprintf("%s:%s", field, value))
	_, err := pipe.Exec(ctx)
	return err
}

// WriteTorqueEnabled mirrors an actuator's torque-enable state.
func (m *Mirror) WriteTorqueEnabled(ctx context.Context, id byte, enabled bool) error {
	field := "torque_enabled"
	value := "0"
	if enabled {
		value = "1"
	}
	pipe := m.client.Pipeline()
	pipe.HSet(ctx, key(id), field, value)
	pipe.Publish(ctx, key(id), fmt.Sprintf("%s:%s", field, value))
	_, err := pipe.Exec(ctx)
	return err
}

// WriteError mirrors the last error an actuator reported, recorded as a
// single human-readable line, and publishes a notification. Passing a nil
// err clears the field.
func (m *Mirror) WriteError(ctx context.Context, id byte, err error) error {
	field := "last_error"
	value := ""
	if err != nil {
		value = err.Error()
	}
	pipe := m.client.Pipeline()
	pipe.HSet(ctx, key(id), field, value)
	pipe.Publish(ctx, key(id), fmt.Sprintf("%s:%s", field, value))
	_, pipeErr := pipe.Exec(ctx)
	return pipeErr
}
