// Package bus arbitrates access to a shared Dynamixel half-duplex link: one
// Comm transaction at a time, each a complete send-then-receive round trip
// guarded by a transport.Mutex so concurrent callers never interleave bytes
// on the wire.
package bus

import (
	"context"
	"log"
	"sync"

	"github.com/librescoot/dynamixel/pkg/dxl/packet"
	"github.com/librescoot/dynamixel/pkg/dxl/table"
	"github.com/librescoot/dynamixel/pkg/dxl/transport"
)

// Option configures a Bus at construction.
type Option func(*Bus)

// WithStrictIDs enables duplicate-id tracking: Register fails with
// ErrDuplicateID for an id already bound to a live Actuator. Enabled by
// default, the Go analogue of a debug-only assertion in the original
// firmware; disable it only for tests that intentionally share an id.
func WithStrictIDs(enabled bool) Option {
	return func(b *Bus) { b.strictIDs = enabled }
}

// WithLogger attaches trace-level logging of every Comm transaction.
func WithLogger(l *log.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// Bus serializes Comm transactions over a single transport.Transport.
type Bus struct {
	transport transport.Transport
	mutex     transport.Mutex
	logger    *log.Logger

	strictIDs bool
	idsMu     sync.Mutex
	boundIDs  map[byte]struct{}
}

// New returns a Bus driving t, guarded by its own ChanMutex.
func New(t transport.Transport, opts ...Option) *Bus {
	b := &Bus{
		transport: t,
		mutex:     transport.NewChanMutex(),
		strictIDs: true,
		boundIDs:  make(map[byte]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) log() *log.Logger {
	if b.logger != nil {
		return b.logger
	}
	return log.Default()
}

// Register binds id to a live Actuator for duplicate-id tracking. An id
// outside 1..252 is always rejected; the duplicate check is skipped unless
// the Bus was constructed WithStrictIDs(true) (the default).
func (b *Bus) Register(id byte) error {
	if id == 0 || id > 252 {
		return &ErrInvalidID{ID: id}
	}
	if !b.strictIDs {
		return nil
	}
	b.idsMu.Lock()
	defer b.idsMu.Unlock()
	if _, bound := b.boundIDs[id]; bound {
		return &ErrDuplicateID{ID: id}
	}
	b.boundIDs[id] = struct{}{}
	return nil
}

// Unregister releases id so it can be Register-ed again.
func (b *Bus) Unregister(id byte) error {
	if id == 0 || id > 252 {
		return &ErrInvalidID{ID: id}
	}
	if !b.strictIDs {
		return nil
	}
	b.idsMu.Lock()
	defer b.idsMu.Unlock()
	delete(b.boundIDs, id)
	return nil
}

// Comm performs one complete request/response transaction: it acquires the
// transport mutex, encodes and sends insn to id, streams the reply through
// a fresh packet.Decoder, and releases the mutex before returning.
func (b *Bus) Comm(ctx context.Context, id byte, insn packet.Instruction) (packet.Response, error) {
	guard, err := b.mutex.Lock(ctx)
	if err != nil {
		return packet.Response{}, &MutexError{Err: err}
	}
	defer guard.Unlock()

	frame := packet.Encode(id, insn)
	b.log().Printf("bus: id=%d tx %s % 02X", id, insn, frame)

	src, err := b.transport.Transmit(ctx, frame)
	if err != nil {
		return packet.Response{}, &TransportError{Err: err}
	}

	dec := packet.NewDecoder(id, insn)
	for {
		bt, err := src.ReadByte(ctx)
		if err != nil {
			return packet.Response{}, &TransportError{Err: err}
		}
		status, err := dec.Push(bt)
		if err != nil {
			return packet.Response{}, &CodecError{Err: err}
		}
		if status == packet.StatusComplete {
			b.log().Printf("bus: id=%d rx %+v", id, dec.Response)
			return dec.Response, nil
		}
	}
}

// Ping queries a device's model number and firmware version.
func (b *Bus) Ping(ctx context.Context, id byte) (packet.PingResponse, error) {
	resp, err := b.Comm(ctx, id, packet.Ping{})
	if err != nil {
		return packet.PingResponse{}, err
	}
	return packet.ParsePingResponse(resp.Payload)
}

// Reboot power-cycles a device's firmware.
func (b *Bus) Reboot(ctx context.Context, id byte) error {
	_, err := b.Comm(ctx, id, packet.Reboot{})
	return err
}

// Action commits the most recently staged RegWrite.
func (b *Bus) Action(ctx context.Context, id byte) error {
	_, err := b.Comm(ctx, id, packet.Action{})
	return err
}

// FactoryReset restores a device's control table to factory defaults.
func (b *Bus) FactoryReset(ctx context.Context, id byte) error {
	_, err := b.Comm(ctx, id, packet.FactoryReset{})
	return err
}

// ReadItem reads any catalogued register by its table.Item.
func (b *Bus) ReadItem(ctx context.Context, id byte, item table.Item) ([]byte, error) {
	resp, err := b.Comm(ctx, id, packet.Read{Item: item})
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// WriteItem writes any catalogued register by its table.Item.
func (b *Bus) WriteItem(ctx context.Context, id byte, item table.Item, value []byte) error {
	w, err := packet.NewWrite(item, value)
	if err != nil {
		return &CodecError{Err: err}
	}
	_, err = b.Comm(ctx, id, w)
	return err
}

// RegWriteItem stages any catalogued register's value for the next Action.
func (b *Bus) RegWriteItem(ctx context.Context, id byte, item table.Item, value []byte) error {
	w, err := packet.NewRegWrite(item, value)
	if err != nil {
		return &CodecError{Err: err}
	}
	_, err = b.Comm(ctx, id, w)
	return err
}
