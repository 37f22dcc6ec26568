package bus

import (
	"context"
	"sync"
	"testing"

	"github.com/librescoot/dynamixel/pkg/dxl/table"
	"github.com/librescoot/dynamixel/pkg/dxl/transport"
)

// fakeTransport answers every Transmit with a canned status frame, ignoring
// the frame it is sent; it exists to drive Bus.Comm without real hardware.
type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
	next   int
	sent   [][]byte
}

func (f *fakeTransport) Transmit(ctx context.Context, frame []byte) (transport.ByteSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, append([]byte(nil), frame...))
	if f.next >= len(f.frames) {
		return nil, &transport.SendFailed{Err: errNoMoreFrames}
	}
	reply := f.frames[f.next]
	f.next++
	return &sliceSource{data: reply}, nil
}

var errNoMoreFrames = fakeErr("fakeTransport: no more canned replies")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

type sliceSource struct {
	data []byte
	pos  int
}

func (s *sliceSource) ReadByte(ctx context.Context) (byte, error) {
	if s.pos >= len(s.data) {
		return 0, &transport.RecvTimeout{}
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

func statusFrame(id byte, errByte byte, payload []byte) []byte {
	length := uint16(len(payload) + 4)
	frame := []byte{0xFF, 0xFF, 0xFD, 0x00, id, byte(length), byte(length >> 8), 0x55, errByte}
	frame = append(frame, payload...)
	crc := checksumFor(frame)
	return append(frame, byte(crc), byte(crc>>8))
}

func checksumFor(data []byte) uint16 {
	var c uint16
	for _, b := range data {
		c ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if c&0x8000 != 0 {
				c = (c << 1) ^ 0x8005
			} else {
				c <<= 1
			}
		}
	}
	return c
}

func TestBusPing(t *testing.T) {
	ft := &fakeTransport{frames: [][]byte{statusFrame(0x01, 0x00, []byte{0x06, 0x04, 0x26})}}
	b := New(ft)
	resp, err := b.Ping(context.Background(), 0x01)
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if resp.ModelNumber != 1030 || resp.FirmwareVersion != 38 {
		t.Errorf("resp = %+v, want {1030 38}", resp)
	}
}

func TestBusWriteGoalPosition(t *testing.T) {
	ft := &fakeTransport{frames: [][]byte{statusFrame(0x01, 0x00, nil)}}
	b := New(ft)
	if err := b.WriteGoalPosition(context.Background(), 0x01, 512); err != nil {
		t.Fatalf("WriteGoalPosition: %v", err)
	}
	want := []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x09, 0x00, 0x03, 0x74, 0x00, 0x00, 0x02, 0x00, 0x00, 0xCA, 0x89}
	if string(ft.sent[0]) != string(want) {
		t.Errorf("sent % 02X, want % 02X", ft.sent[0], want)
	}
}

func TestBusCodecErrorWrapsPacketError(t *testing.T) {
	bad := statusFrame(0x01, 0x00, []byte{0x06, 0x04, 0x26})
	bad[len(bad)-1] ^= 0xFF
	ft := &fakeTransport{frames: [][]byte{bad}}
	b := New(ft)
	_, err := b.Ping(context.Background(), 0x01)
	if err == nil {
		t.Fatal("Ping should fail on a corrupted CRC")
	}
	var codecErr *CodecError
	if !asCodecError(err, &codecErr) {
		t.Errorf("err = %v (%T), want *CodecError", err, err)
	}
}

func asCodecError(err error, target **CodecError) bool {
	ce, ok := err.(*CodecError)
	if !ok {
		return false
	}
	*target = ce
	return true
}

func TestBusRegisterDuplicateID(t *testing.T) {
	b := New(&fakeTransport{})
	if err := b.Register(5); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := b.Register(5)
	if _, ok := err.(*ErrDuplicateID); !ok {
		t.Errorf("err = %v, want *ErrDuplicateID", err)
	}
	if err := b.Unregister(5); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if err := b.Register(5); err != nil {
		t.Errorf("Register after Unregister: %v", err)
	}
}

func TestBusRegisterInvalidID(t *testing.T) {
	b := New(&fakeTransport{})
	if err := b.Register(0); err == nil {
		t.Error("Register(0) should fail")
	}
	if err := b.Register(253); err == nil {
		t.Error("Register(253) should fail")
	}
}

func TestBusRegisterNotStrictAllowsDuplicates(t *testing.T) {
	b := New(&fakeTransport{}, WithStrictIDs(false))
	if err := b.Register(5); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := b.Register(5); err != nil {
		t.Errorf("Register should not fail when strict id tracking is disabled: %v", err)
	}
}

func TestBusReadItemRegisterWithoutHelper(t *testing.T) {
	ft := &fakeTransport{frames: [][]byte{statusFrame(0x01, 0x00, []byte{0x00})}}
	b := New(ft)
	v, err := b.ReadItem(context.Background(), 0x01, table.Entry(table.LED))
	if err != nil {
		t.Fatalf("ReadItem: %v", err)
	}
	if len(v) != 1 {
		t.Errorf("ReadItem returned %d bytes, want 1", len(v))
	}
}

func TestBusTransportErrorWraps(t *testing.T) {
	b := New(&fakeTransport{}) // no canned frames: first Transmit fails
	_, err := b.Ping(context.Background(), 0x01)
	var transportErr *TransportError
	if te, ok := err.(*TransportError); !ok {
		t.Fatalf("err = %v (%T), want *TransportError", err, err)
	} else {
		transportErr = te
	}
	if transportErr.Unwrap() == nil {
		t.Error("TransportError should wrap the underlying error")
	}
}
