package packet

import (
	"errors"
	"testing"

	"github.com/librescoot/dynamixel/pkg/dxl/table"
)

func pushAll(t *testing.T, d *Decoder, frame []byte) (Status, error, int) {
	t.Helper()
	for i, b := range frame {
		status, err := d.Push(b)
		if err != nil {
			return status, err, i + 1
		}
		if status == StatusComplete {
			return status, nil, i + 1
		}
	}
	return StatusIncomplete, nil, len(frame)
}

func TestDecodePingResponse(t *testing.T) {
	frame := []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x07, 0x00, 0x55, 0x00, 0x06, 0x04, 0x26, 0x65, 0x5D}
	d := NewDecoder(0x01, Ping{})
	status, err, consumed := pushAll(t, d, frame)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if status != StatusComplete {
		t.Fatalf("status = %v, want StatusComplete", status)
	}
	if consumed != len(frame) {
		t.Errorf("consumed %d bytes, want %d", consumed, len(frame))
	}
	resp, err := ParsePingResponse(d.Response.Payload)
	if err != nil {
		t.Fatalf("ParsePingResponse: %v", err)
	}
	if resp.ModelNumber != 1030 || resp.FirmwareVersion != 38 {
		t.Errorf("resp = %+v, want {1030 38}", resp)
	}
}

func TestDecodeSoftwareErrorIgnoresLength(t *testing.T) {
	// Scenario D: length truncated to 4, code 0x04 (DataRangeError); CRC
	// bytes are garbage and must never be consulted.
	frame := []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x04, 0x00, 0x55, 0x04, 0xAA, 0xBB}
	d := NewDecoder(0x01, Write{Item: table.Entry(table.TorqueEnable)})
	status, err, consumed := pushAll(t, d, frame)
	if status != StatusComplete {
		t.Fatalf("status = %v, want StatusComplete (err=%v)", status, err)
	}
	var softErr *SoftwareErrorReported
	if !errors.As(err, &softErr) {
		t.Fatalf("err = %v, want *SoftwareErrorReported", err)
	}
	if softErr.Code != DataRangeError {
		t.Errorf("code = %v, want DataRangeError", softErr.Code)
	}
	if consumed != 9 {
		t.Errorf("consumed %d bytes, want 9 (decoder must not touch the trailing garbage)", consumed)
	}
}

func TestDecodeCRCMismatch(t *testing.T) {
	// Scenario E: a valid Ping response with the final CRC byte inverted.
	frame := []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x07, 0x00, 0x55, 0x00, 0x06, 0x04, 0x26, 0x65, 0xA2}
	d := NewDecoder(0x01, Ping{})
	_, err, _ := pushAll(t, d, frame)
	var crcErr *CRCMismatchError
	if !errors.As(err, &crcErr) {
		t.Fatalf("err = %v, want *CRCMismatchError", err)
	}
	if crcErr.Expected != 0x5D65 {
		t.Errorf("Expected = 0x%04X, want 0x5D65", crcErr.Expected)
	}
	if crcErr.Actual != 0xA265 {
		t.Errorf("Actual = 0x%04X, want 0xA265", crcErr.Actual)
	}
}

func TestDecodeHardwareError(t *testing.T) {
	// A status frame with the hardware-error bit (0x80) set in an otherwise
	// well-formed, CRC-correct frame must surface HardwareErrorReported only
	// after the CRC checks out.
	insn := Write{Item: table.Entry(table.TorqueEnable)}
	frame := Encode(0x01, insn)
	// Encode only builds send frames, so the zero-payload Write response
	// with error byte 0x80 and a correct CRC is built by hand.
	statusFrame := buildStatusFrame(t, 0x01, 0x80, nil)
	d := NewDecoder(0x01, insn)
	_, err, _ := pushAll(t, d, statusFrame)
	var hwErr *HardwareErrorReported
	if !errors.As(err, &hwErr) {
		t.Fatalf("err = %v, want *HardwareErrorReported", err)
	}
	_ = frame
}

func TestDecodeWrongID(t *testing.T) {
	frame := buildStatusFrame(t, 0x02, 0x00, nil)
	d := NewDecoder(0x01, Action{})
	_, err, _ := pushAll(t, d, frame)
	var idErr *WrongIDError
	if !errors.As(err, &idErr) {
		t.Fatalf("err = %v, want *WrongIDError", err)
	}
}

func TestDecodeWrongLength(t *testing.T) {
	frame := buildStatusFrame(t, 0x01, 0x00, nil)
	// Corrupt the length field (mutate a single byte) without touching the
	// error byte's software-error bits, so length validation kicks in.
	frame[5] = 0x63
	d := NewDecoder(0x01, Action{})
	_, err, _ := pushAll(t, d, frame)
	var lenErr *WrongLengthError
	if !errors.As(err, &lenErr) {
		t.Fatalf("err = %v, want *WrongLengthError", err)
	}
}

func TestDecodeErrorCodeAlgebra(t *testing.T) {
	for c := 1; c <= 7; c++ {
		code, ok, err := decodeErrorCode(byte(c))
		if err != nil || !ok || byte(code) != byte(c) {
			t.Errorf("decodeErrorCode(%d) = (%v,%v,%v), want a valid code", c, code, ok, err)
		}
	}
	if _, ok, err := decodeErrorCode(0); ok || err != nil {
		t.Errorf("decodeErrorCode(0) should report no error, got ok=%v err=%v", ok, err)
	}
	for _, c := range []byte{0x08, 0x09, 0x7F} {
		if _, _, err := decodeErrorCode(c); err == nil {
			t.Errorf("decodeErrorCode(0x%02X) should fail", c)
		}
	}
	// Hardware-error bit (0x80) must not affect the low-7-bit classification.
	code, ok, err := decodeErrorCode(0x80 | 0x04)
	if err != nil || !ok || code != DataRangeError {
		t.Errorf("decodeErrorCode(0x84) = (%v,%v,%v), want (DataRangeError,true,nil)", code, ok, err)
	}
}

func TestDecodeRoundTripAllIDs(t *testing.T) {
	// Property law 1 (spec.md §8): the round trip must hold for every id in
	// 1..=252 and every Instruction value the codec supports.
	insns := []Instruction{
		Ping{},
		Read{Item: table.Entry(table.PresentPosition)},
		Write{Item: table.Entry(table.TorqueEnable)},
		RegWrite{Item: table.Entry(table.GoalPosition)},
		Action{},
		FactoryReset{},
		Reboot{},
	}
	for _, insn := range insns {
		payload := make([]byte, insn.RecvPayloadLen())
		for i := range payload {
			payload[i] = byte(0x10 + i)
		}
		for id := 1; id <= 252; id++ {
			frame := buildStatusFrame(t, byte(id), 0x00, payload)
			d := NewDecoder(byte(id), insn)
			status, err, consumed := pushAll(t, d, frame)
			if err != nil || status != StatusComplete {
				t.Fatalf("insn=%s id=%d: status=%v err=%v", insn, id, status, err)
			}
			if consumed != len(frame) {
				t.Errorf("insn=%s id=%d: consumed %d, want %d", insn, id, consumed, len(frame))
			}
		}
	}
}

// buildStatusFrame assembles a well-formed status frame with a correct CRC
// for testing, independent of the production Encode path (which only builds
// send frames, not status frames).
func buildStatusFrame(t *testing.T, id byte, errByte byte, payload []byte) []byte {
	t.Helper()
	length := uint16(len(payload) + 4)
	frame := []byte{0xFF, 0xFF, 0xFD, 0x00, id, byte(length), byte(length >> 8), 0x55, errByte}
	frame = append(frame, payload...)
	crc := checksumFor(frame)
	frame = append(frame, byte(crc), byte(crc>>8))
	return frame
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
