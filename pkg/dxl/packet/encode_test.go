package packet

import (
	"bytes"
	"testing"

	"github.com/librescoot/dynamixel/pkg/dxl/table"
)

func TestEncodePing(t *testing.T) {
	got := Encode(0x01, Ping{})
	want := []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x03, 0x00, 0x01, 0x19, 0x4E}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode(Ping) = % 02X, want % 02X", got, want)
	}
}

func TestEncodeGoalPositionWrite(t *testing.T) {
	item := table.Entry(table.GoalPosition)
	value := []byte{0x00, 0x02, 0x00, 0x00} // 512 little-endian
	w, err := NewWrite(item, value)
	if err != nil {
		t.Fatalf("NewWrite: %v", err)
	}
	got := Encode(0x01, w)
	want := []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x09, 0x00, 0x03, 0x74, 0x00, 0x00, 0x02, 0x00, 0x00, 0xCA, 0x89}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode(Write GoalPosition) = % 02X, want % 02X", got, want)
	}
}

func TestEncodeTorqueOnWrite(t *testing.T) {
	item := table.Entry(table.TorqueEnable)
	w, err := NewWrite(item, []byte{0x01})
	if err != nil {
		t.Fatalf("NewWrite: %v", err)
	}
	got := Encode(0x01, w)
	want := []byte{0xFF, 0xFF, 0xFD, 0x00, 0x01, 0x06, 0x00, 0x03, 0x40, 0x00, 0x01, 0xDB, 0x66}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode(Write TorqueEnable) = % 02X, want % 02X", got, want)
	}
}

func TestNewWriteRejectsWrongWidth(t *testing.T) {
	item := table.Entry(table.GoalPosition)
	if _, err := NewWrite(item, []byte{0x01}); err == nil {
		t.Error("NewWrite with wrong-width value should fail")
	}
}

func TestStuffPayloadInsertsEscapeByte(t *testing.T) {
	in := []byte{0x01, 0xFF, 0xFF, 0xFD, 0x02}
	out := stuffPayload(in)
	want := []byte{0x01, 0xFF, 0xFF, 0xFD, 0xFD, 0x02}
	if !bytes.Equal(out, want) {
		t.Errorf("stuffPayload(% 02X) = % 02X, want % 02X", in, out, want)
	}
}

func TestStuffPayloadLeavesOrdinaryBytesAlone(t *testing.T) {
	in := []byte{0x00, 0x02, 0x00, 0x00}
	out := stuffPayload(in)
	if !bytes.Equal(out, in) {
		t.Errorf("stuffPayload(% 02X) = % 02X, want unchanged", in, out)
	}
}

func TestEncodeLengthInvariant(t *testing.T) {
	for _, insn := range []Instruction{
		Ping{},
		Read{Item: table.Entry(table.PresentPosition)},
		mustWrite(t, table.GoalPosition, []byte{1, 0, 0, 0}),
		Action{},
		FactoryReset{},
		Reboot{},
	} {
		frame := Encode(0x2A, insn)
		length := uint16(frame[5]) | uint16(frame[6])<<8
		want := len(frame) - 7 // header(4)+id(1)+length(2) precede the counted region
		if int(length) != want {
			t.Errorf("%s: length field = %d, want %d (instruction-byte-inclusive to CRC-exclusive)", insn, length, want)
		}
	}
}

func mustWrite(t *testing.T, id table.ID, value []byte) Write {
	t.Helper()
	w, err := NewWrite(table.Entry(id), value)
	if err != nil {
		t.Fatalf("NewWrite: %v", err)
	}
	return w
}
