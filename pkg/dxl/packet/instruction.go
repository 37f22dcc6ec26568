// Package packet implements the Dynamixel Protocol 2.0 wire format: a
// byte-exact encoder and a streaming, incremental decoder, including the
// CRC-16/BUYPASS frame checksum and the payload byte-stuffing rule.
package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/librescoot/dynamixel/pkg/dxl/table"
)

// Byte is a Protocol 2.0 instruction byte.
type Byte byte

const (
	BytePing         Byte = 0x01
	ByteRead         Byte = 0x02
	ByteWrite        Byte = 0x03
	ByteRegWrite     Byte = 0x04
	ByteAction       Byte = 0x05
	ByteFactoryReset Byte = 0x06
	ByteStatus       Byte = 0x55
	ByteReboot       Byte = 0x08
)

// Instruction is a command that can be encoded into a send frame and whose
// status-frame response payload size is known in advance.
type Instruction interface {
	// Byte returns the instruction byte for the send frame.
	Byte() Byte
	// SendPayload returns the instruction-specific send payload, pre-stuffing.
	SendPayload() []byte
	// RecvPayloadLen returns the number of payload bytes expected in the
	// status frame response, pre-stuffing.
	RecvPayloadLen() int
	// String names the instruction for diagnostics and logging.
	String() string
}

// Ping requests a device's model number and firmware version.
type Ping struct{}

func (Ping) Byte() Byte          { return BytePing }
func (Ping) SendPayload() []byte { return nil }
func (Ping) RecvPayloadLen() int { return 3 }
func (Ping) String() string      { return "Ping" }

// PingResponse is the parsed payload of a Ping status frame.
type PingResponse struct {
	ModelNumber     uint16
	FirmwareVersion byte
}

// ParsePingResponse interprets a Ping status frame's payload.
func ParsePingResponse(payload []byte) (PingResponse, error) {
	if len(payload) != 3 {
		return PingResponse{}, fmt.Errorf("packet: ping response has %d bytes, want 3", len(payload))
	}
	return PingResponse{
		ModelNumber:     binary.LittleEndian.Uint16(payload[0:2]),
		FirmwareVersion: payload[2],
	}, nil
}

// Read requests the current value of a control-table item.
type Read struct {
	Item table.Item
}

func (r Read) Byte() Byte { return ByteRead }

func (r Read) SendPayload() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(r.Item.Address))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(r.Item.Width))
	return buf
}

func (r Read) RecvPayloadLen() int { return int(r.Item.Width) }
func (r Read) String() string      { return fmt.Sprintf("Read(%s)", r.Item.Label) }

// Write sets a control-table item's value immediately.
type Write struct {
	Item  table.Item
	Value []byte
}

// NewWrite validates that value matches the item's catalogued width.
func NewWrite(item table.Item, value []byte) (Write, error) {
	if len(value) != int(item.Width) {
		return Write{}, fmt.Errorf("packet: %s is %d bytes wide, got %d", item.Label, item.Width, len(value))
	}
	return Write{Item: item, Value: value}, nil
}

func (w Write) Byte() Byte { return ByteWrite }

func (w Write) SendPayload() []byte {
	buf := make([]byte, 2+len(w.Value))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(w.Item.Address))
	copy(buf[2:], w.Value)
	return buf
}

func (w Write) RecvPayloadLen() int { return 0 }
func (w Write) String() string      { return fmt.Sprintf("Write(%s)", w.Item.Label) }

// RegWrite stages a control-table item's value to take effect on the next
// Action instruction, instead of immediately.
type RegWrite struct {
	Item  table.Item
	Value []byte
}

// NewRegWrite validates that value matches the item's catalogued width.
func NewRegWrite(item table.Item, value []byte) (RegWrite, error) {
	if len(value) != int(item.Width) {
		return RegWrite{}, fmt.Errorf("packet: %s is %d bytes wide, got %d", item.Label, item.Width, len(value))
	}
	return RegWrite{Item: item, Value: value}, nil
}

func (w RegWrite) Byte() Byte { return ByteRegWrite }

func (w RegWrite) SendPayload() []byte {
	buf := make([]byte, 2+len(w.Value))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(w.Item.Address))
	copy(buf[2:], w.Value)
	return buf
}

func (w RegWrite) RecvPayloadLen() int { return 0 }
func (w RegWrite) String() string      { return fmt.Sprintf("RegWrite(%s)", w.Item.Label) }

// Action commits the most recent RegWrite.
type Action struct{}

func (Action) Byte() Byte          { return ByteAction }
func (Action) SendPayload() []byte { return nil }
func (Action) RecvPayloadLen() int { return 0 }
func (Action) String() string      { return "Action" }

// FactoryReset restores a device's control table to factory defaults.
type FactoryReset struct{}

func (FactoryReset) Byte() Byte          { return ByteFactoryReset }
func (FactoryReset) SendPayload() []byte { return nil }
func (FactoryReset) RecvPayloadLen() int { return 0 }
func (FactoryReset) String() string      { return "FactoryReset" }

// Reboot power-cycles a device's firmware.
type Reboot struct{}

func (Reboot) Byte() Byte          { return ByteReboot }
func (Reboot) SendPayload() []byte { return nil }
func (Reboot) RecvPayloadLen() int { return 0 }
func (Reboot) String() string      { return "Reboot" }
