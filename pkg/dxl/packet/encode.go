package packet

import (
	"encoding/binary"

	"github.com/librescoot/dynamixel/pkg/dxl/crc16"
)

// MaxFrameSize bounds the largest frame this driver ever sends: a Write to a
// 4-byte register, header through CRC, plus one byte of headroom for the
// (unlikely, for registers in scope) byte-stuffing escape.
const MaxFrameSize = 4 + 1 + 2 + 1 + (2 + 4) + 1 + 2

// Encode builds a complete send frame for insn addressed to id: fixed
// header, id, length, instruction byte, stuffed payload, and CRC.
func Encode(id byte, insn Instruction) []byte {
	stuffed := stuffPayload(insn.SendPayload())

	frame := make([]byte, 0, MaxFrameSize)
	frame = append(frame, 0xFF, 0xFF, 0xFD, 0x00)
	frame = append(frame, id)

	length := uint16(len(stuffed) + 3)
	lengthBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lengthBytes, length)
	frame = append(frame, lengthBytes...)

	frame = append(frame, byte(insn.Byte()))
	frame = append(frame, stuffed...)

	crc := crc16.Checksum(frame)
	crcBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(crcBytes, crc)
	frame = append(frame, crcBytes...)

	return frame
}

// stuffPayload inserts a 0xFD byte immediately after every occurrence of
// 0xFF 0xFF 0xFD within payload, per the Protocol 2.0 byte-stuffing rule.
// For the registers in scope (widths of 1, 2, or 4 bytes) this pattern can
// only appear inside a 4-byte value, but the encoder applies the rule
// unconditionally so it stays correct for any value.
func stuffPayload(payload []byte) []byte {
	out := make([]byte, 0, len(payload))
	for _, b := range payload {
		out = append(out, b)
		n := len(out)
		if n >= 3 && out[n-3] == 0xFF && out[n-2] == 0xFF && out[n-1] == 0xFD {
			out = append(out, 0xFD)
		}
	}
	return out
}
