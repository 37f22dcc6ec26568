package packet

import "fmt"

// SoftwareErrorCode is a device-reported protocol or range violation, carried
// in bits 0..6 of a status frame's error byte.
type SoftwareErrorCode byte

const (
	ResultFail        SoftwareErrorCode = 0x01
	InstructionError  SoftwareErrorCode = 0x02
	CRCError          SoftwareErrorCode = 0x03
	DataRangeError    SoftwareErrorCode = 0x04
	DataLengthError   SoftwareErrorCode = 0x05
	DataLimitError    SoftwareErrorCode = 0x06
	AccessError       SoftwareErrorCode = 0x07
)

func (c SoftwareErrorCode) String() string {
	switch c {
	case ResultFail:
		return "the actuator could not process the packet"
	case InstructionError:
		return "the actuator did not recognize the instruction, or received Action without a preceding RegWrite"
	case CRCError:
		return "the actuator disagrees about the CRC (likely a corrupted packet)"
	case DataRangeError:
		return "the data to write is too long for the addressed range"
	case DataLengthError:
		return "the data to write is too short for the addressed range"
	case DataLimitError:
		return "the data is out of range for the addressed register"
	case AccessError:
		return "the addressed register could not be written (read-only, write-only, or EEPROM with torque enabled)"
	default:
		return fmt.Sprintf("unknown software error 0x%02X", byte(c))
	}
}

// decodeErrorCode classifies the low 7 bits of a status frame's error byte.
// It returns ok=false with a nil error when the byte names no error (0), and
// a non-nil error when the byte names a code outside 1..7.
func decodeErrorCode(b byte) (code SoftwareErrorCode, ok bool, err error) {
	low := b & 0x7F
	switch low {
	case 0:
		return 0, false, nil
	case 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07:
		return SoftwareErrorCode(low), true, nil
	default:
		return 0, false, &InvalidSoftwareErrorCodeError{Byte: low}
	}
}

// WrongHeaderError reports a header byte (one of the first three fixed
// 0xFF/0xFF/0xFD bytes) that did not match its expected constant.
type WrongHeaderError struct {
	Expected, Actual byte
}

func (e *WrongHeaderError) Error() string {
	return fmt.Sprintf("packet: wrong header byte: expected 0x%02X, got 0x%02X", e.Expected, e.Actual)
}

// WrongReservedError reports a mismatched reserved byte (offset 3).
type WrongReservedError struct {
	Expected, Actual byte
}

func (e *WrongReservedError) Error() string {
	return fmt.Sprintf("packet: wrong reserved byte: expected 0x%02X, got 0x%02X", e.Expected, e.Actual)
}

// WrongIDError reports a status frame addressed to a different device id
// than the one the decoder was constructed to expect.
type WrongIDError struct {
	Expected, Actual byte
}

func (e *WrongIDError) Error() string {
	return fmt.Sprintf("packet: wrong id: expected %d, got %d", e.Expected, e.Actual)
}

// WrongInstructionError reports a non-0x55 byte in the instruction-byte slot
// of a status frame.
type WrongInstructionError struct {
	Expected, Actual byte
}

func (e *WrongInstructionError) Error() string {
	return fmt.Sprintf("packet: wrong instruction byte: expected 0x%02X, got 0x%02X", e.Expected, e.Actual)
}

// WrongLengthError reports a length field that doesn't match the expected
// response payload size plus the fixed overhead.
type WrongLengthError struct {
	Expected, Actual uint16
}

func (e *WrongLengthError) Error() string {
	return fmt.Sprintf("packet: wrong length: expected %d, got %d", e.Expected, e.Actual)
}

// InvalidSoftwareErrorCodeError reports an error byte whose low 7 bits don't
// name a recognized software error.
type InvalidSoftwareErrorCodeError struct {
	Byte byte
}

func (e *InvalidSoftwareErrorCodeError) Error() string {
	return fmt.Sprintf("packet: invalid software error code 0x%02X", e.Byte)
}

// CRCMismatchError reports a computed frame CRC that disagrees with the CRC
// bytes on the wire.
type CRCMismatchError struct {
	Expected, Actual uint16
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("packet: CRC mismatch: expected 0x%04X, got 0x%04X", e.Expected, e.Actual)
}

// SoftwareErrorReported wraps a device-reported software error.
type SoftwareErrorReported struct {
	Code SoftwareErrorCode
}

func (e *SoftwareErrorReported) Error() string {
	return fmt.Sprintf("packet: software error reported: %s", e.Code)
}

// HardwareErrorReported signals bit 7 of a status frame's error byte was set.
// Payload carries the response payload of the original instruction (often
// empty); callers fetch fault details separately from the Hardware Error
// Status register.
type HardwareErrorReported struct {
	Payload []byte
}

func (e *HardwareErrorReported) Error() string {
	return "packet: actuator reported a hardware error (read Hardware Error Status for details)"
}

// HardwareErrorStatus is the Hardware Error Status register's bit-set of
// fault flags, read after a hardware-error flag was observed.
type HardwareErrorStatus byte

const (
	InputVoltageFault HardwareErrorStatus = 1 << 0
	OverheatingFault  HardwareErrorStatus = 1 << 2
	EncoderFault      HardwareErrorStatus = 1 << 3
	ElectricalShock   HardwareErrorStatus = 1 << 4
	OverloadFault     HardwareErrorStatus = 1 << 5
)

// ParseHardwareErrorStatus interprets a Hardware Error Status register read.
func ParseHardwareErrorStatus(b byte) HardwareErrorStatus {
	return HardwareErrorStatus(b)
}

func (s HardwareErrorStatus) String() string {
	if s == 0 {
		return "no hardware fault flags set"
	}
	var flags []string
	if s&InputVoltageFault != 0 {
		flags = append(flags, "input voltage")
	}
	if s&OverheatingFault != 0 {
		flags = append(flags, "overheating")
	}
	if s&EncoderFault != 0 {
		flags = append(flags, "encoder")
	}
	if s&ElectricalShock != 0 {
		flags = append(flags, "electrical shock")
	}
	if s&OverloadFault != 0 {
		flags = append(flags, "overload")
	}
	out := "hardware fault:"
	for i, f := range flags {
		if i > 0 {
			out += ","
		}
		out += " " + f
	}
	return out
}
