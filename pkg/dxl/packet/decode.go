package packet

import (
	"errors"

	"github.com/librescoot/dynamixel/pkg/dxl/crc16"
)

var errIncompleteFrame = errors.New("packet: frame ended before the decoder completed")

type state int

const (
	stateHeader1 state = iota
	stateHeader2
	stateHeader3
	stateReserved
	stateID
	stateLengthLo
	stateLengthHi
	stateInstruction
	stateError
	statePayload
	stateCRCLo
	stateCRCHi
	stateDone
)

// Status reports the outcome of pushing one byte into a Decoder.
type Status int

const (
	// StatusIncomplete means the decoder consumed the byte and wants more.
	StatusIncomplete Status = iota
	// StatusComplete means the decoder finished a well-formed status frame;
	// Decoder.Response holds the result.
	StatusComplete
)

// Response is a successfully decoded status frame's response payload.
type Response struct {
	Payload []byte
}

// Decoder incrementally parses one Protocol 2.0 status frame. Push consumes
// exactly one byte per call and never blocks; feeding it bytes from an
// awaitable source is the caller's responsibility.
type Decoder struct {
	expectedID  byte
	recvLen     int
	state       state
	length      uint16
	lengthLo    byte
	crc         crc16.CRC
	payload     []byte
	skipNext    bool
	hwError     bool
	crcLoByte   byte
	softErrCode SoftwareErrorCode

	// Response is populated once Push returns StatusComplete.
	Response Response
}

// NewDecoder starts a decoder expecting a status frame from id in response
// to insn.
func NewDecoder(id byte, insn Instruction) *Decoder {
	return &Decoder{
		expectedID: id,
		recvLen:    insn.RecvPayloadLen(),
		state:      stateHeader1,
		payload:    make([]byte, 0, insn.RecvPayloadLen()),
	}
}

// Push consumes one byte, advancing the state machine. It returns
// StatusIncomplete while more bytes are needed, StatusComplete once a
// well-formed frame has been parsed (see Decoder.Response), or a non-nil
// error for any structural, software, or hardware fault. A software error
// is returned together with StatusComplete, since it ends the frame early.
// Errors are terminal: the decoder must not be reused after one.
func (d *Decoder) Push(b byte) (Status, error) {
	switch d.state {
	case stateHeader1:
		if b != 0xFF {
			return StatusIncomplete, &WrongHeaderError{Expected: 0xFF, Actual: b}
		}
		d.state = stateHeader2
	case stateHeader2:
		if b != 0xFF {
			return StatusIncomplete, &WrongHeaderError{Expected: 0xFF, Actual: b}
		}
		d.state = stateHeader3
	case stateHeader3:
		if b != 0xFD {
			return StatusIncomplete, &WrongHeaderError{Expected: 0xFD, Actual: b}
		}
		d.state = stateReserved
	case stateReserved:
		if b != 0x00 {
			return StatusIncomplete, &WrongReservedError{Expected: 0x00, Actual: b}
		}
		d.state = stateID
	case stateID:
		if b != d.expectedID {
			return StatusIncomplete, &WrongIDError{Expected: d.expectedID, Actual: b}
		}
		d.state = stateLengthLo
	case stateLengthLo:
		d.lengthLo = b
		d.state = stateLengthHi
	case stateLengthHi:
		d.length = uint16(d.lengthLo) | uint16(b)<<8
		d.state = stateInstruction
	case stateInstruction:
		if b != byte(ByteStatus) {
			return StatusIncomplete, &WrongInstructionError{Expected: byte(ByteStatus), Actual: b}
		}
		d.state = stateError
	case stateError:
		return d.pushError(b)
	case statePayload:
		return d.pushPayload(b)
	case stateCRCLo:
		d.crcLoByte = b
		d.state = stateCRCHi
	case stateCRCHi:
		return d.pushCRCHi(b)
	default:
		panic("packet: Push called after decoder completed")
	}
	return StatusIncomplete, nil
}

// pushError handles the fixed "Error" byte state: a recognised software
// error code completes the parse immediately without validating length (the
// device truncates the frame when reporting one); otherwise the length is
// validated and folding into the CRC begins from this byte forward.
func (d *Decoder) pushError(b byte) (Status, error) {
	code, hasSoftError, err := decodeErrorCode(b)
	if err != nil {
		return StatusIncomplete, err
	}
	if hasSoftError {
		d.softErrCode = code
		d.state = stateDone
		return StatusComplete, &SoftwareErrorReported{Code: code}
	}

	wantLength := uint16(d.recvLen + 4)
	if d.length != wantLength {
		return StatusIncomplete, &WrongLengthError{Expected: wantLength, Actual: d.length}
	}

	d.crc.Write([]byte{0xFF, 0xFF, 0xFD, 0x00, d.expectedID, d.lengthLo, byte(d.length >> 8), byte(ByteStatus), b})
	d.hwError = b&0x80 != 0

	if d.recvLen == 0 {
		d.state = stateCRCLo
	} else {
		d.state = statePayload
	}
	return StatusIncomplete, nil
}

// pushPayload consumes one wire byte of the response payload, folding it
// into the CRC and de-stuffing the protocol's FF FF FD escape.
func (d *Decoder) pushPayload(b byte) (Status, error) {
	d.crc.Update(b)

	if d.skipNext {
		d.skipNext = false
		return StatusIncomplete, nil
	}

	d.payload = append(d.payload, b)
	n := len(d.payload)
	if n >= 3 && d.payload[n-3] == 0xFF && d.payload[n-2] == 0xFF && d.payload[n-1] == 0xFD {
		d.skipNext = true
	}

	if len(d.payload) >= d.recvLen {
		d.state = stateCRCLo
	}
	return StatusIncomplete, nil
}

func (d *Decoder) pushCRCHi(b byte) (Status, error) {
	wireCRC := uint16(d.crcLoByte) | uint16(b)<<8
	computedCRC := d.crc.Sum()
	d.state = stateDone
	if wireCRC != computedCRC {
		return StatusIncomplete, &CRCMismatchError{Expected: computedCRC, Actual: wireCRC}
	}
	if d.hwError {
		return StatusIncomplete, &HardwareErrorReported{Payload: d.payload}
	}
	d.Response = Response{Payload: d.payload}
	return StatusComplete, nil
}

// Decode is a convenience wrapper for decoding a single complete frame
// already held in memory; it pushes every byte through a fresh Decoder and
// returns the first terminal result.
func Decode(id byte, insn Instruction, frame []byte) (Response, int, error) {
	d := NewDecoder(id, insn)
	for i, b := range frame {
		status, err := d.Push(b)
		if err != nil {
			return Response{}, i + 1, err
		}
		if status == StatusComplete {
			return d.Response, i + 1, nil
		}
	}
	return Response{}, len(frame), errIncompleteFrame
}
