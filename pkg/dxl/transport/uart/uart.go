// Package uart implements transport.Transport over a real half-duplex
// RS-485-style UART link: a serial port shared by every device on the bus,
// plus a GPIO pin that drives the transceiver's direction line high for the
// duration of a write and low while listening for the reply.
package uart

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.bug.st/serial"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	dxltransport "github.com/librescoot/dynamixel/pkg/dxl/transport"
)

// Config configures a Transport.
type Config struct {
	// Device is the serial port path, e.g. "/dev/ttyUSB0".
	Device string
	// BaudRate is the configured link speed; see table.BaudRates for the
	// catalogue of values an actuator itself will accept.
	BaudRate int
	// DirectionPin names the GPIO pin driving the transceiver's
	// enable/direction line, looked up with gpioreg.ByName. Leave empty
	// for transports with automatic direction switching (no pin toggle).
	DirectionPin string
	// SendTimeout bounds how long Transmit waits for the port to accept
	// a complete frame.
	SendTimeout time.Duration
	// RecvByteTimeout bounds how long a single ReadByte call waits for
	// the next byte of a reply.
	RecvByteTimeout time.Duration
	// TurnaroundDelay is held after raising the direction pin and before
	// writing, and again after the write completes and before lowering
	// it, giving the transceiver time to switch drive direction.
	TurnaroundDelay time.Duration
	// Logger receives trace-level send/receive logging; nil logs to
	// log.Default().
	Logger *log.Logger
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Transport is a transport.Transport backed by a real serial port.
type Transport struct {
	port serial.Port
	dir  gpio.PinOut
	cfg  Config
}

// Open configures and opens the serial port named by cfg.Device, and
// resolves cfg.DirectionPin via gpioreg if one is named.
func Open(cfg Config) (*Transport, error) {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 50 * time.Millisecond
	}
	if cfg.RecvByteTimeout <= 0 {
		cfg.RecvByteTimeout = 20 * time.Millisecond
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("uart: open %s: %w", cfg.Device, err)
	}
	if err := port.SetReadTimeout(cfg.RecvByteTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("uart: set read timeout: %w", err)
	}

	var dir gpio.PinOut
	if cfg.DirectionPin != "" {
		if _, err := host.Init(); err != nil {
			port.Close()
			return nil, fmt.Errorf("uart: host.Init: %w", err)
		}
		pin := gpioreg.ByName(cfg.DirectionPin)
		if pin == nil {
			port.Close()
			return nil, fmt.Errorf("uart: unknown GPIO pin %q", cfg.DirectionPin)
		}
		if err := pin.Out(gpio.Low); err != nil {
			port.Close()
			return nil, fmt.Errorf("uart: init direction pin %q: %w", cfg.DirectionPin, err)
		}
		dir = pin
	}

	return &Transport{port: port, dir: dir, cfg: cfg}, nil
}

// Close releases the serial port.
func (t *Transport) Close() error {
	return t.port.Close()
}

// Transmit raises the direction pin, writes frame, lowers the direction
// pin, and returns a ByteSource reading the reply from the same port.
func (t *Transport) Transmit(ctx context.Context, frame []byte) (dxltransport.ByteSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, &dxltransport.SendFailed{Err: err}
	}

	if t.dir != nil {
		if err := t.dir.Out(gpio.High); err != nil {
			return nil, &dxltransport.SendFailed{Err: err}
		}
		if t.cfg.TurnaroundDelay > 0 {
			time.Sleep(t.cfg.TurnaroundDelay)
		}
	}

	t.cfg.logger().Printf("uart: tx % 02X", frame)

	done := make(chan error, 1)
	go func() {
		_, err := t.port.Write(frame)
		done <- err
	}()

	var writeErr error
	select {
	case writeErr = <-done:
	case <-time.After(t.cfg.SendTimeout):
		if t.dir != nil {
			t.dir.Out(gpio.Low)
		}
		return nil, &dxltransport.SendTimeout{}
	}

	if t.dir != nil {
		if t.cfg.TurnaroundDelay > 0 {
			time.Sleep(t.cfg.TurnaroundDelay)
		}
		t.dir.Out(gpio.Low)
	}

	if writeErr != nil {
		return nil, &dxltransport.SendFailed{Err: writeErr}
	}

	return &byteSource{port: t.port, logger: t.cfg.logger()}, nil
}

// byteSource reads single bytes from the shared port, relying on the
// port's configured read timeout (set once in Open) to bound each read.
type byteSource struct {
	port   serial.Port
	logger *log.Logger
}

func (s *byteSource) ReadByte(ctx context.Context) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, &dxltransport.RecvFailed{Err: err}
	}

	buf := make([]byte, 1)
	n, err := s.port.Read(buf)
	if err != nil {
		return 0, &dxltransport.RecvFailed{Err: err}
	}
	if n == 0 {
		return 0, &dxltransport.RecvTimeout{}
	}
	s.logger.Printf("uart: rx %02X", buf[0])
	return buf[0], nil
}
