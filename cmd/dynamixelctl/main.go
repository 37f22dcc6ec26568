// Command dynamixelctl is a demo entrypoint wiring a real UART transport,
// a bus, and an actuator facade together: ping a device, print its model
// number and firmware version, then move it to a requested normalised
// position, optionally mirroring progress to Redis.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/librescoot/dynamixel/pkg/dxl/actuator"
	"github.com/librescoot/dynamixel/pkg/dxl/bus"
	"github.com/librescoot/dynamixel/pkg/dxl/table"
	"github.com/librescoot/dynamixel/pkg/dxl/transport/uart"
	"github.com/librescoot/dynamixel/pkg/telemetry"
)

var (
	serialDevice = flag.String("serial", "/dev/ttyUSB0", "Serial device path")
	baudRate     = flag.Int("baud", 1000000, "Serial baud rate")
	directionPin = flag.String("direction-pin", "", "GPIO pin name driving the transceiver direction line (empty for auto-direction transceivers)")
	id           = flag.Int("id", 1, "Target actuator id")
	description  = flag.String("description", "dynamixelctl target", "Human-readable description for the actuator")
	position     = flag.Float64("position", -1, "Normalised position (0..1) to move to; negative to skip motion and just ping")
	tolerance    = flag.Float64("tolerance", 0.01, "Convergence tolerance for -position")
	pollInterval = flag.Duration("poll-interval", 20*time.Millisecond, "Polling interval while waiting for the actuator to converge")
	redisAddr    = flag.String("redis-addr", "", "Redis server address for telemetry mirroring (empty disables it)")
	redisPass    = flag.String("redis-pass", "", "Redis password")
	redisDB      = flag.Int("redis-db", 0, "Redis database number")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	log.Printf("Starting dynamixelctl")
	log.Printf("Serial device: %s", *serialDevice)
	log.Printf("Baud rate: %d", *baudRate)
	if rate, ok := reverseBaud(*baudRate); ok {
		log.Printf("Baud rate matches control-table value %d", rate)
	}

	t, err := uart.Open(uart.Config{
		Device:       *serialDevice,
		BaudRate:     *baudRate,
		DirectionPin: *directionPin,
	})
	if err != nil {
		log.Fatalf("Failed to open UART transport: %v", err)
	}
	defer t.Close()
	log.Printf("Opened UART transport")

	b := bus.New(t)

	var mirror *telemetry.Mirror
	ctx := context.Background()
	if *redisAddr != "" {
		mirror, err = telemetry.Open(ctx, *redisAddr, *redisPass, *redisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer mirror.Close()
		log.Printf("Connected to Redis at %s", *redisAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-sigCh
		log.Printf("Shutting down...")
		cancel()
	}()

	targetID := byte(*id)
	a, err := actuator.InitInPlace(runCtx, b, targetID, *description, actuator.WithPollInterval(*pollInterval))
	if err != nil {
		log.Fatalf("Failed to initialize actuator %d: %v", targetID, err)
	}
	log.Printf("Initialized %s", a)

	ping, err := b.Ping(runCtx, targetID)
	if err != nil {
		log.Printf("Warning: ping failed: %v", err)
	} else {
		log.Printf("%s: model %d, firmware %d", a, ping.ModelNumber, ping.FirmwareVersion)
	}

	if mirror != nil {
		if pos, err := a.Pos(runCtx); err == nil {
			if err := mirror.WritePosition(runCtx, targetID, pos); err != nil {
				log.Printf("Warning: telemetry write failed: %v", err)
			}
		}
	}

	if *position < 0 {
		log.Printf("No -position given; exiting after ping")
		return
	}

	log.Printf("%s: moving to position %g (tolerance %g)...", a, *position, *tolerance)
	if err := a.FollowTo(runCtx, *position, *tolerance); err != nil {
		log.Fatalf("Failed to reach position %g: %v", *position, err)
	}
	log.Printf("%s: reached position %g", a, *position)

	if mirror != nil {
		if err := mirror.WritePosition(runCtx, targetID, *position); err != nil {
			log.Printf("Warning: telemetry write failed: %v", err)
		}
	}
}

func reverseBaud(rate int) (byte, bool) {
	for code, bps := range table.BaudRates {
		if bps == rate {
			return code, true
		}
	}
	return 0, false
}
