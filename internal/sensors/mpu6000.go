// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// MPU-6000/6050 register driver that feeds the gyro and accel queues with raw
// counts. Register addresses follow the InvenSense datasheet.
const (
	mpuAddr = 0x68

	mpuRegSmplrtDiv   = 0x19
	mpuRegConfig      = 0x1A
	mpuRegGyroConfig  = 0x1B
	mpuRegAccelConfig = 0x1C
	mpuRegAccelXoutH  = 0x3B
	mpuRegPwrMgmt1    = 0x6B
	mpuRegWhoAmI      = 0x75

	mpuWhoAmIVal = 0x68
)

// MPU6000 reads a combined accel+temp+gyro block over I2C.
type MPU6000 struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

// NewMPU6000 opens the I2C bus, probes WHO_AM_I, and configures the device
// for 1 kHz sampling with the DLPF at 188 Hz.
func NewMPU6000(busName string) (*MPU6000, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("mpu6000: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("mpu6000: i2c open %q: %w", busName, err)
	}

	m := &MPU6000{bus: bus, dev: i2c.Dev{Bus: bus, Addr: mpuAddr}}

	who, err := m.readReg(mpuRegWhoAmI)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("mpu6000: whoami read: %w", err)
	}
	if who != mpuWhoAmIVal {
		bus.Close()
		return nil, fmt.Errorf("mpu6000: whoami=0x%02X want 0x%02X", who, mpuWhoAmIVal)
	}

	// Reset, then wake with the PLL clock source.
	if err := m.writeReg(mpuRegPwrMgmt1, 0x80); err != nil {
		bus.Close()
		return nil, fmt.Errorf("mpu6000: reset: %w", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := m.writeReg(mpuRegPwrMgmt1, 0x01); err != nil {
		bus.Close()
		return nil, fmt.Errorf("mpu6000: wake: %w", err)
	}
	time.Sleep(10 * time.Millisecond)

	// DLPF 188 Hz, 1 kHz internal rate, no divider, ±2000 deg/s, ±8 g.
	for _, rv := range []struct{ reg, val byte }{
		{mpuRegConfig, 0x01},
		{mpuRegSmplrtDiv, 0x00},
		{mpuRegGyroConfig, 0x18},
		{mpuRegAccelConfig, 0x10},
	} {
		if err := m.writeReg(rv.reg, rv.val); err != nil {
			bus.Close()
			return nil, fmt.Errorf("mpu6000: config reg 0x%02X: %w", rv.reg, err)
		}
	}

	log.Printf("mpu6000: initialized on i2c bus %q (addr 0x%02X)", busName, mpuAddr)
	return m, nil
}

func (m *MPU6000) Close() error {
	return m.bus.Close()
}

func (m *MPU6000) readReg(reg byte) (byte, error) {
	var b [1]byte
	if err := m.dev.Tx([]byte{reg}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *MPU6000) writeReg(reg, val byte) error {
	return m.dev.Tx([]byte{reg, val}, nil)
}

// Sample reads one accel and one gyro sample in a single burst. Temperature
// conversion follows the datasheet formula.
func (m *MPU6000) Sample() (accel, gyro RawSample, err error) {
	var buf [14]byte // accel xyz, temp, gyro xyz; big-endian int16 each
	if err = m.dev.Tx([]byte{mpuRegAccelXoutH}, buf[:]); err != nil {
		return RawSample{}, RawSample{}, fmt.Errorf("mpu6000: burst read: %w", err)
	}

	word := func(off int) float64 {
		return float64(int16(binary.BigEndian.Uint16(buf[off : off+2])))
	}
	temp := word(6)/340.0 + 36.53

	accel = RawSample{X: word(0), Y: word(2), Z: word(4), Temperature: temp}
	gyro = RawSample{X: word(8), Y: word(10), Z: word(12), Temperature: temp}
	return accel, gyro, nil
}

// Run polls the device at period and feeds the queues until ctx is cancelled.
// Read errors are logged and skipped; the consumer sees them as an empty
// queue and handles the dropout itself.
func (m *MPU6000) Run(ctx context.Context, gyroQ, accelQ *Queue, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		accel, gyro, err := m.Sample()
		if err != nil {
			log.Printf("mpu6000: %v", err)
			continue
		}
		if accelQ != nil {
			accelQ.Offer(accel)
		}
		if gyroQ != nil {
			gyroQ.Offer(gyro)
		}
	}
}
