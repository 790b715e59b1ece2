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

// HMC5883-class magnetometer driver. Output order on this part is X, Z, Y.
const (
	hmcAddr = 0x1E

	hmcRegConfigA = 0x00
	hmcRegConfigB = 0x01
	hmcRegMode    = 0x02
	hmcRegDataX   = 0x03
	hmcRegIDA     = 0x0A
)

type HMC5883 struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

// NewHMC5883 opens the bus, verifies the ID registers, and switches the part
// into continuous measurement mode at 15 Hz.
func NewHMC5883(busName string) (*HMC5883, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hmc5883: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("hmc5883: i2c open %q: %w", busName, err)
	}

	h := &HMC5883{bus: bus, dev: i2c.Dev{Bus: bus, Addr: hmcAddr}}

	var id [3]byte
	if err := h.dev.Tx([]byte{hmcRegIDA}, id[:]); err != nil {
		bus.Close()
		return nil, fmt.Errorf("hmc5883: id read: %w", err)
	}
	if id[0] != 'H' || id[1] != '4' || id[2] != '3' {
		bus.Close()
		return nil, fmt.Errorf("hmc5883: unexpected id %q", id)
	}

	// 8-sample averaging, 15 Hz, default gain, continuous mode.
	for _, rv := range []struct{ reg, val byte }{
		{hmcRegConfigA, 0x70},
		{hmcRegConfigB, 0x20},
		{hmcRegMode, 0x00},
	} {
		if err := h.dev.Tx([]byte{rv.reg, rv.val}, nil); err != nil {
			bus.Close()
			return nil, fmt.Errorf("hmc5883: config reg 0x%02X: %w", rv.reg, err)
		}
	}

	log.Printf("hmc5883: initialized on i2c bus %q (addr 0x%02X)", busName, hmcAddr)
	return h, nil
}

func (h *HMC5883) Close() error {
	return h.bus.Close()
}

// Sample reads one magnetometer sample in raw counts.
func (h *HMC5883) Sample() (RawSample, error) {
	var buf [6]byte
	if err := h.dev.Tx([]byte{hmcRegDataX}, buf[:]); err != nil {
		return RawSample{}, fmt.Errorf("hmc5883: data read: %w", err)
	}
	word := func(off int) float64 {
		return float64(int16(binary.BigEndian.Uint16(buf[off : off+2])))
	}
	return RawSample{X: word(0), Z: word(2), Y: word(4)}, nil
}

// Run polls the device at period and feeds the mag queue until ctx is
// cancelled.
func (h *HMC5883) Run(ctx context.Context, magQ *Queue, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s, err := h.Sample()
		if err != nil {
			log.Printf("hmc5883: %v", err)
			continue
		}
		if magQ != nil {
			magQ.Offer(s)
		}
	}
}
