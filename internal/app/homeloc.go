package app

import (
	"bufio"
	"context"
	"log"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/flight_sensors/internal/config"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
)

// RunHomeLocationFeed reads NMEA sentences from the GPS serial port and
// keeps the home-location record's coordinates current. The geomagnetic
// field vector stays whatever was last configured; only the position and
// the Set flag change here.
func RunHomeLocationFeed(ctx context.Context, store *flightstate.Store) error {
	cfg := config.Get()

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("homeloc: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("homeloc: read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy GPS or partial sentences
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)
		if string(m.Validity) != "A" {
			continue
		}

		home := store.HomeLocation.Get()
		home.Latitude = m.Latitude
		home.Longitude = m.Longitude
		home.Set = true
		store.HomeLocation.Set(home)
	}
}
