// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/alarms"
	"github.com/relabs-tech/flight_sensors/internal/config"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// statusReport is the JSON document served on /api/sensors and pushed over
// the websocket.
type statusReport struct {
	Accels       flightstate.Measurement `json:"accels"`
	Gyros        flightstate.Measurement `json:"gyros"`
	Magnetometer flightstate.Measurement `json:"magnetometer"`
	MagBias      r3.Vec                  `json:"mag_bias"`
	Attitude     flightstate.Attitude    `json:"attitude"`
	Alarms       map[string]string       `json:"alarms"`
}

func buildReport(store *flightstate.Store, reg *alarms.Registry) statusReport {
	al := make(map[string]string)
	for name, sev := range reg.Snapshot() {
		al[name] = sev.String()
	}
	return statusReport{
		Accels:       store.Accels.Get(),
		Gyros:        store.Gyros.Get(),
		Magnetometer: store.Magnetometer.Get(),
		MagBias:      store.MagBias.Get(),
		Attitude:     store.Attitude.Get(),
		Alarms:       al,
	}
}

// RunWeb serves the status API, a websocket stream of the latest records and
// the Prometheus metrics endpoint.
func RunWeb(cfg *config.Config, store *flightstate.Store, reg *alarms.Registry) error {
	mux := http.NewServeMux()

	// JSON API endpoint: latest published records plus alarm states
	mux.HandleFunc("/api/sensors", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(buildReport(store, reg)); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for range ticker.C {
			if err := conn.WriteJSON(buildReport(store, reg)); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	})

	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
