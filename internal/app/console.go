package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/flight_sensors/internal/config"
	"github.com/relabs-tech/flight_sensors/internal/flightstate"
)

// RunConsole subscribes to the published sensor topics and prints each
// record as a formatted line. Handy for watching the pipeline from another
// machine on the same broker.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	subscribeMeasurement := func(topic, tag string) error {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var m flightstate.Measurement
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				log.Printf("console: %s unmarshal error: %v", topic, err)
				return
			}
			fmt.Printf(
				"[%s] x=%8.4f y=%8.4f z=%8.4f temp=%6.2f\n",
				tag, m.X, m.Y, m.Z, m.Temperature,
			)
		})
		if token.Wait() && token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
		return nil
	}

	if err := subscribeMeasurement(cfg.TopicAccels, "ACCEL"); err != nil {
		return err
	}
	if err := subscribeMeasurement(cfg.TopicGyros, "GYRO "); err != nil {
		return err
	}
	if err := subscribeMeasurement(cfg.TopicMag, "MAG  "); err != nil {
		return err
	}

	biasToken := client.Subscribe(cfg.TopicMagBias, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v r3.Vec
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Printf("console: mag bias unmarshal error: %v", err)
			return
		}
		fmt.Printf("[BIAS ] x=%8.4f y=%8.4f z=%8.4f\n", v.X, v.Y, v.Z)
	})
	if biasToken.Wait() && biasToken.Error() != nil {
		return biasToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMagBias)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
