// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDPipeline string
	MQTTClientIDConsole  string

	// Topics
	TopicAccels         string
	TopicGyros          string
	TopicMag            string
	TopicMagBias        string
	TopicSettingsPrefix string

	// Acquisition timing (milliseconds)
	SensorPeriodMS    int
	GyroTimeoutMS     int
	MagIntervalMS     int
	WatchdogTimeoutMS int

	// Sensor source: "mock" or "mpu6000"
	SensorSource string
	MPUI2CBus    string
	MagI2CBus    string

	// Initial calibration values, loaded into the settings records at start
	AccelScale [3]float64
	AccelBias  [3]float64
	GyroScale  [3]float64
	MagScale   [3]float64
	MagBias    [3]float64

	// Board mounting rotation, degrees
	BoardRotation [3]float64

	BiasCorrectGyro    bool
	MagBiasNullingRate float64

	// Home geomagnetic field, NED
	HomeBe [3]float64

	// Optional NMEA home-location feed
	GPSSerialPort string
	GPSBaudRate   int

	// Web status server
	WebServerPort int
}

// Package-level unexported variables for the singleton pattern: external
// code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		MQTTClientIDPipeline: "flight-sensors-pipeline",
		MQTTClientIDConsole:  "flight-sensors-console",

		TopicAccels:         "flight/sensors/accels",
		TopicGyros:          "flight/sensors/gyros",
		TopicMag:            "flight/sensors/mag",
		TopicMagBias:        "flight/sensors/mag_bias",
		TopicSettingsPrefix: "flight/settings",

		SensorPeriodMS:    2,
		GyroTimeoutMS:     4,
		MagIntervalMS:     66,
		WatchdogTimeoutMS: 500,

		SensorSource: "mock",
		MPUI2CBus:    "1",

		GPSBaudRate:   9600,
		WebServerPort: 8080,
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PIPELINE":
		c.MQTTClientIDPipeline = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_ACCELS":
		c.TopicAccels = value
	case "TOPIC_GYROS":
		c.TopicGyros = value
	case "TOPIC_MAG":
		c.TopicMag = value
	case "TOPIC_MAG_BIAS":
		c.TopicMagBias = value
	case "TOPIC_SETTINGS_PREFIX":
		c.TopicSettingsPrefix = strings.TrimSuffix(value, "/")

	// Timing
	case "SENSOR_PERIOD_MS":
		return setInt(key, value, &c.SensorPeriodMS)
	case "GYRO_TIMEOUT_MS":
		return setInt(key, value, &c.GyroTimeoutMS)
	case "MAG_INTERVAL_MS":
		return setInt(key, value, &c.MagIntervalMS)
	case "WATCHDOG_TIMEOUT_MS":
		return setInt(key, value, &c.WatchdogTimeoutMS)

	// Sensor source
	case "SENSOR_SOURCE":
		if value != "mock" && value != "mpu6000" {
			return fmt.Errorf("SENSOR_SOURCE must be \"mock\" or \"mpu6000\", got %q", value)
		}
		c.SensorSource = value
	case "MPU_I2C_BUS":
		c.MPUI2CBus = value
	case "MAG_I2C_BUS":
		c.MagI2CBus = value

	// Calibration
	case "ACCEL_SCALE_X", "ACCEL_SCALE_Y", "ACCEL_SCALE_Z":
		return setAxis(key, value, &c.AccelScale)
	case "ACCEL_BIAS_X", "ACCEL_BIAS_Y", "ACCEL_BIAS_Z":
		return setAxis(key, value, &c.AccelBias)
	case "GYRO_SCALE_X", "GYRO_SCALE_Y", "GYRO_SCALE_Z":
		return setAxis(key, value, &c.GyroScale)
	case "MAG_SCALE_X", "MAG_SCALE_Y", "MAG_SCALE_Z":
		return setAxis(key, value, &c.MagScale)
	case "MAG_BIAS_X", "MAG_BIAS_Y", "MAG_BIAS_Z":
		return setAxis(key, value, &c.MagBias)

	case "BOARD_ROTATION_ROLL":
		return setFloat(key, value, &c.BoardRotation[0])
	case "BOARD_ROTATION_PITCH":
		return setFloat(key, value, &c.BoardRotation[1])
	case "BOARD_ROTATION_YAW":
		return setFloat(key, value, &c.BoardRotation[2])

	case "BIAS_CORRECT_GYRO":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid BIAS_CORRECT_GYRO %q: %w", value, err)
		}
		c.BiasCorrectGyro = b
	case "MAG_BIAS_NULLING_RATE":
		return setFloat(key, value, &c.MagBiasNullingRate)

	// Home geomagnetic field
	case "HOME_BE_X":
		return setFloat(key, value, &c.HomeBe[0])
	case "HOME_BE_Y":
		return setFloat(key, value, &c.HomeBe[1])
	case "HOME_BE_Z":
		return setFloat(key, value, &c.HomeBe[2])

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		return setInt(key, value, &c.GPSBaudRate)

	// Web server
	case "WEB_SERVER_PORT":
		return setInt(key, value, &c.WebServerPort)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setInt(key, value string, dst *int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func setFloat(key, value string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// setAxis routes a _X/_Y/_Z suffixed key into the right slot of a triple.
func setAxis(key, value string, dst *[3]float64) error {
	var idx int
	switch key[len(key)-1] {
	case 'X':
		idx = 0
	case 'Y':
		idx = 1
	case 'Z':
		idx = 2
	}
	return setFloat(key, value, &dst[idx])
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.SensorPeriodMS <= 0 {
		return fmt.Errorf("SENSOR_PERIOD_MS must be positive")
	}
	if c.GyroTimeoutMS <= 0 {
		return fmt.Errorf("GYRO_TIMEOUT_MS must be positive")
	}
	if c.SensorSource == "mpu6000" && c.MPUI2CBus == "" {
		return fmt.Errorf("MPU_I2C_BUS is required for SENSOR_SOURCE=mpu6000")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses sync.Once
// so this only runs once even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be called
// first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
