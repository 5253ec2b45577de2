// Package config loads the daemon configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/gpio"
	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// Config represents the daemon configuration.
type Config struct {
	Sensor     SensorConfig     `yaml:"sensor"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	Bus        BusConfig        `yaml:"bus"`
	Display    DisplayConfig    `yaml:"display"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	HTTP       HTTPConfig       `yaml:"http"`
	History    HistoryConfig    `yaml:"history"`
}

// SensorConfig selects and configures the sensor transport.
type SensorConfig struct {
	Kind     string        `yaml:"kind"` // "modbus", "serial" or "fake"
	Period   time.Duration `yaml:"period"`
	Modbus   ModbusConfig  `yaml:"modbus"`
	Serial   SerialConfig  `yaml:"serial"`
	Moisture uint16        `yaml:"fake_moisture"` // fixed values for kind "fake"
	Humidity int           `yaml:"fake_humidity"`
}

// ModbusConfig contains Modbus probe settings.
type ModbusConfig struct {
	Protocol string        `yaml:"protocol"`
	Address  string        `yaml:"address"`
	BaudRate int           `yaml:"baud_rate"`
	DataBits int           `yaml:"data_bits"`
	StopBits int           `yaml:"stop_bits"`
	Parity   string        `yaml:"parity"`
	SlaveID  byte          `yaml:"slave_id"`
	Register uint16        `yaml:"register"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SerialConfig contains serial MCU settings.
type SerialConfig struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ThresholdsConfig contains the hysteresis bands.
type ThresholdsConfig struct {
	MoistureLow    uint16 `yaml:"moisture_low"`
	MoistureMargin uint16 `yaml:"moisture_margin"`
	HumidityHigh   int    `yaml:"humidity_high"`
	HumidityMargin int    `yaml:"humidity_margin"`
}

// GPIOConfig contains actuator pin assignments.
type GPIOConfig struct {
	Chip    string `yaml:"chip"`
	PinPump int    `yaml:"pin_pump"`
	PinFan  int    `yaml:"pin_fan"`
	// Disabled runs without driving actuators (logs commands only).
	Disabled bool `yaml:"disabled"`
}

// BusConfig selects how the parallel bus is carried.
type BusConfig struct {
	// Mode is "wire" (in-process, both sides in this daemon), "gpio-out"
	// (drive bus pins; receiver on another host) or "gpio-in" (sample bus
	// pins; display only).
	Mode string `yaml:"mode"`
	Pins []int  `yaml:"pins"`
}

// DisplayConfig contains the receiver clock settings.
type DisplayConfig struct {
	Clock         time.Duration `yaml:"clock"`
	ToggleEvery   time.Duration `yaml:"toggle_every"`
	SyncStages    int           `yaml:"sync_stages"`
	StableSamples int           `yaml:"stable_samples"`
}

// MQTTConfig contains broker settings.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	Disabled  bool          `yaml:"disabled"`
}

// HTTPConfig contains the status server address; empty disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// HistoryConfig contains the history database path; empty disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Default returns a default configuration.
func Default() *Config {
	th := logic.DefaultThresholds()
	return &Config{
		Sensor: SensorConfig{
			Kind:   "modbus",
			Period: 2 * time.Second,
			Modbus: ModbusConfig{
				Protocol: "rtu",
				Address:  "/dev/ttyUSB0",
				BaudRate: 9600,
				DataBits: 8,
				StopBits: 1,
				Parity:   "N",
				SlaveID:  1,
				Timeout:  time.Second,
			},
			Serial: SerialConfig{
				Port:     "/dev/ttyACM0",
				BaudRate: 9600,
				Timeout:  time.Second,
			},
		},
		Thresholds: ThresholdsConfig{
			MoistureLow:    th.MoistureLow,
			MoistureMargin: th.MoistureMargin,
			HumidityHigh:   th.HumidityHigh,
			HumidityMargin: th.HumidityMargin,
		},
		GPIO: GPIOConfig{
			Chip:    gpio.DefaultChip,
			PinPump: gpio.DefaultPinPump,
			PinFan:  gpio.DefaultPinFan,
		},
		Bus: BusConfig{
			Mode: "wire",
			Pins: append([]int(nil), gpio.DefaultBusPins...),
		},
		Display: DisplayConfig{
			Clock:       time.Millisecond,
			ToggleEvery: time.Second,
			SyncStages:  2,
		},
		MQTT: MQTTConfig{
			Broker:    "tcp://192.168.1.200:1883",
			ClientID:  "greenhouse-bridge",
			Heartbeat: 15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
		History: HistoryConfig{
			Path: "/var/lib/greenhouse-bridge/history.db",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, default values are used. The result is not validated;
// call Validate once any overrides have been applied.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ensureDefaults fills zero-valued fields that have no meaningful zero.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sensor.Kind == "" {
		c.Sensor.Kind = def.Sensor.Kind
	}
	if c.Sensor.Period == 0 {
		c.Sensor.Period = def.Sensor.Period
	}
	if c.Thresholds.MoistureLow == 0 {
		c.Thresholds.MoistureLow = def.Thresholds.MoistureLow
	}
	if c.Thresholds.HumidityHigh == 0 {
		c.Thresholds.HumidityHigh = def.Thresholds.HumidityHigh
	}
	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if c.Bus.Mode == "" {
		c.Bus.Mode = def.Bus.Mode
	}
	if len(c.Bus.Pins) == 0 {
		c.Bus.Pins = def.Bus.Pins
	}
	if c.Display.Clock == 0 {
		c.Display.Clock = def.Display.Clock
	}
	if c.Display.ToggleEvery == 0 {
		c.Display.ToggleEvery = def.Display.ToggleEvery
	}
	if c.Display.SyncStages == 0 {
		c.Display.SyncStages = def.Display.SyncStages
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
}

// Validate checks settings that would otherwise fail at runtime.
func (c *Config) Validate() error {
	switch c.Sensor.Kind {
	case "modbus", "serial", "fake":
	default:
		return fmt.Errorf("sensor.kind: unknown kind %q", c.Sensor.Kind)
	}
	switch c.Bus.Mode {
	case "wire", "gpio-out", "gpio-in":
	default:
		return fmt.Errorf("bus.mode: unknown mode %q", c.Bus.Mode)
	}
	if len(c.Bus.Pins) != bus.Width {
		return fmt.Errorf("bus.pins: need %d pins, got %d", bus.Width, len(c.Bus.Pins))
	}
	if c.Display.SyncStages < bus.MinStages {
		return fmt.Errorf("display.sync_stages: need at least %d, got %d", bus.MinStages, c.Display.SyncStages)
	}
	if c.Thresholds.HumidityMargin > c.Thresholds.HumidityHigh {
		return fmt.Errorf("thresholds: humidity_margin %d exceeds humidity_high %d",
			c.Thresholds.HumidityMargin, c.Thresholds.HumidityHigh)
	}
	if uint32(c.Thresholds.MoistureLow)+uint32(c.Thresholds.MoistureMargin) > 65535 {
		return fmt.Errorf("thresholds: moisture_low + moisture_margin exceeds 65535")
	}
	return nil
}

// LogicThresholds converts the thresholds section for the controller.
func (c *Config) LogicThresholds() logic.Thresholds {
	return logic.Thresholds{
		MoistureLow:    c.Thresholds.MoistureLow,
		MoistureMargin: c.Thresholds.MoistureMargin,
		HumidityHigh:   c.Thresholds.HumidityHigh,
		HumidityMargin: c.Thresholds.HumidityMargin,
	}
}

// ToggleTicks returns how many receiver clock ticks each display page lasts.
func (c *Config) ToggleTicks() uint64 {
	if c.Display.Clock <= 0 {
		return 1
	}
	n := uint64(c.Display.ToggleEvery / c.Display.Clock)
	if n == 0 {
		n = 1
	}
	return n
}
