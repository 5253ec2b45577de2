// Command greenhouse-bridge reads soil moisture and humidity, drives the pump
// and fan with hysteresis, and carries the readings across a 9-bit parallel
// bus to a six-digit seven-segment display.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/config"
	"github.com/sweeney/greenhouse-bridge/internal/display"
	"github.com/sweeney/greenhouse-bridge/internal/gpio"
	"github.com/sweeney/greenhouse-bridge/internal/history"
	"github.com/sweeney/greenhouse-bridge/internal/logic"
	"github.com/sweeney/greenhouse-bridge/internal/mqtt"
	"github.com/sweeney/greenhouse-bridge/internal/receiver"
	"github.com/sweeney/greenhouse-bridge/internal/reset"
	"github.com/sweeney/greenhouse-bridge/internal/sensor"
	"github.com/sweeney/greenhouse-bridge/internal/status"
	"github.com/sweeney/greenhouse-bridge/internal/web"
)

func main() {
	configPath := flag.String("config", "greenhouse-bridge.yaml", "YAML configuration file")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)
	period := flag.Duration("period", 0, "Sensor read period (overrides config)")
	sensorKind := flag.String("sensor", "", "Sensor kind: modbus, serial or fake (overrides config)")
	printState := flag.Bool("print-state", false, "Read the sensor once, print the result and exit")

	flag.Parse()

	cfg, err := loadConfig(*configPath, *broker, *httpAddr, *period, *sensorKind)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if *printState {
		err = printOnce(cfg)
	} else {
		err = run(cfg)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadConfig reads the config file, applies flag overrides and validates the
// result.
func loadConfig(path, broker, httpAddr string, period time.Duration, sensorKind string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg, broker, httpAddr, period, sensorKind)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overrides config values with any flags that were given.
func applyFlags(cfg *config.Config, broker, httpAddr string, period time.Duration, sensorKind string) {
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	switch httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = httpAddr
	}
	if period > 0 {
		cfg.Sensor.Period = period
	}
	if sensorKind != "" {
		cfg.Sensor.Kind = sensorKind
	}
}

func openSensor(cfg *config.Config) (sensor.Reader, error) {
	switch cfg.Sensor.Kind {
	case "modbus":
		m := cfg.Sensor.Modbus
		return sensor.NewModbusReader(sensor.ModbusConfig{
			Protocol: m.Protocol,
			Address:  m.Address,
			BaudRate: m.BaudRate,
			DataBits: m.DataBits,
			StopBits: m.StopBits,
			Parity:   m.Parity,
			SlaveID:  m.SlaveID,
			Register: m.Register,
			Timeout:  m.Timeout,
		})
	case "serial":
		s := cfg.Sensor.Serial
		return sensor.NewSerialReader(s.Port, s.BaudRate, s.Timeout)
	case "fake":
		return sensor.NewFakeReader(sensor.Readings(logic.Reading{
			Moisture: cfg.Sensor.Moisture,
			Humidity: cfg.Sensor.Humidity,
		})), nil
	}
	return nil, fmt.Errorf("unknown sensor kind %q", cfg.Sensor.Kind)
}

// printOnce reads the sensor once and prints the reading, the command it
// would produce from a cold start, and the bus word.
func printOnce(cfg *config.Config) error {
	rd, err := openSensor(cfg)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer rd.Close()

	r, err := rd.Read()
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	ctrl := logic.NewController(cfg.LogicThresholds(), time.Now(), nil)
	ctrl.Process(logic.Input{Reading: r, Time: time.Now()})
	cmd := ctrl.Command()
	w := bus.Encode(bus.ClampHumidity(r.Humidity), bus.QuantizeMoisture(r.Moisture))

	fmt.Printf("Moisture: %d, Humidity: %d%%, Temperature: %.1fC\n", r.Moisture, r.Humidity, r.Temperature)
	fmt.Printf("Pump: %s, Fan: %s\n", cmd.PumpState(), cmd.FanState())
	fmt.Printf("Bus: 0x%03X (%09b) -> %q / %q\n", uint16(w), uint16(w),
		display.Render(display.ShowingHumidity, bus.Decode(w)).String(),
		display.Render(display.ShowingMoisture, bus.Decode(w)).String())
	return nil
}

func run(cfg *config.Config) error {
	rst := &reset.Line{}
	producer := cfg.Bus.Mode != "gpio-in"
	startTime := time.Now()

	tracker := status.NewTracker(startTime, status.Config{
		PeriodMs:    cfg.Sensor.Period.Milliseconds(),
		ClockMs:     cfg.Display.Clock.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPPort:    cfg.HTTP.Addr,
		SensorKind:  cfg.Sensor.Kind,
		BusMode:     cfg.Bus.Mode,
		Thresholds:  cfg.LogicThresholds(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Bus: an in-process wire, or GPIO lines on one side of it.
	var (
		writer  bus.Writer
		sampler bus.Sampler
	)
	switch cfg.Bus.Mode {
	case "wire":
		w := bus.NewWire()
		writer, sampler = w, w
	case "gpio-out":
		w, err := gpio.NewBusWriter(cfg.GPIO.Chip, cfg.Bus.Pins)
		if err != nil {
			return fmt.Errorf("init bus writer: %w", err)
		}
		defer w.Close()
		writer = w
	case "gpio-in":
		r, err := gpio.NewBusReader(cfg.GPIO.Chip, cfg.Bus.Pins)
		if err != nil {
			return fmt.Errorf("init bus reader: %w", err)
		}
		defer r.Close()
		sampler = r
	}

	deps := loopDeps{
		tracker:    tracker,
		reset:      rst,
		thresholds: cfg.LogicThresholds(),
		heartbeat:  cfg.MQTT.Heartbeat,
		now:        time.Now,
	}

	if producer {
		rd, err := openSensor(cfg)
		if err != nil {
			return fmt.Errorf("init sensor: %w", err)
		}
		defer rd.Close()
		deps.sensor = rd
		deps.encoder = bus.NewEncoder(writer, rst)

		if cfg.GPIO.Disabled {
			deps.actuators = gpio.NewFakeActuators()
		} else {
			act, err := gpio.NewRealActuators(cfg.GPIO.Chip, cfg.GPIO.PinPump, cfg.GPIO.PinFan)
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer act.Close()
			deps.actuators = act
		}
	}

	var store *history.Store
	if cfg.History.Path != "" && producer {
		s, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("init history: %w", err)
		}
		defer s.Close()
		store = s
		deps.history = s
	}

	// MQTT
	if cfg.MQTT.Disabled {
		deps.publisher = mqtt.LogPublisher{}
		deps.mqttStatus = mqtt.LogPublisher{}
	} else {
		pub, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer pub.Close()
		deps.publisher = pub
		deps.mqttStatus = pub
	}

	// Publish startup event with full status snapshot
	tracker.SetMQTTConnected(deps.mqttStatus.IsConnected())
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := deps.publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Receiver runs in its own clock domain.
	ctx, cancel := context.WithCancel(context.Background())
	recvDone := make(chan struct{})
	if sampler != nil {
		rcv := receiver.New(sampler, receiver.Config{
			SyncStages:    cfg.Display.SyncStages,
			StableSamples: cfg.Display.StableSamples,
			ToggleTicks:   cfg.ToggleTicks(),
		}, rst)
		clock := time.NewTicker(cfg.Display.Clock)
		go func() {
			defer close(recvDone)
			defer clock.Stop()
			rcv.Run(ctx, clock.C, tracker.SetFrame)
		}()
	} else {
		close(recvDone)
	}
	defer func() {
		cancel()
		<-recvDone
	}()

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		var hist web.History
		if store != nil {
			hist = store
		}
		srv := web.New(cfg.HTTP.Addr, tracker, hist)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: sensor=%s period=%v bus=%s clock=%v toggle=%v broker=%s heartbeat=%v",
		cfg.Sensor.Kind, cfg.Sensor.Period, cfg.Bus.Mode, cfg.Display.Clock, cfg.Display.ToggleEvery,
		cfg.MQTT.Broker, cfg.MQTT.Heartbeat)

	// A display-only node has no producer period; runLoop then just waits
	// for signals.
	var tick <-chan time.Time
	if producer {
		ticker := time.NewTicker(cfg.Sensor.Period)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	return runLoop(deps, tick, sigCh)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
