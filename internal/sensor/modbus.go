package sensor

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	mb "github.com/goburrow/modbus"

	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// ModbusConfig describes a probe exposing its values as input registers:
//
//	reg+0  moisture, raw 0-65535
//	reg+1  relative humidity, percent
//	reg+2  temperature, signed, tenths of a degree C
type ModbusConfig struct {
	Protocol string // "tcp" or "rtu"
	Address  string // host:port for TCP, device path for RTU
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	SlaveID  byte
	Register uint16
	Timeout  time.Duration
}

const modbusRegisterCount = 3

// handlerWithConn is the part of a goburrow handler used for lifecycle.
type handlerWithConn interface {
	mb.ClientHandler
	Connect() error
	Close() error
}

// ModbusReader reads a probe over Modbus TCP or RTU.
type ModbusReader struct {
	cfg     ModbusConfig
	handler handlerWithConn
	client  mb.Client
}

// NewModbusReader connects to the probe described by cfg.
func NewModbusReader(cfg ModbusConfig) (*ModbusReader, error) {
	h, err := newModbusHandler(cfg)
	if err != nil {
		return nil, err
	}
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Address, err)
	}
	return &ModbusReader{
		cfg:     cfg,
		handler: h,
		client:  mb.NewClient(h),
	}, nil
}

func newModbusHandler(cfg ModbusConfig) (handlerWithConn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Protocol)) {
	case "tcp", "modbus-tcp", "":
		h := mb.NewTCPClientHandler(cfg.Address)
		h.Timeout = timeout
		h.SlaveId = cfg.SlaveID
		return h, nil
	case "rtu", "modbus-rtu":
		if strings.TrimSpace(cfg.Address) == "" {
			return nil, fmt.Errorf("serial device is required for RTU")
		}
		h := mb.NewRTUClientHandler(cfg.Address)
		if cfg.BaudRate > 0 {
			h.BaudRate = cfg.BaudRate
		}
		if cfg.DataBits > 0 {
			h.DataBits = cfg.DataBits
		}
		if cfg.StopBits > 0 {
			h.StopBits = cfg.StopBits
		}
		if p := strings.ToUpper(strings.TrimSpace(cfg.Parity)); p != "" {
			h.Parity = p
		}
		h.Timeout = timeout
		h.SlaveId = cfg.SlaveID
		return h, nil
	default:
		return nil, fmt.Errorf("modbus protocol %q not supported", cfg.Protocol)
	}
}

// Read fetches the three probe registers.
func (r *ModbusReader) Read() (logic.Reading, error) {
	b, err := r.client.ReadInputRegisters(r.cfg.Register, modbusRegisterCount)
	if err != nil {
		return logic.Reading{}, fmt.Errorf("read input registers @%d: %w", r.cfg.Register, err)
	}
	return decodeRegisters(b)
}

// decodeRegisters converts the big-endian register block into a reading.
func decodeRegisters(b []byte) (logic.Reading, error) {
	if len(b) < 2*modbusRegisterCount {
		return logic.Reading{}, fmt.Errorf("short register block: %d bytes", len(b))
	}
	hum := binary.BigEndian.Uint16(b[2:4])
	if hum > 100 {
		return logic.Reading{}, fmt.Errorf("humidity register out of range: %d", hum)
	}
	return logic.Reading{
		Moisture:    binary.BigEndian.Uint16(b[0:2]),
		Humidity:    int(hum),
		Temperature: float64(int16(binary.BigEndian.Uint16(b[4:6]))) / 10,
	}, nil
}

// Close disconnects from the probe.
func (r *ModbusReader) Close() error {
	return r.handler.Close()
}
