package sensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// DefaultBaudRate is the rate used by the sensor microcontroller sketch.
const DefaultBaudRate = 9600

// maxLineLength bounds one report line.
const maxLineLength = 128

// ErrTimeout is returned when the MCU does not finish a report line within
// the read timeout.
var ErrTimeout = errors.New("sensor: serial read timeout")

// SerialReader reads line-oriented reports from a microcontroller wired to
// the probes. Each report is one line:
//
//	M=<raw moisture> H=<humidity %> [T=<temperature C>]
//	ERR <reason>
//
// The MCU prints a report whenever it is polled with a newline.
type SerialReader struct {
	port    serial.Port
	timeout time.Duration
	now     func() time.Time
}

// NewSerialReader opens the serial port. A baudRate of 0 uses DefaultBaudRate.
func NewSerialReader(portName string, baudRate int, timeout time.Duration) (*SerialReader, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	r, err := newSerialReader(port, timeout)
	if err != nil {
		port.Close()
		return nil, err
	}
	return r, nil
}

func newSerialReader(port serial.Port, timeout time.Duration) (*SerialReader, error) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &SerialReader{port: port, timeout: timeout, now: time.Now}, nil
}

// Read polls the MCU and parses the report line it sends back. Bytes left
// over from an earlier poll are discarded first, so a late reply is never
// taken as the answer to this one.
func (r *SerialReader) Read() (logic.Reading, error) {
	if err := r.port.ResetInputBuffer(); err != nil {
		return logic.Reading{}, fmt.Errorf("flush input: %w", err)
	}
	if _, err := r.port.Write([]byte("\n")); err != nil {
		return logic.Reading{}, fmt.Errorf("poll: %w", err)
	}
	line, err := r.readLine()
	if err != nil {
		return logic.Reading{}, err
	}
	return parseLine(line)
}

// readLine collects bytes up to the next newline. The port returns (0, nil)
// when its read timeout expires; that ends the read, as does the overall
// deadline when the MCU trickles bytes without finishing the line.
func (r *SerialReader) readLine() (string, error) {
	deadline := r.now().Add(r.timeout)
	var (
		line  []byte
		chunk [64]byte
	)
	for {
		n, err := r.port.Read(chunk[:])
		if err != nil {
			return "", fmt.Errorf("read line: %w", err)
		}
		if n == 0 {
			return "", fmt.Errorf("read line: %w", ErrTimeout)
		}
		for _, b := range chunk[:n] {
			if b == '\n' {
				return string(line), nil
			}
			line = append(line, b)
		}
		if len(line) > maxLineLength {
			return "", fmt.Errorf("read line: report longer than %d bytes", maxLineLength)
		}
		if r.now().After(deadline) {
			return "", fmt.Errorf("read line: %w", ErrTimeout)
		}
	}
}

// Close closes the serial port.
func (r *SerialReader) Close() error {
	return r.port.Close()
}

// parseLine decodes one report line.
func parseLine(line string) (logic.Reading, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return logic.Reading{}, ErrNoReading
	}
	if strings.HasPrefix(line, "ERR") {
		reason := strings.TrimSpace(strings.TrimPrefix(line, "ERR"))
		return logic.Reading{}, fmt.Errorf("%w: %s", ErrNoReading, reason)
	}

	var (
		r            logic.Reading
		haveM, haveH bool
	)
	for _, field := range strings.Fields(line) {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return logic.Reading{}, fmt.Errorf("malformed field %q", field)
		}
		switch key {
		case "M":
			v, err := strconv.ParseUint(val, 10, 16)
			if err != nil {
				return logic.Reading{}, fmt.Errorf("moisture %q: %w", val, err)
			}
			r.Moisture = uint16(v)
			haveM = true
		case "H":
			v, err := strconv.Atoi(val)
			if err != nil {
				return logic.Reading{}, fmt.Errorf("humidity %q: %w", val, err)
			}
			if v < 0 || v > 100 {
				return logic.Reading{}, fmt.Errorf("humidity out of range: %d", v)
			}
			r.Humidity = v
			haveH = true
		case "T":
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return logic.Reading{}, fmt.Errorf("temperature %q: %w", val, err)
			}
			r.Temperature = v
		}
	}
	if !haveM || !haveH {
		return logic.Reading{}, fmt.Errorf("incomplete report %q", line)
	}
	return r, nil
}
