package sensor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// fakePort is an in-memory serial.Port. Read returns queued chunks in order
// and (0, nil) once the queue is empty, as a real port does when its read
// timeout expires. Each poll write queues the next scripted reply.
type fakePort struct {
	serial.Port

	input   [][]byte
	replies [][][]byte
	readErr error

	timeout time.Duration
	reads   int
	polls   int
	flushes int
	closed  bool
}

func (f *fakePort) SetReadTimeout(t time.Duration) error {
	f.timeout = t
	return nil
}

func (f *fakePort) ResetInputBuffer() error {
	f.flushes++
	f.input = nil
	return nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	if f.polls < len(f.replies) {
		f.input = append(f.input, f.replies[f.polls]...)
	}
	f.polls++
	return len(p), nil
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.reads++
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.input) == 0 {
		return 0, nil
	}
	n := copy(p, f.input[0])
	if n < len(f.input[0]) {
		f.input[0] = f.input[0][n:]
	} else {
		f.input = f.input[1:]
	}
	return n, nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func chunks(parts ...string) [][]byte {
	out := make([][]byte, len(parts))
	for i, p := range parts {
		out[i] = []byte(p)
	}
	return out
}

func newTestSerialReader(t *testing.T, port *fakePort) *SerialReader {
	t.Helper()
	r, err := newSerialReader(port, 50*time.Millisecond)
	require.NoError(t, err)
	return r
}

func TestSerialReaderReadsReport(t *testing.T) {
	port := &fakePort{replies: [][][]byte{chunks("M=190", "00 H=4", "7 T=21.5\r\n")}}
	r := newTestSerialReader(t, port)

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, logic.Reading{Moisture: 19000, Humidity: 47, Temperature: 21.5}, got)
	assert.Equal(t, 50*time.Millisecond, port.timeout)
	assert.Equal(t, 1, port.polls)
}

func TestSerialReaderDefaultTimeout(t *testing.T) {
	port := &fakePort{}
	_, err := newSerialReader(port, 0)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, port.timeout)
}

func TestSerialReaderSilentPortTimesOutAfterOneRead(t *testing.T) {
	port := &fakePort{}
	r := newTestSerialReader(t, port)

	_, err := r.Read()
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, port.reads, "an empty read means the port timeout already expired")
}

func TestSerialReaderPartialLineThenSilence(t *testing.T) {
	port := &fakePort{replies: [][][]byte{chunks("M=100 H=")}}
	r := newTestSerialReader(t, port)

	_, err := r.Read()
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 2, port.reads)
}

func TestSerialReaderDiscardsLateReply(t *testing.T) {
	port := &fakePort{replies: [][][]byte{nil, chunks("M=2000 H=20\n")}}
	r := newTestSerialReader(t, port)

	_, err := r.Read()
	require.ErrorIs(t, err, ErrTimeout)

	// The reply to the first poll arrives after it gave up.
	port.input = chunks("M=1000 H=10\n")

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, uint16(2000), got.Moisture, "stale bytes are flushed before polling")
	assert.Equal(t, 20, got.Humidity)
	assert.Equal(t, 2, port.flushes)
}

func TestSerialReaderTrickleHitsDeadline(t *testing.T) {
	trickle := make([][]byte, 100)
	for i := range trickle {
		trickle[i] = []byte("1")
	}
	port := &fakePort{replies: [][][]byte{trickle}}
	r := newTestSerialReader(t, port)

	clock := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		clock = clock.Add(20 * time.Millisecond)
		return clock
	}

	_, err := r.Read()
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, port.reads, 10)
}

func TestSerialReaderRejectsOverlongLine(t *testing.T) {
	port := &fakePort{replies: [][][]byte{chunks(strings.Repeat("x", 200))}}
	r := newTestSerialReader(t, port)

	_, err := r.Read()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "longer than")
}

func TestSerialReaderPortError(t *testing.T) {
	boom := errors.New("device unplugged")
	port := &fakePort{readErr: boom}
	r := newTestSerialReader(t, port)

	_, err := r.Read()
	assert.ErrorIs(t, err, boom)
}

func TestSerialReaderMCUError(t *testing.T) {
	port := &fakePort{replies: [][][]byte{chunks("ERR dht timeout\n")}}
	r := newTestSerialReader(t, port)

	_, err := r.Read()
	assert.ErrorIs(t, err, ErrNoReading)
}

func TestSerialReaderClose(t *testing.T) {
	port := &fakePort{}
	r := newTestSerialReader(t, port)
	require.NoError(t, r.Close())
	assert.True(t, port.closed)
}
