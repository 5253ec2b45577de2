package reset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchPendingOncePerAssert(t *testing.T) {
	var l Line
	w := l.Watch()

	assert.False(t, w.Pending())

	l.Assert()
	assert.True(t, w.Pending())
	assert.False(t, w.Pending(), "reset must be reported once")

	l.Assert()
	l.Assert()
	assert.True(t, w.Pending(), "coalesced assertions report a single reset")
	assert.False(t, w.Pending())
}

func TestWatchIgnoresEarlierAssertions(t *testing.T) {
	var l Line
	l.Assert()
	w := l.Watch()
	assert.False(t, w.Pending())
	assert.Equal(t, uint64(1), l.Generation())
}

func TestIndependentWatches(t *testing.T) {
	var l Line
	a := l.Watch()
	b := l.Watch()

	l.Assert()
	assert.True(t, a.Pending())
	assert.True(t, b.Pending())
}

func TestNilLine(t *testing.T) {
	var l *Line
	w := l.Watch()
	assert.False(t, w.Pending())
	assert.Equal(t, uint64(0), l.Generation())
}
