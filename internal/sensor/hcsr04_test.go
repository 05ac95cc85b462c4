package sensor_test

import (
	"testing"
	"time"

	"codeberg.org/varken/sensorbridge/internal/sensor"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock is a manually advanced clock. The scripted echo line advances
// it on every poll, so protocol timing is fully deterministic.
type stepClock struct {
	clock.Clock
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

type fakeTrigger struct {
	sets []bool
}

func (l *fakeTrigger) Set(high bool) error {
	l.sets = append(l.sets, high)
	return nil
}

func (l *fakeTrigger) Read() (bool, error) { return false, nil }

// scriptedEcho simulates the echo line. Every Read advances the clock by
// step; when a scheduled edge falls within the step, the clock snaps to
// the exact edge time so measured pulse durations are precise.
type scriptedEcho struct {
	clk      *stepClock
	step     time.Duration
	hasPulse bool
	riseAt   time.Time
	fallAt   time.Time
}

func (l *scriptedEcho) Set(bool) error { return nil }

func (l *scriptedEcho) Read() (bool, error) {
	next := l.clk.now.Add(l.step)
	if l.hasPulse {
		if l.clk.now.Before(l.riseAt) && !next.Before(l.riseAt) {
			l.clk.now = l.riseAt
			return true, nil
		}
		if !l.clk.now.Before(l.riseAt) && l.clk.now.Before(l.fallAt) && !next.Before(l.fallAt) {
			l.clk.now = l.fallAt
			return false, nil
		}
	}

	l.clk.now = next
	if l.hasPulse && !l.clk.now.Before(l.riseAt) && l.clk.now.Before(l.fallAt) {
		return true, nil
	}

	return false, nil
}

// schedulePulse arms the echo with a pulse whose duration corresponds to
// the given simulated distance, starting shortly after the trigger.
func schedulePulse(clk *stepClock, echo *scriptedEcho, distanceCm float64) {
	pulse := time.Duration(distanceCm / 17150.0 * float64(time.Second))
	echo.hasPulse = true
	echo.riseAt = clk.now.Add(500 * time.Microsecond)
	echo.fallAt = echo.riseAt.Add(pulse)
}

func TestHCSR04Unavailable(t *testing.T) {
	port := sensor.NewHCSR04Port(nil, nil, nil)

	for i := 0; i < 3; i++ {
		reading, status := port.Read()
		assert.Equal(t, sensor.StatusUnavailable, status)
		assert.Zero(t, reading.DistanceCm)
	}
}

func TestHCSR04NoEchoStart(t *testing.T) {
	clk := newStepClock()
	echo := &scriptedEcho{clk: clk, step: 5 * time.Millisecond}
	start := clk.Now()

	port := sensor.NewHCSR04Port(&fakeTrigger{}, echo, clk)
	reading, status := port.Read()

	assert.Equal(t, sensor.StatusReadError, status)
	assert.Zero(t, reading.DistanceCm)

	// The timeout must fire close to the 100ms bound: not early, and not
	// more than one poll step late.
	elapsed := clk.Now().Sub(start)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.LessOrEqual(t, elapsed, 110*time.Millisecond)
}

func TestHCSR04NoEchoEnd(t *testing.T) {
	clk := newStepClock()
	echo := &scriptedEcho{clk: clk, step: 5 * time.Millisecond}
	// Pulse rises but stays high past the falling-edge timeout
	echo.hasPulse = true
	echo.riseAt = clk.now.Add(time.Millisecond)
	echo.fallAt = echo.riseAt.Add(time.Second)

	port := sensor.NewHCSR04Port(&fakeTrigger{}, echo, clk)
	reading, status := port.Read()

	assert.Equal(t, sensor.StatusReadError, status)
	assert.Zero(t, reading.DistanceCm)
}

func TestHCSR04MeasuresDistance(t *testing.T) {
	clk := newStepClock()
	echo := &scriptedEcho{clk: clk, step: 100 * time.Microsecond}
	schedulePulse(clk, echo, 150.0)

	trigger := &fakeTrigger{}
	port := sensor.NewHCSR04Port(trigger, echo, clk)
	reading, status := port.Read()

	require.Equal(t, sensor.StatusOK, status)
	assert.InDelta(t, 150.00, reading.DistanceCm, 0.01)

	// One high-low pulse on the trigger line
	assert.Equal(t, []bool{true, false}, trigger.sets)
}

func TestHCSR04OutOfRange(t *testing.T) {
	clk := newStepClock()
	echo := &scriptedEcho{clk: clk, step: 100 * time.Microsecond}
	schedulePulse(clk, echo, 450.0)

	port := sensor.NewHCSR04Port(&fakeTrigger{}, echo, clk)
	reading, status := port.Read()

	assert.Equal(t, sensor.StatusOutOfRange, status)
	assert.Zero(t, reading.DistanceCm)
}

func TestHCSR04BelowRange(t *testing.T) {
	clk := newStepClock()
	echo := &scriptedEcho{clk: clk, step: 10 * time.Microsecond}
	schedulePulse(clk, echo, 1.0)

	port := sensor.NewHCSR04Port(&fakeTrigger{}, echo, clk)
	reading, status := port.Read()

	assert.Equal(t, sensor.StatusOutOfRange, status)
	assert.Zero(t, reading.DistanceCm)
}
