package sensor

import (
	"math"
	"time"

	"codeberg.org/varken/sensorbridge/internal/hwio"
	"codeberg.org/varken/sensorbridge/internal/logger"
	"github.com/benbjohnson/clock"
)

const (
	triggerPulseWidth = 10 * time.Microsecond
	echoTimeout       = 100 * time.Millisecond

	// Speed of sound is 343 m/s; 34300 cm/s over the round trip, halved
	// for the one-way distance, applied directly to the pulse duration.
	cmPerSecondRoundTrip = 17150.0

	// The transducer's specified physical envelope
	minDistanceCm = 2.0
	maxDistanceCm = 400.0
)

// HCSR04Port measures distance by timing the echo pulse of an HC-SR04.
// Both edge waits are busy-polls bounded by echoTimeout, so a single read
// never blocks longer than ~200ms even with the sensor unplugged. The
// clock is injected so tests can drive the protocol deterministically.
type HCSR04Port struct {
	trigger   hwio.Line
	echo      hwio.Line
	clk       clock.Clock
	available bool
}

// NewHCSR04Port builds a ranging port over the two GPIO lines. Nil lines
// mark the port unavailable for the process lifetime.
func NewHCSR04Port(trigger, echo hwio.Line, clk clock.Clock) *HCSR04Port {
	if trigger == nil || echo == nil {
		return &HCSR04Port{}
	}
	if clk == nil {
		clk = clock.New()
	}

	return &HCSR04Port{
		trigger:   trigger,
		echo:      echo,
		clk:       clk,
		available: true,
	}
}

func (p *HCSR04Port) Read() (RangingReading, Status) {
	if !p.available {
		return RangingReading{}, StatusUnavailable
	}

	if err := p.emitTriggerPulse(); err != nil {
		logger.Debug().Err(err).Msg("hcsr04 trigger failed")
		return RangingReading{}, StatusReadError
	}

	risingEdge, ok := p.waitForLevel(true, p.clk.Now())
	if !ok {
		logger.Debug().Msg("hcsr04 no echo start")
		return RangingReading{}, StatusReadError
	}

	// The falling-edge timeout is measured from the rising edge
	fallingEdge, ok := p.waitForLevel(false, risingEdge)
	if !ok {
		logger.Debug().Msg("hcsr04 no echo end")
		return RangingReading{}, StatusReadError
	}

	pulseSeconds := fallingEdge.Sub(risingEdge).Seconds()
	distanceCm := math.Round(pulseSeconds*cmPerSecondRoundTrip*100) / 100

	if distanceCm < minDistanceCm || distanceCm > maxDistanceCm {
		logger.Debug().Float64("distance_cm", distanceCm).Msg("hcsr04 out of range")
		return RangingReading{}, StatusOutOfRange
	}

	return RangingReading{DistanceCm: distanceCm}, StatusOK
}

// emitTriggerPulse drives the trigger line high for 10µs. Sleep resolution
// may stretch the pulse; that costs precision, not correctness.
func (p *HCSR04Port) emitTriggerPulse() error {
	if err := p.trigger.Set(true); err != nil {
		return err
	}
	p.clk.Sleep(triggerPulseWidth)

	return p.trigger.Set(false)
}

// waitForLevel busy-polls the echo line until it reads the wanted level,
// returning the observation time, or false once the timeout measured from
// the given origin elapses.
func (p *HCSR04Port) waitForLevel(high bool, origin time.Time) (time.Time, bool) {
	for {
		level, err := p.echo.Read()
		if err == nil && level == high {
			return p.clk.Now(), true
		}
		if p.clk.Now().Sub(origin) > echoTimeout {
			return time.Time{}, false
		}
	}
}
