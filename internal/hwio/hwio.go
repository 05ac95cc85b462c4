// Package hwio claims GPIO pins and I2C buses through periph.io and hands
// them out as narrow capabilities. All hardware bring-up happens here; the
// sensor layer only ever sees Line and i2c.Bus values.
package hwio

import (
	"fmt"
	"sync"

	"codeberg.org/varken/sensorbridge/internal/errors"
	"codeberg.org/varken/sensorbridge/internal/logger"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var hostOnce sync.Once

// Init loads the periph.io host drivers. Safe to call more than once.
func Init() error {
	var initErr error
	hostOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			initErr = errors.Wrap(ErrHostInit, err)
			return
		}
		logger.Debug().
			Int("drivers_loaded", len(state.Loaded)).
			Int("drivers_skipped", len(state.Skipped)).
			Msg("periph host initialized")
	})

	return initErr
}

// GPIOLine adapts a periph GPIO pin to the Line capability.
type GPIOLine struct {
	pin gpio.PinIO
}

func claimPin(bcm int) (gpio.PinIO, error) {
	name := fmt.Sprintf("GPIO%d", bcm)
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.WithMessage(ErrPinClaim, "no such pin: "+name)
	}

	return pin, nil
}

// OpenOutput claims a BCM pin as an output line, driven low initially.
func OpenOutput(bcm int) (*GPIOLine, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	pin, err := claimPin(bcm)
	if err != nil {
		return nil, err
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, errors.Wrap(ErrPinConfig, err)
	}

	return &GPIOLine{pin: pin}, nil
}

// OpenInput claims a BCM pin as an input line with the pull-down enabled.
func OpenInput(bcm int) (*GPIOLine, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	pin, err := claimPin(bcm)
	if err != nil {
		return nil, err
	}
	if err := pin.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, errors.Wrap(ErrPinConfig, err)
	}

	return &GPIOLine{pin: pin}, nil
}

func (l *GPIOLine) Set(high bool) error {
	level := gpio.Low
	if high {
		level = gpio.High
	}

	return l.pin.Out(level)
}

func (l *GPIOLine) Read() (bool, error) {
	return l.pin.Read() == gpio.High, nil
}

// Close releases the pin
func (l *GPIOLine) Close() error {
	return l.pin.Halt()
}

// OpenI2C opens the named I2C bus. An empty name selects the first
// available bus.
func OpenI2C(name string) (i2c.BusCloser, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrap(ErrBusOpen, err)
	}

	return bus, nil
}
