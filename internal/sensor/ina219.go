package sensor

import (
	"codeberg.org/varken/sensorbridge/internal/errors"
	"codeberg.org/varken/sensorbridge/internal/logger"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ina219"
)

const milliPerUnit = 1000.0

// ina219Device wraps the periph INA219 driver and reports values the way
// the chip does: bus voltage in volts, current and power in milli-units.
type ina219Device struct {
	dev *ina219.Dev
}

// NewINA219Device configures the INA219 at the given address on bus.
func NewINA219Device(bus i2c.Bus, addr int) (PowerDevice, error) {
	opts := ina219.DefaultOpts
	opts.Address = addr

	dev, err := ina219.New(bus, &opts)
	if err != nil {
		return nil, errors.Wrap(ErrDeviceInit, err)
	}

	return &ina219Device{dev: dev}, nil
}

func (d *ina219Device) Sense() (float64, float64, float64, error) {
	pm, err := d.dev.Sense()
	if err != nil {
		return 0, 0, 0, errors.Wrap(ErrDeviceRead, err)
	}

	voltageV := float64(pm.Voltage) / float64(physic.Volt)
	currentMA := float64(pm.Current) / float64(physic.MilliAmpere)
	powerMW := float64(pm.Power) / float64(physic.MilliWatt)

	return voltageV, currentMA, powerMW, nil
}

// INA219Port maps power monitor reads onto the PowerMonitorPort contract.
// No range validation is applied: whatever the chip reports is accepted.
type INA219Port struct {
	dev       PowerDevice
	available bool
}

func NewINA219Port(dev PowerDevice) *INA219Port {
	return &INA219Port{dev: dev, available: dev != nil}
}

func (p *INA219Port) Read() (PowerReading, Status) {
	if !p.available {
		return PowerReading{}, StatusUnavailable
	}

	voltageV, currentMA, powerMW, err := p.dev.Sense()
	if err != nil {
		logger.Debug().Err(err).Msg("ina219 read failed")
		return PowerReading{}, StatusReadError
	}

	return PowerReading{
		VoltageV: voltageV,
		CurrentA: currentMA / milliPerUnit,
		PowerW:   powerMW / milliPerUnit,
	}, StatusOK
}
