package sensor_test

import (
	"errors"
	"math"
	"testing"

	"codeberg.org/varken/sensorbridge/internal/sensor"
	"github.com/stretchr/testify/assert"
)

type fakeThermalDevice struct {
	temperatureC float64
	humidityPct  float64
	err          error
	calls        int
}

func (d *fakeThermalDevice) Sense() (float64, float64, error) {
	d.calls++
	return d.temperatureC, d.humidityPct, d.err
}

type fakePowerDevice struct {
	voltageV  float64
	currentMA float64
	powerMW   float64
	err       error
}

func (d *fakePowerDevice) Sense() (float64, float64, float64, error) {
	return d.voltageV, d.currentMA, d.powerMW, d.err
}

func TestDHT11PortReadsBothValues(t *testing.T) {
	port := sensor.NewDHT11Port(&fakeThermalDevice{temperatureC: 23.0, humidityPct: 41.0})

	reading, status := port.Read()
	assert.Equal(t, sensor.StatusOK, status)
	assert.Equal(t, 23.0, reading.TemperatureC)
	assert.Equal(t, 41.0, reading.HumidityPct)
}

func TestDHT11PortProtocolMiss(t *testing.T) {
	port := sensor.NewDHT11Port(&fakeThermalDevice{err: errors.New("timeout on data line")})

	reading, status := port.Read()
	assert.Equal(t, sensor.StatusReadError, status)
	assert.Zero(t, reading)
}

func TestDHT11PortPartialFrame(t *testing.T) {
	port := sensor.NewDHT11Port(&fakeThermalDevice{temperatureC: 23.0, humidityPct: math.NaN()})

	reading, status := port.Read()
	assert.Equal(t, sensor.StatusReadError, status)
	assert.Zero(t, reading)
}

func TestDHT11PortUnavailableIsPermanent(t *testing.T) {
	port := sensor.NewDHT11Port(nil)

	for i := 0; i < 3; i++ {
		reading, status := port.Read()
		assert.Equal(t, sensor.StatusUnavailable, status)
		assert.Zero(t, reading)
	}
}

func TestINA219PortConvertsMilliUnits(t *testing.T) {
	port := sensor.NewINA219Port(&fakePowerDevice{
		voltageV:  5.12,
		currentMA: 3300.0,
		powerMW:   12500.0,
	})

	reading, status := port.Read()
	assert.Equal(t, sensor.StatusOK, status)
	assert.InDelta(t, 5.12, reading.VoltageV, 1e-9)
	assert.InDelta(t, 3.3, reading.CurrentA, 1e-9)
	assert.InDelta(t, 12.5, reading.PowerW, 1e-9)
}

func TestINA219PortAcceptsAnyValue(t *testing.T) {
	// The power monitor applies no physical envelope, unlike the ranging
	// port: negative current (discharge) passes through untouched.
	port := sensor.NewINA219Port(&fakePowerDevice{voltageV: -1.0, currentMA: -500.0})

	reading, status := port.Read()
	assert.Equal(t, sensor.StatusOK, status)
	assert.Equal(t, -1.0, reading.VoltageV)
	assert.Equal(t, -0.5, reading.CurrentA)
}

func TestINA219PortReadError(t *testing.T) {
	port := sensor.NewINA219Port(&fakePowerDevice{err: errors.New("i2c transaction failed")})

	reading, status := port.Read()
	assert.Equal(t, sensor.StatusReadError, status)
	assert.Zero(t, reading)
}

func TestINA219PortUnavailableIsPermanent(t *testing.T) {
	port := sensor.NewINA219Port(nil)

	for i := 0; i < 3; i++ {
		reading, status := port.Read()
		assert.Equal(t, sensor.StatusUnavailable, status)
		assert.Zero(t, reading)
	}
}
