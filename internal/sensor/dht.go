package sensor

import (
	"math"

	"codeberg.org/varken/sensorbridge/internal/logger"
	"github.com/d2r2/go-dht"
)

// dhtDevice reads a DHT11 over its single-wire protocol via go-dht.
type dhtDevice struct {
	pin int
}

// NewDHTDevice returns a device reading the DHT11 on the given BCM pin.
func NewDHTDevice(pin int) ThermalHumidityDevice {
	return &dhtDevice{pin: pin}
}

func (d *dhtDevice) Sense() (float64, float64, error) {
	// No retries here: a missed frame is reported as-is and the next
	// synchronization cycle tries again.
	temperature, humidity, err := dht.ReadDHTxx(dht.DHT11, d.pin, false)
	if err != nil {
		return 0, 0, err
	}

	return float64(temperature), float64(humidity), nil
}

// DHT11Port maps DHT11 reads onto the ThermalHumidityPort contract. A nil
// device marks the port unavailable for the process lifetime.
type DHT11Port struct {
	dev       ThermalHumidityDevice
	available bool
}

func NewDHT11Port(dev ThermalHumidityDevice) *DHT11Port {
	return &DHT11Port{dev: dev, available: dev != nil}
}

func (p *DHT11Port) Read() (ThermalHumidityReading, Status) {
	if !p.available {
		return ThermalHumidityReading{}, StatusUnavailable
	}

	temperature, humidity, err := p.dev.Sense()
	if err != nil {
		// Single-wire timing misses are routine for the DHT11
		logger.Debug().Err(err).Msg("dht11 read failed")
		return ThermalHumidityReading{}, StatusReadError
	}

	// A partial frame is no more trustworthy than a missed one
	if math.IsNaN(temperature) || math.IsNaN(humidity) {
		return ThermalHumidityReading{}, StatusReadError
	}

	return ThermalHumidityReading{
		TemperatureC: temperature,
		HumidityPct:  humidity,
	}, StatusOK
}
