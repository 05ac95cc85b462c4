package sensor

// Ports abstract one physical sensor each as a synchronous read. A port
// never returns an error: every failure mode is mapped to a Status, and a
// port whose hardware failed init answers StatusUnavailable forever.

type ThermalHumidityPort interface {
	Read() (ThermalHumidityReading, Status)
}

type PowerMonitorPort interface {
	Read() (PowerReading, Status)
}

type RangingPort interface {
	Read() (RangingReading, Status)
}

// ThermalHumidityDevice is the raw device behind a DHT11Port. A complete
// read yields both values; errors cover protocol and timing failures.
type ThermalHumidityDevice interface {
	Sense() (temperatureC, humidityPct float64, err error)
}

// PowerDevice is the raw device behind an INA219Port. Current and power
// are reported in milli-units, as the chip does.
type PowerDevice interface {
	Sense() (busVoltageV, currentMA, powerMW float64, err error)
}
