package sensor

import "time"

type ThermalHumidityReading struct {
	TemperatureC float64
	HumidityPct  float64
}

type PowerReading struct {
	VoltageV float64
	CurrentA float64
	PowerW   float64
}

type RangingReading struct {
	DistanceCm float64
}

// Snapshot is the result of one aggregate read: exactly one reading and
// status per sensor kind. Produced fresh each cycle and never mutated.
type Snapshot struct {
	ThermalHumidity       ThermalHumidityReading
	ThermalHumidityStatus Status
	Power                 PowerReading
	PowerStatus           Status
	Ranging               RangingReading
	RangingStatus         Status
	TakenAt               time.Time
}

// DerivedSnapshot extends a Snapshot with the presentation values computed
// by Derive.
type DerivedSnapshot struct {
	Snapshot
	TemperatureF       float64
	DistanceIn         float64
	UptimeSeconds      float64
	FormattedTimestamp string
}
