package sensor

import "github.com/benbjohnson/clock"

// Reader owns one port per sensor kind and produces one Snapshot per call.
// Ports are read sequentially: each read is short and the underlying buses
// serialize hardware access anyway, so concurrency would only add
// contention. A degraded port never affects the others; a failed read is
// reported as-is and retried naturally on the next cycle.
type Reader struct {
	thermal ThermalHumidityPort
	power   PowerMonitorPort
	ranging RangingPort
	clk     clock.Clock
}

func NewReader(thermal ThermalHumidityPort, power PowerMonitorPort, ranging RangingPort, clk clock.Clock) *Reader {
	if clk == nil {
		clk = clock.New()
	}

	return &Reader{
		thermal: thermal,
		power:   power,
		ranging: ranging,
		clk:     clk,
	}
}

// ReadAll reads every port and stamps the snapshot with the wall-clock
// time the aggregate read completed.
func (r *Reader) ReadAll() Snapshot {
	var s Snapshot
	s.ThermalHumidity, s.ThermalHumidityStatus = r.thermal.Read()
	s.Power, s.PowerStatus = r.power.Read()
	s.Ranging, s.RangingStatus = r.ranging.Read()
	s.TakenAt = r.clk.Now()

	return s
}
