package sensor

import "time"

// TimestampLayout is the presentation form of the last-update timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Derive computes the presentation values for a snapshot. It is pure: the
// same inputs always yield the same DerivedSnapshot. Derived values are
// computed even for non-OK readings (over the zero payload); consumers
// still gate on the status.
func Derive(s Snapshot, startedAt, now time.Time) DerivedSnapshot {
	return DerivedSnapshot{
		Snapshot:           s,
		TemperatureF:       s.ThermalHumidity.TemperatureC*9.0/5.0 + 32.0,
		DistanceIn:         s.Ranging.DistanceCm / 2.54,
		UptimeSeconds:      now.Sub(startedAt).Seconds(),
		FormattedTimestamp: s.TakenAt.Local().Format(TimestampLayout),
	}
}
