package sensor

// Status is the per-reading health indicator published alongside every
// value. A reading with a non-OK status carries a zero-valued payload;
// consumers must check the status before trusting the payload.
type Status int

const (
	// StatusOK means the payload holds a fresh, validated reading
	StatusOK Status = iota

	// StatusReadError is a transient protocol or timing miss, expected to
	// self-resolve on the next cycle
	StatusReadError

	// StatusUnavailable means the sensor failed hardware init and stays
	// downgraded for the process lifetime
	StatusUnavailable

	// StatusOutOfRange means the value fell outside the sensor's physical
	// envelope
	StatusOutOfRange
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusReadError:
		return "read_error"
	case StatusUnavailable:
		return "unavailable"
	case StatusOutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}
