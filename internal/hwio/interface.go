package hwio

// Line is a single digital I/O line. Sensor protocols poll and drive lines
// through this capability without knowing how the pin was claimed.
type Line interface {
	// Set drives the line high or low
	Set(high bool) error

	// Read samples the current level of the line
	Read() (bool, error)
}
