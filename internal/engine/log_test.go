package engine

import (
	"testing"

	"codeberg.org/varken/sensorbridge/internal/sensor"
	"github.com/stretchr/testify/assert"
)

// A partially degraded cycle still carries measured values, so it must
// take the info path; only a cycle with nothing measured drops to debug.
func TestAllSensorsFailed(t *testing.T) {
	degraded := sensor.DerivedSnapshot{
		Snapshot: sensor.Snapshot{
			ThermalHumidityStatus: sensor.StatusOK,
			PowerStatus:           sensor.StatusReadError,
			RangingStatus:         sensor.StatusReadError,
		},
	}
	assert.False(t, allSensorsFailed(degraded))

	allFailed := sensor.DerivedSnapshot{
		Snapshot: sensor.Snapshot{
			ThermalHumidityStatus: sensor.StatusReadError,
			PowerStatus:           sensor.StatusUnavailable,
			RangingStatus:         sensor.StatusOutOfRange,
		},
	}
	assert.True(t, allSensorsFailed(allFailed))
}
