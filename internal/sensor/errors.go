package sensor

import "codeberg.org/varken/sensorbridge/internal/errors"

const (
	ErrDeviceInit = errors.ErrorCode("sensor_device_init_failed")
	ErrDeviceRead = errors.ErrorCode("sensor_device_read_failed")
)
