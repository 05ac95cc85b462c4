package hwio

import "codeberg.org/varken/sensorbridge/internal/errors"

const (
	ErrHostInit  = errors.ErrorCode("hwio_host_init_failed")
	ErrPinClaim  = errors.ErrorCode("hwio_pin_claim_failed")
	ErrPinConfig = errors.ErrorCode("hwio_pin_config_failed")
	ErrBusOpen   = errors.ErrorCode("hwio_i2c_open_failed")
)
