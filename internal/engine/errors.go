package engine

import "codeberg.org/varken/sensorbridge/internal/errors"

const (
	ErrInvalidInterval = errors.ErrorCode("engine_invalid_interval")
	ErrNotProvisioned  = errors.ErrorCode("engine_slots_not_provisioned")
)
