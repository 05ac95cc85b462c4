package server

import "codeberg.org/varken/sensorbridge/internal/errors"

const (
	ErrBindFailed     = errors.ErrorCode("server_bind_failed")
	ErrShutdownFailed = errors.ErrorCode("server_shutdown_failed")
)
