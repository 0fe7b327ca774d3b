package domain

import "errors"

// Sentinel errors. Match with errors.Is, never by string.
var (
	// ErrInvalidConfig is returned when a configuration value is present but unusable.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnhealthy is returned by the health probe when the service does not
	// answer 200/ok.
	ErrUnhealthy = errors.New("service unhealthy")
)
