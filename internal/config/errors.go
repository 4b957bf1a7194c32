package config

import "errors"

// Sentinel errors for configuration failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidConfig indicates an option value is out of range, a path
	// does not exist, or the config file cannot be parsed.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingRequired indicates a required option was not provided.
	ErrMissingRequired = errors.New("config: missing required field")
)
