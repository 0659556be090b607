package engine

import "fmt"

// ConfigError reports invalid engine configuration at construction time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// SerializationError reports content that could not be canonicalized.
// The operation that triggered it is a no-op with respect to engine state.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize content: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
