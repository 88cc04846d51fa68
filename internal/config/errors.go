package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. ErrInvalidConfig matches every *KeyError.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// KeyError names the configuration key that failed validation.
type KeyError struct {
	Key    string
	Reason string
	Err    error
}

func (e *KeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s %s: %v", ErrInvalidConfig, e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Key, e.Reason)
}

func (e *KeyError) Is(target error) bool { return target == ErrInvalidConfig }
func (e *KeyError) Unwrap() error        { return e.Err }
