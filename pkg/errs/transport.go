package errs

import (
	"errors"
	"fmt"
)

var Transport = errors.New("transport failure")

type TransportError struct {
	Endpoint string
	Cause    error
}

func NewTransport(endpoint string, cause error) TransportError {
	return TransportError{
		Endpoint: endpoint,
		Cause:    cause,
	}
}

func (e TransportError) Error() string {
	return fmt.Sprintf("transport failure for '%s': %v", e.Endpoint, e.Cause)
}

func (e TransportError) Is(target error) bool { return target == Transport }

func (e TransportError) Unwrap() error { return e.Cause }
