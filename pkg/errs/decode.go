package errs

import (
	"errors"
	"fmt"
)

var Decode = errors.New("malformed response")

type DecodeError struct {
	Endpoint string
	Cause    error
}

func NewDecode(endpoint string, cause error) DecodeError {
	return DecodeError{
		Endpoint: endpoint,
		Cause:    cause,
	}
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("malformed response from '%s': %v", e.Endpoint, e.Cause)
}

func (e DecodeError) Is(target error) bool { return target == Decode }

func (e DecodeError) Unwrap() error { return e.Cause }
