package errs

import (
	"errors"
	"fmt"
)

var NotFound = errors.New("not found")

func NewNotFound(endpoint string) NotFoundError {
	return NotFoundError{
		endpoint: endpoint,
	}
}

type NotFoundError struct {
	endpoint string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no data at '%s'", e.endpoint)
}

func (e NotFoundError) Is(target error) bool { return target == NotFound }
