package errs

import (
	"errors"
	"fmt"
)

var Server = errors.New("server error")
var Unauthorized = errors.New("unauthorized")
var RateLimited = errors.New("rate limited")

type ServerError struct {
	StatusCode int
	Endpoint   string
}

func NewServer(statusCode int, endpoint string) ServerError {
	return ServerError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
	}
}

func (e ServerError) Error() string {
	return fmt.Sprintf("server error %d for '%s'", e.StatusCode, e.Endpoint)
}

func (e ServerError) Is(target error) bool { return target == Server }

type UnauthorizedError struct {
	StatusCode int
	Endpoint   string
}

func NewUnauthorized(statusCode int, endpoint string) UnauthorizedError {
	return UnauthorizedError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
	}
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("%s (%d) for '%s'", Unauthorized.Error(), e.StatusCode, e.Endpoint)
}

func (e UnauthorizedError) Is(target error) bool { return target == Unauthorized }

type RateLimitedError struct {
	endpoint   string
	retryAfter string
}

func NewRateLimited(endpoint, retryAfter string) RateLimitedError {
	return RateLimitedError{
		endpoint:   endpoint,
		retryAfter: retryAfter,
	}
}

func (e RateLimitedError) Error() string {
	if e.retryAfter == "" {
		return fmt.Sprintf("%s on '%s'", RateLimited.Error(), e.endpoint)
	}
	return fmt.Sprintf("%s on '%s', retry after %s", RateLimited.Error(), e.endpoint, e.retryAfter)
}

func (e RateLimitedError) Is(target error) bool { return target == RateLimited }
