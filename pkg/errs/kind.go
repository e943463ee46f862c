package errs

import "errors"

// Kind labels err with its taxonomy bucket for logs and panel snapshots.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, Transport):
		return "transport"
	case errors.Is(err, Unauthorized):
		return "unauthorized"
	case errors.Is(err, RateLimited):
		return "rate_limited"
	case errors.Is(err, NotFound):
		return "not_found"
	case errors.Is(err, Decode):
		return "decode"
	case errors.Is(err, Server):
		return "server"
	default:
		return "internal"
	}
}
