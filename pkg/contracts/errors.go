package contracts

import "github.com/cockroachdb/errors"

// Error kinds shared by adapters and loaders. Implementations mark their
// errors with one of these so callers can match with errors.Is and choose to
// log and continue.
var (
	// ErrNotConfigured means a credential or setting is missing and the
	// external call was not attempted.
	ErrNotConfigured = errors.New("not configured")

	// ErrTransport covers dial failures, timeouts and non-2xx responses.
	ErrTransport = errors.New("transport failure")

	// ErrMalformed means the payload or file could not be decoded.
	ErrMalformed = errors.New("malformed data")
)

// Kind returns a short label for the error kind, used in logs and reports
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}
