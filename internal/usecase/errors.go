package usecase

import "errors"

// Failure kinds. Transports map these to status codes.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Rejected league queries and ingestion requests.
var (
	ErrLeaguePrefixRequired = newRequestError(ErrInvalidInput, "leaguePrefixRequired", "league prefix is required")
	ErrInvalidLimit         = newRequestError(ErrInvalidInput, "invalidLimit", "limit must be a non-negative integer")
	ErrUnknownTeam          = newRequestError(ErrNotFound, "unknownTeam", "team has no stored matches")
	ErrUnreadableManifest   = newRequestError(ErrInvalidInput, "unreadableManifest", "manifest cannot be read")
	ErrNoSources            = newRequestError(ErrInvalidInput, "noSources", "at least one source is required")
)

// RequestError is one named way a caller's request can be wrong. Reason is a
// stable camelCase code API clients can switch on; Kind decides the status.
type RequestError struct {
	Kind   error
	Reason string
	msg    string
}

func newRequestError(kind error, reason, msg string) *RequestError {
	return &RequestError{Kind: kind, Reason: reason, msg: msg}
}

func (e *RequestError) Error() string { return e.msg }

func (e *RequestError) Unwrap() error { return e.Kind }

// ReasonOf returns the reason code of the first RequestError in err's chain.
func ReasonOf(err error) (string, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Reason, true
	}
	return "", false
}
