package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and transport errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrTransport       = fmt.Errorf("transport failure")
	ErrDecode          = fmt.Errorf("failed to decode response")
	ErrPaginationLimit = fmt.Errorf("pagination did not terminate")
	ErrMissingDeviceID = fmt.Errorf("missing device id")

	// Signing errors
	ErrSignatureKey = fmt.Errorf("malformed signature key")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ProtocolError reports a response with an error status that was not recovered by the
// single refresh-and-retry. It matches [ErrAPIRequest] with errors.Is.
type ProtocolError struct {
	StatusCode int
	Body       []byte
}

func (e *ProtocolError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%v: status %d", ErrAPIRequest, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d, body: %s", ErrAPIRequest, e.StatusCode, string(e.Body))
}

func (e *ProtocolError) Unwrap() error {
	return ErrAPIRequest
}
