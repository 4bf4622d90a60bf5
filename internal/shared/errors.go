package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Local validation errors, rejected before any network call
	ErrValidation      = fmt.Errorf("validation failed")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Authentication errors. ErrAuthRejected means the server explicitly
	// refused the credential; it is the only error that may clear a session.
	ErrAuthRejected     = fmt.Errorf("authentication rejected")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and download errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrConnectivity       = fmt.Errorf("network unreachable")
	ErrServer             = fmt.Errorf("server error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrItemNotFound       = fmt.Errorf("item not found")
	ErrNoFormats          = fmt.Errorf("no compatible formats found")
)
