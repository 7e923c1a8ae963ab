package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Catalog and transport errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTransport          = fmt.Errorf("transport failure")
	ErrRunNotFound        = fmt.Errorf("run not found")
	ErrChoiceNotFound     = fmt.Errorf("remembered choice not found")

	// Stream and reconciliation errors
	ErrMalformedEvent  = fmt.Errorf("malformed event")
	ErrIncompleteRun   = fmt.Errorf("incomplete run")
	ErrGateCanceled    = fmt.Errorf("disambiguation canceled")
	ErrAlreadyResolved = fmt.Errorf("prompt already resolved")
	ErrStalePrompt     = fmt.Errorf("prompt belongs to a canceled run")

	// Input validation errors
	ErrEmptyInput      = fmt.Errorf("no queries to search")
	ErrValidation      = fmt.Errorf("validation failed")
	ErrSubmit          = fmt.Errorf("playlist submission failed")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
