package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("%w: wrong email or password", ErrUnauthorized)
	ErrTokenExpired       = fmt.Errorf("session token expired")
	ErrNotAuthenticated   = fmt.Errorf("not logged in")

	// Domain errors
	ErrValidation    = fmt.Errorf("validation failed")
	ErrForbidden     = fmt.Errorf("forbidden")
	ErrNotFound      = fmt.Errorf("not found")
	ErrDuplicateName = fmt.Errorf("a playlist with that name already exists")
	ErrDuplicateSong = fmt.Errorf("a song with that title, artist and year already exists")

	// Edit session errors
	ErrInvalidCommand = fmt.Errorf("invalid command")
	ErrNoOp           = fmt.Errorf("nothing to do")
	ErrNoSession      = fmt.Errorf("no playlist open")

	// API and transport errors
	ErrAPIRequest = fmt.Errorf("API request failed")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
