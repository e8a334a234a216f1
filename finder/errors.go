package finder

import (
	"context"
	"errors"
	"fmt"

	"restaurantfinder/backend"
)

var (
	// ErrSuperseded means a newer search or location request replaced this one
	// before it finished; its result was discarded.
	ErrSuperseded = errors.New("finder: superseded by a newer request")

	// ErrLocationRequired is returned by operations that need the user's
	// position before it is known.
	ErrLocationRequired = errors.New("finder: location required")
)

// ValidationError is bad user input caught before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// LocationError wraps a failed geolocation attempt.
type LocationError struct {
	Err error
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("location unavailable: %v", e.Err)
}

func (e *LocationError) Unwrap() error { return e.Err }

// Message maps an error to the inline text shown to the user.
func Message(err error, postalCode string) string {
	var (
		ve  *ValidationError
		re  *backend.RequestError
		le  *LocationError
		msg string
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		msg = ve.Message
	case errors.Is(err, backend.ErrNotFound):
		msg = fmt.Sprintf("No restaurants found for postal code %s", postalCode)
	case errors.As(err, &re):
		msg = re.Message
	case errors.As(err, &le):
		msg = "Could not determine your location. Distance sorting is unavailable until you try again."
	case errors.Is(err, ErrLocationRequired):
		msg = "Share your location to use this sort mode"
	case errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled):
		msg = ""
	default:
		msg = "Something went wrong, please try again"
	}
	return msg
}
