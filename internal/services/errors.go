package services

import "errors"

var (
	// ErrEmailTaken signals a registration or profile update against an
	// email address another account already owns.
	ErrEmailTaken = errors.New("email already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so the response never reveals which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidPriority = errors.New("priority must be one of Low, Medium, High")
	ErrInvalidStatus   = errors.New("status must be one of To-Do, In Progress, Completed")
)

// IsValidationError reports whether err belongs to the 400 class of failures.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrInvalidPriority) ||
		errors.Is(err, ErrInvalidStatus)
}
