package domain

import "errors"

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing username.
	ErrUserAlreadyExists = errors.New("username is already in use")
	// ErrEmailAlreadyExists is returned when trying to create a user with an existing email.
	ErrEmailAlreadyExists = errors.New("email is already in use")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnknownUsername is returned on login when no user has the given username.
	ErrUnknownUsername = errors.New("incorrect username")
	// ErrInvalidCredentials is returned on login when the password does not match.
	ErrInvalidCredentials = errors.New("incorrect password")
)

// User represents a registered member of the marketplace.
type User struct {
	ID           ID     // Unique identifier
	Username     string // Login username, unique ignoring case
	FirstName    string // Display name shown to borrowers
	Email        string // Contact address, unique
	PasswordHash []byte // bcrypt hash
	CreatedAt    int64  // Unix timestamp of account creation
}
