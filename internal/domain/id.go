package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when an identifier is not a well-formed UUID.
var ErrInvalidID = errors.New("invalid id")

// ID identifies users, books and listings.
// IDs are UUIDv7 strings assigned by the repositories on insert, so ordering
// by ID is ordering by insertion time.
type ID string

// NewID generates a new time-ordered identifier.
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		panic("failed to generate UUIDv7: " + err.Error())
	}

	return ID(id.String())
}

// ParseID validates and normalizes the string form of an identifier.
func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", errors.Join(ErrInvalidID, fmt.Errorf("parse %q: %w", s, err))
	}

	return ID(id.String()), nil
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}
