package domain

import "errors"

var (
	// ErrAlreadyListed is returned when a lender lists the same book twice.
	ErrAlreadyListed = errors.New("this book was already listed")
	// ErrListingsNotFound is returned when a search finds a book but no matching listings.
	ErrListingsNotFound = errors.New("listing can not be found for the book")
	// ErrListingNotFoundOrUnauthorized is returned by lender-scoped writes that match nothing.
	ErrListingNotFoundOrUnauthorized = errors.New("request is not authorized or listing can not be found")
	// ErrDanglingListing is returned when a stored listing refers to a book that does not exist.
	ErrDanglingListing = errors.New("listing refers to a missing book")
)

// Availability tells whether a listed copy can currently be borrowed.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBorrowed  Availability = "borrowed"
)

// Valid reports whether a is a known availability.
func (a Availability) Valid() bool {
	return a == AvailabilityAvailable || a == AvailabilityBorrowed
}

// Condition describes the physical state of a listed copy.
type Condition string

const (
	ConditionNew        Condition = "new"
	ConditionGood       Condition = "good"
	ConditionAcceptable Condition = "acceptable"
	ConditionUsed       Condition = "used"
)

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionAcceptable, ConditionUsed:
		return true
	default:
		return false
	}
}

// Listing is a lender's offer of one copy of a Book.
// At most one Listing exists per (LenderID, BookID).
type Listing struct {
	ID           ID
	BookID       ID
	LenderID     ID
	Availability Availability
	Condition    Condition
	Location     string
	CreatedAt    int64
}

// ListingPatch holds the listing fields of a partial update. Nil fields are left untouched.
type ListingPatch struct {
	Availability *Availability
	Condition    *Condition
	Location     *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ListingPatch) IsEmpty() bool {
	return p.Availability == nil && p.Condition == nil && p.Location == nil
}

// Apply returns a copy of the listing with the patch applied.
func (l Listing) Apply(p ListingPatch) Listing {
	if p.Availability != nil {
		l.Availability = *p.Availability
	}

	if p.Condition != nil {
		l.Condition = *p.Condition
	}

	if p.Location != nil {
		l.Location = *p.Location
	}

	return l
}

// ListingFilter narrows the listings of a book. Zero values match everything.
type ListingFilter struct {
	LocationPrefix string    // Case-insensitive prefix of Listing.Location
	Condition      Condition // Exact match
}
