package domain

import "errors"

var (
	// ErrBookNotFound is returned when no book matches a lookup or search.
	ErrBookNotFound = errors.New("book can not be found")
	// ErrBookAlreadyExists is returned when a book with the same title and author is already registered.
	ErrBookAlreadyExists = errors.New("book already exists")
	// ErrBookNotFoundOrUnauthorized is returned by creator-scoped writes that match nothing.
	// It does not tell the caller which of the two conditions failed.
	ErrBookNotFoundOrUnauthorized = errors.New("request is not authorized or book can not be found")
)

// Accepted range for Book.ReleaseYear.
const (
	MinReleaseYear = 1700
	MaxReleaseYear = 2023
)

// Book is the canonical record of a title, shared by every lender that offers it.
// At most one Book exists per (Title, Author).
type Book struct {
	ID          ID
	ImgURL      string // Cover image URL, optional
	Title       string
	Author      string
	Page        int // Page count, 0 if unknown
	ReleaseYear int // 0 if unknown
	CreatorID   ID  // User who first registered the book
	CreatedAt   int64
}

// BookPatch holds the book fields of a partial update. Nil fields are left untouched.
type BookPatch struct {
	ImgURL      *string
	Title       *string
	Author      *string
	Page        *int
	ReleaseYear *int
}

// IsEmpty reports whether the patch changes nothing.
func (p BookPatch) IsEmpty() bool {
	return p.ImgURL == nil && p.Title == nil && p.Author == nil && p.Page == nil && p.ReleaseYear == nil
}

// Apply returns a copy of the book with the patch applied.
func (b Book) Apply(p BookPatch) Book {
	if p.ImgURL != nil {
		b.ImgURL = *p.ImgURL
	}

	if p.Title != nil {
		b.Title = *p.Title
	}

	if p.Author != nil {
		b.Author = *p.Author
	}

	if p.Page != nil {
		b.Page = *p.Page
	}

	if p.ReleaseYear != nil {
		b.ReleaseYear = *p.ReleaseYear
	}

	return b
}
