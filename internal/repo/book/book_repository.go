package book

import (
	"context"

	"github.com/mkrupp/bookswap/internal/domain"
)

// Repository defines the interface for book data persistence.
type Repository interface {
	// GetBookByTitleAuthor retrieves the book with exactly this title and author.
	// Returns the book and true if found, or nil and false if not found.
	GetBookByTitleAuthor(ctx context.Context, title, author string) (*domain.Book, bool, error)

	// GetBookByID retrieves a book by identifier.
	GetBookByID(ctx context.Context, id domain.ID) (*domain.Book, bool, error)

	// CreateBook inserts a book, assigning its ID and CreatedAt.
	// Returns ErrBookAlreadyExists if the (title, author) pair is taken.
	CreateBook(ctx context.Context, book *domain.Book) error

	// UpdateBookForCreator applies patch to the book with the given id if and only
	// if it was created by creatorID, as a single conditional write.
	// Returns ErrBookNotFoundOrUnauthorized if nothing matched, and
	// ErrBookAlreadyExists if the new title and author clash with another book.
	UpdateBookForCreator(ctx context.Context, id, creatorID domain.ID, patch domain.BookPatch) (*domain.Book, error)

	// SearchBook returns the oldest book whose title starts with titlePrefix and
	// whose author starts with authorPrefix, ignoring case.
	// Returns ErrBookNotFound if there is none.
	SearchBook(ctx context.Context, titlePrefix, authorPrefix string) (*domain.Book, error)
}
