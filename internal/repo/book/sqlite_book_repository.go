package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/database"
	"github.com/mkrupp/bookswap/internal/infra/logging"
)

const bookColumns = "id, img_url, title, author, page, release_year, creator_id, created_at"

// SQLiteBookRepository implements Repository using SQLite as the storage backend.
type SQLiteBookRepository struct {
	db  *database.SQLite
	log logging.Logger
}

var _ Repository = (*SQLiteBookRepository)(nil)

// NewSQLiteBookRepository creates a SQLiteBookRepository on an open database handle.
func NewSQLiteBookRepository(db *database.SQLite) *SQLiteBookRepository {
	return &SQLiteBookRepository{
		db:  db,
		log: logging.GetLogger("repo.book.sqlite_book_repository"),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*domain.Book, error) {
	var book domain.Book

	if err := row.Scan(
		&book.ID,
		&book.ImgURL,
		&book.Title,
		&book.Author,
		&book.Page,
		&book.ReleaseYear,
		&book.CreatorID,
		&book.CreatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &book, nil
}

// GetBookByTitleAuthor implements Repository.GetBookByTitleAuthor using SQLite.
func (r *SQLiteBookRepository) GetBookByTitleAuthor(
	ctx context.Context,
	title, author string,
) (*domain.Book, bool, error) {
	return r.getBook(ctx, "title = ? AND author = ?", title, author)
}

// GetBookByID implements Repository.GetBookByID using SQLite.
func (r *SQLiteBookRepository) GetBookByID(ctx context.Context, id domain.ID) (*domain.Book, bool, error) {
	return r.getBook(ctx, "id = ?", id)
}

func (r *SQLiteBookRepository) getBook(ctx context.Context, where string, args ...any) (*domain.Book, bool, error) {
	book, err := scanBook(r.db.DB.QueryRowContext(ctx, "SELECT "+bookColumns+" FROM books WHERE "+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query book: %w", err)
	}

	return book, true, nil
}

// CreateBook implements Repository.CreateBook using SQLite.
func (r *SQLiteBookRepository) CreateBook(ctx context.Context, book *domain.Book) error {
	defer r.db.LockWrites()()

	id := domain.NewID()
	createdAt := time.Now().Unix()

	_, err := r.db.DB.ExecContext(ctx,
		"INSERT INTO books ("+bookColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id,
		book.ImgURL,
		book.Title,
		book.Author,
		book.Page,
		book.ReleaseYear,
		book.CreatorID,
		createdAt,
	)
	if err != nil {
		if database.IsSQLiteUniqueViolation(err, "books.title") {
			err = errors.Join(domain.ErrBookAlreadyExists, err)
		}

		return fmt.Errorf("insert book: %w", err)
	}

	book.ID = id
	book.CreatedAt = createdAt

	r.log.DebugContext(ctx, "book inserted", logging.Group("book", "id", id))

	return nil
}

// UpdateBookForCreator implements Repository.UpdateBookForCreator using SQLite.
// Nil patch fields bind as NULL and COALESCE keeps the stored value.
func (r *SQLiteBookRepository) UpdateBookForCreator(
	ctx context.Context,
	id, creatorID domain.ID,
	patch domain.BookPatch,
) (*domain.Book, error) {
	defer r.db.LockWrites()()

	book, err := scanBook(r.db.DB.QueryRowContext(ctx, `
		UPDATE books SET
			img_url      = COALESCE(?, img_url),
			title        = COALESCE(?, title),
			author       = COALESCE(?, author),
			page         = COALESCE(?, page),
			release_year = COALESCE(?, release_year)
		WHERE id = ? AND creator_id = ?
		RETURNING `+bookColumns,
		patch.ImgURL,
		patch.Title,
		patch.Author,
		patch.Page,
		patch.ReleaseYear,
		id,
		creatorID,
	))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = errors.Join(domain.ErrBookNotFoundOrUnauthorized, err)
		case database.IsSQLiteUniqueViolation(err, "books.title"):
			err = errors.Join(domain.ErrBookAlreadyExists, err)
		}

		return nil, fmt.Errorf("update book: %w", err)
	}

	return book, nil
}

// SearchBook implements Repository.SearchBook using SQLite.
func (r *SQLiteBookRepository) SearchBook(ctx context.Context, titlePrefix, authorPrefix string) (*domain.Book, error) {
	book, err := scanBook(r.db.DB.QueryRowContext(ctx,
		"SELECT "+bookColumns+` FROM books
		WHERE `+database.FoldFunc+`(title) LIKE ? ESCAPE '\'
		AND `+database.FoldFunc+`(author) LIKE ? ESCAPE '\'
		ORDER BY id
		LIMIT 1`,
		database.FoldPrefix(titlePrefix),
		database.FoldPrefix(authorPrefix),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrBookNotFound, err)
		}

		return nil, fmt.Errorf("search book: %w", err)
	}

	return book, nil
}
