package book_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/database/databasetest"
	"github.com/mkrupp/bookswap/internal/repo/book"
)

func backends() map[string]func(t *testing.T) book.Repository {
	return map[string]func(t *testing.T) book.Repository{
		"sqlite": func(t *testing.T) book.Repository {
			t.Helper()

			return book.NewSQLiteBookRepository(databasetest.SQLite(t))
		},
		"mongo": func(t *testing.T) book.Repository {
			t.Helper()

			return book.NewMongoBookRepository(databasetest.Mongo(t))
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func createBook(t *testing.T, repo book.Repository, title, author string, creatorID domain.ID) *domain.Book {
	t.Helper()

	b := &domain.Book{Title: title, Author: author, Page: 412, ReleaseYear: 1965, CreatorID: creatorID}
	require.NoError(t, repo.CreateBook(context.Background(), b))

	return b
}

func TestRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			repo := open(t)
			ctx := context.Background()
			creator := domain.NewID()

			created := createBook(t, repo, "Dune", "Frank Herbert", creator)
			require.NotEmpty(t, created.ID)

			got, ok, err := repo.GetBookByTitleAuthor(ctx, "Dune", "Frank Herbert")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, created, got)

			got, ok, err = repo.GetBookByID(ctx, created.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, creator, got.CreatorID)

			_, ok, err = repo.GetBookByTitleAuthor(ctx, "dune", "Frank Herbert")
			require.NoError(t, err)
			assert.False(t, ok, "lookup is exact")

			_, ok, err = repo.GetBookByID(ctx, domain.NewID())
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRepository_CreateBookDuplicate(t *testing.T) {
	t.Parallel()

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			repo := open(t)
			createBook(t, repo, "Dune", "Frank Herbert", domain.NewID())

			err := repo.CreateBook(context.Background(), &domain.Book{
				Title: "Dune", Author: "Frank Herbert", CreatorID: domain.NewID(),
			})
			require.ErrorIs(t, err, domain.ErrBookAlreadyExists)

			createBook(t, repo, "Dune", "Brian Herbert", domain.NewID())
		})
	}
}

func TestRepository_UpdateBookForCreator(t *testing.T) {
	t.Parallel()

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			repo := open(t)
			ctx := context.Background()
			creator := domain.NewID()

			dune := createBook(t, repo, "Dune", "Frank Herbert", creator)
			createBook(t, repo, "Emma", "Jane Austen", creator)

			updated, err := repo.UpdateBookForCreator(ctx, dune.ID, creator, domain.BookPatch{
				ImgURL: ptr("https://example.com/dune.jpg"),
				Page:   ptr(500),
			})
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/dune.jpg", updated.ImgURL)
			assert.Equal(t, 500, updated.Page)
			assert.Equal(t, "Dune", updated.Title)
			assert.Equal(t, 1965, updated.ReleaseYear)

			_, err = repo.UpdateBookForCreator(ctx, dune.ID, domain.NewID(), domain.BookPatch{Page: ptr(1)})
			require.ErrorIs(t, err, domain.ErrBookNotFoundOrUnauthorized)

			_, err = repo.UpdateBookForCreator(ctx, domain.NewID(), creator, domain.BookPatch{Page: ptr(1)})
			require.ErrorIs(t, err, domain.ErrBookNotFoundOrUnauthorized)

			_, err = repo.UpdateBookForCreator(ctx, dune.ID, creator, domain.BookPatch{
				Title:  ptr("Emma"),
				Author: ptr("Jane Austen"),
			})
			require.ErrorIs(t, err, domain.ErrBookAlreadyExists)

			unchanged, err := repo.UpdateBookForCreator(ctx, dune.ID, creator, domain.BookPatch{})
			require.NoError(t, err)
			assert.Equal(t, 500, unchanged.Page)

			got, _, err := repo.GetBookByID(ctx, dune.ID)
			require.NoError(t, err)
			assert.Equal(t, updated, got)
		})
	}
}

func TestRepository_SearchBook(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		titlePrefix  string
		authorPrefix string
		wantTitle    string
		wantErr      error
	}{
		{name: "title prefix ignoring case", titlePrefix: "a game", wantTitle: "A Game of Thrones"},
		{name: "full title", titlePrefix: "Dune", wantTitle: "Dune"},
		{name: "first inserted wins", titlePrefix: "D", wantTitle: "Dune"},
		{name: "author narrows", titlePrefix: "D", authorPrefix: "brian", wantTitle: "Dune Messiah"},
		{name: "substring is not a prefix", titlePrefix: "Game", wantErr: domain.ErrBookNotFound},
		{name: "wildcards are literal", titlePrefix: "%", wantErr: domain.ErrBookNotFound},
		{name: "regex metacharacters are literal", titlePrefix: ".*", wantErr: domain.ErrBookNotFound},
		{name: "underscore is literal", titlePrefix: "D_ne", wantErr: domain.ErrBookNotFound},
		{name: "unknown title", titlePrefix: "Zzz", wantErr: domain.ErrBookNotFound},
		{name: "non-ascii title lower case", titlePrefix: "élet", wantTitle: "Élet és irodalom"},
		{name: "non-ascii title upper case", titlePrefix: "ÉLET", wantTitle: "Élet és irodalom"},
		{name: "non-ascii author", titlePrefix: "élet", authorPrefix: "örkény", wantTitle: "Élet és irodalom"},
		{name: "non-ascii author mismatch", titlePrefix: "élet", authorPrefix: "ő", wantErr: domain.ErrBookNotFound},
	}

	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			repo := open(t)
			createBook(t, repo, "Dune", "Frank Herbert", domain.NewID())
			createBook(t, repo, "A Game of Thrones", "George R. R. Martin", domain.NewID())
			createBook(t, repo, "Dune Messiah", "Brian Herbert", domain.NewID())
			createBook(t, repo, "Élet és irodalom", "Örkény István", domain.NewID())

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := repo.SearchBook(context.Background(), tt.titlePrefix, tt.authorPrefix)
					if tt.wantErr != nil {
						require.ErrorIs(t, err, tt.wantErr)

						return
					}

					require.NoError(t, err)
					assert.Equal(t, tt.wantTitle, got.Title)
				})
			}
		})
	}
}
