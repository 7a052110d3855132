package user

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

const userColumns = "id, username, first_name, email, password_hash, created_at"

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
type SQLiteUserRepository struct {
	db  *database.SQLite
	log logging.Logger
}

var _ Repository = (*SQLiteUserRepository)(nil)

// NewSQLiteUserRepository creates a SQLiteUserRepository on an open database handle.
func NewSQLiteUserRepository(db *database.SQLite) *SQLiteUserRepository {
	return &SQLiteUserRepository{
		db:  db,
		log: logging.GetLogger("repo.user.sqlite_user_repository"),
	}
}

// CreateUser implements Repository.CreateUser using SQLite.
func (r *SQLiteUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	defer r.db.LockWrites()()

	id := domain.NewID()
	createdAt := time.Now().Unix()

	_, err := r.db.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		id,
		user.Username,
		user.FirstName,
		user.Email,
		user.PasswordHash,
		createdAt,
	)
	if err != nil {
		switch {
		case database.IsSQLiteUniqueViolation(err, "users.username"):
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		case database.IsSQLiteUniqueViolation(err, "users.email"):
			err = errors.Join(domain.ErrEmailAlreadyExists, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = createdAt

	r.log.DebugContext(ctx, "user inserted", logging.Group("user", "id", id))

	return nil
}

// GetUserByUsername implements Repository.GetUserByUsername using SQLite.
// The column collation is overridden so that login matches the username exactly.
func (r *SQLiteUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.getUser(ctx, "username = ? COLLATE BINARY", username)
}

// GetUserByEmail implements Repository.GetUserByEmail using SQLite.
func (r *SQLiteUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return r.getUser(ctx, "email = ?", email)
}

// GetUserByID implements Repository.GetUserByID using SQLite.
func (r *SQLiteUserRepository) GetUserByID(ctx context.Context, id domain.ID) (*domain.User, bool, error) {
	return r.getUser(ctx, "id = ?", id)
}

func (r *SQLiteUserRepository) getUser(ctx context.Context, where string, arg any) (*domain.User, bool, error) {
	var user domain.User

	err := r.db.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Username, &user.FirstName, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	return &user, true, nil
}
