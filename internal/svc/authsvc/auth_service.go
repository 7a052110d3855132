package authsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/logging"
	"github.com/mkrupp/bookswap/internal/infra/validation"
	"github.com/mkrupp/bookswap/internal/repo/user"
)

const msgPasswordTooLong = "Password must be at most 72 bytes long."

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// Secret is the HMAC key tokens are signed with; SecretFile is used if empty
	Secret string `env:"SECRET" default:""`

	// SecretFile is the path to the hex encoded signing key, created if missing
	SecretFile string `env:"SECRET_FILE" default:"var/storage/jwt.secret"`

	// TokenDuration is the validity duration of auth tokens in seconds
	TokenDuration int64 `env:"TOKEN_DURATION" default:"28800"` // 8h

	// BcryptCost is the work factor of password hashes
	BcryptCost int `env:"BCRYPT_COST" default:"10"`
}

// AuthService provides authentication and user management functionality.
// It handles user registration, login, and token issuing and verification.
type AuthService struct {
	Config     AuthConfig
	UserRepo   user.Repository
	Log        logging.Logger
	SigningKey []byte
	Validator  *validation.Validator
}

// NewAuthService creates a new AuthService on the given user repository.
// Returns an error if the signing key cannot be loaded.
func NewAuthService(userRepo user.Repository, cfg AuthConfig) (*AuthService, error) {
	signingKey, err := GetSigningKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("get signing key: %w", err)
	}

	return &AuthService{
		Config:     cfg,
		UserRepo:   userRepo,
		Log:        logging.GetLogger("svc.authsvc.auth_service"),
		SigningKey: signingKey,
		Validator:  validation.New(),
	}, nil
}

// Join registers a new user and returns a token for it.
// Returns a *domain.ValidationError for malformed input, and
// ErrUserAlreadyExists or ErrEmailAlreadyExists if the username or email is taken.
func (s *AuthService) Join(ctx context.Context, req JoinRequest) (_ domain.AuthTokenResponse, err error) {
	log := s.Log.With(logging.Group("user", "username", req.Username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "join failed", "error", err)
		} else {
			log.DebugContext(ctx, "user joined")
		}
	}()

	if err := s.Validator.Struct(req); err != nil {
		return domain.AuthTokenResponse{}, err //nolint:wrapcheck
	}

	if _, ok, err := s.UserRepo.GetUserByUsername(ctx, req.Username); err != nil {
		return domain.AuthTokenResponse{}, fmt.Errorf("get user by username: %w", err)
	} else if ok {
		return domain.AuthTokenResponse{}, domain.ErrUserAlreadyExists
	}

	if _, ok, err := s.UserRepo.GetUserByEmail(ctx, req.Email); err != nil {
		return domain.AuthTokenResponse{}, fmt.Errorf("get user by email: %w", err)
	} else if ok {
		return domain.AuthTokenResponse{}, domain.ErrEmailAlreadyExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.Config.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		// max counts characters, bcrypt counts bytes
		return domain.AuthTokenResponse{}, domain.NewValidationError(msgPasswordTooLong)
	} else if err != nil {
		return domain.AuthTokenResponse{}, fmt.Errorf("hash password: %w", err)
	}

	newUser := &domain.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}

	// the unique indexes catch registrations racing past the checks above
	if err := s.UserRepo.CreateUser(ctx, newUser); err != nil {
		return domain.AuthTokenResponse{}, fmt.Errorf("create user: %w", err)
	}

	log = log.With(logging.Group("user", "id", newUser.ID))

	token, err := s.IssueToken(ctx, newUser.ID)
	if err != nil {
		return domain.AuthTokenResponse{}, err
	}

	return domain.AuthTokenResponse{Username: newUser.Username, Token: token}, nil
}

// Login authenticates a user and returns a signed token.
// Returns ErrUnknownUsername if no user has exactly this username and
// ErrInvalidCredentials if the password does not match.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (_ domain.AuthTokenResponse, err error) {
	log := s.Log.With(logging.Group("user", "username", req.Username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	if err := s.Validator.Struct(req); err != nil {
		return domain.AuthTokenResponse{}, err //nolint:wrapcheck
	}

	// Authenticate user
	found, ok, err := s.UserRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return domain.AuthTokenResponse{}, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return domain.AuthTokenResponse{}, domain.ErrUnknownUsername
	}

	if err := bcrypt.CompareHashAndPassword(found.PasswordHash, []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.AuthTokenResponse{}, domain.ErrInvalidCredentials
		}

		return domain.AuthTokenResponse{}, fmt.Errorf("compare password: %w", err)
	}

	token, err := s.IssueToken(ctx, found.ID)
	if err != nil {
		return domain.AuthTokenResponse{}, err
	}

	return domain.AuthTokenResponse{Username: found.Username, Token: token}, nil
}

// IssueToken creates a signed token for userID valid for the configured duration.
func (s *AuthService) IssueToken(ctx context.Context, userID domain.ID) (string, error) {
	now := time.Now()
	expiry := now.Add(time.Duration(s.Config.TokenDuration * int64(time.Second)))
	token := domain.AuthToken{
		UserID:    userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiry.Unix(),
	}

	signed, err := SignToken(token, s.SigningKey)
	if err != nil {
		return "", err
	}

	s.Log.DebugContext(ctx, "token issued", logging.Group("token",
		"sub", userID,
		"exp", expiry.UTC().Format(time.RFC3339),
		"iat", now.UTC().Format(time.RFC3339),
	))

	return signed, nil
}

// VerifyToken verifies a token's signature and expiration and that its user
// still exists. Returns the decoded token if valid.
// Returns ErrExpiredAuthToken or ErrInvalidAuthToken if validation fails.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (token domain.AuthToken, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "verify token failed", "error", err)
		} else {
			log.DebugContext(ctx, "token verified")
		}
	}()

	token, err = ParseToken(tokenString, s.SigningKey)
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("parse token: %w", err)
	}

	log = log.With(logging.Group("token",
		"sub", token.UserID,
		"exp", time.Unix(token.ExpiresAt, 0).UTC().Format(time.RFC3339),
		"iat", time.Unix(token.IssuedAt, 0).UTC().Format(time.RFC3339),
	))

	if _, ok, err := s.UserRepo.GetUserByID(ctx, token.UserID); err != nil {
		return domain.AuthToken{}, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return domain.AuthToken{}, errors.Join(domain.ErrInvalidAuthToken, domain.ErrUserNotFound)
	}

	return token, nil
}
