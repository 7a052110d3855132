package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/bookswap/internal/domain"
	"github.com/mkrupp/bookswap/internal/infra/logging"
	http_ "github.com/mkrupp/bookswap/internal/infra/transport/http"
)

// Messages returned to clients.
const (
	msgUsernameInUse     = "Username is already in use!"
	msgEmailInUse        = "Email is already in use!"
	msgIncorrectUsername = "Incorrect username!"
	msgIncorrectPassword = "Incorrect password!"
	msgInvalidBody       = "Invalid request body."
)

// HTTPTransport handles HTTP requests for the authentication service.
// It provides endpoints for joining and logging in.
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance.
// It requires an AuthService for handling authentication operations.
func NewHTTPTransport(authSvc *AuthService) *HTTPTransport {
	return &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
	}
}

// RegisterRoutes implements http_.HTTPTransport and sets up routes for the auth service endpoints:
// - POST /api/user/join: Register a new user and get an auth token
// - POST /api/user/login: Login and get an auth token.
func (ht *HTTPTransport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/user/join", ht.HandleJoin)
	mux.HandleFunc("POST /api/user/login", ht.HandleLogin)
}

// HandleJoin processes user registration requests.
// Expects a JSON body with username, first_name, email and password.
func (ht *HTTPTransport) HandleJoin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleJoin(w, r)
}

func (ht *HTTPTransport) handleJoin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "user join failed", "error", err)
		} else {
			log.DebugContext(ctx, "user joined")
		}
	}(r.Context())

	var req JoinRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return writeError(w, err)
	}

	resp, err := ht.authSvc.Join(r.Context(), req)
	if err != nil {
		return writeError(w, err)
	}

	return http_.WriteJSON(w, http.StatusOK, resp)
}

// HandleLogin processes user login requests.
// Expects a JSON body with username and password.
// Returns an auth token on successful login.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	var req LoginRequest
	if err := http_.DecodeJSON(r, &req); err != nil {
		return writeError(w, err)
	}

	resp, err := ht.authSvc.Login(r.Context(), req)
	if err != nil {
		return writeError(w, err)
	}

	return http_.WriteJSON(w, http.StatusOK, resp)
}

// writeError answers with the status and message err maps to and returns err.
func writeError(w http.ResponseWriter, err error) error {
	var (
		validationErr *domain.ValidationError
		writeErr      error
	)

	switch {
	case errors.As(err, &validationErr):
		writeErr = http_.WriteErrors(w, http.StatusUnprocessableEntity, validationErr.Messages)
	case errors.Is(err, http_.ErrInvalidBody):
		writeErr = http_.WriteError(w, http.StatusBadRequest, msgInvalidBody)
	case errors.Is(err, domain.ErrUserAlreadyExists):
		writeErr = http_.WriteError(w, http.StatusBadRequest, msgUsernameInUse)
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		writeErr = http_.WriteError(w, http.StatusBadRequest, msgEmailInUse)
	case errors.Is(err, domain.ErrUnknownUsername):
		writeErr = http_.WriteError(w, http.StatusBadRequest, msgIncorrectUsername)
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeErr = http_.WriteError(w, http.StatusBadRequest, msgIncorrectPassword)
	default:
		writeErr = http_.WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}

	if writeErr != nil {
		return errors.Join(err, fmt.Errorf("write error response: %w", writeErr))
	}

	return err
}
