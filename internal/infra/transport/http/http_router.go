package http

import (
	"net/http"
)

// NotFoundMessage is returned for requests no route matches.
const NotFoundMessage = "No route with that path found!"

// NotFoundResponse is the answer to requests no route matches.
type NotFoundResponse struct {
	Message       string `json:"message"`
	AttemptedPath string `json:"attemptedPath"`
}

// NewRouter creates the root mux: an index at "/", the metrics endpoint when
// metrics is non-nil, the routes of every transport, and a JSON 404 for the rest.
func NewRouter(metrics *Metrics, transports ...HTTPTransport) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", HandleIndex)

	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	for _, transport := range transports {
		transport.RegisterRoutes(mux)
	}

	// matches every method, so unknown methods get a 404 rather than a 405
	mux.HandleFunc("/", HandleNotFound)

	return mux
}

// HandleIndex answers the root path.
func HandleIndex(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "Hello world!"})
}

// HandleNotFound answers requests no route matches.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusNotFound, NotFoundResponse{
		Message:       NotFoundMessage,
		AttemptedPath: r.URL.Path,
	})
}
