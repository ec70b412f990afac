// Package mgmttest runs an in-memory management API for tests.
//
// The server speaks the subset of the management REST API apictl uses:
//
//	GET  /apis                    paginated API summaries
//	GET  /apis/{id}               definition, ETag header
//	PUT  /apis/{id}               replace definition; If-Match is checked
//	GET  /configuration/tenants   tenant list
//
// A stale If-Match is answered with 412 Precondition Failed.
//
// Example:
//
//	srv := mgmttest.New(t, &api.API{ID: "petstore", Name: "Petstore"})
//	client := mgmtclient.New(srv.URL())
package mgmttest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/getmockd/apictl/internal/storage"
	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/api/types"
	"github.com/getmockd/apictl/pkg/httputil"
)

// RequestLog is one request the server received.
type RequestLog struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    string
}

// Server is an in-memory management API.
type Server struct {
	store   *storage.InMemoryAPIStore
	httpSrv *httptest.Server

	mu       sync.RWMutex
	tenants  []types.Tenant
	token    string
	requests []RequestLog
}

// New starts a server holding apis and closes it when the test completes.
func New(t testing.TB, apis ...*api.API) *Server {
	t.Helper()
	s := NewServer(apis...)
	t.Cleanup(s.Close)
	return s
}

// NewServer starts a server holding apis. Call Close when done.
func NewServer(apis ...*api.API) *Server {
	s := &Server{store: storage.NewInMemoryAPIStore(apis...)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /apis", s.handleListAPIs)
	mux.HandleFunc("GET /apis/{id}", s.handleGetAPI)
	mux.HandleFunc("PUT /apis/{id}", s.handleUpdateAPI)
	mux.HandleFunc("GET /configuration/tenants", s.handleListTenants)

	s.httpSrv = httptest.NewServer(s.wrapHandler(mux))
	return s
}

// URL returns the base URL of the server.
func (s *Server) URL() string { return s.httpSrv.URL }

// Close shuts the server down.
func (s *Server) Close() { s.httpSrv.Close() }

// Store returns the definitions held by the server.
func (s *Server) Store() *storage.InMemoryAPIStore { return s.store }

// SetTenants sets the tenants the server lists.
func (s *Server) SetTenants(tenants ...types.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = tenants
}

// RequireToken makes the server reject requests without this bearer token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RequestLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RequestLog(nil), s.requests...)
}

func (s *Server) wrapHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}

		s.mu.Lock()
		s.requests = append(s.requests, RequestLog{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: headers,
			Body:    string(body),
		})
		token := s.token
		s.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListAPIs(w http.ResponseWriter, _ *http.Request) {
	apis := s.store.List()
	items := make([]types.APISummary, 0, len(apis))
	for _, a := range apis {
		items = append(items, types.APISummary{
			ID:          a.ID,
			Name:        a.Name,
			Version:     a.Version,
			Visibility:  a.Visibility,
			ContextPath: a.Proxy.ContextPath,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, types.APIListResponse{Items: items, Count: len(items), Total: len(items)})
}

func (s *Server) handleGetAPI(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		httputil.WriteNotFound(w, err.Error())
		return
	}
	httputil.WriteWithETag(w, http.StatusOK, a.ETag, a)
}

func (s *Server) handleUpdateAPI(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var a api.API
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", err.Error())
		return
	}
	if a.ID != id {
		httputil.WriteBadRequest(w, "id_mismatch", "body id does not match path")
		return
	}
	if !s.store.Exists(id) {
		httputil.WriteNotFound(w, "api not found: "+id)
		return
	}
	a.ETag = r.Header.Get("If-Match")

	updated, err := s.store.Put(&a)
	switch {
	case errors.Is(err, storage.ErrConflict):
		httputil.WritePreconditionFailed(w, "the API was modified since it was read")
		return
	case err != nil:
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	httputil.WriteWithETag(w, http.StatusOK, updated.ETag, updated)
}

func (s *Server) handleListTenants(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	tenants := append([]types.Tenant{}, s.tenants...)
	s.mu.RUnlock()
	httputil.WriteJSON(w, http.StatusOK, tenants)
}
