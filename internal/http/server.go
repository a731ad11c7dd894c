// Package http exposes the JSON API the payment request frontend talks to.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Jonatasvm/pagamento-sub000/internal/auth"
	"github.com/Jonatasvm/pagamento-sub000/internal/cache"
	"github.com/Jonatasvm/pagamento-sub000/internal/services"
	"github.com/Jonatasvm/pagamento-sub000/internal/storage"
)

type Server struct {
	http.Server

	requests    *services.RequestService
	store       *storage.SQLiteRepository
	auth        *auth.Manager
	sessions    *services.EditSessions
	rateLimiter *rateLimiter

	// Reference tables change rarely; the form reloads them constantly.
	obrasCache        *cache.LRUCache[[]storage.Obra]
	contasCache       *cache.LRUCache[[]storage.Conta]
	categoriasCache   *cache.LRUCache[[]storage.Categoria]
	fornecedoresCache *cache.LRUCache[[]storage.Fornecedor]
}

func NewServer(addr string, requests *services.RequestService, store *storage.SQLiteRepository, authManager *auth.Manager, sessions *services.EditSessions) *Server {
	s := &Server{
		requests:    requests,
		store:       store,
		auth:        authManager,
		sessions:    sessions,
		rateLimiter: newRateLimiter(60),

		obrasCache:        cache.NewLRUCache[[]storage.Obra](1, 5*time.Minute),
		contasCache:       cache.NewLRUCache[[]storage.Conta](1, 5*time.Minute),
		categoriasCache:   cache.NewLRUCache[[]storage.Categoria](1, 5*time.Minute),
		fornecedoresCache: cache.NewLRUCache[[]storage.Fornecedor](1, 5*time.Minute),
	}

	r := mux.NewRouter()
	r.Use(s.withTrace, s.withSecurityHeaders)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/me", s.requireAuth(s.handleMe)).Methods(http.MethodGet)

	api.HandleFunc("/formularios", s.requireAuth(s.handleListRequests)).Methods(http.MethodGet)
	api.HandleFunc("/formularios", s.requireAuth(s.handleCreateRequest)).Methods(http.MethodPost)
	api.HandleFunc("/formularios/export", s.requireAdmin(s.handleExport)).Methods(http.MethodPost)
	api.HandleFunc("/formularios/{id:[0-9]+}", s.requireAuth(s.handleGetRequest)).Methods(http.MethodGet)
	api.HandleFunc("/formularios/{id:[0-9]+}", s.requireAdmin(s.handleUpdateRequest)).Methods(http.MethodPut)
	api.HandleFunc("/formularios/{id:[0-9]+}", s.requireAdmin(s.handleDeleteRequest)).Methods(http.MethodDelete)
	api.HandleFunc("/formularios/{id:[0-9]+}/editar", s.requireAdmin(s.handleAcquireEdit)).Methods(http.MethodPost)
	api.HandleFunc("/formularios/{id:[0-9]+}/editar", s.requireAdmin(s.handleReleaseEdit)).Methods(http.MethodDelete)

	api.HandleFunc("/parcelas", s.requireAuth(s.handleGenerateSchedule)).Methods(http.MethodPost)

	api.HandleFunc("/obras", s.requireAuth(s.handleListObras)).Methods(http.MethodGet)
	api.HandleFunc("/obras", s.requireAdmin(s.handleCreateObra)).Methods(http.MethodPost)
	api.HandleFunc("/obras/{id:[0-9]+}", s.requireAdmin(s.handleUpdateObra)).Methods(http.MethodPut)
	api.HandleFunc("/obras/{id:[0-9]+}", s.requireAdmin(s.handleDeleteObra)).Methods(http.MethodDelete)

	api.HandleFunc("/contas", s.requireAuth(s.handleListContas)).Methods(http.MethodGet)
	api.HandleFunc("/contas", s.requireAdmin(s.handleCreateConta)).Methods(http.MethodPost)
	api.HandleFunc("/contas/{id:[0-9]+}", s.requireAdmin(s.handleUpdateConta)).Methods(http.MethodPut)
	api.HandleFunc("/contas/{id:[0-9]+}", s.requireAdmin(s.handleDeleteConta)).Methods(http.MethodDelete)

	api.HandleFunc("/categorias", s.requireAuth(s.handleListCategorias)).Methods(http.MethodGet)
	api.HandleFunc("/categorias", s.requireAdmin(s.handleCreateCategoria)).Methods(http.MethodPost)
	api.HandleFunc("/categorias/{id:[0-9]+}", s.requireAdmin(s.handleDeleteCategoria)).Methods(http.MethodDelete)

	api.HandleFunc("/fornecedores", s.requireAuth(s.handleListFornecedores)).Methods(http.MethodGet)
	api.HandleFunc("/fornecedores", s.requireAdmin(s.handleCreateFornecedor)).Methods(http.MethodPost)
	api.HandleFunc("/fornecedores/{id:[0-9]+}", s.requireAdmin(s.handleUpdateFornecedor)).Methods(http.MethodPut)
	api.HandleFunc("/fornecedores/{id:[0-9]+}", s.requireAdmin(s.handleDeleteFornecedor)).Methods(http.MethodDelete)

	api.HandleFunc("/usuarios", s.requireAdmin(s.handleListUsers)).Methods(http.MethodGet)
	api.HandleFunc("/usuarios", s.requireAdmin(s.handleCreateUser)).Methods(http.MethodPost)
	api.HandleFunc("/usuarios/{id:[0-9]+}", s.requireAdmin(s.handleUpdateUser)).Methods(http.MethodPut)
	api.HandleFunc("/usuarios/{id:[0-9]+}", s.requireAdmin(s.handleDeleteUser)).Methods(http.MethodDelete)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
