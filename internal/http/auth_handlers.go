package http

import (
	"errors"
	"net/http"

	"github.com/Jonatasvm/pagamento-sub000/internal/auth"
	"github.com/Jonatasvm/pagamento-sub000/internal/storage"
)

type userView struct {
	ID    int64   `json:"id"`
	Nome  string  `json:"nome"`
	Email string  `json:"email"`
	Admin bool    `json:"admin"`
	Obras []int64 `json:"obras"`
}

func userViewOf(u storage.User) userView {
	obras := u.Obras
	if obras == nil {
		obras = []int64{}
	}
	return userView{ID: u.ID, Nome: u.Nome, Email: u.Email, Admin: u.Admin, Obras: obras}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
	}
	if err := decodeBody(r, &payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same answer as a bad password; logins must not leak which
			// emails exist.
			writeError(w, auth.ErrInvalidCredentials)
			return
		}
		writeError(w, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, payload.Senha); err != nil {
		writeError(w, err)
		return
	}

	token, err := s.auth.Issue(user.ID, user.Email, user.Admin)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userViewOf(*user),
	})
}

// handleRegister creates a regular account. Admin status is only granted
// through the user management endpoints or the ADMIN_EMAILS bootstrap.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome  string `json:"nome"`
		Email string `json:"email"`
		Senha string `json:"senha"`
	}
	if err := decodeBody(r, &payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if payload.Email == "" || payload.Senha == "" {
		badRequest(w, "email and senha are required")
		return
	}

	hash, err := auth.HashPassword(payload.Senha)
	if err != nil {
		writeError(w, err)
		return
	}

	user := &storage.User{Nome: payload.Nome, Email: payload.Email, PasswordHash: hash}
	id, err := s.store.CreateUser(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	user.ID = id
	writeJSON(w, http.StatusCreated, userViewOf(*user))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userViewOf(*user))
}

type userPayload struct {
	Nome  string  `json:"nome"`
	Email string  `json:"email"`
	Senha string  `json:"senha"`
	Admin bool    `json:"admin"`
	Obras []int64 `json:"obras"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userViewOf(u))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload userPayload
	if err := decodeBody(r, &payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if payload.Email == "" || payload.Senha == "" {
		badRequest(w, "email and senha are required")
		return
	}

	hash, err := auth.HashPassword(payload.Senha)
	if err != nil {
		writeError(w, err)
		return
	}

	user := &storage.User{
		Nome:         payload.Nome,
		Email:        payload.Email,
		PasswordHash: hash,
		Admin:        payload.Admin,
		Obras:        payload.Obras,
	}
	id, err := s.store.CreateUser(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	user.ID = id
	writeJSON(w, http.StatusCreated, userViewOf(*user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var payload userPayload
	if err := decodeBody(r, &payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	user := &storage.User{
		ID:    id,
		Nome:  payload.Nome,
		Email: payload.Email,
		Admin: payload.Admin,
		Obras: payload.Obras,
	}
	if payload.Senha != "" {
		hash, err := auth.HashPassword(payload.Senha)
		if err != nil {
			writeError(w, err)
			return
		}
		user.PasswordHash = hash
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userViewOf(*user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
