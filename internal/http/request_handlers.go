package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Jonatasvm/pagamento-sub000/internal/auth"
	"github.com/Jonatasvm/pagamento-sub000/internal/core"
	"github.com/Jonatasvm/pagamento-sub000/internal/export"
	"github.com/Jonatasvm/pagamento-sub000/internal/storage"
)

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// obraScope returns the obras visible to the caller: nil for admins (all),
// the user's assignments otherwise.
func (s *Server) obraScope(r *http.Request) ([]int64, *auth.Claims, error) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		return nil, nil, auth.ErrInvalidToken
	}
	if claims.Admin {
		return nil, claims, nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, err
	}
	obras, err := s.store.GetUserObras(r.Context(), userID)
	if err != nil {
		return nil, nil, err
	}
	if len(obras) == 0 {
		// A user with no assignments sees nothing, not everything.
		obras = []int64{-1}
	}
	return obras, claims, nil
}

func parseFilter(r *http.Request) (core.RequestFilter, error) {
	q := r.URL.Query()
	var f core.RequestFilter

	if v := q.Get("lancado"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("lancado: %w", err)
		}
		f.Lancado = &b
	}
	f.FormaPagamento = core.PaymentMethod(q.Get("forma_pagamento"))
	if v := q.Get("data_lancamento"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("data_lancamento: %w", err)
		}
		f.DataLancamento = d
	}
	if v := q.Get("obra"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("obra: %w", err)
		}
		f.Obra = id
	}
	if v := q.Get("titular"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("titular: %w", err)
		}
		f.Titular = id
	}
	return f, nil
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	obras, _, err := s.obraScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	requests, err := s.requests.List(r.Context(), obras, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(requests))
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, err)
		return
	}

	var payload requestPayload
	if err := decodeBody(r, &payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	req, err := payload.toCore()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}
	req.Solicitante = userID

	if _, err := s.requests.Submit(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(*req))
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}

	req, err := s.requests.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	obras, claims, err := s.obraScope(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !claims.Admin && !containsID(obras, req.Obra) {
		writeError(w, storage.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(*req))
}

func (s *Server) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	claims, _ := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, err)
		return
	}

	var payload requestPayload
	if err := decodeBody(r, &payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	req, err := payload.toCore()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}

	// The edit lock must be held before a save is accepted. A lock acquired
	// here rather than via the edit endpoint is given back on failure so a
	// rejected save does not pin the row until the session expires.
	autoAcquired := !s.sessions.Holds(id, userID)
	if autoAcquired {
		if err := s.sessions.Acquire(id, userID); err != nil {
			writeError(w, err)
			return
		}
	}
	releaseOnFailure := func() {
		if autoAcquired {
			s.sessions.Release(id, userID)
		}
	}

	existing, err := s.requests.Get(r.Context(), id)
	if err != nil {
		releaseOnFailure()
		writeError(w, err)
		return
	}
	req.ID = id
	req.Solicitante = existing.Solicitante

	if err := s.requests.Update(r.Context(), req); err != nil {
		releaseOnFailure()
		writeError(w, err)
		return
	}

	s.sessions.Release(id, userID)
	writeJSON(w, http.StatusOK, viewOf(*req))
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := s.requests.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAcquireEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	claims, _ := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.sessions.Acquire(id, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "editing": true})
}

func (s *Server) handleReleaseEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	claims, _ := claimsFrom(r.Context())
	userID, err := claims.UserID()
	if err != nil {
		writeError(w, err)
		return
	}
	s.sessions.Release(id, userID)
	writeJSON(w, http.StatusNoContent, nil)
}

// handleGenerateSchedule previews the installment plan for the form.
func (s *Server) handleGenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Valor              string `json:"valor"`
		QuantidadeParcelas int    `json:"quantidade_parcelas"`
		PrimeiroVencimento string `json:"primeiro_vencimento"`
	}
	if err := decodeBody(r, &payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(payload.Valor)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "valor: " + err.Error()})
		return
	}
	if payload.QuantidadeParcelas > core.MaxInstallments {
		writeError(w, core.ErrTooManyParcelas)
		return
	}
	start, err := core.ParseDate(payload.PrimeiroVencimento)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "primeiro_vencimento: " + err.Error()})
		return
	}

	parcelas := core.GenerateSchedule(cents, payload.QuantidadeParcelas, start)
	views := make([]parcelaView, 0, len(parcelas))
	for _, p := range parcelas {
		views = append(views, parcelaView{
			Numero:     p.Number,
			Valor:      p.Amount.DecimalString(),
			ValorBRL:   p.Amount.BRL(),
			Vencimento: p.DueDate.String(),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs     []int64 `json:"ids"`
		Formato string  `json:"formato"`
	}
	if err := decodeBody(r, &payload); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if len(payload.IDs) == 0 {
		badRequest(w, "no ids selected")
		return
	}

	requests, err := s.store.GetRequestsByIDs(r.Context(), payload.IDs)
	if err != nil {
		writeError(w, err)
		return
	}

	namer := s.obraNamer(r)

	switch payload.Formato {
	case "xls":
		w.Header().Set("Content-Type", "application/vnd.ms-excel")
		w.Header().Set("Content-Disposition", `attachment; filename="pagamentos.xls"`)
		if err := export.WriteXLS(w, requests, namer); err != nil {
			writeError(w, err)
		}
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="pagamentos.csv"`)
		if err := export.WriteCSV(w, requests, namer); err != nil {
			writeError(w, err)
		}
	default:
		badRequest(w, "unknown format: "+payload.Formato)
	}
}

func (s *Server) obraNamer(r *http.Request) export.ObraNamer {
	obras, err := s.listObrasCached(r.Context())
	if err != nil {
		return nil
	}
	names := make(map[int64]string, len(obras))
	for _, o := range obras {
		names[o.ID] = o.Nome
	}
	return func(obraID int64) string { return names[obraID] }
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
