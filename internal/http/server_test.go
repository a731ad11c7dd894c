package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jonatasvm/pagamento-sub000/internal/auth"
	"github.com/Jonatasvm/pagamento-sub000/internal/services"
	"github.com/Jonatasvm/pagamento-sub000/internal/storage"
)

type testEnv struct {
	server *Server
	store  *storage.SQLiteRepository
	obraID int64

	adminToken string
	userToken  string
	adminID    int64
	userID     int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "pagamentos.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	obraID, err := store.CreateObra(ctx, &storage.Obra{Nome: "Residencial Aurora", Ativa: true})
	if err != nil {
		t.Fatal(err)
	}

	hash, err := auth.HashPassword("senha-secreta")
	if err != nil {
		t.Fatal(err)
	}
	adminID, err := store.CreateUser(ctx, &storage.User{
		Nome: "Admin", Email: "admin@example.com", PasswordHash: hash, Admin: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	userID, err := store.CreateUser(ctx, &storage.User{
		Nome: "Maria", Email: "maria@example.com", PasswordHash: hash, Obras: []int64{obraID},
	})
	if err != nil {
		t.Fatal(err)
	}

	manager := auth.NewManager(strings.Repeat("s", 32), "pagamentos", time.Hour)
	adminToken, err := manager.Issue(adminID, "admin@example.com", true)
	if err != nil {
		t.Fatal(err)
	}
	userToken, err := manager.Issue(userID, "maria@example.com", false)
	if err != nil {
		t.Fatal(err)
	}

	requests := services.NewRequestService(store, nil)
	sessions := services.NewEditSessions(10 * time.Minute)
	server := NewServer(":0", requests, store, manager, sessions)

	return &testEnv{
		server:     server,
		store:      store,
		obraID:     obraID,
		adminToken: adminToken,
		userToken:  userToken,
		adminID:    adminID,
		userID:     userID,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func requestBody(obraID int64) map[string]any {
	return map[string]any{
		"obra":            obraID,
		"referente":       "Concreto usinado",
		"valor":           "1500.00",
		"titular_nome":    "Fornecedor Ltda",
		"cpf_cnpj":        "12.345.678/0001-00",
		"forma_pagamento": "PIX",
		"chave_pix":       "forn@pix.com",
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "senha": "senha-secreta",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Token string   `json:"token"`
		User  userView `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" || !resp.User.Admin {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "senha": "errada",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", rec.Code)
	}

	// Unknown emails answer exactly like bad passwords.
	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@example.com", "senha": "senha-secreta",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email status = %d", rec.Code)
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"nome": "Novo Usuário", "email": "novo@example.com", "senha": "outra-senha",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body)
	}
	var created userView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Admin {
		t.Fatal("self-registered account must not be admin")
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "novo@example.com", "senha": "outra-senha",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login after register status = %d: %s", rec.Code, rec.Body)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/formularios", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/formularios", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}
	// Admin-only endpoint with a regular user token.
	if rec := env.do(t, http.MethodPost, "/api/obras", env.userToken, map[string]any{"nome": "X"}); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d", rec.Code)
	}
}

func TestCreateAndListRequests(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/formularios", env.userToken, requestBody(env.obraID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var created requestView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Valor != "1500.00" || created.ValorBRL != "R$ 1.500,00" {
		t.Fatalf("amount views: %q %q", created.Valor, created.ValorBRL)
	}
	if created.Solicitante != env.userID {
		t.Fatalf("solicitante = %d, want %d", created.Solicitante, env.userID)
	}

	rec = env.do(t, http.MethodGet, "/api/formularios?forma_pagamento=PIX", env.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []requestView
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list = %+v", list)
	}

	if rec = env.do(t, http.MethodGet, "/api/formularios?forma_pagamento=BOLETO", env.adminToken, nil); rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	list = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("boleto filter matched %d", len(list))
	}
}

func TestCreateRequestValidation(t *testing.T) {
	env := newTestEnv(t)

	body := requestBody(env.obraID)
	body["chave_pix"] = ""
	rec := env.do(t, http.MethodPost, "/api/formularios", env.userToken, body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	// Nothing was stored.
	list := env.do(t, http.MethodGet, "/api/formularios", env.adminToken, nil)
	var views []requestView
	if err := json.Unmarshal(list.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Fatal("invalid request was stored")
	}
}

func TestObraScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	otherObra, err := env.store.CreateObra(ctx, &storage.Obra{Nome: "Galpão Norte", Ativa: true})
	if err != nil {
		t.Fatal(err)
	}

	mine := requestBody(env.obraID)
	other := requestBody(otherObra)
	if rec := env.do(t, http.MethodPost, "/api/formularios", env.adminToken, mine); rec.Code != http.StatusCreated {
		t.Fatal(rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/api/formularios", env.adminToken, other)
	if rec.Code != http.StatusCreated {
		t.Fatal(rec.Code)
	}
	var otherCreated requestView
	if err := json.Unmarshal(rec.Body.Bytes(), &otherCreated); err != nil {
		t.Fatal(err)
	}

	// Maria only sees her obra.
	list := env.do(t, http.MethodGet, "/api/formularios", env.userToken, nil)
	var views []requestView
	if err := json.Unmarshal(list.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].Obra != env.obraID {
		t.Fatalf("scoped list = %+v", views)
	}

	// And cannot open the other obra's request.
	get := env.do(t, http.MethodGet, fmt.Sprintf("/api/formularios/%d", otherCreated.ID), env.userToken, nil)
	if get.Code != http.StatusNotFound {
		t.Fatalf("foreign request status = %d", get.Code)
	}
}

func TestEditSessionConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	secondAdmin, err := env.store.CreateUser(ctx, &storage.User{
		Nome: "Segundo", Email: "segundo@example.com", PasswordHash: "x", Admin: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	manager := auth.NewManager(strings.Repeat("s", 32), "pagamentos", time.Hour)
	secondToken, err := manager.Issue(secondAdmin, "segundo@example.com", true)
	if err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPost, "/api/formularios", env.adminToken, requestBody(env.obraID))
	var created requestView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	editPath := fmt.Sprintf("/api/formularios/%d/editar", created.ID)

	if rec := env.do(t, http.MethodPost, editPath, env.adminToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("acquire status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, editPath, secondToken, nil); rec.Code != http.StatusConflict {
		t.Fatalf("second editor status = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, editPath, env.adminToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("release status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, editPath, secondToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("acquire after release status = %d", rec.Code)
	}
}

func TestFailedUpdateReleasesImplicitLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	secondAdmin, err := env.store.CreateUser(ctx, &storage.User{
		Nome: "Segundo", Email: "segundo@example.com", PasswordHash: "x", Admin: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	manager := auth.NewManager(strings.Repeat("s", 32), "pagamentos", time.Hour)
	secondToken, err := manager.Issue(secondAdmin, "segundo@example.com", true)
	if err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPost, "/api/formularios", env.adminToken, requestBody(env.obraID))
	var created requestView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	// A save that fails validation must not leave the implicitly-acquired
	// edit lock pinning the row for the session TTL.
	bad := requestBody(env.obraID)
	bad["chave_pix"] = ""
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/formularios/%d", created.ID), env.adminToken, bad)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad save status = %d: %s", rec.Code, rec.Body)
	}

	editPath := fmt.Sprintf("/api/formularios/%d/editar", created.ID)
	if rec := env.do(t, http.MethodPost, editPath, secondToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("acquire after failed save status = %d: %s", rec.Code, rec.Body)
	}
	if rec := env.do(t, http.MethodDelete, editPath, secondToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("release status = %d", rec.Code)
	}

	// A lock taken through the edit endpoint survives a failed save; the
	// editor is still mid-edit and keeps the row.
	if rec := env.do(t, http.MethodPost, editPath, env.adminToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("explicit acquire status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/formularios/%d", created.ID), env.adminToken, bad)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad save status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, editPath, secondToken, nil); rec.Code != http.StatusConflict {
		t.Fatalf("lock should still be held, status = %d", rec.Code)
	}
}

func TestUpdateRequest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/formularios", env.adminToken, requestBody(env.obraID))
	var created requestView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	body := requestBody(env.obraID)
	body["lancado"] = true
	body["categoria"] = "Material"
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/formularios/%d", created.ID), env.adminToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	var updated requestView
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if !updated.Lancado || updated.Categoria != "Material" || updated.Version != 2 {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestGenerateSchedulePreview(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/parcelas", env.userToken, map[string]any{
		"valor":               "1500.00",
		"quantidade_parcelas": 4,
		"primeiro_vencimento": "2025-01-31",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var parcelas []parcelaView
	if err := json.Unmarshal(rec.Body.Bytes(), &parcelas); err != nil {
		t.Fatal(err)
	}
	if len(parcelas) != 4 {
		t.Fatalf("got %d parcelas", len(parcelas))
	}
	if parcelas[1].Vencimento != "2025-02-28" {
		t.Fatalf("clamped due date = %s", parcelas[1].Vencimento)
	}
	if parcelas[0].Valor != "375.00" {
		t.Fatalf("parcela valor = %s", parcelas[0].Valor)
	}
}

func TestInstallmentCountCap(t *testing.T) {
	env := newTestEnv(t)

	// A single request must not be able to ask for an arbitrarily large
	// schedule. 10 million parcelas would be a multi-GB allocation.
	rec := env.do(t, http.MethodPost, "/api/parcelas", env.userToken, map[string]any{
		"valor":               "1500.00",
		"quantidade_parcelas": 10_000_000,
		"primeiro_vencimento": "2025-01-31",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("preview status = %d: %s", rec.Code, rec.Body)
	}

	body := requestBody(env.obraID)
	body["forma_pagamento"] = "BOLETO"
	body["chave_pix"] = ""
	body["quantidade_parcelas"] = 10_000_000
	body["primeiro_vencimento"] = "2025-01-31"
	rec = env.do(t, http.MethodPost, "/api/formularios", env.adminToken, body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}

	// The cap itself is fine.
	body["quantidade_parcelas"] = 24
	rec = env.do(t, http.MethodPost, "/api/formularios", env.adminToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create at cap status = %d: %s", rec.Code, rec.Body)
	}
	var created requestView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if len(created.Parcelas) != 24 {
		t.Fatalf("got %d parcelas", len(created.Parcelas))
	}
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/formularios", env.adminToken, requestBody(env.obraID))
	var created requestView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	rec = env.do(t, http.MethodPost, "/api/formularios/export", env.adminToken, map[string]any{
		"ids": []int64{created.ID}, "formato": "csv",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	bodyStr := rec.Body.String()
	if !strings.Contains(bodyStr, "Residencial Aurora") || !strings.Contains(bodyStr, "1500,00") {
		t.Fatalf("csv body missing data:\n%s", bodyStr)
	}

	// Export is admin only.
	rec = env.do(t, http.MethodPost, "/api/formularios/export", env.userToken, map[string]any{
		"ids": []int64{created.ID},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin export status = %d", rec.Code)
	}
}

func TestMetadataEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/fornecedores", env.adminToken, map[string]any{
		"nome": "Fornecedor Ltda", "cpf_cnpj": "12.345.678/0001-00", "chave_pix": "forn@pix.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create fornecedor status = %d: %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodGet, "/api/fornecedores", env.userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var fornecedores []storage.Fornecedor
	if err := json.Unmarshal(rec.Body.Bytes(), &fornecedores); err != nil {
		t.Fatal(err)
	}
	if len(fornecedores) != 1 || fornecedores[0].ChavePix != "forn@pix.com" {
		t.Fatalf("fornecedores = %+v", fornecedores)
	}
}
