package http

import (
	"context"
	"net/http"

	"github.com/Jonatasvm/pagamento-sub000/internal/storage"
)

// Cached list loaders. Any write through these handlers invalidates the
// corresponding cache so the next read hits SQLite.

func (s *Server) listObrasCached(ctx context.Context) ([]storage.Obra, error) {
	if obras, ok := s.obrasCache.Get("all"); ok {
		return obras, nil
	}
	obras, err := s.store.ListObras(ctx)
	if err != nil {
		return nil, err
	}
	s.obrasCache.Set("all", obras)
	return obras, nil
}

func (s *Server) handleListObras(w http.ResponseWriter, r *http.Request) {
	obras, err := s.listObrasCached(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if obras == nil {
		obras = []storage.Obra{}
	}
	writeJSON(w, http.StatusOK, obras)
}

func (s *Server) handleCreateObra(w http.ResponseWriter, r *http.Request) {
	var obra storage.Obra
	if err := decodeBody(r, &obra); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if obra.Nome == "" {
		badRequest(w, "nome is required")
		return
	}
	id, err := s.store.CreateObra(r.Context(), &obra)
	if err != nil {
		writeError(w, err)
		return
	}
	obra.ID = id
	s.obrasCache.Delete("all")
	writeJSON(w, http.StatusCreated, obra)
}

func (s *Server) handleUpdateObra(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var obra storage.Obra
	if err := decodeBody(r, &obra); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	obra.ID = id
	if err := s.store.UpdateObra(r.Context(), &obra); err != nil {
		writeError(w, err)
		return
	}
	s.obrasCache.Delete("all")
	writeJSON(w, http.StatusOK, obra)
}

func (s *Server) handleDeleteObra(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := s.store.DeleteObra(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.obrasCache.Delete("all")
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListContas(w http.ResponseWriter, r *http.Request) {
	if contas, ok := s.contasCache.Get("all"); ok {
		writeJSON(w, http.StatusOK, contas)
		return
	}
	contas, err := s.store.ListContas(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if contas == nil {
		contas = []storage.Conta{}
	}
	s.contasCache.Set("all", contas)
	writeJSON(w, http.StatusOK, contas)
}

func (s *Server) handleCreateConta(w http.ResponseWriter, r *http.Request) {
	var conta storage.Conta
	if err := decodeBody(r, &conta); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if conta.Banco == "" {
		badRequest(w, "banco is required")
		return
	}
	id, err := s.store.CreateConta(r.Context(), &conta)
	if err != nil {
		writeError(w, err)
		return
	}
	conta.ID = id
	s.contasCache.Delete("all")
	writeJSON(w, http.StatusCreated, conta)
}

func (s *Server) handleUpdateConta(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var conta storage.Conta
	if err := decodeBody(r, &conta); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	conta.ID = id
	if err := s.store.UpdateConta(r.Context(), &conta); err != nil {
		writeError(w, err)
		return
	}
	s.contasCache.Delete("all")
	writeJSON(w, http.StatusOK, conta)
}

func (s *Server) handleDeleteConta(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := s.store.DeleteConta(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.contasCache.Delete("all")
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListCategorias(w http.ResponseWriter, r *http.Request) {
	if categorias, ok := s.categoriasCache.Get("all"); ok {
		writeJSON(w, http.StatusOK, categorias)
		return
	}
	categorias, err := s.store.ListCategorias(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if categorias == nil {
		categorias = []storage.Categoria{}
	}
	s.categoriasCache.Set("all", categorias)
	writeJSON(w, http.StatusOK, categorias)
}

func (s *Server) handleCreateCategoria(w http.ResponseWriter, r *http.Request) {
	var categoria storage.Categoria
	if err := decodeBody(r, &categoria); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if categoria.Nome == "" {
		badRequest(w, "nome is required")
		return
	}
	id, err := s.store.CreateCategoria(r.Context(), categoria.Nome)
	if err != nil {
		writeError(w, err)
		return
	}
	categoria.ID = id
	s.categoriasCache.Delete("all")
	writeJSON(w, http.StatusCreated, categoria)
}

func (s *Server) handleDeleteCategoria(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := s.store.DeleteCategoria(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.categoriasCache.Delete("all")
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListFornecedores(w http.ResponseWriter, r *http.Request) {
	if fornecedores, ok := s.fornecedoresCache.Get("all"); ok {
		writeJSON(w, http.StatusOK, fornecedores)
		return
	}
	fornecedores, err := s.store.ListFornecedores(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if fornecedores == nil {
		fornecedores = []storage.Fornecedor{}
	}
	s.fornecedoresCache.Set("all", fornecedores)
	writeJSON(w, http.StatusOK, fornecedores)
}

func (s *Server) handleCreateFornecedor(w http.ResponseWriter, r *http.Request) {
	var fornecedor storage.Fornecedor
	if err := decodeBody(r, &fornecedor); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if fornecedor.Nome == "" {
		badRequest(w, "nome is required")
		return
	}
	id, err := s.store.CreateFornecedor(r.Context(), &fornecedor)
	if err != nil {
		writeError(w, err)
		return
	}
	fornecedor.ID = id
	s.fornecedoresCache.Delete("all")
	writeJSON(w, http.StatusCreated, fornecedor)
}

func (s *Server) handleUpdateFornecedor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var fornecedor storage.Fornecedor
	if err := decodeBody(r, &fornecedor); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	fornecedor.ID = id
	if err := s.store.UpdateFornecedor(r.Context(), &fornecedor); err != nil {
		writeError(w, err)
		return
	}
	s.fornecedoresCache.Delete("all")
	writeJSON(w, http.StatusOK, fornecedor)
}

func (s *Server) handleDeleteFornecedor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := s.store.DeleteFornecedor(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.fornecedoresCache.Delete("all")
	writeJSON(w, http.StatusNoContent, nil)
}
