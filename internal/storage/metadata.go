package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Obra is a construction site requests are charged against. Each obra points
// at the bank account that pays its bills.
type Obra struct {
	ID      int64  `json:"id"`
	Nome    string `json:"nome"`
	ContaID int64  `json:"conta_id"`
	Ativa   bool   `json:"ativa"`
}

// Conta is a bank account used to settle requests.
type Conta struct {
	ID      int64  `json:"id"`
	Banco   string `json:"banco"`
	Agencia string `json:"agencia"`
	Numero  string `json:"numero"`
	Titular string `json:"titular"`
}

type Categoria struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

// Fornecedor is a known supplier; picking one on the form prefills the
// titular, document and pix key fields.
type Fornecedor struct {
	ID       int64  `json:"id"`
	Nome     string `json:"nome"`
	CpfCnpj  string `json:"cpf_cnpj"`
	ChavePix string `json:"chave_pix"`
}

func (r *SQLiteRepository) CreateObra(ctx context.Context, o *Obra) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO obras (nome, conta_id, ativa) VALUES (?, ?, ?)", o.Nome, o.ContaID, o.Ativa)
	if err != nil {
		return 0, fmt.Errorf("create obra: %w", err)
	}
	return lastID(res)
}

func (r *SQLiteRepository) GetObra(ctx context.Context, id int64) (*Obra, error) {
	var o Obra
	err := r.db.QueryRowContext(ctx,
		"SELECT id, nome, conta_id, ativa FROM obras WHERE id = ?", id).
		Scan(&o.ID, &o.Nome, &o.ContaID, &o.Ativa)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get obra: %w", err)
	}
	return &o, nil
}

func (r *SQLiteRepository) ListObras(ctx context.Context) ([]Obra, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, nome, conta_id, ativa FROM obras ORDER BY nome ASC")
	if err != nil {
		return nil, fmt.Errorf("list obras: %w", err)
	}
	defer rows.Close()

	var obras []Obra
	for rows.Next() {
		var o Obra
		if err := rows.Scan(&o.ID, &o.Nome, &o.ContaID, &o.Ativa); err != nil {
			return nil, fmt.Errorf("scan obra: %w", err)
		}
		obras = append(obras, o)
	}
	return obras, rows.Err()
}

func (r *SQLiteRepository) UpdateObra(ctx context.Context, o *Obra) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE obras SET nome = ?, conta_id = ?, ativa = ? WHERE id = ?",
		o.Nome, o.ContaID, o.Ativa, o.ID)
	if err != nil {
		return fmt.Errorf("update obra: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteObra(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM obras WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete obra: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateConta(ctx context.Context, c *Conta) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO contas (banco, agencia, numero, titular) VALUES (?, ?, ?, ?)",
		c.Banco, c.Agencia, c.Numero, c.Titular)
	if err != nil {
		return 0, fmt.Errorf("create conta: %w", err)
	}
	return lastID(res)
}

func (r *SQLiteRepository) GetConta(ctx context.Context, id int64) (*Conta, error) {
	var c Conta
	err := r.db.QueryRowContext(ctx,
		"SELECT id, banco, agencia, numero, titular FROM contas WHERE id = ?", id).
		Scan(&c.ID, &c.Banco, &c.Agencia, &c.Numero, &c.Titular)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conta: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) ListContas(ctx context.Context) ([]Conta, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, banco, agencia, numero, titular FROM contas ORDER BY banco ASC")
	if err != nil {
		return nil, fmt.Errorf("list contas: %w", err)
	}
	defer rows.Close()

	var contas []Conta
	for rows.Next() {
		var c Conta
		if err := rows.Scan(&c.ID, &c.Banco, &c.Agencia, &c.Numero, &c.Titular); err != nil {
			return nil, fmt.Errorf("scan conta: %w", err)
		}
		contas = append(contas, c)
	}
	return contas, rows.Err()
}

func (r *SQLiteRepository) UpdateConta(ctx context.Context, c *Conta) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE contas SET banco = ?, agencia = ?, numero = ?, titular = ? WHERE id = ?",
		c.Banco, c.Agencia, c.Numero, c.Titular, c.ID)
	if err != nil {
		return fmt.Errorf("update conta: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteConta(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM contas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete conta: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateCategoria(ctx context.Context, nome string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO categorias (nome) VALUES (?)", nome)
	if err != nil {
		return 0, fmt.Errorf("create categoria: %w", err)
	}
	return lastID(res)
}

func (r *SQLiteRepository) ListCategorias(ctx context.Context) ([]Categoria, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, nome FROM categorias ORDER BY nome ASC")
	if err != nil {
		return nil, fmt.Errorf("list categorias: %w", err)
	}
	defer rows.Close()

	var categorias []Categoria
	for rows.Next() {
		var c Categoria
		if err := rows.Scan(&c.ID, &c.Nome); err != nil {
			return nil, fmt.Errorf("scan categoria: %w", err)
		}
		categorias = append(categorias, c)
	}
	return categorias, rows.Err()
}

func (r *SQLiteRepository) DeleteCategoria(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categorias WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete categoria: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateFornecedor(ctx context.Context, f *Fornecedor) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO fornecedores (nome, cpf_cnpj, chave_pix) VALUES (?, ?, ?)",
		f.Nome, f.CpfCnpj, f.ChavePix)
	if err != nil {
		return 0, fmt.Errorf("create fornecedor: %w", err)
	}
	return lastID(res)
}

func (r *SQLiteRepository) ListFornecedores(ctx context.Context) ([]Fornecedor, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, nome, cpf_cnpj, chave_pix FROM fornecedores ORDER BY nome ASC")
	if err != nil {
		return nil, fmt.Errorf("list fornecedores: %w", err)
	}
	defer rows.Close()

	var fornecedores []Fornecedor
	for rows.Next() {
		var f Fornecedor
		if err := rows.Scan(&f.ID, &f.Nome, &f.CpfCnpj, &f.ChavePix); err != nil {
			return nil, fmt.Errorf("scan fornecedor: %w", err)
		}
		fornecedores = append(fornecedores, f)
	}
	return fornecedores, rows.Err()
}

func (r *SQLiteRepository) UpdateFornecedor(ctx context.Context, f *Fornecedor) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE fornecedores SET nome = ?, cpf_cnpj = ?, chave_pix = ? WHERE id = ?",
		f.Nome, f.CpfCnpj, f.ChavePix, f.ID)
	if err != nil {
		return fmt.Errorf("update fornecedor: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteFornecedor(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM fornecedores WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete fornecedor: %w", err)
	}
	return requireRow(res)
}

func lastID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func requireRow(res sql.Result) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
