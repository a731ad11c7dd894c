// Package storage persists payment requests and the supporting reference
// tables in SQLite, which is the canonical store. The Google Sheets ledger
// is a mirror fed from the sync columns kept here.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jonatasvm/pagamento-sub000/internal/core"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const requestColumns = `id, solicitante_id, obra_id, conta_id, titular_id, titular_nome,
	cpf_cnpj, referente, valor_cents, forma_pagamento, chave_pix,
	data_lancamento, data_competencia, data_pagamento,
	categoria, quem_paga, lancado, link_anexo, observacao, carimbo, version`

// CreateRequest stores a request and its installment schedule in one
// transaction and returns the assigned id.
func (r *SQLiteRepository) CreateRequest(ctx context.Context, req *core.PaymentRequest) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO payment_requests (
			solicitante_id, obra_id, conta_id, titular_id, titular_nome,
			cpf_cnpj, referente, valor_cents, forma_pagamento, chave_pix,
			data_lancamento, data_competencia, data_pagamento,
			categoria, quem_paga, lancado, link_anexo, observacao
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Solicitante, req.Obra, req.Conta, req.Titular, req.TitularNome,
		req.CpfCnpj, req.Referente, req.Valor.Cents, string(req.FormaPagamento), req.ChavePix,
		req.DataLancamento.String(), req.DataCompetencia.String(), req.DataPagamento.String(),
		req.Categoria, req.QuemPaga, req.Lancado, req.LinkAnexo, req.Observacao)
	if err != nil {
		return 0, fmt.Errorf("insert request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertInstallments(ctx, tx, id, req.Parcelas); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// UpdateRequest replaces the stored request and its schedule, bumps the
// version and marks the row pending for the sheets mirror.
func (r *SQLiteRepository) UpdateRequest(ctx context.Context, req *core.PaymentRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE payment_requests SET
			obra_id = ?, conta_id = ?, titular_id = ?, titular_nome = ?,
			cpf_cnpj = ?, referente = ?, valor_cents = ?, forma_pagamento = ?, chave_pix = ?,
			data_lancamento = ?, data_competencia = ?, data_pagamento = ?,
			categoria = ?, quem_paga = ?, lancado = ?, link_anexo = ?, observacao = ?,
			version = version + 1, sync_status = 'pending'
		WHERE id = ?`,
		req.Obra, req.Conta, req.Titular, req.TitularNome,
		req.CpfCnpj, req.Referente, req.Valor.Cents, string(req.FormaPagamento), req.ChavePix,
		req.DataLancamento.String(), req.DataCompetencia.String(), req.DataPagamento.String(),
		req.Categoria, req.QuemPaga, req.Lancado, req.LinkAnexo, req.Observacao,
		req.ID)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM installments WHERE request_id = ?", req.ID); err != nil {
		return fmt.Errorf("clear installments: %w", err)
	}
	if err := insertInstallments(ctx, tx, req.ID, req.Parcelas); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertInstallments(ctx context.Context, tx *sql.Tx, requestID int64, parcelas []core.Installment) error {
	for _, p := range parcelas {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO installments (request_id, numero, valor_cents, vencimento)
			VALUES (?, ?, ?, ?)`,
			requestID, p.Number, p.Amount.Cents, p.DueDate.String())
		if err != nil {
			return fmt.Errorf("insert installment %d: %w", p.Number, err)
		}
	}
	return nil
}

// GetRequest loads a single request with its installments.
func (r *SQLiteRepository) GetRequest(ctx context.Context, id int64) (*core.PaymentRequest, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM payment_requests WHERE id = ?", id)

	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}

	if err := r.loadInstallments(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests returns requests newest first. A non-empty obras slice
// restricts the result to those obras, which is how non-admin users only see
// their own assignments.
func (r *SQLiteRepository) ListRequests(ctx context.Context, obras []int64) ([]core.PaymentRequest, error) {
	query := "SELECT " + requestColumns + " FROM payment_requests"
	var args []any
	if len(obras) > 0 {
		query += " WHERE obra_id IN (?" + strings.Repeat(",?", len(obras)-1) + ")"
		for _, o := range obras {
			args = append(args, o)
		}
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []core.PaymentRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	for i := range requests {
		if err := r.loadInstallments(ctx, &requests[i]); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// GetRequestsByIDs loads the given requests in the order of the id list,
// which is the order the export preserves.
func (r *SQLiteRepository) GetRequestsByIDs(ctx context.Context, ids []int64) ([]core.PaymentRequest, error) {
	requests := make([]core.PaymentRequest, 0, len(ids))
	for _, id := range ids {
		req, err := r.GetRequest(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, nil
}

// DeleteRequest removes a request; installments go with it via the cascade.
func (r *SQLiteRepository) DeleteRequest(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM payment_requests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingSyncRequest is the minimal row handed to the sync queue.
type PendingSyncRequest struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// GetPendingSync returns requests whose latest version has not reached the
// sheets mirror yet.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSyncRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, carimbo FROM payment_requests
		WHERE sync_status = 'pending'
		ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync requests: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncRequest
	for rows.Next() {
		var p PendingSyncRequest
		var carimbo string
		if err := rows.Scan(&p.ID, &p.Version, &carimbo); err != nil {
			return nil, fmt.Errorf("scan pending request: %w", err)
		}
		p.CreatedAt, _ = time.Parse(time.DateTime, carimbo)
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkSynced records that the given version reached the mirror. A row edited
// since stays pending because its version no longer matches.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_requests SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return fmt.Errorf("mark request synced: %w", err)
	}
	return nil
}

// MarkSyncError flags a request whose mirror write keeps failing.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE payment_requests SET sync_status = 'error' WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark request sync error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) loadInstallments(ctx context.Context, req *core.PaymentRequest) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT numero, valor_cents, vencimento FROM installments
		WHERE request_id = ? ORDER BY numero ASC`, req.ID)
	if err != nil {
		return fmt.Errorf("load installments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p core.Installment
		var vencimento string
		if err := rows.Scan(&p.Number, &p.Amount.Cents, &vencimento); err != nil {
			return fmt.Errorf("scan installment: %w", err)
		}
		if p.DueDate, err = core.ParseDate(vencimento); err != nil {
			return fmt.Errorf("parse vencimento: %w", err)
		}
		req.Parcelas = append(req.Parcelas, p)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*core.PaymentRequest, error) {
	var (
		req                                core.PaymentRequest
		forma                              string
		lancamento, competencia, pagamento string
		carimbo                            string
	)
	err := row.Scan(&req.ID, &req.Solicitante, &req.Obra, &req.Conta, &req.Titular, &req.TitularNome,
		&req.CpfCnpj, &req.Referente, &req.Valor.Cents, &forma, &req.ChavePix,
		&lancamento, &competencia, &pagamento,
		&req.Categoria, &req.QuemPaga, &req.Lancado, &req.LinkAnexo, &req.Observacao, &carimbo, &req.Version)
	if err != nil {
		return nil, err
	}

	req.FormaPagamento = core.PaymentMethod(forma)
	if req.DataLancamento, err = core.ParseDate(lancamento); err != nil {
		return nil, fmt.Errorf("parse data_lancamento: %w", err)
	}
	if req.DataCompetencia, err = core.ParseDate(competencia); err != nil {
		return nil, fmt.Errorf("parse data_competencia: %w", err)
	}
	if req.DataPagamento, err = core.ParseDate(pagamento); err != nil {
		return nil, fmt.Errorf("parse data_pagamento: %w", err)
	}
	req.Carimbo, _ = time.Parse(time.DateTime, carimbo)
	return &req, nil
}
