// Package worker reconciles the Google Sheets ledger with the SQLite store.
// Messages from the API trigger immediate writes; a poll over the pending
// rows covers messages lost between the two.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jonatasvm/pagamento-sub000/internal/amqp"
	"github.com/Jonatasvm/pagamento-sub000/internal/log"
	"github.com/Jonatasvm/pagamento-sub000/internal/sheets"
	"github.com/Jonatasvm/pagamento-sub000/internal/storage"
)

// SyncWorker mirrors payment requests into the sheets ledger.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.LedgerWriter
	remover   sheets.LedgerRemover
	batchSize int
	log       *log.Logger
}

func NewSyncWorker(st *storage.SQLiteRepository, writer sheets.LedgerWriter, remover sheets.LedgerRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   st,
		writer:    writer,
		remover:   remover,
		batchSize: batchSize,
		log:       log.New(log.Config{Component: log.ComponentWorker}),
	}
}

// HandleMessage processes one reconcile message from the queue.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.RequestSyncMessage) error {
	switch msg.Action {
	case amqp.ActionDelete:
		return w.handleDelete(ctx, msg.ID)
	default:
		return w.handleUpsert(ctx, msg.ID)
	}
}

func (w *SyncWorker) handleUpsert(ctx context.Context, id int64) error {
	req, err := w.storage.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted between publish and delivery; the delete message
			// handles the mirror row.
			w.log.WarnContext(ctx, "Request vanished before sync", log.FieldPaymentID, id)
			return nil
		}
		return fmt.Errorf("get request from storage: %w", err)
	}

	ref, err := w.writer.Upsert(ctx, *req)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			w.log.ErrorContext(ctx, "Failed to mark sync error", log.FieldPaymentID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("upsert ledger row: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id, req.Version); err != nil {
		w.log.ErrorContext(ctx, "Failed to mark as synced", log.FieldPaymentID, id, log.FieldError, err)
	}

	w.log.InfoContext(ctx, "Synced request to ledger",
		log.FieldPaymentID, id,
		log.FieldVersion, req.Version,
		log.FieldSheetsRef, ref)
	return nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, id int64) error {
	if w.remover == nil {
		w.log.WarnContext(ctx, "No ledger remover configured, skipping delete", log.FieldPaymentID, id)
		return nil
	}
	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove ledger row: %w", err)
	}
	w.log.InfoContext(ctx, "Removed request from ledger", log.FieldPaymentID, id)
	return nil
}

// ProcessPending pushes requests whose sync message never arrived. Called at
// startup and on every poll tick.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending requests: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.log.InfoContext(ctx, "Processing pending requests", "count", len(pending))

	for _, p := range pending {
		if err := w.handleUpsert(ctx, p.ID); err != nil {
			w.log.ErrorContext(ctx, "Failed to sync pending request", log.FieldPaymentID, p.ID, log.FieldError, err)
		}
	}
	return nil
}
