package sheets

import (
	"context"

	"github.com/Jonatasvm/pagamento-sub000/internal/core"
)

// Ports for the ledger mirror adapters.
type (
	// LedgerWriter keeps one spreadsheet row per payment request. Upsert
	// replaces the row when the request id is already present, so replays
	// and re-edits stay idempotent.
	LedgerWriter interface {
		Upsert(ctx context.Context, r core.PaymentRequest) (rowRef string, err error)
	}

	// LedgerRemover deletes a request's row from the mirror.
	LedgerRemover interface {
		Remove(ctx context.Context, requestID int64) error
	}
)
