// Package worker exports transactions to Google Sheets as they change.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/sheets"
)

// TransactionGetter is the slice of the repository the worker needs.
type TransactionGetter interface {
	GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
}

// ExportWorker consumes transaction events and appends created transactions
// to the export sheet. The sheet is append-only, so updated and deleted
// events are acknowledged without touching it.
type ExportWorker struct {
	storage TransactionGetter
	sheets  sheets.TransactionWriter
	catalog *core.Catalog
}

func NewExportWorker(storage TransactionGetter, writer sheets.TransactionWriter, catalog *core.Catalog) *ExportWorker {
	return &ExportWorker{
		storage: storage,
		sheets:  writer,
		catalog: catalog,
	}
}

// HandleEvent processes one transaction event. Returning an error nacks
// the delivery for redelivery.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"id", msg.ID,
		"action", msg.Action)

	if msg.Action != amqp.ActionCreated {
		slog.DebugContext(ctx, "Skipping non-create event for append-only export",
			"id", msg.ID,
			"action", msg.Action)
		return nil
	}

	tx, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", msg.ID, err)
	}
	if tx == nil {
		// Deleted before the event was consumed. Nothing to export.
		slog.WarnContext(ctx, "Transaction gone before export, skipping", "id", msg.ID)
		return nil
	}

	if w.catalog != nil && tx.CategoryID != nil {
		tx.Category = w.catalog.Lookup(*tx.CategoryID)
	}

	ref, err := w.sheets.Append(ctx, *tx)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", tx.ID,
		"sheets_ref", ref,
		"amount_cents", tx.Amount.Cents)

	return nil
}
