package worker

import (
	"context"
	"errors"
	"testing"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/sheets/memory"
)

type stubGetter struct {
	tx  *core.Transaction
	err error
}

func (s *stubGetter) GetTransaction(_ context.Context, _ int64) (*core.Transaction, error) {
	return s.tx, s.err
}

func catID(v int64) *int64 { return &v }

func TestHandleEventExportsCreated(t *testing.T) {
	date, _ := core.ParseDate("2025-04-01")
	getter := &stubGetter{tx: &core.Transaction{
		ID:          7,
		Amount:      core.Money{Cents: 1234},
		Type:        core.Expense,
		CategoryID:  catID(2),
		Description: "weekly shop",
		Date:        date,
	}}
	writer := memory.New()
	w := NewExportWorker(getter, writer, core.DefaultCatalog())

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEventMessage(7, amqp.ActionCreated))
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	rows := writer.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ID != 7 {
		t.Errorf("row ID = %d, want 7", rows[0].ID)
	}
	if rows[0].Category == nil || rows[0].Category.Name != "Groceries" {
		t.Errorf("row Category = %+v, want Groceries", rows[0].Category)
	}
}

func TestHandleEventSkipsNonCreate(t *testing.T) {
	writer := memory.New()
	w := NewExportWorker(&stubGetter{}, writer, core.DefaultCatalog())

	for _, action := range []string{amqp.ActionUpdated, amqp.ActionDeleted} {
		if err := w.HandleEvent(context.Background(), amqp.NewTransactionEventMessage(1, action)); err != nil {
			t.Fatalf("HandleEvent(%s) error = %v", action, err)
		}
	}
	if len(writer.Rows()) != 0 {
		t.Errorf("append-only export must skip %d non-create rows", len(writer.Rows()))
	}
}

func TestHandleEventMissingTransaction(t *testing.T) {
	writer := memory.New()
	w := NewExportWorker(&stubGetter{tx: nil}, writer, core.DefaultCatalog())

	// a row deleted before consumption is not an error; the event is acked
	if err := w.HandleEvent(context.Background(), amqp.NewTransactionEventMessage(9, amqp.ActionCreated)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(writer.Rows()) != 0 {
		t.Error("nothing should be exported for a missing transaction")
	}
}

func TestHandleEventStorageError(t *testing.T) {
	w := NewExportWorker(&stubGetter{err: errors.New("db locked")}, memory.New(), core.DefaultCatalog())

	if err := w.HandleEvent(context.Background(), amqp.NewTransactionEventMessage(9, amqp.ActionCreated)); err == nil {
		t.Error("storage errors must propagate so the delivery is retried")
	}
}
