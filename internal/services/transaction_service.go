package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

// TransactionStore is the storage surface the transaction service needs.
// *storage.SQLiteRepository satisfies it; tests substitute a fake.
type TransactionStore interface {
	FindTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
	CreateTransaction(ctx context.Context, v core.ValidTransaction, now time.Time) (*core.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch, now time.Time) (*core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
}

// EventPublisher publishes transaction lifecycle events. Nil disables
// publishing entirely.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, id int64, action string) error
}

// TransactionResult is the uniform outcome of a transaction operation.
// Exactly one of the three shapes holds: Success with a Transaction,
// NotFound, or validation Errors. Store failures surface as a plain error
// from the method instead.
type TransactionResult struct {
	Success     bool              `json:"success"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	NotFound    bool              `json:"-"`
	Errors      []core.FieldError `json:"errors,omitempty"`
}

func resultOK(tx *core.Transaction) TransactionResult {
	return TransactionResult{Success: true, Transaction: tx}
}

func resultNotFound() TransactionResult {
	return TransactionResult{NotFound: true}
}

func resultInvalid(errs []core.FieldError) TransactionResult {
	return TransactionResult{Errors: errs}
}

// TransactionService orchestrates transaction operations across the store,
// the category catalog and AMQP. Writes go to the store first; event
// publishing is best effort and never fails the request.
type TransactionService struct {
	store     TransactionStore
	catalog   *core.Catalog
	publisher EventPublisher
	now       func() time.Time
}

func NewTransactionService(store TransactionStore, catalog *core.Catalog, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		catalog:   catalog,
		publisher: publisher,
		now:       time.Now,
	}
}

// List returns the transactions matching the filter, each enriched with its
// category from the catalog.
func (s *TransactionService) List(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	txs, err := s.store.FindTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	for i := range txs {
		s.enrich(&txs[i])
	}
	return txs, nil
}

// Get fetches one transaction by its raw id string.
func (s *TransactionService) Get(ctx context.Context, rawID string) (TransactionResult, error) {
	id, fieldErr := core.ValidateID(rawID)
	if fieldErr != nil {
		return resultInvalid([]core.FieldError{*fieldErr}), nil
	}

	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return TransactionResult{}, err
	}
	if tx == nil {
		return resultNotFound(), nil
	}
	s.enrich(tx)
	return resultOK(tx), nil
}

// Create validates and stores a new transaction, then publishes a created
// event.
func (s *TransactionService) Create(ctx context.Context, in core.TransactionInput) (TransactionResult, error) {
	res := core.ValidateTransactionCreate(in)
	if !res.Success {
		return resultInvalid(res.Errors), nil
	}

	tx, err := s.store.CreateTransaction(ctx, res.Data, s.now())
	if err != nil {
		return TransactionResult{}, fmt.Errorf("create transaction: %w", err)
	}

	s.publishEvent(ctx, tx.ID, amqp.ActionCreated)
	s.enrich(tx)
	return resultOK(tx), nil
}

// Update applies a partial update to an existing transaction. The stored
// record's type is injected into the payload before validation, so the type
// cannot change and income records keep their stricter rules even when the
// client omits the type field.
func (s *TransactionService) Update(ctx context.Context, rawID string, in core.TransactionInput) (TransactionResult, error) {
	id, fieldErr := core.ValidateID(rawID)
	if fieldErr != nil {
		return resultInvalid([]core.FieldError{*fieldErr}), nil
	}

	existing, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return TransactionResult{}, err
	}
	if existing == nil {
		return resultNotFound(), nil
	}

	in.Type = string(existing.Type)
	res := core.ValidateTransactionUpdate(in)
	if !res.Success {
		return resultInvalid(res.Errors), nil
	}

	tx, err := s.store.UpdateTransaction(ctx, id, res.Data, s.now())
	if err != nil {
		return TransactionResult{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	if tx == nil {
		// Deleted between the get and the update.
		return resultNotFound(), nil
	}

	s.publishEvent(ctx, tx.ID, amqp.ActionUpdated)
	s.enrich(tx)
	return resultOK(tx), nil
}

// Delete removes a transaction by its raw id string. A miss is reported as
// NotFound, not as an error.
func (s *TransactionService) Delete(ctx context.Context, rawID string) (TransactionResult, error) {
	id, fieldErr := core.ValidateID(rawID)
	if fieldErr != nil {
		return resultInvalid([]core.FieldError{*fieldErr}), nil
	}

	deleted, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if !deleted {
		return resultNotFound(), nil
	}

	s.publishEvent(ctx, id, amqp.ActionDeleted)
	return TransactionResult{Success: true}, nil
}

// enrich attaches the catalog category. An unknown or absent category id
// leaves Category nil.
func (s *TransactionService) enrich(tx *core.Transaction) {
	if s.catalog == nil || tx.CategoryID == nil {
		return
	}
	tx.Category = s.catalog.Lookup(*tx.CategoryID)
}

func (s *TransactionService) publishEvent(ctx context.Context, id int64, action string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping event",
			"id", id, "action", action)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, id, action); err != nil {
		// The write already succeeded locally.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "action", action, "error", err)
	}
}
