package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tally/internal/core"
)

func TestNextBillingDate(t *testing.T) {
	tests := []struct {
		name    string
		current string
		cycle   core.BillingCycle
		want    string
	}{
		{"weekly", "2025-06-01", core.Weekly, "2025-06-08"},
		{"weekly across month", "2025-06-28", core.Weekly, "2025-07-05"},
		{"monthly", "2025-06-15", core.Monthly, "2025-07-15"},
		{"monthly across year", "2025-12-15", core.Monthly, "2026-01-15"},
		{"monthly clamps to short month", "2025-01-31", core.Monthly, "2025-02-28"},
		{"monthly clamps to leap day", "2024-01-31", core.Monthly, "2024-02-29"},
		{"monthly from clamped date", "2025-04-30", core.Monthly, "2025-05-30"},
		{"yearly", "2025-03-10", core.Yearly, "2026-03-10"},
		{"yearly from leap day", "2024-02-29", core.Yearly, "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, err := core.ParseDate(tt.current)
			if err != nil {
				t.Fatalf("ParseDate(%q) error = %v", tt.current, err)
			}
			got, err := NextBillingDate(current, tt.cycle)
			if err != nil {
				t.Fatalf("NextBillingDate() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("NextBillingDate(%s, %s) = %s, want %s", tt.current, tt.cycle, got.String(), tt.want)
			}
		})
	}
}

func TestNextBillingDateUnknownCycle(t *testing.T) {
	current, _ := core.ParseDate("2025-06-01")
	if _, err := NextBillingDate(current, core.BillingCycle("daily")); !errors.Is(err, core.ErrInvalidCycle) {
		t.Errorf("expected ErrInvalidCycle, got %v", err)
	}
}

type fakeBillingStore struct {
	due      []core.Subscription
	advanced map[int64]core.Date
	dueErr   error
}

func (f *fakeBillingStore) DueSubscriptions(_ context.Context, _ core.Date) ([]core.Subscription, error) {
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	return f.due, nil
}

func (f *fakeBillingStore) AdvanceSubscription(_ context.Context, id int64, next core.Date, _ time.Time) error {
	if f.advanced == nil {
		f.advanced = make(map[int64]core.Date)
	}
	f.advanced[id] = next
	return nil
}

func testSubscription(t *testing.T, id int64, name string, cents int64, next string) core.Subscription {
	t.Helper()
	date, err := core.ParseDate(next)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", next, err)
	}
	return core.Subscription{
		ID:              id,
		Name:            name,
		Amount:          core.Money{Cents: cents},
		BillingCycle:    core.Monthly,
		NextBillingDate: date,
		CategoryID:      idPtr(5),
		Active:          true,
	}
}

func TestBillingProcessorProcessDue(t *testing.T) {
	txSvc, txStore, publisher := newTestTransactionService()
	billingStore := &fakeBillingStore{
		due: []core.Subscription{
			testSubscription(t, 1, "Streaming", 999, "2025-06-01"),
			testSubscription(t, 2, "Gym", 2500, "2025-06-15"),
		},
	}
	processor := NewBillingProcessor(billingStore, txSvc)

	now := time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC)
	billed, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if billed != 2 {
		t.Fatalf("billed = %d, want 2", billed)
	}

	if len(txStore.transactions) != 2 {
		t.Fatalf("store has %d transactions, want 2", len(txStore.transactions))
	}
	first := txStore.transactions[1]
	if first.Type != core.Expense {
		t.Errorf("Type = %q, want expense", first.Type)
	}
	if first.Amount.Cents != 999 {
		t.Errorf("Amount.Cents = %d, want 999", first.Amount.Cents)
	}
	if first.Description != "Streaming (subscription)" {
		t.Errorf("Description = %q", first.Description)
	}
	// the transaction lands on the scheduled date, not on the run date
	if first.Date.String() != "2025-06-01" {
		t.Errorf("Date = %q, want 2025-06-01", first.Date.String())
	}

	if next := billingStore.advanced[1]; next.String() != "2025-07-01" {
		t.Errorf("advanced[1] = %q, want 2025-07-01", next.String())
	}
	if next := billingStore.advanced[2]; next.String() != "2025-07-15" {
		t.Errorf("advanced[2] = %q, want 2025-07-15", next.String())
	}

	if len(publisher.events) != 2 {
		t.Errorf("published %d events, want 2", len(publisher.events))
	}
}

func TestBillingProcessorSkipsBadSubscription(t *testing.T) {
	txSvc, txStore, _ := newTestTransactionService()
	bad := testSubscription(t, 1, "Broken", 999, "2025-06-01")
	bad.BillingCycle = core.BillingCycle("daily")
	billingStore := &fakeBillingStore{
		due: []core.Subscription{
			bad,
			testSubscription(t, 2, "Gym", 2500, "2025-06-15"),
		},
	}
	processor := NewBillingProcessor(billingStore, txSvc)

	billed, err := processor.ProcessDue(context.Background(), time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if billed != 1 {
		t.Errorf("billed = %d, want 1; the broken subscription is skipped", billed)
	}
	if _, ok := billingStore.advanced[2]; !ok {
		t.Error("healthy subscription should still advance")
	}
	// the broken subscription still charged before the cycle error; only
	// its date advance failed
	if len(txStore.transactions) != 2 {
		t.Errorf("store has %d transactions, want 2", len(txStore.transactions))
	}
}

func TestBillingProcessorStoreError(t *testing.T) {
	txSvc, _, _ := newTestTransactionService()
	processor := NewBillingProcessor(&fakeBillingStore{dueErr: errors.New("db locked")}, txSvc)

	if _, err := processor.ProcessDue(context.Background(), time.Now()); err == nil {
		t.Error("ProcessDue() should propagate store errors")
	}
}
