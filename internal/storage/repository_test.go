package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", s, err)
	}
	return d
}

func seedTransaction(t *testing.T, repo *SQLiteRepository, cents int64, txType core.TransactionType, categoryID *int64, date string) *core.Transaction {
	t.Helper()
	tx, err := repo.CreateTransaction(context.Background(), core.ValidTransaction{
		Amount:      core.Money{Cents: cents},
		Type:        txType,
		CategoryID:  categoryID,
		Description: "seed",
		Date:        mustDate(t, date),
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	return tx
}

func i64ptr(v int64) *int64 { return &v }
func intptr(v int) *int     { return &v }

func TestCreateAndGetTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := seedTransaction(t, repo, 1250, core.Expense, i64ptr(2), "2025-03-01")
	if created.ID == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := repo.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected transaction, got nil")
	}
	if got.Amount.Cents != 1250 {
		t.Errorf("Amount.Cents = %d, want 1250", got.Amount.Cents)
	}
	if got.Type != core.Expense {
		t.Errorf("Type = %q, want expense", got.Type)
	}
	if got.CategoryID == nil || *got.CategoryID != 2 {
		t.Errorf("CategoryID = %v, want 2", got.CategoryID)
	}
	if got.Date.String() != "2025-03-01" {
		t.Errorf("Date = %q, want 2025-03-01", got.Date.String())
	}
}

func TestGetTransactionMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetTransaction(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing transaction, got %+v", got)
	}
}

func TestFindTransactionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedTransaction(t, repo, 100, core.Expense, i64ptr(1), "2025-01-10")
	seedTransaction(t, repo, 200, core.Expense, i64ptr(2), "2025-02-10")
	seedTransaction(t, repo, 300, core.Income, i64ptr(101), "2025-02-15")
	seedTransaction(t, repo, 400, core.Expense, i64ptr(2), "2025-03-10")

	income := core.Income
	expense := core.Expense

	tests := []struct {
		name   string
		filter TransactionFilter
		want   int
	}{
		{"no filter", TransactionFilter{}, 4},
		{"by type income", TransactionFilter{Type: &income}, 1},
		{"by type expense", TransactionFilter{Type: &expense}, 3},
		{"by category", TransactionFilter{CategoryID: i64ptr(2)}, 2},
		{"start date inclusive", TransactionFilter{StartDate: ptrDate(t, "2025-02-10")}, 3},
		{"end date inclusive", TransactionFilter{EndDate: ptrDate(t, "2025-02-10")}, 2},
		{"date range", TransactionFilter{StartDate: ptrDate(t, "2025-02-01"), EndDate: ptrDate(t, "2025-02-28")}, 2},
		{"type and category", TransactionFilter{Type: &expense, CategoryID: i64ptr(2)}, 2},
		{"type category and range", TransactionFilter{Type: &expense, CategoryID: i64ptr(2), StartDate: ptrDate(t, "2025-03-01"), EndDate: ptrDate(t, "2025-03-31")}, 1},
		{"limit", TransactionFilter{Limit: intptr(2)}, 2},
		{"offset only", TransactionFilter{Offset: intptr(3)}, 1},
		{"limit and offset", TransactionFilter{Limit: intptr(2), Offset: intptr(3)}, 1},
		{"no matches", TransactionFilter{CategoryID: i64ptr(77)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("FindTransactions() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d transactions, want %d", len(got), tt.want)
			}
		})
	}
}

func ptrDate(t *testing.T, s string) *core.Date {
	t.Helper()
	d := mustDate(t, s)
	return &d
}

func TestUpdateTransactionPartial(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := seedTransaction(t, repo, 500, core.Expense, i64ptr(1), "2025-04-01")

	desc := "rent, updated"
	got, err := repo.UpdateTransaction(ctx, created.ID, core.TransactionPatch{
		Amount:      &core.Money{Cents: 750},
		Description: &desc,
	}, time.Now())
	if err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected updated transaction, got nil")
	}
	if got.Amount.Cents != 750 {
		t.Errorf("Amount.Cents = %d, want 750", got.Amount.Cents)
	}
	if got.Description != desc {
		t.Errorf("Description = %q, want %q", got.Description, desc)
	}
	// untouched fields survive
	if got.Date.String() != "2025-04-01" {
		t.Errorf("Date = %q, want 2025-04-01", got.Date.String())
	}
	if got.CategoryID == nil || *got.CategoryID != 1 {
		t.Errorf("CategoryID = %v, want 1", got.CategoryID)
	}
}

func TestUpdateTransactionMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.UpdateTransaction(context.Background(), 404, core.TransactionPatch{
		Amount: &core.Money{Cents: 1},
	}, time.Now())
	if err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing transaction, got %+v", got)
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := seedTransaction(t, repo, 100, core.Expense, nil, "2025-05-01")

	deleted, err := repo.DeleteTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if !deleted {
		t.Error("expected delete to report true")
	}

	again, err := repo.DeleteTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeleteTransaction() second call error = %v", err)
	}
	if again {
		t.Error("expected delete of missing row to report false")
	}
}

func TestIncomeStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.IncomeStats(ctx)
	if err != nil {
		t.Fatalf("IncomeStats() error = %v", err)
	}
	if empty.TotalIncome.Cents != 0 || empty.IncomeCount != 0 {
		t.Errorf("empty table stats = %+v, want zeroes", empty)
	}

	seedTransaction(t, repo, 100000, core.Income, i64ptr(101), "2025-01-01")
	seedTransaction(t, repo, 50000, core.Income, i64ptr(102), "2025-01-15")
	seedTransaction(t, repo, 2500, core.Expense, i64ptr(1), "2025-01-20")

	stats, err := repo.IncomeStats(ctx)
	if err != nil {
		t.Fatalf("IncomeStats() error = %v", err)
	}
	if stats.TotalIncome.Cents != 150000 {
		t.Errorf("TotalIncome.Cents = %d, want 150000", stats.TotalIncome.Cents)
	}
	if stats.IncomeCount != 2 {
		t.Errorf("IncomeCount = %d, want 2", stats.IncomeCount)
	}
}

func TestExpenseStatsCountsAllTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedTransaction(t, repo, 2500, core.Expense, i64ptr(1), "2025-01-05")
	seedTransaction(t, repo, 1500, core.Expense, i64ptr(2), "2025-01-06")
	seedTransaction(t, repo, 100000, core.Income, i64ptr(101), "2025-01-07")

	stats, err := repo.ExpenseStats(ctx)
	if err != nil {
		t.Fatalf("ExpenseStats() error = %v", err)
	}
	if stats.TotalExpense.Cents != 4000 {
		t.Errorf("TotalExpense.Cents = %d, want 4000", stats.TotalExpense.Cents)
	}
	// the count spans every type, not just expenses
	if stats.TransactionCount != 3 {
		t.Errorf("TransactionCount = %d, want 3", stats.TransactionCount)
	}
}

func TestListCategoriesSeeded(t *testing.T) {
	repo := newTestRepo(t)

	cats, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) != 13 {
		t.Fatalf("got %d categories, want 13", len(cats))
	}
	if cats[0].ID != 1 || cats[0].Name != "Housing" {
		t.Errorf("first category = %+v, want id 1 Housing", cats[0])
	}
	var incomeCount int
	for _, c := range cats {
		if c.Type == core.Income {
			incomeCount++
			if c.ID < 101 || c.ID > 105 {
				t.Errorf("income category id %d outside 101-105", c.ID)
			}
		}
	}
	if incomeCount != 5 {
		t.Errorf("got %d income categories, want 5", incomeCount)
	}
}

func seedSubscription(t *testing.T, repo *SQLiteRepository, name string, active bool, next string) *core.Subscription {
	t.Helper()
	sub, err := repo.CreateSubscription(context.Background(), core.ValidSubscription{
		Name:            name,
		Amount:          core.Money{Cents: 999},
		BillingCycle:    core.Monthly,
		NextBillingDate: mustDate(t, next),
		CategoryID:      i64ptr(5),
		Active:          active,
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}
	return sub
}

func TestSubscriptionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := seedSubscription(t, repo, "Streaming", true, "2025-06-01")

	got, err := repo.GetSubscription(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSubscription() error = %v", err)
	}
	if got == nil || got.Name != "Streaming" {
		t.Fatalf("GetSubscription() = %+v, want Streaming", got)
	}

	inactive := false
	cents := core.Money{Cents: 1299}
	updated, err := repo.UpdateSubscription(ctx, created.ID, core.SubscriptionPatch{
		Amount: &cents,
		Active: &inactive,
	}, time.Now())
	if err != nil {
		t.Fatalf("UpdateSubscription() error = %v", err)
	}
	if updated.Amount.Cents != 1299 {
		t.Errorf("Amount.Cents = %d, want 1299", updated.Amount.Cents)
	}
	if updated.Active {
		t.Error("expected subscription to be inactive")
	}
	if updated.BillingCycle != core.Monthly {
		t.Errorf("BillingCycle = %q, want monthly", updated.BillingCycle)
	}

	deleted, err := repo.DeleteSubscription(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeleteSubscription() error = %v", err)
	}
	if !deleted {
		t.Error("expected delete to report true")
	}
	missing, err := repo.GetSubscription(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSubscription() after delete error = %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil after delete, got %+v", missing)
	}
}

func TestDueSubscriptions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	due := seedSubscription(t, repo, "Due", true, "2025-06-01")
	seedSubscription(t, repo, "Future", true, "2025-08-01")
	seedSubscription(t, repo, "Paused", false, "2025-06-01")

	got, err := repo.DueSubscriptions(ctx, mustDate(t, "2025-07-01"))
	if err != nil {
		t.Fatalf("DueSubscriptions() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d due subscriptions, want 1", len(got))
	}
	if got[0].ID != due.ID {
		t.Errorf("due subscription id = %d, want %d", got[0].ID, due.ID)
	}
}

func TestAdvanceSubscription(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := seedSubscription(t, repo, "Gym", true, "2025-06-01")

	if err := repo.AdvanceSubscription(ctx, created.ID, mustDate(t, "2025-07-01"), time.Now()); err != nil {
		t.Fatalf("AdvanceSubscription() error = %v", err)
	}

	got, err := repo.GetSubscription(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSubscription() error = %v", err)
	}
	if got.NextBillingDate.String() != "2025-07-01" {
		t.Errorf("NextBillingDate = %q, want 2025-07-01", got.NextBillingDate.String())
	}
}
