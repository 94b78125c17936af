package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the relational store for transactions, categories and
// subscriptions. It adds no consistency mechanism of its own; concurrent
// writes to the same row are last-write-wins at the database.
type SQLiteRepository struct {
	db *sql.DB
}

// TransactionFilter selects transactions. Every field is optional; all set
// predicates are AND-combined. Date bounds are inclusive on both sides.
type TransactionFilter struct {
	Type       *core.TransactionType
	CategoryID *int64
	StartDate  *core.Date
	EndDate    *core.Date
	Limit      *int
	Offset     *int
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

	if err := RunMigrations(dbPath); err != nil {
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

// Ping verifies the database connection, for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const transactionColumns = "id, amount_cents, type, category_id, description, date, created_at, updated_at"

// FindTransactions returns the transactions matching the filter in storage
// order. No matches is not an error: the result is simply empty.
func (r *SQLiteRepository) FindTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions"
	var conds []string
	var args []any

	if f.Type != nil {
		conds = append(conds, "type = ?")
		args = append(args, string(*f.Type))
	}
	if f.CategoryID != nil {
		conds = append(conds, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	switch {
	case f.StartDate != nil && f.EndDate != nil:
		conds = append(conds, "date BETWEEN ? AND ?")
		args = append(args, f.StartDate.String(), f.EndDate.String())
	case f.StartDate != nil:
		conds = append(conds, "date >= ?")
		args = append(args, f.StartDate.String())
	case f.EndDate != nil:
		conds = append(conds, "date <= ?")
		args = append(args, f.EndDate.String())
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// Limit and offset apply independently. SQLite needs a LIMIT clause to
	// accept OFFSET, so an offset-only filter gets the unbounded LIMIT -1.
	if f.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *f.Limit)
	} else if f.Offset != nil {
		query += " LIMIT -1"
	}
	if f.Offset != nil {
		query += " OFFSET ?"
		args = append(args, *f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetTransaction fetches one transaction by id. Absence is reported as
// (nil, nil), not as an error.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return &tx, nil
}

// CreateTransaction inserts a validated transaction, stamping both
// timestamps with now.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, v core.ValidTransaction, now time.Time) (*core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (amount_cents, type, category_id, description, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.Amount.Cents, string(v.Type), nullableID(v.CategoryID), v.Description, v.Date.String(), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"type", v.Type,
		"amount_cents", v.Amount.Cents,
		"date", v.Date.String())

	return r.GetTransaction(ctx, id)
}

// UpdateTransaction applies a partial update and re-stamps updated_at.
// Returns (nil, nil) when the row does not exist.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch, now time.Time) (*core.Transaction, error) {
	sets := []string{"updated_at = ?"}
	args := []any{now}

	if patch.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, patch.Amount.Cents)
	}
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, patch.Date.String())
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update transaction %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update transaction %d rows: %w", id, err)
	}
	if affected == 0 {
		return nil, nil
	}
	return r.GetTransaction(ctx, id)
}

// DeleteTransaction removes one row by id and reports whether anything was
// deleted. A miss is not an error.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete transaction %d rows: %w", id, err)
	}
	return affected > 0, nil
}

// IncomeStats sums and counts income transactions only. An empty table
// yields zeroes, never an error.
func (r *SQLiteRepository) IncomeStats(ctx context.Context) (core.IncomeStats, error) {
	var stats core.IncomeStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0), COUNT(*)
		FROM transactions WHERE type = 'income'`).
		Scan(&stats.TotalIncome.Cents, &stats.IncomeCount)
	if err != nil {
		return core.IncomeStats{}, fmt.Errorf("income stats: %w", err)
	}
	return stats, nil
}

// ExpenseStats sums expense amounts, while TransactionCount counts every
// transaction regardless of type. The asymmetry with IncomeStats is
// deliberate; see DESIGN.md.
func (r *SQLiteRepository) ExpenseStats(ctx context.Context) (core.ExpenseStats, error) {
	var stats core.ExpenseStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0), COUNT(*)
		FROM transactions`).
		Scan(&stats.TotalExpense.Cents, &stats.TransactionCount)
	if err != nil {
		return core.ExpenseStats{}, fmt.Errorf("expense stats: %w", err)
	}
	return stats, nil
}

// ListCategories returns the seeded category table in id order.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, type, color, created_at, updated_at FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var catType string
		if err := rows.Scan(&c.ID, &c.Name, &catType, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(catType)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

const subscriptionColumns = "id, name, amount_cents, billing_cycle, next_billing_date, category_id, active, created_at, updated_at"

// ListSubscriptions returns every subscription in storage order.
func (r *SQLiteRepository) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+subscriptionColumns+" FROM subscriptions")
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// DueSubscriptions returns the active subscriptions whose next billing date
// is on or before asOf.
func (r *SQLiteRepository) DueSubscriptions(ctx context.Context, asOf core.Date) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE active = 1 AND next_billing_date <= ?",
		asOf.String())
	if err != nil {
		return nil, fmt.Errorf("query due subscriptions: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// GetSubscription fetches one subscription by id; absence is (nil, nil).
func (r *SQLiteRepository) GetSubscription(ctx context.Context, id int64) (*core.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = ?", id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription %d: %w", id, err)
	}
	return &sub, nil
}

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, v core.ValidSubscription, now time.Time) (*core.Subscription, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (name, amount_cents, billing_cycle, next_billing_date, category_id, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Name, v.Amount.Cents, string(v.BillingCycle), v.NextBillingDate.String(),
		nullableID(v.CategoryID), v.Active, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("subscription insert id: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved",
		"id", id,
		"name", v.Name,
		"billing_cycle", v.BillingCycle,
		"next_billing_date", v.NextBillingDate.String())

	return r.GetSubscription(ctx, id)
}

func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, id int64, patch core.SubscriptionPatch, now time.Time) (*core.Subscription, error) {
	sets := []string{"updated_at = ?"}
	args := []any{now}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, patch.Amount.Cents)
	}
	if patch.BillingCycle != nil {
		sets = append(sets, "billing_cycle = ?")
		args = append(args, string(*patch.BillingCycle))
	}
	if patch.NextBillingDate != nil {
		sets = append(sets, "next_billing_date = ?")
		args = append(args, patch.NextBillingDate.String())
	}
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	if patch.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, *patch.Active)
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		"UPDATE subscriptions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update subscription %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update subscription %d rows: %w", id, err)
	}
	if affected == 0 {
		return nil, nil
	}
	return r.GetSubscription(ctx, id)
}

func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete subscription %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subscription %d rows: %w", id, err)
	}
	return affected > 0, nil
}

// AdvanceSubscription moves a subscription's next billing date forward
// after the billing worker has charged it.
func (r *SQLiteRepository) AdvanceSubscription(ctx context.Context, id int64, next core.Date, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE subscriptions SET next_billing_date = ?, updated_at = ? WHERE id = ?",
		next.String(), now, id)
	if err != nil {
		return fmt.Errorf("advance subscription %d: %w", id, err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var tx core.Transaction
	var txType, date string
	var categoryID sql.NullInt64
	if err := s.Scan(&tx.ID, &tx.Amount.Cents, &txType, &categoryID,
		&tx.Description, &date, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(txType)
	if categoryID.Valid {
		tx.CategoryID = &categoryID.Int64
	}
	parsed, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	tx.Date = parsed
	return tx, nil
}

func scanSubscription(s scanner) (core.Subscription, error) {
	var sub core.Subscription
	var cycle, next string
	var categoryID sql.NullInt64
	if err := s.Scan(&sub.ID, &sub.Name, &sub.Amount.Cents, &cycle, &next,
		&categoryID, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return core.Subscription{}, err
	}
	sub.BillingCycle = core.BillingCycle(cycle)
	if categoryID.Valid {
		sub.CategoryID = &categoryID.Int64
	}
	parsed, err := core.ParseDate(next)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("stored next billing date %q: %w", next, err)
	}
	sub.NextBillingDate = parsed
	return sub, nil
}

func collectSubscriptions(rows *sql.Rows) ([]core.Subscription, error) {
	var out []core.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
