package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/core"
)

// BillingStore is the storage surface of the billing processor.
type BillingStore interface {
	DueSubscriptions(ctx context.Context, asOf core.Date) ([]core.Subscription, error)
	AdvanceSubscription(ctx context.Context, id int64, next core.Date, now time.Time) error
}

// NextBillingDate returns the billing date one cycle after current. Monthly
// and yearly cycles keep the day of month, clamping to the last day when
// the target month is shorter (Jan 31 bills Feb 28, Feb 29 bills Feb 28 on
// non-leap years).
func NextBillingDate(current core.Date, cycle core.BillingCycle) (core.Date, error) {
	switch cycle {
	case core.Weekly:
		return core.Date{Time: current.AddDate(0, 0, 7)}, nil
	case core.Monthly:
		return addMonthsClamped(current, 1), nil
	case core.Yearly:
		return addMonthsClamped(current, 12), nil
	}
	return core.Date{}, fmt.Errorf("%w: %s", core.ErrInvalidCycle, cycle)
}

func addMonthsClamped(d core.Date, months int) core.Date {
	year, month, day := d.Date()
	// First of the target month, then clamp the day. AddDate alone would
	// normalize Jan 31 + 1 month into March.
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}

// BillingProcessor turns due subscriptions into expense transactions. Each
// due subscription produces one transaction per run and its next billing
// date advances one cycle; a subscription several cycles behind catches up
// across consecutive runs.
type BillingProcessor struct {
	store        BillingStore
	transactions *TransactionService
}

func NewBillingProcessor(store BillingStore, transactions *TransactionService) *BillingProcessor {
	return &BillingProcessor{
		store:        store,
		transactions: transactions,
	}
}

// ProcessDue charges every active subscription due on or before now and
// returns how many were billed. Failures on individual subscriptions are
// logged and skipped so one bad row cannot stall the rest.
func (p *BillingProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.transactions == nil {
		return 0, fmt.Errorf("billing processor not properly initialized")
	}

	asOf := core.NewDate(now.Year(), int(now.Month()), now.Day())
	due, err := p.store.DueSubscriptions(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("get due subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Processing due subscriptions",
		"due", len(due),
		"as_of", asOf.String())

	billed := 0
	for _, sub := range due {
		if err := p.bill(ctx, sub); err != nil {
			slog.ErrorContext(ctx, "Failed to bill subscription",
				"subscription_id", sub.ID,
				"name", sub.Name,
				"error", err)
			continue
		}
		billed++
	}

	slog.InfoContext(ctx, "Subscription billing complete",
		"billed", billed,
		"due", len(due))

	return billed, nil
}

func (p *BillingProcessor) bill(ctx context.Context, sub core.Subscription) error {
	amount := sub.Amount.Decimal()
	description := fmt.Sprintf("%s (subscription)", sub.Name)
	date := sub.NextBillingDate.String()

	res, err := p.transactions.Create(ctx, core.TransactionInput{
		Amount:      &amount,
		Type:        string(core.Expense),
		CategoryID:  sub.CategoryID,
		Description: &description,
		Date:        &date,
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("transaction rejected: %v", res.Errors)
	}

	next, err := NextBillingDate(sub.NextBillingDate, sub.BillingCycle)
	if err != nil {
		return err
	}

	if err := p.store.AdvanceSubscription(ctx, sub.ID, next, time.Now()); err != nil {
		// The charge went through; leaving the date behind means a double
		// charge on the next run, so this is worth surfacing loudly.
		return fmt.Errorf("advance next billing date: %w", err)
	}

	slog.InfoContext(ctx, "Billed subscription",
		"subscription_id", sub.ID,
		"name", sub.Name,
		"amount_cents", sub.Amount.Cents,
		"transaction_id", res.Transaction.ID,
		"next_billing_date", next.String())

	return nil
}
