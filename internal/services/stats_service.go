package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/cache"
	"tally/internal/core"
)

// StatsStore is the aggregate-query surface of the repository.
type StatsStore interface {
	IncomeStats(ctx context.Context) (core.IncomeStats, error)
	ExpenseStats(ctx context.Context) (core.ExpenseStats, error)
}

const (
	incomeStatsKey  = "stats:income"
	expenseStatsKey = "stats:expense"
)

// StatsService serves the income and expense aggregates with a small
// read-through cache. Every transaction write must call Invalidate so the
// aggregates never lag behind the table.
type StatsService struct {
	store        StatsStore
	incomeCache  *cache.LRUCache[core.IncomeStats]
	expenseCache *cache.LRUCache[core.ExpenseStats]
}

func NewStatsService(store StatsStore, ttl time.Duration) *StatsService {
	return &StatsService{
		store:        store,
		incomeCache:  cache.NewLRUCache[core.IncomeStats](1, ttl),
		expenseCache: cache.NewLRUCache[core.ExpenseStats](1, ttl),
	}
}

// RegisterCaches adds the stats caches to a cleanup manager.
func (s *StatsService) RegisterCaches(m *cache.Manager) {
	m.Register(s.incomeCache)
	m.Register(s.expenseCache)
}

// Income returns the income aggregate: total and count of income
// transactions only.
func (s *StatsService) Income(ctx context.Context) (core.IncomeStats, error) {
	if cached, ok := s.incomeCache.Get(incomeStatsKey); ok {
		return cached, nil
	}

	stats, err := s.store.IncomeStats(ctx)
	if err != nil {
		return core.IncomeStats{}, fmt.Errorf("income stats: %w", err)
	}
	s.incomeCache.Set(incomeStatsKey, stats)
	return stats, nil
}

// Expense returns the expense aggregate. TotalExpense sums expense rows;
// TransactionCount counts all rows regardless of type.
func (s *StatsService) Expense(ctx context.Context) (core.ExpenseStats, error) {
	if cached, ok := s.expenseCache.Get(expenseStatsKey); ok {
		return cached, nil
	}

	stats, err := s.store.ExpenseStats(ctx)
	if err != nil {
		return core.ExpenseStats{}, fmt.Errorf("expense stats: %w", err)
	}
	s.expenseCache.Set(expenseStatsKey, stats)
	return stats, nil
}

// Summary fetches both aggregates concurrently.
func (s *StatsService) Summary(ctx context.Context) (core.SummaryStats, error) {
	var summary core.SummaryStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.Income(ctx)
		if err != nil {
			return err
		}
		summary.Income = stats
		return nil
	})
	g.Go(func() error {
		stats, err := s.Expense(ctx)
		if err != nil {
			return err
		}
		summary.Expense = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.SummaryStats{}, err
	}
	return summary, nil
}

// Invalidate drops both cached aggregates after a transaction write.
func (s *StatsService) Invalidate() {
	s.incomeCache.Delete(incomeStatsKey)
	s.expenseCache.Delete(expenseStatsKey)
}
