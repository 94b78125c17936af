package core

// IncomeStats aggregates income transactions only.
type IncomeStats struct {
	TotalIncome Money
	IncomeCount int64
}

// ExpenseStats aggregates expense amounts. TransactionCount is the count of
// ALL transactions regardless of type; it is a total-activity counter that
// ships with the expense view, not an expense-only count. See DESIGN.md.
type ExpenseStats struct {
	TotalExpense     Money
	TransactionCount int64
}

// SummaryStats combines both aggregate views for the dashboard.
type SummaryStats struct {
	Income  IncomeStats
	Expense ExpenseStats
}

// Balance returns income minus expenses in cents.
func (s SummaryStats) Balance() Money {
	return Money{Cents: s.Income.TotalIncome.Cents - s.Expense.TotalExpense.Cents}
}
