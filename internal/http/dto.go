package http

import (
	"time"

	"tally/internal/core"
)

// Wire shapes for the JSON API. Amounts travel as decimal strings ("12.34")
// and dates as YYYY-MM-DD, matching what the validators accept on the way in.

type categoryResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

type transactionResponse struct {
	ID          int64             `json:"id"`
	Amount      string            `json:"amount"`
	Type        string            `json:"type"`
	CategoryID  *int64            `json:"categoryId,omitempty"`
	Category    *categoryResponse `json:"category,omitempty"`
	Description string            `json:"description"`
	Date        string            `json:"date"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type subscriptionResponse struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Amount          string            `json:"amount"`
	BillingCycle    string            `json:"billingCycle"`
	NextBillingDate string            `json:"nextBillingDate"`
	CategoryID      *int64            `json:"categoryId,omitempty"`
	Category        *categoryResponse `json:"category,omitempty"`
	Active          bool              `json:"active"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

type incomeStatsResponse struct {
	TotalIncome string `json:"totalIncome"`
	IncomeCount int64  `json:"incomeCount"`
}

type expenseStatsResponse struct {
	TotalExpense     string `json:"totalExpense"`
	TransactionCount int64  `json:"transactionCount"`
}

type summaryResponse struct {
	Income  incomeStatsResponse  `json:"income"`
	Expense expenseStatsResponse `json:"expense"`
	Balance string               `json:"balance"`
}

func toCategoryResponse(c *core.Category) *categoryResponse {
	if c == nil {
		return nil
	}
	return &categoryResponse{
		ID:    c.ID,
		Name:  c.Name,
		Type:  string(c.Type),
		Color: c.Color,
	}
}

func toTransactionResponse(tx *core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Amount:      tx.Amount.String(),
		Type:        string(tx.Type),
		CategoryID:  tx.CategoryID,
		Category:    toCategoryResponse(tx.Category),
		Description: tx.Description,
		Date:        tx.Date.String(),
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func toTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(txs))
	for i := range txs {
		out[i] = toTransactionResponse(&txs[i])
	}
	return out
}

func toSubscriptionResponse(sub *core.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:              sub.ID,
		Name:            sub.Name,
		Amount:          sub.Amount.String(),
		BillingCycle:    string(sub.BillingCycle),
		NextBillingDate: sub.NextBillingDate.String(),
		CategoryID:      sub.CategoryID,
		Category:        toCategoryResponse(sub.Category),
		Active:          sub.Active,
		CreatedAt:       sub.CreatedAt,
		UpdatedAt:       sub.UpdatedAt,
	}
}

func toSubscriptionList(subs []core.Subscription) []subscriptionResponse {
	out := make([]subscriptionResponse, len(subs))
	for i := range subs {
		out[i] = toSubscriptionResponse(&subs[i])
	}
	return out
}

func toIncomeStatsResponse(s core.IncomeStats) incomeStatsResponse {
	return incomeStatsResponse{
		TotalIncome: s.TotalIncome.String(),
		IncomeCount: s.IncomeCount,
	}
}

func toExpenseStatsResponse(s core.ExpenseStats) expenseStatsResponse {
	return expenseStatsResponse{
		TotalExpense:     s.TotalExpense.String(),
		TransactionCount: s.TransactionCount,
	}
}

func toSummaryResponse(s core.SummaryStats) summaryResponse {
	return summaryResponse{
		Income:  toIncomeStatsResponse(s.Income),
		Expense: toExpenseStatsResponse(s.Expense),
		Balance: s.Balance().String(),
	}
}
