package core

import "time"

// Catalog is the category configuration consumed by enrichment and the
// categories endpoint. It is built once at startup and passed explicitly to
// whoever needs it; nothing in the tracker reads it from global state.
type Catalog struct {
	categories []Category
	byID       map[int64]Category
}

// catalogTimestamp is the fixed placeholder stamped on config-sourced
// categories so they present the same shape as stored records.
var catalogTimestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewCatalog builds a catalog from a category list.
func NewCatalog(categories []Category) *Catalog {
	byID := make(map[int64]Category, len(categories))
	for i := range categories {
		if categories[i].CreatedAt.IsZero() {
			categories[i].CreatedAt = catalogTimestamp
			categories[i].UpdatedAt = catalogTimestamp
		}
		byID[categories[i].ID] = categories[i]
	}
	return &Catalog{categories: categories, byID: byID}
}

// DefaultCatalog returns the built-in category set. Expense categories use
// the low id band; income categories occupy 101-105, matching the band the
// income validators accept.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Category{
		{ID: 1, Name: "Housing", Type: Expense, Color: "#8884d8"},
		{ID: 2, Name: "Groceries", Type: Expense, Color: "#82ca9d"},
		{ID: 3, Name: "Transport", Type: Expense, Color: "#ffc658"},
		{ID: 4, Name: "Health", Type: Expense, Color: "#ff8042"},
		{ID: 5, Name: "Entertainment", Type: Expense, Color: "#a4de6c"},
		{ID: 6, Name: "Dining Out", Type: Expense, Color: "#d0ed57"},
		{ID: 7, Name: "Utilities", Type: Expense, Color: "#83a6ed"},
		{ID: 8, Name: "Other", Type: Expense, Color: "#8dd1e1"},
		{ID: 101, Name: "Salary", Type: Income, Color: "#4caf50"},
		{ID: 102, Name: "Freelance", Type: Income, Color: "#66bb6a"},
		{ID: 103, Name: "Investments", Type: Income, Color: "#81c784"},
		{ID: 104, Name: "Gifts", Type: Income, Color: "#a5d6a7"},
		{ID: 105, Name: "Other Income", Type: Income, Color: "#c8e6c9"},
	})
}

// Lookup returns the category for an id, or nil when the id is unknown.
// Enrichment treats an unknown id as "no category", never as an error.
func (c *Catalog) Lookup(id int64) *Category {
	cat, okFound := c.byID[id]
	if !okFound {
		return nil
	}
	return &cat
}

// All returns every category in catalog order.
func (c *Catalog) All() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// ByType returns the categories of one transaction type.
func (c *Catalog) ByType(t TransactionType) []Category {
	var out []Category
	for _, cat := range c.categories {
		if cat.Type == t {
			out = append(out, cat)
		}
	}
	return out
}
