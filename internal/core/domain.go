package core

import (
	"errors"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Weekly  BillingCycle = "weekly"
	Monthly BillingCycle = "monthly"
	Yearly  BillingCycle = "yearly"
)

type (
	TransactionType string

	BillingCycle string

	// Date is a calendar date with day precision. The time portion is
	// always midnight UTC.
	Date struct {
		time.Time
	}

	// Transaction is a single recorded money movement. Amount is always
	// positive; the direction is implied by Type.
	Transaction struct {
		ID          int64
		Amount      Money
		Type        TransactionType
		CategoryID  *int64
		Description string
		Date        Date
		CreatedAt   time.Time
		UpdatedAt   time.Time

		// Category is filled in by enrichment; nil when the referenced
		// category does not exist.
		Category *Category
	}

	// Category labels transactions of one type. Income categories occupy
	// the 101-105 id band; expense categories the low band.
	Category struct {
		ID        int64
		Name      string
		Type      TransactionType
		Color     string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Subscription is a recurring payment template. The billing worker
	// turns due subscriptions into expense transactions.
	Subscription struct {
		ID              int64
		Name            string
		Amount          Money
		BillingCycle    BillingCycle
		NextBillingDate Date
		CategoryID      *int64
		Active          bool
		CreatedAt       time.Time
		UpdatedAt       time.Time

		Category *Category
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidCycle  = errors.New("invalid billing cycle")
)

// dateLayout is the wire and storage format for calendar dates.
const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date. The string must be a
// real calendar date; "2025-02-30" is rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// IsEmpty reports whether the date was never set.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Valid reports whether t is one of the two known transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Valid reports whether c is a supported billing cycle.
func (c BillingCycle) Valid() bool {
	switch c {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}
