package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-01", true},
		{"2025-12-31", true},
		{"2025-02-30", false}, // not a real calendar date
		{"2025-13-01", false},
		{"01-01-2025", false},
		{"not-a-date", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseDate(%q) expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseDate(%q) expected error", tc.in)
		}
		if tc.ok && d.String() != tc.in {
			t.Fatalf("ParseDate(%q) round-trip mismatch: %q", tc.in, d.String())
		}
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 6, 15).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestTransactionTypeValid(t *testing.T) {
	if !Income.Valid() || !Expense.Valid() {
		t.Fatalf("expected income and expense to be valid")
	}
	if TransactionType("transfer").Valid() {
		t.Fatalf("expected unknown type to be invalid")
	}
	if TransactionType("").Valid() {
		t.Fatalf("expected empty type to be invalid")
	}
}

func TestBillingCycleValid(t *testing.T) {
	for _, c := range []BillingCycle{Weekly, Monthly, Yearly} {
		if !c.Valid() {
			t.Fatalf("expected %s to be valid", c)
		}
	}
	if BillingCycle("daily").Valid() {
		t.Fatalf("expected daily to be invalid")
	}
}
