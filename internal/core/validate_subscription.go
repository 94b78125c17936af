package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxNameLen caps subscription names, mirroring the description cap on
// transactions.
const maxNameLen = 200

// SubscriptionInput is the untyped create/update payload for a subscription.
type SubscriptionInput struct {
	Name            *string          `json:"name"`
	Amount          *decimal.Decimal `json:"amount"`
	BillingCycle    *string          `json:"billingCycle"`
	NextBillingDate *string          `json:"nextBillingDate"`
	CategoryID      *int64           `json:"categoryId"`
	Active          *bool            `json:"active"`
}

// ValidSubscription is a fully validated subscription payload.
type ValidSubscription struct {
	Name            string
	Amount          Money
	BillingCycle    BillingCycle
	NextBillingDate Date
	CategoryID      *int64
	Active          bool
}

// SubscriptionPatch is a validated partial update; nil fields are left
// unchanged.
type SubscriptionPatch struct {
	Name            *string
	Amount          *Money
	BillingCycle    *BillingCycle
	NextBillingDate *Date
	CategoryID      *int64
	Active          *bool
}

// ValidateSubscriptionCreate validates a full subscription payload. A
// subscription is a committed recurring charge, so its amount must be
// strictly positive.
func ValidateSubscriptionCreate(in SubscriptionInput) Result[ValidSubscription] {
	var errs []FieldError

	name := ""
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required", Code: CodeRequired})
	} else if len(*in.Name) > maxNameLen {
		errs = append(errs, FieldError{Field: "name", Message: "name is too long (max 200 characters)", Code: CodeOutOfRange})
	} else {
		name = strings.TrimSpace(*in.Name)
	}

	amount, amountErrs := checkSubscriptionAmount(in.Amount, true)
	errs = append(errs, amountErrs...)

	var cycle BillingCycle
	if in.BillingCycle == nil || *in.BillingCycle == "" {
		errs = append(errs, FieldError{Field: "billingCycle", Message: "billingCycle is required", Code: CodeRequired})
	} else if !BillingCycle(*in.BillingCycle).Valid() {
		errs = append(errs, FieldError{Field: "billingCycle", Message: "billingCycle must be weekly, monthly or yearly", Code: CodeInvalid})
	} else {
		cycle = BillingCycle(*in.BillingCycle)
	}

	var next Date
	if in.NextBillingDate == nil || strings.TrimSpace(*in.NextBillingDate) == "" {
		errs = append(errs, FieldError{Field: "nextBillingDate", Message: "nextBillingDate is required", Code: CodeRequired})
	} else if d, err := ParseDate(strings.TrimSpace(*in.NextBillingDate)); err != nil {
		errs = append(errs, FieldError{Field: "nextBillingDate", Message: "nextBillingDate must be a valid date (YYYY-MM-DD)", Code: CodeInvalid})
	} else {
		next = d
	}

	if in.CategoryID != nil && *in.CategoryID <= 0 {
		errs = append(errs, FieldError{Field: "categoryId", Message: "category must be a positive id", Code: CodeInvalid})
	}

	if len(errs) > 0 {
		return fail[ValidSubscription](errs)
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return ok(ValidSubscription{
		Name:            name,
		Amount:          amount,
		BillingCycle:    cycle,
		NextBillingDate: next,
		CategoryID:      in.CategoryID,
		Active:          active,
	})
}

// ValidateSubscriptionUpdate validates a partial subscription update.
func ValidateSubscriptionUpdate(in SubscriptionInput) Result[SubscriptionPatch] {
	var errs []FieldError
	patch := SubscriptionPatch{Active: in.Active}

	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if trimmed == "" {
			errs = append(errs, FieldError{Field: "name", Message: "name must not be empty", Code: CodeInvalid})
		} else if len(*in.Name) > maxNameLen {
			errs = append(errs, FieldError{Field: "name", Message: "name is too long (max 200 characters)", Code: CodeOutOfRange})
		} else {
			patch.Name = &trimmed
		}
	}

	if in.Amount != nil {
		amount, amountErrs := checkSubscriptionAmount(in.Amount, false)
		if len(amountErrs) > 0 {
			errs = append(errs, amountErrs...)
		} else {
			patch.Amount = &amount
		}
	}

	if in.BillingCycle != nil {
		cycle := BillingCycle(*in.BillingCycle)
		if !cycle.Valid() {
			errs = append(errs, FieldError{Field: "billingCycle", Message: "billingCycle must be weekly, monthly or yearly", Code: CodeInvalid})
		} else {
			patch.BillingCycle = &cycle
		}
	}

	if in.NextBillingDate != nil {
		d, err := ParseDate(strings.TrimSpace(*in.NextBillingDate))
		if err != nil {
			errs = append(errs, FieldError{Field: "nextBillingDate", Message: "nextBillingDate must be a valid date (YYYY-MM-DD)", Code: CodeInvalid})
		} else {
			patch.NextBillingDate = &d
		}
	}

	if in.CategoryID != nil {
		if *in.CategoryID <= 0 {
			errs = append(errs, FieldError{Field: "categoryId", Message: "category must be a positive id", Code: CodeInvalid})
		} else {
			patch.CategoryID = in.CategoryID
		}
	}

	if len(errs) > 0 {
		return fail[SubscriptionPatch](errs)
	}
	return ok(patch)
}

func checkSubscriptionAmount(d *decimal.Decimal, required bool) (Money, []FieldError) {
	if d == nil {
		if required {
			return Money{}, []FieldError{{Field: "amount", Message: "amount is required", Code: CodeRequired}}
		}
		return Money{}, nil
	}
	amount, err := FromDecimal(*d)
	if err != nil || amount.IsZero() {
		return Money{}, []FieldError{{Field: "amount", Message: "amount must be a positive number", Code: CodeInvalid}}
	}
	return amount, nil
}
