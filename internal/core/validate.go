package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldError describes a single validation failure on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error codes attached to field errors.
const (
	CodeRequired   = "required"
	CodeInvalid    = "invalid"
	CodeOutOfRange = "out_of_range"
)

// Result is the uniform outcome of a validation: either Success with the
// validated and coerced Data, or a list of field errors. Validators never
// panic and never return both.
type Result[T any] struct {
	Success bool         `json:"success"`
	Data    T            `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](errs []FieldError) Result[T] {
	return Result[T]{Errors: errs}
}

// Income category ids live in a fixed band of the catalog.
const (
	IncomeCategoryMin = 101
	IncomeCategoryMax = 105
)

// TransactionInput is the untyped create/update payload for a transaction.
// Pointer fields distinguish "absent" from "zero value" so the update
// validators can treat missing fields as "leave unchanged".
type TransactionInput struct {
	Amount      *decimal.Decimal `json:"amount"`
	Type        string           `json:"type"`
	CategoryID  *int64           `json:"categoryId"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
}

// ValidTransaction is a fully validated and coerced transaction payload.
type ValidTransaction struct {
	Amount      Money
	Type        TransactionType
	CategoryID  *int64
	Description string
	Date        Date
}

// TransactionPatch is a validated partial update. Nil fields are left
// unchanged by the storage layer. Type is never part of a patch: the
// existing record's type is injected before validation and is immutable.
type TransactionPatch struct {
	Amount      *Money
	CategoryID  *int64
	Description *string
	Date        *Date
}

// ValidateTransactionCreate dispatches between the income schema and the
// general/expense schema based on the payload's type discriminator.
//
// The two schemas deliberately disagree on the amount rule: income requires
// a strictly positive amount bounded above, while the general schema only
// rejects negative amounts.
func ValidateTransactionCreate(in TransactionInput) Result[ValidTransaction] {
	if TransactionType(in.Type) == Income {
		return validateIncomeCreate(in)
	}
	return validateGeneralCreate(in)
}

func validateIncomeCreate(in TransactionInput) Result[ValidTransaction] {
	var errs []FieldError

	amount, amountErrs := checkIncomeAmount(in.Amount, true)
	errs = append(errs, amountErrs...)

	if in.CategoryID != nil {
		if e := checkIncomeCategory(*in.CategoryID); e != nil {
			errs = append(errs, *e)
		}
	}

	date, dateErrs := checkDate(in.Date, true)
	errs = append(errs, dateErrs...)

	if len(errs) > 0 {
		return fail[ValidTransaction](errs)
	}
	return ok(ValidTransaction{
		Amount:      amount,
		Type:        Income,
		CategoryID:  in.CategoryID,
		Description: derefOr(in.Description, ""),
		Date:        date,
	})
}

func validateGeneralCreate(in TransactionInput) Result[ValidTransaction] {
	var errs []FieldError

	txType := TransactionType(in.Type)
	if in.Type == "" {
		errs = append(errs, FieldError{Field: "type", Message: "type is required", Code: CodeRequired})
	} else if !txType.Valid() {
		errs = append(errs, FieldError{Field: "type", Message: "type must be either income or expense", Code: CodeInvalid})
	}

	amount, amountErrs := checkGeneralAmount(in.Amount, true)
	errs = append(errs, amountErrs...)

	if in.CategoryID != nil && *in.CategoryID <= 0 {
		errs = append(errs, FieldError{Field: "categoryId", Message: "category must be a positive id", Code: CodeInvalid})
	}

	date, dateErrs := checkDate(in.Date, true)
	errs = append(errs, dateErrs...)

	if len(errs) > 0 {
		return fail[ValidTransaction](errs)
	}
	return ok(ValidTransaction{
		Amount:      amount,
		Type:        txType,
		CategoryID:  in.CategoryID,
		Description: derefOr(in.Description, ""),
		Date:        date,
	})
}

// ValidateTransactionUpdate validates a partial update. The income schema
// applies when the (injected) type is income; anything else, including an
// absent type, falls through to the general schema. Updates rarely change
// type, so the general schema is the safe default, and it rejects
// unrecognized type values on its own.
func ValidateTransactionUpdate(in TransactionInput) Result[TransactionPatch] {
	if TransactionType(in.Type) == Income {
		return validateIncomeUpdate(in)
	}
	return validateGeneralUpdate(in)
}

func validateIncomeUpdate(in TransactionInput) Result[TransactionPatch] {
	var errs []FieldError
	patch := TransactionPatch{Description: in.Description}

	if in.Amount != nil {
		amount, amountErrs := checkIncomeAmount(in.Amount, false)
		if len(amountErrs) > 0 {
			errs = append(errs, amountErrs...)
		} else {
			patch.Amount = &amount
		}
	}

	if in.CategoryID != nil {
		if e := checkIncomeCategory(*in.CategoryID); e != nil {
			errs = append(errs, *e)
		} else {
			patch.CategoryID = in.CategoryID
		}
	}

	if in.Date != nil {
		date, dateErrs := checkDate(in.Date, false)
		if len(dateErrs) > 0 {
			errs = append(errs, dateErrs...)
		} else {
			patch.Date = &date
		}
	}

	if len(errs) > 0 {
		return fail[TransactionPatch](errs)
	}
	return ok(patch)
}

func validateGeneralUpdate(in TransactionInput) Result[TransactionPatch] {
	var errs []FieldError
	patch := TransactionPatch{Description: in.Description}

	if in.Type != "" && !TransactionType(in.Type).Valid() {
		errs = append(errs, FieldError{Field: "type", Message: "type must be either income or expense", Code: CodeInvalid})
	}

	if in.Amount != nil {
		amount, amountErrs := checkGeneralAmount(in.Amount, false)
		if len(amountErrs) > 0 {
			errs = append(errs, amountErrs...)
		} else {
			patch.Amount = &amount
		}
	}

	if in.CategoryID != nil {
		if *in.CategoryID <= 0 {
			errs = append(errs, FieldError{Field: "categoryId", Message: "category must be a positive id", Code: CodeInvalid})
		} else {
			patch.CategoryID = in.CategoryID
		}
	}

	if in.Date != nil {
		date, dateErrs := checkDate(in.Date, false)
		if len(dateErrs) > 0 {
			errs = append(errs, dateErrs...)
		} else {
			patch.Date = &date
		}
	}

	if len(errs) > 0 {
		return fail[TransactionPatch](errs)
	}
	return ok(patch)
}

// checkIncomeAmount enforces the strict income rule: present, positive,
// and at most 10,000,000.
func checkIncomeAmount(d *decimal.Decimal, required bool) (Money, []FieldError) {
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
	if amount.exceedsMax() {
		return Money{}, []FieldError{{Field: "amount", Message: "amount must be at most 10000000", Code: CodeOutOfRange}}
	}
	return amount, nil
}

// checkGeneralAmount enforces the general rule: present and not negative.
// Zero is accepted here, unlike the income schema.
func checkGeneralAmount(d *decimal.Decimal, required bool) (Money, []FieldError) {
	if d == nil {
		if required {
			return Money{}, []FieldError{{Field: "amount", Message: "amount is required", Code: CodeRequired}}
		}
		return Money{}, nil
	}
	amount, err := FromDecimal(*d)
	if err != nil {
		return Money{}, []FieldError{{Field: "amount", Message: "amount must not be negative", Code: CodeInvalid}}
	}
	return amount, nil
}

func checkIncomeCategory(id int64) *FieldError {
	if id < IncomeCategoryMin || id > IncomeCategoryMax {
		return &FieldError{Field: "categoryId", Message: "category must be in range 101-105", Code: CodeOutOfRange}
	}
	return nil
}

func checkDate(s *string, required bool) (Date, []FieldError) {
	if s == nil || strings.TrimSpace(*s) == "" {
		if required {
			return Date{}, []FieldError{{Field: "date", Message: "date is required", Code: CodeRequired}}
		}
		return Date{}, nil
	}
	date, err := ParseDate(strings.TrimSpace(*s))
	if err != nil {
		return Date{}, []FieldError{{Field: "date", Message: "date must be a valid date (YYYY-MM-DD)", Code: CodeInvalid}}
	}
	return date, nil
}

// ValidateID normalizes a numeric id given as a base-10 string. Non-numeric
// strings and values at or below zero are rejected with a field error.
func ValidateID(raw string) (int64, *FieldError) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &FieldError{Field: "id", Message: "id must be a number", Code: CodeInvalid}
	}
	if id <= 0 {
		return 0, &FieldError{Field: "id", Message: "id must be a positive integer", Code: CodeOutOfRange}
	}
	return id, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
