package http

import (
	"net/http"
	"strconv"
	"strings"

	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, errs := parseTransactionFilter(r)
	if len(errs) > 0 {
		writeFieldErrors(w, r, errs)
		return
	}

	txs, err := s.deps.Transactions.List(r.Context(), filter)
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, toTransactionList(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	s.writeTransactionResult(w, r, res, http.StatusOK)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := s.deps.Transactions.Create(r.Context(), in)
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	if res.Success {
		s.invalidateStats()
	}
	s.writeTransactionResult(w, r, res, http.StatusCreated)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := s.deps.Transactions.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	if res.Success {
		s.invalidateStats()
	}
	s.writeTransactionResult(w, r, res, http.StatusOK)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Transactions.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	if res.Success {
		s.invalidateStats()
		writeJSON(w, r, http.StatusOK, envelope{Success: true})
		return
	}
	s.writeTransactionResult(w, r, res, http.StatusOK)
}

// writeTransactionResult maps the service result onto the wire: validation
// errors become 400, a miss becomes 404, success carries the transaction.
func (s *Server) writeTransactionResult(w http.ResponseWriter, r *http.Request, res services.TransactionResult, okStatus int) {
	switch {
	case len(res.Errors) > 0:
		writeFieldErrors(w, r, res.Errors)
	case res.NotFound:
		writeNotFound(w, r, "transaction not found")
	default:
		var data any
		if res.Transaction != nil {
			data = toTransactionResponse(res.Transaction)
		}
		writeJSON(w, r, okStatus, envelope{Success: true, Data: data})
	}
}

func (s *Server) invalidateStats() {
	if s.deps.Stats != nil {
		s.deps.Stats.Invalidate()
	}
}

// parseTransactionFilter builds the storage filter from query parameters.
// Each bad parameter contributes its own field error.
func parseTransactionFilter(r *http.Request) (storage.TransactionFilter, []core.FieldError) {
	var filter storage.TransactionFilter
	var errs []core.FieldError
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		t := core.TransactionType(raw)
		if !t.Valid() {
			errs = append(errs, core.FieldError{Field: "type", Message: "type must be either income or expense", Code: core.CodeInvalid})
		} else {
			filter.Type = &t
		}
	}

	if raw := strings.TrimSpace(q.Get("categoryId")); raw != "" {
		id, fieldErr := core.ValidateID(raw)
		if fieldErr != nil {
			errs = append(errs, core.FieldError{Field: "categoryId", Message: "categoryId must be a positive integer", Code: core.CodeInvalid})
		} else {
			filter.CategoryID = &id
		}
	}

	if raw := strings.TrimSpace(q.Get("startDate")); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			errs = append(errs, core.FieldError{Field: "startDate", Message: "startDate must be a valid date (YYYY-MM-DD)", Code: core.CodeInvalid})
		} else {
			filter.StartDate = &d
		}
	}

	if raw := strings.TrimSpace(q.Get("endDate")); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			errs = append(errs, core.FieldError{Field: "endDate", Message: "endDate must be a valid date (YYYY-MM-DD)", Code: core.CodeInvalid})
		} else {
			filter.EndDate = &d
		}
	}

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, core.FieldError{Field: "limit", Message: "limit must be a non-negative integer", Code: core.CodeInvalid})
		} else {
			filter.Limit = &n
		}
	}

	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, core.FieldError{Field: "offset", Message: "offset must be a non-negative integer", Code: core.CodeInvalid})
		} else {
			filter.Offset = &n
		}
	}

	return filter, errs
}
