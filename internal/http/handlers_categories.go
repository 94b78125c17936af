package http

import (
	"net/http"
	"strings"

	"tally/internal/core"
)

// handleListCategories serves the category catalog, optionally filtered by
// transaction type.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var categories []core.Category
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		t := core.TransactionType(raw)
		if !t.Valid() {
			writeFieldErrors(w, r, []core.FieldError{{
				Field: "type", Message: "type must be either income or expense", Code: core.CodeInvalid,
			}})
			return
		}
		categories = s.deps.Catalog.ByType(t)
	} else {
		categories = s.deps.Catalog.All()
	}

	out := make([]categoryResponse, len(categories))
	for i := range categories {
		out[i] = *toCategoryResponse(&categories[i])
	}
	writeData(w, r, http.StatusOK, out)
}
