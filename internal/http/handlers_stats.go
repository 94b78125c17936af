package http

import "net/http"

func (s *Server) handleIncomeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Stats.Income(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, toIncomeStatsResponse(stats))
}

func (s *Server) handleExpenseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Stats.Expense(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, toExpenseStatsResponse(stats))
}

func (s *Server) handleSummaryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Stats.Summary(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, toSummaryResponse(stats))
}
