package http

import (
	"net/http"

	"tally/internal/core"
	"tally/internal/services"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.deps.Subscriptions.List(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, toSubscriptionList(subs))
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Subscriptions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	writeSubscriptionResult(w, r, res, http.StatusOK)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var in core.SubscriptionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := s.deps.Subscriptions.Create(r.Context(), in)
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	writeSubscriptionResult(w, r, res, http.StatusCreated)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var in core.SubscriptionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := s.deps.Subscriptions.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	writeSubscriptionResult(w, r, res, http.StatusOK)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Subscriptions.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	if res.Success {
		writeJSON(w, r, http.StatusOK, envelope{Success: true})
		return
	}
	writeSubscriptionResult(w, r, res, http.StatusOK)
}

func writeSubscriptionResult(w http.ResponseWriter, r *http.Request, res services.SubscriptionResult, okStatus int) {
	switch {
	case len(res.Errors) > 0:
		writeFieldErrors(w, r, res.Errors)
	case res.NotFound:
		writeNotFound(w, r, "subscription not found")
	default:
		var data any
		if res.Subscription != nil {
			data = toSubscriptionResponse(res.Subscription)
		}
		writeJSON(w, r, okStatus, envelope{Success: true, Data: data})
	}
}
