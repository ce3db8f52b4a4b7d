package http

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type rateRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Rate string `json:"rate"`
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.Rates().Rates())
}

func (s *Server) handleSetRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if !s.decode(w, r, &req) {
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rate: " + err.Error()})
		return
	}
	if err := s.svc.SetRate(r.Context(), req.From, req.To, rate); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRate(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "from and to query parameters are required"})
		return
	}
	if err := s.svc.DeleteRate(r.Context(), from, to); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
