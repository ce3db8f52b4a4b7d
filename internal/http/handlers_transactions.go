package http

import (
	"net/http"

	"soldi/internal/core"
)

type transactionRequest struct {
	Owner       string   `json:"owner"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"`
	Version     int64    `json:"version,omitempty"`
}

type transactionResponse struct {
	core.Transaction
	Components []core.Component `json:"components"`
	AmountOk   bool             `json:"amount_ok"`
}

func (s *Server) transactionView(t core.Transaction) transactionResponse {
	return transactionResponse{
		Transaction: t,
		Components:  s.svc.Book().ComponentsOf(t.ID),
		AmountOk:    s.svc.Book().IsAmountOk(t.ID),
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions := s.svc.Book().Transactions()
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, s.transactionView(t))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Owner == "" {
		req.Owner = s.cfg.DefaultOwner
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		s.respondError(w, err)
		return
	}

	transaction, err := s.svc.CreateTransaction(r.Context(), req.Owner, core.TransactionKind(req.Kind), req.Description, req.Tags, date)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, s.transactionView(transaction))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	transaction, ok := s.svc.Book().Transaction(id)
	if !ok {
		s.respondJSON(w, http.StatusNotFound, errorResponse{Error: "transaction not found"})
		return
	}
	s.respondJSON(w, http.StatusOK, s.transactionView(transaction))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !s.decode(w, r, &req) {
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		s.respondError(w, err)
		return
	}

	transaction, err := s.svc.UpdateTransaction(r.Context(), id, req.Version, req.Description, req.Tags, date)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.transactionView(transaction))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteTransaction(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type componentRequest struct {
	AccountID int64 `json:"account_id"`
	RawAmount int64 `json:"raw_amount"`
}

func (s *Server) handleAddComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req componentRequest
	if !s.decode(w, r, &req) {
		return
	}

	component, err := s.svc.AddComponent(r.Context(), id, req.AccountID, req.RawAmount)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, component)
}

func (s *Server) handleUpdateComponentAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req componentRequest
	if !s.decode(w, r, &req) {
		return
	}

	component, changed, err := s.svc.UpdateComponentAmount(r.Context(), id, req.RawAmount)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !changed {
		// Stale handle, deliberately a no-op.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.respondJSON(w, http.StatusOK, component)
}

func (s *Server) handleUpdateComponentAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req componentRequest
	if !s.decode(w, r, &req) {
		return
	}

	component, changed, err := s.svc.UpdateComponentAccount(r.Context(), id, req.AccountID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !changed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.respondJSON(w, http.StatusOK, component)
}

func (s *Server) handleRemoveComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if _, _, err := s.svc.RemoveComponent(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	// Removing an already removed component is idempotent, both cases 204.
	w.WriteHeader(http.StatusNoContent)
}
