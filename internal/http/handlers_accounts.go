package http

import (
	"net/http"

	"soldi/internal/log"
)

type accountRequest struct {
	Owner          string `json:"owner"`
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	IncludeInTotal *bool  `json:"include_in_total,omitempty"`
	ShowInList     *bool  `json:"show_in_list,omitempty"`
	Version        int64  `json:"version,omitempty"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.Accounts())
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Owner == "" {
		req.Owner = s.cfg.DefaultOwner
	}

	account, err := s.svc.CreateAccount(r.Context(), req.Owner, req.Name, req.Currency)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	account, ok := s.svc.Book().Account(id)
	if !ok {
		s.respondJSON(w, http.StatusNotFound, errorResponse{Error: "account not found"})
		return
	}
	s.respondJSON(w, http.StatusOK, account)
}

// handleUpdateAccount applies an external edit. The request must carry the
// version the client last read; a mismatch comes back as 409.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if !s.decode(w, r, &req) {
		return
	}

	// Unspecified flags keep their current values.
	current, found := s.svc.Book().Account(id)
	includeInTotal := found && current.IncludeInTotal
	showInList := found && current.ShowInList
	if req.IncludeInTotal != nil {
		includeInTotal = *req.IncludeInTotal
	}
	if req.ShowInList != nil {
		showInList = *req.ShowInList
	}

	account, err := s.svc.UpdateAccount(r.Context(), id, req.Version, req.Name, req.Currency, includeInTotal, showInList)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteAccount(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Account deleted via API", log.FieldAccountID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefreshAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	account, err := s.svc.RefreshAccountBalance(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, account)
}
