package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"soldi/internal/amqp"
	"soldi/internal/export"
	"soldi/internal/importer"
	"soldi/internal/log"
)

const maxImportBytes = 8 << 20

func (s *Server) importOwner(r *http.Request) string {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		owner = s.cfg.DefaultOwner
	}
	return owner
}

// handleImport runs a synchronous CSV import from the request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	owner := s.importOwner(r)
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)

	result, err := s.imp.Import(r.Context(), owner, body)
	if err != nil {
		var formatErr *importer.FormatError
		var logicalErr *importer.LogicalError
		switch {
		case errors.As(err, &formatErr), errors.As(err, &logicalErr):
			s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			s.respondError(w, err)
		}
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleEnqueueImport hands the CSV to the worker through the import queue.
func (s *Server) handleEnqueueImport(w http.ResponseWriter, r *http.Request) {
	owner := s.importOwner(r)
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "read body: " + err.Error()})
		return
	}

	job := amqp.NewImportJobMessage(owner, string(body))
	if err := s.svc.EnqueueImport(r.Context(), job); err != nil {
		if errors.Is(err, amqp.ErrNoBroker) {
			s.respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
		s.respondJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	s.logger.InfoContext(r.Context(), "Import job accepted",
		log.FieldImportJobID, job.JobID, log.FieldOwner, owner)
	s.respondJSON(w, http.StatusAccepted, map[string]string{"job_id": job.JobID})
}

// handleExport streams the whole entity graph as JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="soldi-export.json"`)
	if err := export.WriteJSON(w, s.svc.Book(), s.svc.Rates()); err != nil {
		s.logger.ErrorContext(r.Context(), "Export failed", log.FieldError, err)
	}
}
