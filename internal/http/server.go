// Package http exposes the ledger service and the report engine as a JSON
// API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"soldi/internal/cache"
	"soldi/internal/config"
	"soldi/internal/core"
	"soldi/internal/importer"
	"soldi/internal/log"
	"soldi/internal/middleware/trace"
	"soldi/internal/report"
	"soldi/internal/services"
)

type Server struct {
	http.Server
	svc    *services.LedgerService
	engine *report.Engine
	imp    *importer.Importer
	cfg    *config.Config
	logger *log.Logger

	// Report responses are memoized per Book generation, so a cache entry
	// can never outlive the data it was computed from.
	transactionsCache *cache.LRUCache[[]core.Transaction]
	graphCache        *cache.LRUCache[[]report.GraphPoint]
	tagExpensesCache  *cache.LRUCache[map[string]int64]
}

// NewServer wires routes over the service and report engine.
func NewServer(cfg *config.Config, svc *services.LedgerService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    ":" + cfg.Port,
			Handler: trace.Middleware(mux),
		},
		svc:    svc,
		engine: report.New(svc.Book(), svc.Rates(), cfg.DefaultCurrency),
		imp:    importer.New(svc, logger),
		cfg:    cfg,
		logger: logger.WithComponent("http"),

		transactionsCache: cache.NewLRUCache[[]core.Transaction](cfg.ReportCacheSize, cfg.ReportCacheTTL),
		graphCache:        cache.NewLRUCache[[]report.GraphPoint](cfg.ReportCacheSize, cfg.ReportCacheTTL),
		tagExpensesCache:  cache.NewLRUCache[map[string]int64](cfg.ReportCacheSize, cfg.ReportCacheTTL),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleHealth)

	mux.HandleFunc("GET /accounts", s.handleListAccounts)
	mux.HandleFunc("POST /accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("POST /accounts/{id}/refresh", s.handleRefreshAccount)

	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /transactions/{id}/components", s.handleAddComponent)

	mux.HandleFunc("PUT /components/{id}/amount", s.handleUpdateComponentAmount)
	mux.HandleFunc("PUT /components/{id}/account", s.handleUpdateComponentAccount)
	mux.HandleFunc("DELETE /components/{id}", s.handleRemoveComponent)

	mux.HandleFunc("GET /rates", s.handleListRates)
	mux.HandleFunc("PUT /rates", s.handleSetRate)
	mux.HandleFunc("DELETE /rates", s.handleDeleteRate)

	mux.HandleFunc("GET /reports/transactions", s.handleReportTransactions)
	mux.HandleFunc("GET /reports/tags", s.handleReportTags)
	mux.HandleFunc("GET /reports/balance-graph", s.handleReportBalanceGraph)
	mux.HandleFunc("GET /reports/tag-expenses", s.handleReportTagExpenses)

	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("POST /import/enqueue", s.handleEnqueueImport)

	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("Failed to encode response", log.FieldError, err)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps the core error taxonomy onto HTTP statuses: version
// conflicts are 409, unknown handles 404, invalid input 400.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, core.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrUndefinedConversion):
		status = http.StatusUnprocessableEntity
	}
	s.respondJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return false
	}
	return true
}

// pathID parses the {id} wildcard of the matched route.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// reportCacheKey prefixes the query with the Book generation so any mutation
// invalidates every cached report at once.
func (s *Server) reportCacheKey(r *http.Request) string {
	return strconv.FormatUint(s.svc.Book().Generation(), 10) + "|" + r.URL.RawQuery
}

func queryBool(r *http.Request, key string, fallback bool) bool {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
