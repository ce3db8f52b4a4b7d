package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"soldi/internal/core"
	"soldi/internal/report"
)

// parseCriteria builds report criteria from query parameters. An absent date
// bound is open, absent tag/account selections match everything, toggles
// default to enabled.
func parseCriteria(r *http.Request) (report.Criteria, error) {
	q := r.URL.Query()

	earliest := core.NewDate(1, 1, 1)
	latest := core.NewDate(9999, 12, 31)
	if value := strings.TrimSpace(q.Get("earliest")); value != "" {
		parsed, err := core.ParseDate(value)
		if err != nil {
			return report.Criteria{}, fmt.Errorf("earliest: %w", err)
		}
		earliest = parsed
	}
	if value := strings.TrimSpace(q.Get("latest")); value != "" {
		parsed, err := core.ParseDate(value)
		if err != nil {
			return report.Criteria{}, fmt.Errorf("latest: %w", err)
		}
		latest = parsed
	}

	c := report.NewCriteria(earliest, latest)
	c.WithExpenses = queryBool(r, "expenses", true)
	c.WithIncome = queryBool(r, "income", true)
	c.WithTransfers = queryBool(r, "transfers", true)

	if value := q.Get("tags"); value != "" {
		c = c.SelectTags(strings.Split(value, ",")...)
	}
	if value := strings.TrimSpace(q.Get("accounts")); value != "" {
		var ids []int64
		for _, field := range strings.Split(value, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
			if err != nil {
				return report.Criteria{}, fmt.Errorf("accounts: %w", err)
			}
			ids = append(ids, id)
		}
		c = c.SelectAccounts(ids...)
	}
	return c, nil
}

func parseSort(r *http.Request) (report.SortKey, bool, bool, error) {
	key := report.SortKey(strings.TrimSpace(r.URL.Query().Get("sort")))
	if key == "" {
		key = report.SortByDate
	}
	switch key {
	case report.SortByDate, report.SortByDescription, report.SortByAmount:
	default:
		return "", false, false, fmt.Errorf("unknown sort key %q", key)
	}

	ascending := true
	if order := strings.TrimSpace(r.URL.Query().Get("order")); order != "" {
		switch order {
		case "asc":
		case "desc":
			ascending = false
		default:
			return "", false, false, fmt.Errorf("unknown order %q", order)
		}
	}
	return key, ascending, queryBool(r, "absolute", false), nil
}

func (s *Server) handleReportTransactions(w http.ResponseWriter, r *http.Request) {
	key := s.reportCacheKey(r)
	if cached, ok := s.transactionsCache.Get(key); ok {
		s.respondJSON(w, http.StatusOK, cached)
		return
	}

	criteria, err := parseCriteria(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	sortKey, ascending, absolute, err := parseSort(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	transactions := s.engine.Transactions(criteria, sortKey, ascending, absolute)
	s.transactionsCache.Set(key, transactions)
	s.respondJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleReportTags(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.AllTags())
}

func (s *Server) handleReportBalanceGraph(w http.ResponseWriter, r *http.Request) {
	key := s.reportCacheKey(r)
	if cached, ok := s.graphCache.Get(key); ok {
		s.respondJSON(w, http.StatusOK, cached)
		return
	}

	criteria, err := parseCriteria(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	points, err := s.engine.BalanceGraph(criteria)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.graphCache.Set(key, points)
	s.respondJSON(w, http.StatusOK, points)
}

func (s *Server) handleReportTagExpenses(w http.ResponseWriter, r *http.Request) {
	key := s.reportCacheKey(r)
	if cached, ok := s.tagExpensesCache.Get(key); ok {
		s.respondJSON(w, http.StatusOK, cached)
		return
	}

	criteria, err := parseCriteria(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	totals, err := s.engine.TagExpenses(criteria)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.tagExpensesCache.Set(key, totals)
	s.respondJSON(w, http.StatusOK, totals)
}
