package http

import "net/http"

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	form, err := req.toForm()
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := userFrom(r.Context())

	// The project must belong to the caller before it can absorb spending.
	if _, err := s.projects.Find(r.Context(), user.ID, form.ProjectID); err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := s.ledger.RecordExpense(r.Context(), user.ID, form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries(user.ID, expense.ProjectID)

	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	page, err := s.ledger.ListByUser(r.Context(), userFrom(r.Context()).ID, listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, toExpenseWithProjectResponse))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.ledger.FindExpense(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	form, err := req.toForm()
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := userFrom(r.Context())

	if _, err := s.projects.Find(r.Context(), user.ID, form.ProjectID); err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := s.ledger.UpdateExpense(r.Context(), user.ID, r.PathValue("id"), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries(user.ID, expense.ProjectID)

	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	expense, err := s.ledger.DeleteExpense(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries(user.ID, expense.ProjectID)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserSummary(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	cacheKey := "user:" + user.ID
	if summary, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, toSummaryResponse(summary))
		return
	}

	summary, err := s.summaries.SumByWindowsForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.summaryCache.Set(cacheKey, summary)

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// invalidateSummaries drops cached sums touched by a capacity change.
func (s *Server) invalidateSummaries(userID, projectID string) {
	s.summaryCache.Delete("user:" + userID)
	if projectID != "" {
		s.summaryCache.Delete("project:" + projectID)
	}
}
