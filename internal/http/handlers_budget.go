package http

import "net/http"

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	form, err := req.toForm()
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.budgets.Create(r.Context(), userFrom(r.Context()).ID, form)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBudgetResponse(budget))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	page, err := s.budgets.List(r.Context(), userFrom(r.Context()).ID, listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, toBudgetResponse))
}

func (s *Server) handleCurrentBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.budgets.CurrentMonth(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.budgets.Find(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	form, err := req.toForm()
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.budgets.Update(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if _, err := s.budgets.Delete(r.Context(), userFrom(r.Context()).ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBudgetExpenses(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	// Ownership check first so foreign budget IDs read as missing.
	if _, err := s.budgets.Find(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := s.ledger.ListByBudget(r.Context(), r.PathValue("id"), listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, toExpenseWithProjectResponse))
}
