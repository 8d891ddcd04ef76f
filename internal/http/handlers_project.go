package http

import "net/http"

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	form, err := req.toForm()
	if err != nil {
		writeError(w, r, err)
		return
	}

	project, err := s.projects.Create(r.Context(), userFrom(r.Context()).ID, form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(project))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	page, err := s.projects.List(r.Context(), userFrom(r.Context()).ID, listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, toProjectResponse))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.projects.Find(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	form, err := req.toForm()
	if err != nil {
		writeError(w, r, err)
		return
	}

	project, err := s.projects.Update(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if _, err := s.projects.Delete(r.Context(), userFrom(r.Context()).ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProjectExpenses(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	if _, err := s.projects.Find(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := s.ledger.ListByProject(r.Context(), r.PathValue("id"), listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page, toExpenseWithProjectResponse))
}

func (s *Server) handleProjectSummary(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	projectID := r.PathValue("id")

	if _, err := s.projects.Find(r.Context(), user.ID, projectID); err != nil {
		writeError(w, r, err)
		return
	}

	cacheKey := "project:" + projectID
	if summary, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, toSummaryResponse(summary))
		return
	}

	summary, err := s.summaries.SumByWindowsForProject(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.summaryCache.Set(cacheKey, summary)

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}
