package services

import (
	"context"
	"log/slog"

	"pennywise/internal/core"
	applog "pennywise/internal/log"
	"pennywise/internal/storage"
)

type ProjectService struct {
	projects ProjectStore
}

func NewProjectService(projects ProjectStore) *ProjectService {
	return &ProjectService{projects: projects}
}

func (s *ProjectService) Create(ctx context.Context, userID string, form core.ProjectForm) (core.Project, error) {
	project, err := s.projects.CreateProject(ctx, userID, form)
	if err != nil {
		return core.Project{}, err
	}
	slog.InfoContext(ctx, "Project created", applog.FieldProjectID, project.ID, "name", project.Name)
	return project, nil
}

func (s *ProjectService) Find(ctx context.Context, userID, id string) (core.Project, error) {
	return s.projects.FindOwnedProject(ctx, userID, id)
}

func (s *ProjectService) Update(ctx context.Context, userID, id string, form core.ProjectForm) (core.Project, error) {
	return s.projects.UpdateProject(ctx, userID, id, form)
}

func (s *ProjectService) Delete(ctx context.Context, userID, id string) (core.Project, error) {
	project, err := s.projects.SoftDeleteProject(ctx, userID, id)
	if err != nil {
		return core.Project{}, err
	}
	slog.InfoContext(ctx, "Project deleted", applog.FieldProjectID, project.ID)
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, userID string, q storage.ListQuery) (storage.Paginated[core.Project], error) {
	return s.projects.ListProjects(ctx, userID, q)
}
