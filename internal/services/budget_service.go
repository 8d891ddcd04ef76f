package services

import (
	"context"
	"log/slog"

	"pennywise/internal/core"
	applog "pennywise/internal/log"
	"pennywise/internal/storage"
)

// BudgetService owns budget CRUD. Creation pre-checks for an existing live
// budget in the same month so callers get a clean domain error; the partial
// unique index in storage backs the check under races.
type BudgetService struct {
	budgets BudgetStore
}

func NewBudgetService(budgets BudgetStore) *BudgetService {
	return &BudgetService{budgets: budgets}
}

func (s *BudgetService) Create(ctx context.Context, userID string, form core.BudgetForm) (core.Budget, error) {
	budget, err := s.budgets.CreateBudget(ctx, userID, form)
	if err != nil {
		return core.Budget{}, err
	}

	slog.InfoContext(ctx, "Budget created",
		applog.FieldBudgetID, budget.ID,
		"title", budget.Title,
		applog.FieldAmountCents, budget.Amount.Cents)
	return budget, nil
}

func (s *BudgetService) Find(ctx context.Context, userID, id string) (core.Budget, error) {
	return s.budgets.FindOwnedBudget(ctx, userID, id)
}

func (s *BudgetService) CurrentMonth(ctx context.Context, userID string) (core.Budget, error) {
	return s.budgets.CurrentMonthBudget(ctx, userID)
}

func (s *BudgetService) Update(ctx context.Context, userID, id string, form core.BudgetForm) (core.Budget, error) {
	return s.budgets.UpdateBudget(ctx, userID, id, form)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) (core.Budget, error) {
	budget, err := s.budgets.SoftDeleteBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget deleted", applog.FieldBudgetID, budget.ID)
	return budget, nil
}

func (s *BudgetService) List(ctx context.Context, userID string, q storage.ListQuery) (storage.Paginated[core.Budget], error) {
	return s.budgets.ListBudgets(ctx, userID, q)
}
