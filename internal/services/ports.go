// Package services orchestrates domain operations over the storage ports.
// Services hold no mutable state between calls; the persistence layer is the
// only shared resource, so every service value is freely shareable across
// request goroutines.
package services

import (
	"context"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/storage"
)

// BudgetStore is the budget persistence port of the ledger.
type BudgetStore interface {
	CreateBudget(ctx context.Context, userID string, form core.BudgetForm) (core.Budget, error)
	FindOwnedBudget(ctx context.Context, userID, id string) (core.Budget, error)
	CurrentMonthBudget(ctx context.Context, userID string) (core.Budget, error)
	UpdateBudget(ctx context.Context, userID, id string, form core.BudgetForm) (core.Budget, error)
	SoftDeleteBudget(ctx context.Context, userID, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string, q storage.ListQuery) (storage.Paginated[core.Budget], error)
}

// ExpenseStore is the expense persistence port. RecordExpense, UpdateExpense
// and SoftDeleteExpense must apply their capacity change atomically with the
// expense write (see storage.Repository).
type ExpenseStore interface {
	RecordExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	FindOwnedExpense(ctx context.Context, userID, id string) (core.Expense, error)
	UpdateExpense(ctx context.Context, userID, id string, form core.ExpenseForm) (core.Expense, error)
	SoftDeleteExpense(ctx context.Context, userID, id string) (core.Expense, error)
	ListExpensesByUser(ctx context.Context, userID string, q storage.ListQuery) (storage.Paginated[storage.ExpenseWithProject], error)
	ListExpensesByProject(ctx context.Context, projectID string, q storage.ListQuery) (storage.Paginated[storage.ExpenseWithProject], error)
	ListExpensesByBudget(ctx context.Context, budgetID string, q storage.ListQuery) (storage.Paginated[storage.ExpenseWithProject], error)
}

// ExpenseSummer answers windowed sum queries for the aggregation reader.
type ExpenseSummer interface {
	SumExpensesByUser(ctx context.Context, userID string, from, to time.Time) (core.Money, error)
	SumExpensesByProject(ctx context.Context, projectID string, from, to time.Time) (core.Money, error)
}

// ProjectStore is the project persistence port.
type ProjectStore interface {
	CreateProject(ctx context.Context, userID string, form core.ProjectForm) (core.Project, error)
	FindOwnedProject(ctx context.Context, userID, id string) (core.Project, error)
	UpdateProject(ctx context.Context, userID, id string, form core.ProjectForm) (core.Project, error)
	SoftDeleteProject(ctx context.Context, userID, id string) (core.Project, error)
	ListProjects(ctx context.Context, userID string, q storage.ListQuery) (storage.Paginated[core.Project], error)
}

// UserStore is the user and session persistence port.
type UserStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (core.User, error)
	FindUserByEmail(ctx context.Context, email string) (core.User, error)
	CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error
	UserBySession(ctx context.Context, token string) (core.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// EventPublisher emits ledger events. Implementations must be safe to call
// concurrently; a nil publisher disables events.
type EventPublisher interface {
	PublishExpenseRecorded(ctx context.Context, e core.Expense) error
	PublishExpenseReversed(ctx context.Context, e core.Expense) error
}
