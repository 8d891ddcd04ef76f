package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pennywise/internal/core"
	applog "pennywise/internal/log"
	"pennywise/internal/storage"
)

// Ledger guards the budget-expense invariant: an expense is only recorded
// against the owner's current-month budget, and 0 <= amount_used <= amount
// holds after every successful operation. The authoritative capacity gate is
// the store's conditional update; the snapshot check here only rejects early
// without touching storage.
type Ledger struct {
	budgets  BudgetStore
	expenses ExpenseStore
	clock    core.Clock
	events   EventPublisher
	log      *slog.Logger
}

func NewLedger(budgets BudgetStore, expenses ExpenseStore, clock core.Clock, events EventPublisher) *Ledger {
	if clock == nil {
		clock = core.SystemClock()
	}
	return &Ledger{
		budgets:  budgets,
		expenses: expenses,
		clock:    clock,
		events:   events,
		log:      slog.With(applog.FieldComponent, applog.ComponentLedger),
	}
}

// RecordExpense validates the form, resolves the current-month budget,
// checks capacity and inserts the expense. Fails with
// core.ErrNoBudgetForMonth when the owner has no live budget this month and
// with core.ErrExceedsBudget when the amount does not fit; in both cases no
// expense row is created and amount_used is unchanged.
func (l *Ledger) RecordExpense(ctx context.Context, userID string, form core.ExpenseForm) (core.Expense, error) {
	if err := form.Validate(); err != nil {
		return core.Expense{}, err
	}

	budget, err := l.budgets.CurrentMonthBudget(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Expense{}, core.ErrNoBudgetForMonth
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("resolve current month budget: %w", err)
	}

	// Fast rejection on the snapshot. A concurrent call can still consume
	// the capacity between here and the store write; the conditional update
	// inside RecordExpense re-derives the decision from the write's effect.
	if form.Amount.Cents > budget.Available().Cents {
		return core.Expense{}, core.ErrExceedsBudget
	}

	spentAt := form.SpentAt
	if spentAt.IsZero() {
		spentAt = l.clock.Now()
	}

	expense, err := l.expenses.RecordExpense(ctx, core.Expense{
		UserID:    userID,
		ProjectID: form.ProjectID,
		BudgetID:  budget.ID,
		Amount:    form.Amount,
		Narration: form.Narration,
		SpentAt:   spentAt,
	})
	if err != nil {
		return core.Expense{}, err
	}

	l.publishRecorded(ctx, expense)

	l.log.InfoContext(ctx, "Expense recorded",
		applog.FieldExpenseID, expense.ID,
		applog.FieldBudgetID, expense.BudgetID,
		applog.FieldAmountCents, expense.Amount.Cents)
	return expense, nil
}

// UpdateExpense routes expense edits through the ledger so the owning
// budget's amount_used tracks live expenses. The store applies the amount
// delta under the same conditional-update discipline as creation.
func (l *Ledger) UpdateExpense(ctx context.Context, userID, id string, form core.ExpenseForm) (core.Expense, error) {
	expense, err := l.expenses.UpdateExpense(ctx, userID, id, form)
	if err != nil {
		return core.Expense{}, err
	}

	l.log.InfoContext(ctx, "Expense updated",
		applog.FieldExpenseID, expense.ID,
		applog.FieldAmountCents, expense.Amount.Cents)
	return expense, nil
}

// DeleteExpense soft-deletes the expense and refunds its amount to the
// owning budget.
func (l *Ledger) DeleteExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	expense, err := l.expenses.SoftDeleteExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}

	l.publishReversed(ctx, expense)

	l.log.InfoContext(ctx, "Expense deleted",
		applog.FieldExpenseID, expense.ID,
		applog.FieldBudgetID, expense.BudgetID,
		applog.FieldAmountCents, expense.Amount.Cents)
	return expense, nil
}

// FindExpense returns the owner's expense.
func (l *Ledger) FindExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	return l.expenses.FindOwnedExpense(ctx, userID, id)
}

// ListByUser lists the owner's expenses with their projects.
func (l *Ledger) ListByUser(ctx context.Context, userID string, q storage.ListQuery) (storage.Paginated[storage.ExpenseWithProject], error) {
	return l.expenses.ListExpensesByUser(ctx, userID, q)
}

// ListByProject lists a project's expenses, after checking the project's
// scope through the owner-checked expense listing on the caller side.
func (l *Ledger) ListByProject(ctx context.Context, projectID string, q storage.ListQuery) (storage.Paginated[storage.ExpenseWithProject], error) {
	return l.expenses.ListExpensesByProject(ctx, projectID, q)
}

// ListByBudget lists a budget's expenses.
func (l *Ledger) ListByBudget(ctx context.Context, budgetID string, q storage.ListQuery) (storage.Paginated[storage.ExpenseWithProject], error) {
	return l.expenses.ListExpensesByBudget(ctx, budgetID, q)
}

// Event publishing is best effort: the expense is durable once the store
// commits, so a broker outage is logged and never fails the request.
func (l *Ledger) publishRecorded(ctx context.Context, e core.Expense) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishExpenseRecorded(ctx, e); err != nil {
		l.log.ErrorContext(ctx, "Failed to publish expense recorded event",
			applog.FieldExpenseID, e.ID, applog.FieldError, err)
	}
}

func (l *Ledger) publishReversed(ctx context.Context, e core.Expense) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishExpenseReversed(ctx, e); err != nil {
		l.log.ErrorContext(ctx, "Failed to publish expense reversed event",
			applog.FieldExpenseID, e.ID, applog.FieldError, err)
	}
}
