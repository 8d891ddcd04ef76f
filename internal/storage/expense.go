package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pennywise/internal/core"

	"github.com/google/uuid"
)

const expenseColumns = `expense_id, user_id, project_id, budget_id, amount_cents, narration, spent_at, created_at, updated_at`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var e core.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.BudgetID,
		&e.Amount.Cents, &e.Narration, &e.SpentAt, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// ExpenseWithProject pairs an expense with its project for listing.
type ExpenseWithProject struct {
	Expense core.Expense
	Project core.Project
}

// RecordExpense inserts the expense and consumes budget capacity in one
// transaction. The capacity commit is a conditional update: it succeeds only
// if the resulting amount_used still fits under amount, so two concurrent
// calls can never both pass on a stale snapshot. Zero rows affected means the
// capacity is gone and the whole transaction rolls back with
// core.ErrExceedsBudget.
func (r *Repository) RecordExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin record expense: %w", err)
	}
	defer rollback(tx)

	now := r.now()
	e.ID = uuid.NewString()
	if e.SpentAt.IsZero() {
		e.SpentAt = now
	} else {
		e.SpentAt = e.SpentAt.UTC()
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (expense_id, user_id, project_id, budget_id, amount_cents, narration, spent_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.ProjectID, e.BudgetID, e.Amount.Cents, e.Narration, e.SpentAt, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE budgets
		SET amount_used_cents = amount_used_cents + ?, updated_at = ?
		WHERE budget_id = ? AND deleted_at IS NULL
		  AND amount_used_cents + ? <= amount_cents`,
		e.Amount.Cents, now, e.BudgetID, e.Amount.Cents)
	if err != nil {
		return core.Expense{}, fmt.Errorf("consume budget capacity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("consume budget capacity: %w", err)
	}
	if affected == 0 {
		return core.Expense{}, core.ErrExceedsBudget
	}

	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit record expense: %w", err)
	}
	return e, nil
}

// FindOwnedExpense returns the live expense only if it belongs to userID;
// otherwise core.ErrNotFound, with no owned/missing distinction.
func (r *Repository) FindOwnedExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE expense_id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("find expense: %w", err)
	}
	return e, nil
}

// UpdateExpense rewrites the editable fields and reconciles the owning
// budget's amount_used by the amount delta, under the same conditional-update
// discipline as RecordExpense. The budget reference itself never changes.
// A delta that no longer fits fails with core.ErrExceedsBudget and leaves
// both rows untouched; a shrinking delta floors the counter at zero, like the
// delete refund. If the owning budget was deleted in the meantime the expense
// is updated without any capacity change.
func (r *Repository) UpdateExpense(ctx context.Context, userID, id string, form core.ExpenseForm) (core.Expense, error) {
	if err := form.Validate(); err != nil {
		return core.Expense{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin update expense: %w", err)
	}
	defer rollback(tx)

	row := tx.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE expense_id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID)
	old, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("find expense: %w", err)
	}

	now := r.now()
	delta := form.Amount.Cents - old.Amount.Cents
	if delta != 0 {
		res, err := tx.ExecContext(ctx, `
			UPDATE budgets
			SET amount_used_cents = MAX(amount_used_cents + ?, 0), updated_at = ?
			WHERE budget_id = ? AND deleted_at IS NULL
			  AND amount_used_cents + ? <= amount_cents`,
			delta, now, old.BudgetID, delta)
		if err != nil {
			return core.Expense{}, fmt.Errorf("reconcile budget capacity: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return core.Expense{}, fmt.Errorf("reconcile budget capacity: %w", err)
		}
		if affected == 0 {
			var live int
			if err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM budgets WHERE budget_id = ? AND deleted_at IS NULL`,
				old.BudgetID).Scan(&live); err != nil {
				return core.Expense{}, fmt.Errorf("check budget liveness: %w", err)
			}
			if live > 0 {
				return core.Expense{}, core.ErrExceedsBudget
			}
		}
	}

	spentAt := old.SpentAt
	if !form.SpentAt.IsZero() {
		spentAt = form.SpentAt.UTC()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE expenses
		SET project_id = ?, amount_cents = ?, narration = ?, spent_at = ?, updated_at = ?
		WHERE expense_id = ?`,
		form.ProjectID, form.Amount.Cents, form.Narration, spentAt, now, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit update expense: %w", err)
	}

	old.ProjectID = form.ProjectID
	old.Amount = form.Amount
	old.Narration = form.Narration
	old.SpentAt = spentAt
	old.UpdatedAt = now
	return old, nil
}

// SoftDeleteExpense marks the expense deleted and refunds its amount to the
// owning budget, floored at zero, in one transaction.
func (r *Repository) SoftDeleteExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin delete expense: %w", err)
	}
	defer rollback(tx)

	row := tx.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE expense_id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("find expense: %w", err)
	}

	now := r.now()
	_, err = tx.ExecContext(ctx, `
		UPDATE expenses SET deleted_at = ?, updated_at = ? WHERE expense_id = ?`,
		now, now, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("soft delete expense: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE budgets
		SET amount_used_cents = MAX(amount_used_cents - ?, 0), updated_at = ?
		WHERE budget_id = ? AND deleted_at IS NULL`,
		e.Amount.Cents, now, e.BudgetID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("refund budget capacity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit delete expense: %w", err)
	}
	return e, nil
}

// ListExpensesByUser returns the owner's live expenses joined with their
// projects, newest first, with narration substring search.
func (r *Repository) ListExpensesByUser(ctx context.Context, userID string, q ListQuery) (Paginated[ExpenseWithProject], error) {
	return r.listExpenses(ctx, "e.user_id", userID, q)
}

// ListExpensesByProject scopes the listing to one project.
func (r *Repository) ListExpensesByProject(ctx context.Context, projectID string, q ListQuery) (Paginated[ExpenseWithProject], error) {
	return r.listExpenses(ctx, "e.project_id", projectID, q)
}

// ListExpensesByBudget scopes the listing to one budget.
func (r *Repository) ListExpensesByBudget(ctx context.Context, budgetID string, q ListQuery) (Paginated[ExpenseWithProject], error) {
	return r.listExpenses(ctx, "e.budget_id", budgetID, q)
}

func (r *Repository) listExpenses(ctx context.Context, scopeColumn, scopeID string, q ListQuery) (Paginated[ExpenseWithProject], error) {
	q = q.normalized()
	page := Paginated[ExpenseWithProject]{Page: q.Page, PerPage: q.PerPage}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM expenses e
		JOIN projects p ON p.project_id = e.project_id
		WHERE `+scopeColumn+` = ? AND e.deleted_at IS NULL AND e.narration LIKE ?`,
		scopeID, q.like()).Scan(&page.Total)
	if err != nil {
		return page, fmt.Errorf("count expenses: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT e.expense_id, e.user_id, e.project_id, e.budget_id, e.amount_cents, e.narration,
		       e.spent_at, e.created_at, e.updated_at,
		       p.project_id, p.user_id, p.name, p.description, p.created_at, p.updated_at
		FROM expenses e
		JOIN projects p ON p.project_id = e.project_id
		WHERE `+scopeColumn+` = ? AND e.deleted_at IS NULL AND e.narration LIKE ?
		ORDER BY e.created_at DESC
		LIMIT ? OFFSET ?`,
		scopeID, q.like(), q.PerPage, q.offset())
	if err != nil {
		return page, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item ExpenseWithProject
		e := &item.Expense
		p := &item.Project
		err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.BudgetID, &e.Amount.Cents, &e.Narration,
			&e.SpentAt, &e.CreatedAt, &e.UpdatedAt,
			&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return page, fmt.Errorf("scan expense: %w", err)
		}
		page.Items = append(page.Items, item)
	}
	return page, rows.Err()
}

// SumExpensesByUser sums live expense amounts for a user whose spent_at falls
// in [from, to).
func (r *Repository) SumExpensesByUser(ctx context.Context, userID string, from, to time.Time) (core.Money, error) {
	return r.sumExpenses(ctx, "user_id", userID, from, to)
}

// SumExpensesByProject sums live expense amounts for a project whose spent_at
// falls in [from, to).
func (r *Repository) SumExpensesByProject(ctx context.Context, projectID string, from, to time.Time) (core.Money, error) {
	return r.sumExpenses(ctx, "project_id", projectID, from, to)
}

func (r *Repository) sumExpenses(ctx context.Context, scopeColumn, scopeID string, from, to time.Time) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		WHERE `+scopeColumn+` = ? AND deleted_at IS NULL AND spent_at >= ? AND spent_at < ?`,
		scopeID, from.UTC(), to.UTC()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// SumLiveExpensesByBudget totals the live expenses recorded against a budget.
// Used by the audit worker to detect drift from amount_used.
func (r *Repository) SumLiveExpensesByBudget(ctx context.Context, budgetID string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		WHERE budget_id = ? AND deleted_at IS NULL`, budgetID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum budget expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// BudgetUsage reads amount and amount_used for a budget regardless of owner.
// Worker-side read, not exposed through the API.
func (r *Repository) BudgetUsage(ctx context.Context, budgetID string) (amount, used core.Money, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT amount_cents, amount_used_cents FROM budgets
		WHERE budget_id = ? AND deleted_at IS NULL`, budgetID).Scan(&amount.Cents, &used.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, core.Money{}, core.ErrNotFound
	}
	if err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("read budget usage: %w", err)
	}
	return amount, used, nil
}
