package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pennywise/internal/core"

	"github.com/google/uuid"
)

const budgetColumns = `budget_id, user_id, amount_cents, amount_used_cents, month, year, title, comment, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Amount.Cents, &b.AmountUsed.Cents,
		&b.Month, &b.Year, &b.Title, &b.Comment, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// CreateBudget inserts a new budget with amount_used = 0 and a derived title.
// A second live budget for the same (owner, month, year) fails with
// core.ErrDuplicateBudget.
func (r *Repository) CreateBudget(ctx context.Context, userID string, form core.BudgetForm) (core.Budget, error) {
	if err := form.Validate(); err != nil {
		return core.Budget{}, err
	}
	title, err := core.BudgetTitle(form.Month, form.Year)
	if err != nil {
		return core.Budget{}, err
	}

	now := r.now()
	b := core.Budget{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    form.Amount,
		Month:     form.Month,
		Year:      form.Year,
		Title:     title,
		Comment:   form.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO budgets (budget_id, user_id, amount_cents, amount_used_cents, month, year, title, comment, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Amount.Cents, b.Month, b.Year, b.Title, b.Comment, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, core.ErrDuplicateBudget
		}
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	return b, nil
}

// FindOwnedBudget returns the live budget only if it belongs to userID.
// Ownership mismatch and absence are both core.ErrNotFound so that existence
// never leaks to non-owners.
func (r *Repository) FindOwnedBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE budget_id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	}
	return b, nil
}

// CurrentMonthBudget returns the live budget matching the clock's current
// month and year, or core.ErrNotFound when the owner has none.
func (r *Repository) CurrentMonthBudget(ctx context.Context, userID string) (core.Budget, error) {
	now := r.now()
	row := r.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND month = ? AND year = ? AND deleted_at IS NULL`,
		userID, int(now.Month()), now.Year())
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("find current month budget: %w", err)
	}
	return b, nil
}

// UpdateBudget rewrites the caller-editable fields and recomputes the title.
// amount_used is never touched here.
func (r *Repository) UpdateBudget(ctx context.Context, userID, id string, form core.BudgetForm) (core.Budget, error) {
	if err := form.Validate(); err != nil {
		return core.Budget{}, err
	}
	title, err := core.BudgetTitle(form.Month, form.Year)
	if err != nil {
		return core.Budget{}, err
	}

	if _, err := r.FindOwnedBudget(ctx, userID, id); err != nil {
		return core.Budget{}, err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE budgets
		SET amount_cents = ?, month = ?, year = ?, title = ?, comment = ?, updated_at = ?
		WHERE budget_id = ? AND user_id = ? AND deleted_at IS NULL`,
		form.Amount.Cents, form.Month, form.Year, title, form.Comment, r.now(), id, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, core.ErrDuplicateBudget
		}
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}

	return r.FindOwnedBudget(ctx, userID, id)
}

// SoftDeleteBudget marks the budget deleted and returns its last live state.
func (r *Repository) SoftDeleteBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := r.FindOwnedBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE budgets SET deleted_at = ?, updated_at = ?
		WHERE budget_id = ? AND user_id = ? AND deleted_at IS NULL`,
		r.now(), r.now(), id, userID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("soft delete budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns the owner's live budgets newest first, searching title
// and comment.
func (r *Repository) ListBudgets(ctx context.Context, userID string, q ListQuery) (Paginated[core.Budget], error) {
	q = q.normalized()
	page := Paginated[core.Budget]{Page: q.Page, PerPage: q.PerPage}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM budgets
		WHERE user_id = ? AND deleted_at IS NULL AND (title LIKE ? OR comment LIKE ?)`,
		userID, q.like(), q.like()).Scan(&page.Total)
	if err != nil {
		return page, fmt.Errorf("count budgets: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND deleted_at IS NULL AND (title LIKE ? OR comment LIKE ?)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		userID, q.like(), q.like(), q.PerPage, q.offset())
	if err != nil {
		return page, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return page, fmt.Errorf("scan budget: %w", err)
		}
		page.Items = append(page.Items, b)
	}
	return page, rows.Err()
}
