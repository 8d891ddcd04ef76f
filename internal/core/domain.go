package core

import (
	"errors"
	"strings"
	"time"
)

// Entities are identified by UUID strings and soft deleted: DeletedAt is set
// and every read filters deleted rows out. Ownership is by UserID reference.
type (
	User struct {
		ID           string
		Email        string
		Name         string
		PasswordHash string
		CreatedAt    time.Time
		UpdatedAt    time.Time
		DeletedAt    *time.Time
	}

	Project struct {
		ID          string
		UserID      string
		Name        string
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
		DeletedAt   *time.Time
	}

	Budget struct {
		ID         string
		UserID     string
		Amount     Money
		AmountUsed Money
		Month      int // 1-12
		Year       int
		Title      string // derived, e.g. "March, 2024 Budget"
		Comment    string
		CreatedAt  time.Time
		UpdatedAt  time.Time
		DeletedAt  *time.Time
	}

	Expense struct {
		ID        string
		UserID    string
		ProjectID string
		BudgetID  string // budget active at creation time, never repointed
		Amount    Money
		Narration string
		SpentAt   time.Time
		CreatedAt time.Time
		UpdatedAt time.Time
		DeletedAt *time.Time
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNoBudgetForMonth = errors.New("no budget for current month")
	ErrExceedsBudget    = errors.New("expense exceeds available budget")
	ErrDuplicateBudget  = errors.New("budget already exists for month")
	ErrEmailTaken       = errors.New("email already registered")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyNarration   = errors.New("empty narration")
	ErrEmptyName        = errors.New("empty name")
	ErrMissingProject   = errors.New("missing project")
)

// Available returns the remaining capacity of the budget.
func (b Budget) Available() Money {
	return Money{Cents: b.Amount.Cents - b.AmountUsed.Cents}
}

// BudgetForm carries caller-supplied budget fields. Title and AmountUsed are
// never accepted from callers.
type BudgetForm struct {
	Amount  Money
	Month   int
	Year    int
	Comment string
}

func (f BudgetForm) Validate() error {
	if err := f.Amount.Validate(); err != nil {
		return err
	}
	if f.Month < 1 || f.Month > 12 {
		return ErrInvalidMonth
	}
	if f.Year < 1 {
		return ErrInvalidYear
	}
	return nil
}

// ExpenseForm carries caller-supplied expense fields. A zero SpentAt means
// "now" and is defaulted from the clock at record time.
type ExpenseForm struct {
	ProjectID string
	Amount    Money
	Narration string
	SpentAt   time.Time
}

func (f ExpenseForm) Validate() error {
	if f.ProjectID == "" {
		return ErrMissingProject
	}
	if err := f.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(f.Narration)) == 0 {
		return ErrEmptyNarration
	}
	if len(f.Narration) > 200 {
		return errors.New("narration too long (max 200 characters)")
	}
	return nil
}

type ProjectForm struct {
	Name        string
	Description string
}

func (f ProjectForm) Validate() error {
	if len(strings.TrimSpace(f.Name)) == 0 {
		return ErrEmptyName
	}
	if len(f.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}
