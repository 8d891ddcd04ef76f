package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/storage"
)

// fakeStore is an in-memory BudgetStore + ExpenseStore with the same
// capacity semantics as storage.Repository: the increment is conditional and
// applied atomically under one lock, so the concurrency properties of the
// ledger can be exercised without a database.
type fakeStore struct {
	mu       sync.Mutex
	clock    core.Clock
	nextID   int
	budgets  map[string]*core.Budget
	expenses map[string]*core.Expense
}

func newFakeStore(clock core.Clock) *fakeStore {
	return &fakeStore{
		clock:    clock,
		budgets:  make(map[string]*core.Budget),
		expenses: make(map[string]*core.Expense),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateBudget(_ context.Context, userID string, form core.BudgetForm) (core.Budget, error) {
	if err := form.Validate(); err != nil {
		return core.Budget{}, err
	}
	title, err := core.BudgetTitle(form.Month, form.Year)
	if err != nil {
		return core.Budget{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.budgets {
		if b.DeletedAt == nil && b.UserID == userID && b.Month == form.Month && b.Year == form.Year {
			return core.Budget{}, core.ErrDuplicateBudget
		}
	}
	now := f.clock.Now()
	b := &core.Budget{
		ID:        f.id("budget"),
		UserID:    userID,
		Amount:    form.Amount,
		Month:     form.Month,
		Year:      form.Year,
		Title:     title,
		Comment:   form.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.budgets[b.ID] = b
	return *b, nil
}

func (f *fakeStore) FindOwnedBudget(_ context.Context, userID, id string) (core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.budgets[id]
	if !ok || b.DeletedAt != nil || b.UserID != userID {
		return core.Budget{}, core.ErrNotFound
	}
	return *b, nil
}

func (f *fakeStore) CurrentMonthBudget(_ context.Context, userID string) (core.Budget, error) {
	now := f.clock.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.budgets {
		if b.DeletedAt == nil && b.UserID == userID && b.Month == int(now.Month()) && b.Year == now.Year() {
			return *b, nil
		}
	}
	return core.Budget{}, core.ErrNotFound
}

func (f *fakeStore) UpdateBudget(ctx context.Context, userID, id string, form core.BudgetForm) (core.Budget, error) {
	if err := form.Validate(); err != nil {
		return core.Budget{}, err
	}
	title, err := core.BudgetTitle(form.Month, form.Year)
	if err != nil {
		return core.Budget{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.budgets[id]
	if !ok || b.DeletedAt != nil || b.UserID != userID {
		return core.Budget{}, core.ErrNotFound
	}
	b.Amount = form.Amount
	b.Month = form.Month
	b.Year = form.Year
	b.Title = title
	b.Comment = form.Comment
	b.UpdatedAt = f.clock.Now()
	return *b, nil
}

func (f *fakeStore) SoftDeleteBudget(_ context.Context, userID, id string) (core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.budgets[id]
	if !ok || b.DeletedAt != nil || b.UserID != userID {
		return core.Budget{}, core.ErrNotFound
	}
	now := f.clock.Now()
	b.DeletedAt = &now
	return *b, nil
}

func (f *fakeStore) ListBudgets(_ context.Context, userID string, q storage.ListQuery) (storage.Paginated[core.Budget], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var page storage.Paginated[core.Budget]
	for _, b := range f.budgets {
		if b.DeletedAt == nil && b.UserID == userID {
			page.Items = append(page.Items, *b)
			page.Total++
		}
	}
	return page, nil
}

func (f *fakeStore) RecordExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.budgets[e.BudgetID]
	if !ok || b.DeletedAt != nil || b.AmountUsed.Cents+e.Amount.Cents > b.Amount.Cents {
		return core.Expense{}, core.ErrExceedsBudget
	}

	now := f.clock.Now()
	e.ID = f.id("expense")
	if e.SpentAt.IsZero() {
		e.SpentAt = now
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	f.expenses[e.ID] = &e
	b.AmountUsed.Cents += e.Amount.Cents
	return e, nil
}

func (f *fakeStore) FindOwnedExpense(_ context.Context, userID, id string) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok || e.DeletedAt != nil || e.UserID != userID {
		return core.Expense{}, core.ErrNotFound
	}
	return *e, nil
}

func (f *fakeStore) UpdateExpense(_ context.Context, userID, id string, form core.ExpenseForm) (core.Expense, error) {
	if err := form.Validate(); err != nil {
		return core.Expense{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok || e.DeletedAt != nil || e.UserID != userID {
		return core.Expense{}, core.ErrNotFound
	}
	delta := form.Amount.Cents - e.Amount.Cents
	if b, ok := f.budgets[e.BudgetID]; ok && b.DeletedAt == nil && delta != 0 {
		next := b.AmountUsed.Cents + delta
		if next < 0 || next > b.Amount.Cents {
			return core.Expense{}, core.ErrExceedsBudget
		}
		b.AmountUsed.Cents = next
	}
	e.ProjectID = form.ProjectID
	e.Amount = form.Amount
	e.Narration = form.Narration
	if !form.SpentAt.IsZero() {
		e.SpentAt = form.SpentAt
	}
	e.UpdatedAt = f.clock.Now()
	return *e, nil
}

func (f *fakeStore) SoftDeleteExpense(_ context.Context, userID, id string) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok || e.DeletedAt != nil || e.UserID != userID {
		return core.Expense{}, core.ErrNotFound
	}
	now := f.clock.Now()
	e.DeletedAt = &now
	if b, ok := f.budgets[e.BudgetID]; ok && b.DeletedAt == nil {
		b.AmountUsed.Cents -= e.Amount.Cents
		if b.AmountUsed.Cents < 0 {
			b.AmountUsed.Cents = 0
		}
	}
	return *e, nil
}

func (f *fakeStore) list(match func(*core.Expense) bool) storage.Paginated[storage.ExpenseWithProject] {
	f.mu.Lock()
	defer f.mu.Unlock()
	var page storage.Paginated[storage.ExpenseWithProject]
	for _, e := range f.expenses {
		if e.DeletedAt == nil && match(e) {
			page.Items = append(page.Items, storage.ExpenseWithProject{Expense: *e})
			page.Total++
		}
	}
	return page
}

func (f *fakeStore) ListExpensesByUser(_ context.Context, userID string, _ storage.ListQuery) (storage.Paginated[storage.ExpenseWithProject], error) {
	return f.list(func(e *core.Expense) bool { return e.UserID == userID }), nil
}

func (f *fakeStore) ListExpensesByProject(_ context.Context, projectID string, _ storage.ListQuery) (storage.Paginated[storage.ExpenseWithProject], error) {
	return f.list(func(e *core.Expense) bool { return e.ProjectID == projectID }), nil
}

func (f *fakeStore) ListExpensesByBudget(_ context.Context, budgetID string, _ storage.ListQuery) (storage.Paginated[storage.ExpenseWithProject], error) {
	return f.list(func(e *core.Expense) bool { return e.BudgetID == budgetID }), nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu       sync.Mutex
	recorded []core.Expense
	reversed []core.Expense
	err      error
}

func (p *fakePublisher) PublishExpenseRecorded(_ context.Context, e core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.recorded = append(p.recorded, e)
	return nil
}

func (p *fakePublisher) PublishExpenseReversed(_ context.Context, e core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.reversed = append(p.reversed, e)
	return nil
}

// fakeUserStore keeps users and sessions in maps.
type fakeUserStore struct {
	mu       sync.Mutex
	clock    core.Clock
	nextID   int
	users    map[string]*core.User
	sessions map[string]sessionRow
}

type sessionRow struct {
	userID    string
	expiresAt time.Time
}

func newFakeUserStore(clock core.Clock) *fakeUserStore {
	return &fakeUserStore{
		clock:    clock,
		users:    make(map[string]*core.User),
		sessions: make(map[string]sessionRow),
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, email, name, passwordHash string) (core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.DeletedAt == nil && u.Email == email {
			return core.User{}, core.ErrEmailTaken
		}
	}
	f.nextID++
	now := f.clock.Now()
	u := &core.User{
		ID:           fmt.Sprintf("user-%d", f.nextID),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.users[u.ID] = u
	return *u, nil
}

func (f *fakeUserStore) FindUserByEmail(_ context.Context, email string) (core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.DeletedAt == nil && u.Email == email {
			return *u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (f *fakeUserStore) CreateSession(_ context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[token] = sessionRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeUserStore) UserBySession(_ context.Context, token string) (core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok || !s.expiresAt.After(f.clock.Now()) {
		return core.User{}, core.ErrNotFound
	}
	u, ok := f.users[s.userID]
	if !ok || u.DeletedAt != nil {
		return core.User{}, core.ErrNotFound
	}
	return *u, nil
}

func (f *fakeUserStore) DeleteSession(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

// fakeSummer records the windows it was asked for.
type fakeSummer struct {
	mu      sync.Mutex
	windows map[string][2]time.Time
	byFrom  map[time.Time]int64
}

func (f *fakeSummer) sum(from, to time.Time) core.Money {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.windows == nil {
		f.windows = make(map[string][2]time.Time)
	}
	f.windows[from.Format("2006-01-02")+"/"+to.Format("2006-01-02")] = [2]time.Time{from, to}
	return core.Money{Cents: f.byFrom[from]}
}

func (f *fakeSummer) SumExpensesByUser(_ context.Context, _ string, from, to time.Time) (core.Money, error) {
	return f.sum(from, to), nil
}

func (f *fakeSummer) SumExpensesByProject(_ context.Context, _ string, from, to time.Time) (core.Money, error) {
	return f.sum(from, to), nil
}
