package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/storage"
)

var marchNoon = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newLedgerFixture(t *testing.T, budgetCents int64) (*Ledger, *fakeStore, *fakePublisher, core.Budget) {
	t.Helper()
	clock := core.FixedClock{T: marchNoon}
	store := newFakeStore(clock)
	pub := &fakePublisher{}
	ledger := NewLedger(store, store, clock, pub)

	budget, err := store.CreateBudget(context.Background(), "user-1", core.BudgetForm{
		Amount: core.Money{Cents: budgetCents}, Month: 3, Year: 2024,
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	return ledger, store, pub, budget
}

func TestRecordExpenseScenario(t *testing.T) {
	ledger, store, pub, budget := newLedgerFixture(t, 10000)

	expense, err := ledger.RecordExpense(context.Background(), "user-1", core.ExpenseForm{
		ProjectID: "project-1", Amount: core.Money{Cents: 4000}, Narration: "groceries",
	})
	if err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}
	if expense.Amount.Cents != 4000 || expense.BudgetID != budget.ID {
		t.Fatalf("expense = %+v, want 4000 cents against %s", expense, budget.ID)
	}
	if !expense.SpentAt.Equal(marchNoon) {
		t.Errorf("spent_at = %v, want clock now %v", expense.SpentAt, marchNoon)
	}

	b, _ := store.FindOwnedBudget(context.Background(), "user-1", budget.ID)
	if b.AmountUsed.Cents != 4000 {
		t.Fatalf("amount_used = %d, want 4000", b.AmountUsed.Cents)
	}

	// Available is 6000 now; 7000 must fail and change nothing.
	_, err = ledger.RecordExpense(context.Background(), "user-1", core.ExpenseForm{
		ProjectID: "project-1", Amount: core.Money{Cents: 7000}, Narration: "rent",
	})
	if !errors.Is(err, core.ErrExceedsBudget) {
		t.Fatalf("error = %v, want ErrExceedsBudget", err)
	}
	b, _ = store.FindOwnedBudget(context.Background(), "user-1", budget.ID)
	if b.AmountUsed.Cents != 4000 {
		t.Fatalf("amount_used after rejection = %d, want 4000", b.AmountUsed.Cents)
	}

	if len(pub.recorded) != 1 {
		t.Fatalf("published events = %d, want 1", len(pub.recorded))
	}
}

func TestRecordExpenseNoBudget(t *testing.T) {
	clock := core.FixedClock{T: marchNoon}
	store := newFakeStore(clock)
	ledger := NewLedger(store, store, clock, nil)

	_, err := ledger.RecordExpense(context.Background(), "user-1", core.ExpenseForm{
		ProjectID: "project-1", Amount: core.Money{Cents: 100}, Narration: "coffee",
	})
	if !errors.Is(err, core.ErrNoBudgetForMonth) {
		t.Fatalf("error = %v, want ErrNoBudgetForMonth", err)
	}
	page, _ := store.ListExpensesByUser(context.Background(), "user-1", storage.ListQuery{})
	if page.Total != 0 {
		t.Fatalf("expense rows = %d, want 0", page.Total)
	}
}

func TestRecordExpenseDeletedBudget(t *testing.T) {
	ledger, store, _, budget := newLedgerFixture(t, 10000)
	if _, err := store.SoftDeleteBudget(context.Background(), "user-1", budget.ID); err != nil {
		t.Fatalf("SoftDeleteBudget: %v", err)
	}

	_, err := ledger.RecordExpense(context.Background(), "user-1", core.ExpenseForm{
		ProjectID: "project-1", Amount: core.Money{Cents: 100}, Narration: "coffee",
	})
	if !errors.Is(err, core.ErrNoBudgetForMonth) {
		t.Fatalf("error = %v, want ErrNoBudgetForMonth", err)
	}
}

func TestRecordExpenseExactFitBoundary(t *testing.T) {
	ledger, store, _, budget := newLedgerFixture(t, 5000)

	if _, err := ledger.RecordExpense(context.Background(), "user-1", core.ExpenseForm{
		ProjectID: "project-1", Amount: core.Money{Cents: 5000}, Narration: "all of it",
	}); err != nil {
		t.Fatalf("exact fit should succeed: %v", err)
	}
	b, _ := store.FindOwnedBudget(context.Background(), "user-1", budget.ID)
	if b.AmountUsed.Cents != b.Amount.Cents {
		t.Fatalf("amount_used = %d, want %d", b.AmountUsed.Cents, b.Amount.Cents)
	}

	_, err := ledger.RecordExpense(context.Background(), "user-1", core.ExpenseForm{
		ProjectID: "project-1", Amount: core.Money{Cents: 1}, Narration: "one more",
	})
	if !errors.Is(err, core.ErrExceedsBudget) {
		t.Fatalf("error = %v, want ErrExceedsBudget", err)
	}
}

func TestRecordExpenseInvalidForm(t *testing.T) {
	ledger, store, _, _ := newLedgerFixture(t, 5000)

	cases := []struct {
		name string
		form core.ExpenseForm
		err  error
	}{
		{"zero amount", core.ExpenseForm{ProjectID: "p", Amount: core.Money{Cents: 0}, Narration: "x"}, core.ErrInvalidAmount},
		{"negative amount", core.ExpenseForm{ProjectID: "p", Amount: core.Money{Cents: -5}, Narration: "x"}, core.ErrInvalidAmount},
		{"empty narration", core.ExpenseForm{ProjectID: "p", Amount: core.Money{Cents: 100}}, core.ErrEmptyNarration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ledger.RecordExpense(context.Background(), "user-1", tc.form); !errors.Is(err, tc.err) {
				t.Fatalf("error = %v, want %v", err, tc.err)
			}
		})
	}

	page, _ := store.ListExpensesByUser(context.Background(), "user-1", storage.ListQuery{})
	if page.Total != 0 {
		t.Fatalf("expense rows = %d, want 0 after invalid forms", page.Total)
	}
}

func TestRecordExpenseConcurrentInvariant(t *testing.T) {
	const n = 10
	const amount = 1000
	ledger, store, _, budget := newLedgerFixture(t, (n-1)*amount)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.RecordExpense(context.Background(), "user-1", core.ExpenseForm{
				ProjectID: "project-1", Amount: core.Money{Cents: amount}, Narration: "burst",
			})
		}(i)
	}
	wg.Wait()

	var ok, exceeded int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, core.ErrExceedsBudget):
			exceeded++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != n-1 || exceeded != 1 {
		t.Fatalf("successes = %d, exceeded = %d, want %d/1", ok, exceeded, n-1)
	}

	b, _ := store.FindOwnedBudget(context.Background(), "user-1", budget.ID)
	if b.AmountUsed.Cents > b.Amount.Cents {
		t.Fatalf("invariant violated: used %d > amount %d", b.AmountUsed.Cents, b.Amount.Cents)
	}
}

func TestDeleteExpensePublishesReversal(t *testing.T) {
	ledger, _, pub, _ := newLedgerFixture(t, 10000)

	expense, err := ledger.RecordExpense(context.Background(), "user-1", core.ExpenseForm{
		ProjectID: "project-1", Amount: core.Money{Cents: 2500}, Narration: "snacks",
	})
	if err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	if _, err := ledger.DeleteExpense(context.Background(), "user-1", expense.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if len(pub.reversed) != 1 || pub.reversed[0].ID != expense.ID {
		t.Fatalf("reversed events = %+v, want one for %s", pub.reversed, expense.ID)
	}
}

func TestPublishFailureDoesNotFailRecord(t *testing.T) {
	ledger, _, pub, _ := newLedgerFixture(t, 10000)
	pub.err = errors.New("broker down")

	if _, err := ledger.RecordExpense(context.Background(), "user-1", core.ExpenseForm{
		ProjectID: "project-1", Amount: core.Money{Cents: 100}, Narration: "coffee",
	}); err != nil {
		t.Fatalf("RecordExpense should not fail on publish error: %v", err)
	}
}
