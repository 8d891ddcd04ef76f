package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pennywise/internal/core"
)

// March 15, 2024 noon UTC. Most tests pin the clock here so "current month"
// is deterministic.
var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "pennywise.db"), core.FixedClock{T: testNow})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *Repository) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), "owner@example.com", "Owner", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func seedProject(t *testing.T, repo *Repository, userID string) core.Project {
	t.Helper()
	p, err := repo.CreateProject(context.Background(), userID, core.ProjectForm{Name: "Household"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func seedBudget(t *testing.T, repo *Repository, userID string, amountCents int64) core.Budget {
	t.Helper()
	b, err := repo.CreateBudget(context.Background(), userID, core.BudgetForm{
		Amount: core.Money{Cents: amountCents},
		Month:  int(testNow.Month()),
		Year:   testNow.Year(),
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	return b
}
