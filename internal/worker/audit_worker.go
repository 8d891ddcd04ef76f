// Package worker holds the background consumers that run alongside the API.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pennywise/internal/core"
	"pennywise/internal/events"
	applog "pennywise/internal/log"
)

// BudgetAuditor answers the two numbers the audit compares.
type BudgetAuditor interface {
	SumLiveExpensesByBudget(ctx context.Context, budgetID string) (core.Money, error)
	BudgetUsage(ctx context.Context, budgetID string) (amount, used core.Money, err error)
}

// AuditWorker recomputes a budget's consumption from its live expenses after
// every ledger event and compares it with the stored counter. It only reports;
// reconciliation stays a manual decision.
type AuditWorker struct {
	store BudgetAuditor
}

func NewAuditWorker(store BudgetAuditor) *AuditWorker {
	return &AuditWorker{store: store}
}

// HandleLedgerEvent audits the budget named by the event.
func (w *AuditWorker) HandleLedgerEvent(ctx context.Context, event *events.LedgerEvent) error {
	switch event.Kind {
	case events.KindExpenseRecorded, events.KindExpenseReversed:
	default:
		slog.WarnContext(ctx, "Skipping event of unknown kind", "kind", event.Kind)
		return nil
	}

	amount, used, err := w.store.BudgetUsage(ctx, event.BudgetID)
	if errors.Is(err, core.ErrNotFound) {
		// The budget was deleted after the event was queued; the counter on
		// a deleted budget is frozen, nothing to audit.
		slog.InfoContext(ctx, "Budget gone, skipping audit", applog.FieldBudgetID, event.BudgetID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read budget usage: %w", err)
	}

	recomputed, err := w.store.SumLiveExpensesByBudget(ctx, event.BudgetID)
	if err != nil {
		return fmt.Errorf("sum live expenses: %w", err)
	}

	if recomputed.Cents != used.Cents {
		slog.ErrorContext(ctx, "Budget counter drift detected",
			applog.FieldBudgetID, event.BudgetID,
			"stored_used_cents", used.Cents,
			"recomputed_cents", recomputed.Cents,
			applog.FieldAmountCents, amount.Cents,
			"trigger_kind", event.Kind,
			applog.FieldExpenseID, event.ExpenseID)
		return nil
	}

	slog.DebugContext(ctx, "Budget counter verified",
		applog.FieldBudgetID, event.BudgetID,
		"used_cents", used.Cents,
		applog.FieldAmountCents, amount.Cents)
	return nil
}
