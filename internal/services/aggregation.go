package services

import (
	"context"
	"fmt"
	"time"

	"pennywise/internal/core"

	"golang.org/x/sync/errgroup"
)

// Aggregator computes time-windowed spending sums. Pure reads, no invariant;
// the four windows are independent and queried concurrently.
type Aggregator struct {
	sums  ExpenseSummer
	clock core.Clock
}

func NewAggregator(sums ExpenseSummer, clock core.Clock) *Aggregator {
	if clock == nil {
		clock = core.SystemClock()
	}
	return &Aggregator{sums: sums, clock: clock}
}

// SumByWindowsForUser sums the user's live expenses over the calendar year,
// calendar month, ISO week and calendar day containing now.
func (a *Aggregator) SumByWindowsForUser(ctx context.Context, userID string) (core.WindowSummary, error) {
	return a.sumByWindows(ctx, func(ctx context.Context, from, to time.Time) (core.Money, error) {
		return a.sums.SumExpensesByUser(ctx, userID, from, to)
	})
}

// SumByWindowsForProject is the project-scoped variant.
func (a *Aggregator) SumByWindowsForProject(ctx context.Context, projectID string) (core.WindowSummary, error) {
	return a.sumByWindows(ctx, func(ctx context.Context, from, to time.Time) (core.Money, error) {
		return a.sums.SumExpensesByProject(ctx, projectID, from, to)
	})
}

func (a *Aggregator) sumByWindows(ctx context.Context, sum func(context.Context, time.Time, time.Time) (core.Money, error)) (core.WindowSummary, error) {
	now := a.clock.Now().UTC()

	var out core.WindowSummary
	g, gctx := errgroup.WithContext(ctx)

	collect := func(dst *core.Money, from, to time.Time, window string) {
		g.Go(func() error {
			m, err := sum(gctx, from, to)
			if err != nil {
				return fmt.Errorf("%s window: %w", window, err)
			}
			*dst = m
			return nil
		})
	}

	yearFrom, yearTo := yearWindow(now)
	monthFrom, monthTo := monthWindow(now)
	weekFrom, weekTo := isoWeekWindow(now)
	dayFrom, dayTo := dayWindow(now)

	collect(&out.Year, yearFrom, yearTo, "year")
	collect(&out.Month, monthFrom, monthTo, "month")
	collect(&out.Week, weekFrom, weekTo, "week")
	collect(&out.Today, dayFrom, dayTo, "day")

	if err := g.Wait(); err != nil {
		return core.WindowSummary{}, err
	}
	return out, nil
}

func yearWindow(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

func monthWindow(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// isoWeekWindow returns the Monday-to-Monday week containing now.
func isoWeekWindow(now time.Time) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	from := day.AddDate(0, 0, -offset)
	return from, from.AddDate(0, 0, 7)
}

func dayWindow(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}
