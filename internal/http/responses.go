package http

import (
	"time"

	"pennywise/internal/core"
	"pennywise/internal/storage"
)

// Response DTOs. Money travels as integer cents; timestamps as RFC 3339 UTC.

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type budgetResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	AmountCents     int64     `json:"amount_cents"`
	AmountUsedCents int64     `json:"amount_used_cents"`
	AvailableCents  int64     `json:"available_cents"`
	Month           int       `json:"month"`
	Year            int       `json:"year"`
	Comment         string    `json:"comment,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:              b.ID,
		Title:           b.Title,
		AmountCents:     b.Amount.Cents,
		AmountUsedCents: b.AmountUsed.Cents,
		AvailableCents:  b.Available().Cents,
		Month:           b.Month,
		Year:            b.Year,
		Comment:         b.Comment,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

type projectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectResponse(p core.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type expenseResponse struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"project_id"`
	BudgetID    string           `json:"budget_id"`
	AmountCents int64            `json:"amount_cents"`
	Narration   string           `json:"narration"`
	SpentAt     string           `json:"spent_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Project     *projectResponse `json:"project,omitempty"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		BudgetID:    e.BudgetID,
		AmountCents: e.Amount.Cents,
		Narration:   e.Narration,
		SpentAt:     e.SpentAt.UTC().Format(spentAtLayout),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toExpenseWithProjectResponse(item storage.ExpenseWithProject) expenseResponse {
	resp := toExpenseResponse(item.Expense)
	project := toProjectResponse(item.Project)
	resp.Project = &project
	return resp
}

type pageResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int64 `json:"total_pages"`
}

func toPageResponse[In, Out any](page storage.Paginated[In], convert func(In) Out) pageResponse[Out] {
	items := make([]Out, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return pageResponse[Out]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages(),
	}
}

type summaryResponse struct {
	YearCents  int64 `json:"year_cents"`
	MonthCents int64 `json:"month_cents"`
	WeekCents  int64 `json:"week_cents"`
	TodayCents int64 `json:"today_cents"`
}

func toSummaryResponse(s core.WindowSummary) summaryResponse {
	return summaryResponse{
		YearCents:  s.Year.Cents,
		MonthCents: s.Month.Cents,
		WeekCents:  s.Week.Cents,
		TodayCents: s.Today.Cents,
	}
}
