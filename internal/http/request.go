package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/storage"
)

// errBadRequest marks malformed input that never reached the domain.
var errBadRequest = errors.New("bad request")

const spentAtLayout = "2006-01-02 15:04:05"

const maxBodyBytes = 1 << 20 // 1 MiB

func decodeBody(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// amountRequest accepts either minor units or a decimal string ("12.50").
type amountRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

func (a amountRequest) toMoney() (core.Money, error) {
	if a.AmountCents != 0 && a.Amount != "" {
		return core.Money{}, validationError{errors.New("provide amount_cents or amount, not both")}
	}
	if a.Amount != "" {
		cents, err := core.ParseDecimalToCents(a.Amount)
		if err != nil {
			return core.Money{}, validationError{err}
		}
		return core.Money{Cents: cents}, nil
	}
	return core.Money{Cents: a.AmountCents}, nil
}

type budgetRequest struct {
	amountRequest
	Month   int    `json:"month"`
	Year    int    `json:"year"`
	Comment string `json:"comment"`
}

func (b budgetRequest) toForm() (core.BudgetForm, error) {
	amount, err := b.toMoney()
	if err != nil {
		return core.BudgetForm{}, err
	}
	form := core.BudgetForm{
		Amount:  amount,
		Month:   b.Month,
		Year:    b.Year,
		Comment: b.Comment,
	}
	if err := form.Validate(); err != nil {
		return core.BudgetForm{}, validationError{err}
	}
	return form, nil
}

type expenseRequest struct {
	amountRequest
	ProjectID string `json:"project_id"`
	Narration string `json:"narration"`
	SpentAt   string `json:"spent_at"`
}

func (e expenseRequest) toForm() (core.ExpenseForm, error) {
	amount, err := e.toMoney()
	if err != nil {
		return core.ExpenseForm{}, err
	}
	form := core.ExpenseForm{
		ProjectID: e.ProjectID,
		Amount:    amount,
		Narration: e.Narration,
	}
	if e.SpentAt != "" {
		spentAt, err := time.Parse(spentAtLayout, e.SpentAt)
		if err != nil {
			return core.ExpenseForm{}, validationError{fmt.Errorf("invalid spent_at %q: want YYYY-MM-DD HH:MM:SS", e.SpentAt)}
		}
		form.SpentAt = spentAt.UTC()
	}
	if err := form.Validate(); err != nil {
		return core.ExpenseForm{}, validationError{err}
	}
	return form, nil
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (p projectRequest) toForm() (core.ProjectForm, error) {
	form := core.ProjectForm{
		Name:        p.Name,
		Description: p.Description,
	}
	if err := form.Validate(); err != nil {
		return core.ProjectForm{}, validationError{err}
	}
	return form, nil
}

// listQuery reads ?search=&page=&per_page=; out-of-range values fall back to
// the storage defaults.
func listQuery(r *http.Request) storage.ListQuery {
	q := storage.ListQuery{
		Search: r.URL.Query().Get("search"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		q.Page = page
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		q.PerPage = perPage
	}
	return q
}
