package core

import "fmt"

// monthNames is 1-indexed via monthNames[m-1].
var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name for a 1-indexed month.
func MonthName(month int) (string, error) {
	if month < 1 || month > 12 {
		return "", ErrInvalidMonth
	}
	return monthNames[month-1], nil
}

// BudgetTitle derives the human-readable budget title, e.g.
// "March, 2024 Budget". The title is recomputed whenever month or year change.
func BudgetTitle(month, year int) (string, error) {
	name, err := MonthName(month)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s, %d Budget", name, year), nil
}
