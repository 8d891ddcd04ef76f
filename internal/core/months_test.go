package core

import (
	"errors"
	"testing"
)

func TestBudgetTitle(t *testing.T) {
	cases := []struct {
		name  string
		month int
		year  int
		want  string
		err   error
	}{
		{"march", 3, 2024, "March, 2024 Budget", nil},
		{"january", 1, 2023, "January, 2023 Budget", nil},
		{"december", 12, 2030, "December, 2030 Budget", nil},
		{"month too high", 13, 2024, "", ErrInvalidMonth},
		{"month zero", 0, 2024, "", ErrInvalidMonth},
		{"month negative", -3, 2024, "", ErrInvalidMonth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BudgetTitle(tc.month, tc.year)
			if !errors.Is(err, tc.err) {
				t.Fatalf("BudgetTitle(%d, %d) error = %v, want %v", tc.month, tc.year, err, tc.err)
			}
			if got != tc.want {
				t.Fatalf("BudgetTitle(%d, %d) = %q, want %q", tc.month, tc.year, got, tc.want)
			}
		})
	}
}

func TestMonthName(t *testing.T) {
	for m := 1; m <= 12; m++ {
		if _, err := MonthName(m); err != nil {
			t.Fatalf("MonthName(%d) unexpected error: %v", m, err)
		}
	}
	if _, err := MonthName(13); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("MonthName(13) error = %v, want ErrInvalidMonth", err)
	}
}
