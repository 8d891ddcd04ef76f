package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int64
	}{
		{"whole units", "25", 2500},
		{"dot separator", "12.50", 1250},
		{"comma separator", "12,50", 1250},
		{"single fraction digit", "3.5", 350},
		{"bare fraction", ".75", 75},
		{"trailing separator", "4.", 400},
		{"smallest amount", "0.01", 1},
		{"third digit rounds up", "9.995", 1000},
		{"third digit rounds down", "9.994", 999},
		{"surrounding whitespace", " 7.00 ", 700},
		{"at the cap", "10000000", MaxAmountCents},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tc.in)
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseDecimalToCentsRejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"zero", "0.00"},
		{"negative", "-4"},
		{"explicit plus", "+4"},
		{"two separators", "1.2.3"},
		{"letters", "ten"},
		{"just above the cap", "10000000.01"},
		{"unparsable magnitude", "99999999999999999999"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseDecimalToCents(tc.in); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseDecimalToCents(%q) err = %v, want ErrInvalidAmount", tc.in, err)
			}
		})
	}
}

func TestMoneyValidateBounds(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Errorf("Validate(1 cent) = %v, want nil", err)
	}
	if err := (Money{Cents: MaxAmountCents}).Validate(); err != nil {
		t.Errorf("Validate(cap) = %v, want nil", err)
	}
	if err := (Money{Cents: 0}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Validate(0) = %v, want ErrInvalidAmount", err)
	}
	if err := (Money{Cents: MaxAmountCents + 1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Validate(cap+1) = %v, want ErrInvalidAmount", err)
	}
}
