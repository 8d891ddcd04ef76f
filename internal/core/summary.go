package core

// WindowSummary holds four independent spending sums around "now": the
// calendar year, calendar month, ISO week and calendar day containing the
// clock instant. Each is zero when no expenses fall in the window.
type WindowSummary struct {
	Year  Money
	Month Money
	Week  Money
	Today Money
}
