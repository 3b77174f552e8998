package utils

import "fmt"

// FormatTicketNumber builds the human-readable ticket identifier
// ASTU-<year>-<5-digit sequence>.  The sequence restarts every calendar
// year; uniqueness is ultimately guaranteed by the database constraint,
// not by the formatter.
func FormatTicketNumber(year int, seq int) string {
	return fmt.Sprintf("ASTU-%d-%05d", year, seq)
}
