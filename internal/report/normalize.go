package report

import "strings"

// longQueryError is the length above which a multi-line message is treated
// as a dumped database query.
const longQueryError = 200

// NormalizeError collapses noisy database errors into a short phrase so that
// messages with the same cause group together. Other messages are returned
// trimmed.
func NormalizeError(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "duplicate key"):
		return "Duplicate key constraint violation"
	case strings.Contains(lower, "foreign key"):
		return "Foreign key constraint violation"
	case strings.Contains(lower, "not-null"),
		strings.Contains(lower, "not null constraint"),
		strings.Contains(lower, "null value in column"):
		return "Not-null constraint violation"
	case strings.Contains(lower, "unique constraint"):
		return "Unique constraint violation"
	case strings.Contains(msg, "\n") && len(msg) > longQueryError,
		strings.HasPrefix(lower, "failed query:"):
		return "Database query failed"
	}
	return strings.TrimSpace(msg)
}
