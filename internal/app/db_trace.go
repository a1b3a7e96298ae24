package app

import (
	"regexp"
	"strconv"
	"strings"
)

const maxTracedQueryLength = 512

const placeholderTuple = `\(\s*(?:\$\d+|\?)(?:\s*,\s*(?:\$\d+|\?))*\s*\)`

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	valueRowRegex        = regexp.MustCompile(placeholderTuple)
	valueRowsRegex       = regexp.MustCompile(`(?i)\bVALUES\s*` + placeholderTuple + `(?:\s*,\s*` + placeholderTuple + `)+`)
)

// formatDBQueryForTrace flattens a statement onto one line for span names.
// Multi-row inserts such as the goal rows of a match keep only their first
// placeholder row plus a row count, so the statement still fits the cap.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = valueRowsRegex.ReplaceAllStringFunc(normalized, func(values string) string {
		rows := valueRowRegex.FindAllString(values, -1)
		return "VALUES " + rows[0] + " /* " + strconv.Itoa(len(rows)) + " rows */"
	})
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}
