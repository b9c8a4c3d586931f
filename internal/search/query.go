package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery puts a query in canonical form: Unicode NFC, trimmed, with
// runs of whitespace collapsed to a single space. A blank query normalizes to "".
func NormalizeQuery(q string) string {
	q = norm.NFC.String(q)
	return strings.Join(strings.Fields(q), " ")
}
