package session

import (
	"strings"

	"aitestlms/internal/bank"
)

// Grade reports whether a submitted answer matches the question's canonical
// correct answer. The comparison is case-insensitive and preserves
// whitespace: no trimming, no partial credit, no numeric tolerance. Richer
// strategies belong behind this same pure-function contract so the
// coordinator never learns about them.
func Grade(q bank.Question, submitted string) bool {
	return strings.EqualFold(submitted, q.CorrectAnswer)
}
