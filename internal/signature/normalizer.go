// Package signature derives the grouping key of a log message.
package signature

import (
	"regexp"
	"strings"
)

const (
	// DefaultTokenBudget is the number of tokens kept in a signature.
	DefaultTokenBudget = 4
	fallbackRunes      = 32
)

var (
	pathRegex      = regexp.MustCompile(`/[-\p{L}\p{N}\p{Mn}_./]+`)
	digitRegex     = regexp.MustCompile(`\d+`)
	nonLetterRegex = regexp.MustCompile(`[^a-z\s]`)
	spaceRegex     = regexp.MustCompile(`\s+`)
)

// Normalizer maps a message to its signature. It holds no mutable state and
// is safe for concurrent use.
type Normalizer struct {
	tokenBudget int
}

func NewNormalizer(tokenBudget int) *Normalizer {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	return &Normalizer{tokenBudget: tokenBudget}
}

func (n *Normalizer) TokenBudget() int {
	return n.tokenBudget
}

// Signature lower-cases the message, strips paths, digits and punctuation,
// collapses whitespace and keeps the first tokens. A message with no letters
// left falls back to its first 32 characters.
func (n *Normalizer) Signature(message string) string {
	s := strings.ToLower(message)
	s = pathRegex.ReplaceAllString(s, " ")
	s = digitRegex.ReplaceAllString(s, " ")
	s = nonLetterRegex.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))

	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return truncateRunes(message, fallbackRunes)
	}
	if len(tokens) > n.tokenBudget {
		tokens = tokens[:n.tokenBudget]
	}
	return strings.Join(tokens, " ")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
