// Package cluster implements the deterministic title-clustering function that
// maps a free-text product title to a coarse cluster key.  The same function
// groups a tenant's own multi-marketplace listings and joins listings across
// tenants, so keys always align; it must stay pure, total, and locale-agnostic.
//
// This is fuzzy grouping, not identity: two titles sharing a cluster key are
// "similar products", never guaranteed to be the same catalog item.
package cluster

import (
	"sort"
	"strings"
	"unicode"
)

// UncategorizedKey is the sentinel cluster key for titles that reduce to no
// tokens.  Benchmark aggregation excludes it so a meaningless catch-all
// cluster is never treated as real market data.
const UncategorizedKey = "uncategorized"

// maxKeyTokens caps the token signature length; longer titles contribute only
// their first four surviving tokens (alphabetically) so that verbose listings
// still cluster coarsely.
const maxKeyTokens = 4

// stopWords are discarded during normalization.  The list is intentionally
// small and marketplace-flavoured: filler words common in listing titles that
// carry no product meaning.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"for": true, "with": true, "in": true, "on": true, "to": true, "by": true,
	"new": true, "set": true, "pack": true, "pcs": true, "piece": true,
	"pieces": true, "free": true, "shipping": true, "sale": true, "hot": true,
	"item": true, "product": true,
}

// Normalize reduces a free-text product title to its ordered token signature:
// Unicode-aware lowercasing, punctuation stripped, stop-words and single-rune
// tokens discarded, duplicates removed, alphabetically sorted, capped at four
// tokens.  The result is independent of token order and casing in the input.
func Normalize(title string) []string {
	var sb strings.Builder
	sb.Grow(len(title))
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			sb.WriteRune(unicode.ToLower(r))
		default:
			sb.WriteRune(' ')
		}
	}

	seen := make(map[string]bool)
	tokens := make([]string, 0, 8)
	for _, tok := range strings.Fields(sb.String()) {
		if len([]rune(tok)) < 2 || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	sort.Strings(tokens)
	if len(tokens) > maxKeyTokens {
		tokens = tokens[:maxKeyTokens]
	}
	return tokens
}

// Key maps a title to its cluster key: the normalized token signature joined
// with "-".  Empty or punctuation-only titles map to UncategorizedKey.
func Key(title string) string {
	tokens := Normalize(title)
	if len(tokens) == 0 {
		return UncategorizedKey
	}
	return strings.Join(tokens, "-")
}
