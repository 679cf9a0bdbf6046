// Package reconcile links records across two independently-keyed systems
// (the sales system and the tracking board) when no shared identifier exists,
// using a cascade of name-matching strategies in descending confidence order.
package reconcile

import (
	"regexp"
	"strings"
)

// nameSuffixes lists legal and business-domain suffixes stripped during name
// normalization. Checked longest-variant-first against the lowercased name.
var nameSuffixes = []string{
	", inc.", ", inc", " inc.", " inc", " incorporated",
	", llc", " llc", " l.l.c.",
	", ltd", " ltd", " limited",
	" corporation", " corp.", " corp",
	" company", " co.",
	", city of", " city of",
	", town of", " town of",
	" department", " dept",
	" utilities", " utility",
	" water district", " water division", " water works", " waterworks",
	" water & sewer", " water and sewer",
	" renewal", " license",
}

var (
	trailingParenRe   = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	trailingBracketRe = regexp.MustCompile(`\s*\[[^\]]*\]\s*$`)
	multiSpaceRe      = regexp.MustCompile(`\s{2,}`)
)

// NormalizeName standardizes an entity name for matching: lowercase, strip
// legal/business suffixes, drop trailing parenthetical or bracketed tags,
// remove punctuation, collapse whitespace.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	for _, suffix := range nameSuffixes {
		name = strings.ReplaceAll(name, suffix, "")
	}

	name = trailingParenRe.ReplaceAllString(name, "")
	name = trailingBracketRe.ReplaceAllString(name, "")

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "and",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// stopwords are generic business words too common to carry a single-word
// match on their own.
var stopwords = map[string]bool{
	"water":    true,
	"city":     true,
	"county":   true,
	"town":     true,
	"village":  true,
	"district": true,
	"public":   true,
	"services": true,
	"service":  true,
	"system":   true,
	"systems":  true,
	"group":    true,
	"company":  true,
	"american": true,
	"national": true,
}

// tokenize splits a name on whitespace and hyphens and drops tokens at or
// below minLen characters.
func tokenize(name string, minLen int) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-' || r == '/'
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > minLen {
			out = append(out, f)
		}
	}
	return out
}

// significantTokens returns tokens of at least four characters that are not
// generic business stopwords.
func significantTokens(name string) []string {
	tokens := tokenize(name, 3)
	out := tokens[:0]
	for _, t := range tokens {
		if !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

// tokensOverlap counts tokens from a that match a token from b, where a
// match is equality or substring inclusion either way. Substring inclusion
// lets "waterworks" match "water-works" style variants.
func tokensOverlap(a, b []string) int {
	n := 0
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb || strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				n++
				break
			}
		}
	}
	return n
}
