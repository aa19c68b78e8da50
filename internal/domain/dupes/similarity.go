package dupes

import (
	"sort"
	"strings"
	"unicode"
)

// nicknames maps common short forms to the canonical given name, so
// "Bill Morris" and "William Morris" compare equal.
var nicknames = map[string]string{
	"abby":  "abigail",
	"andy":  "andrew",
	"beth":  "elizabeth",
	"bill":  "william",
	"bob":   "robert",
	"cathy": "catherine",
	"chris": "christopher",
	"chuck": "charles",
	"dan":   "daniel",
	"dave":  "david",
	"deb":   "deborah",
	"dick":  "richard",
	"dot":   "dorothy",
	"ed":    "edward",
	"fred":  "frederick",
	"greg":  "gregory",
	"jim":   "james",
	"joe":   "joseph",
	"kate":  "katherine",
	"kathy": "katherine",
	"ken":   "kenneth",
	"larry": "lawrence",
	"liz":   "elizabeth",
	"marge": "margaret",
	"mike":  "michael",
	"nick":  "nicholas",
	"pat":   "patricia",
	"peg":   "margaret",
	"peggy": "margaret",
	"rick":  "richard",
	"ron":   "ronald",
	"steve": "steven",
	"sue":   "susan",
	"ted":   "theodore",
	"tom":   "thomas",
	"tony":  "anthony",
	"will":  "william",
}

// nameTokens lowercases a display name, strips punctuation, canonicalizes
// nicknames, and returns the sorted token set. "Morris, Wm. (Bill)" and
// "william morris" reduce to the same tokens.
func nameTokens(name string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if canonical, ok := nicknames[tok]; ok {
			tok = canonical
		}
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// SimilarNames reports whether two display names plausibly belong to the
// same person: identical token sets regardless of ordering and punctuation,
// or one set containing the other (middle names, initials dropped on one
// side). Single-token containment is not enough; a bare surname matching
// anything would over-merge.
func SimilarNames(a, b string) bool {
	ta, tb := nameTokens(a), nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	if len(ta) > len(tb) {
		ta, tb = tb, ta
	}
	if len(ta) < 2 && len(tb) > 1 {
		return false
	}

	super := make(map[string]int, len(tb))
	for _, tok := range tb {
		super[tok]++
	}
	for _, tok := range ta {
		if super[tok] == 0 {
			return false
		}
		super[tok]--
	}
	return true
}
