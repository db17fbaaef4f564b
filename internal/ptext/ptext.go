// Package ptext provides accent-insensitive text helpers for matching
// Portuguese-language company names, keywords, and search snippets.
package ptext

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics, so "Distribuição" == "distribuicao".
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// stopwords are short connective words ignored when extracting significant
// words from queries and snippets.
var stopwords = map[string]bool{
	"a": true, "o": true, "e": true, "de": true, "da": true, "do": true,
	"das": true, "dos": true, "em": true, "na": true, "no": true, "um": true,
	"uma": true, "para": true, "por": true, "com": true, "que": true,
	"the": true, "of": true, "and": true, "in": true, "for": true, "to": true,
	"ltda": true, "sa": true, "me": true, "epp": true, "eireli": true,
}

// SignificantWords extracts the folded, de-duplicated significant words of s.
func SignificantWords(s string) []string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	var words []string
	for _, w := range fields {
		if len(w) < 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}

// ContainsFold reports whether haystack contains needle, accent- and
// case-insensitively.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
