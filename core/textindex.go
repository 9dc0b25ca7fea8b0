package core

import (
	"strings"
	"unicode"
)

// Field weights for the derived lexical index. Title terms carry full weight,
// body terms a reduced one, so title matches rank higher for the same term.
const (
	TitleWeight float32 = 1.0
	BodyWeight  float32 = 0.4
)

// Tokenize splits text into lowercase terms using a locale-agnostic rule:
// maximal runs of Unicode letters and digits are terms, everything else is a
// separator. No stemming and no stop-word removal, so tokenization never
// depends on language resources and never fails.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return terms
}

// BuildSearchVector derives the weighted lexical index for a document from
// its title and body. Each occurrence of a term accumulates the weight of the
// field it appears in. The result is always consistent with the inputs;
// repositories call this on every write so callers never set it directly.
func BuildSearchVector(title, body string) map[string]float32 {
	sv := make(map[string]float32)
	for _, term := range Tokenize(title) {
		sv[term] += TitleWeight
	}
	for _, term := range Tokenize(body) {
		sv[term] += BodyWeight
	}
	if len(sv) == 0 {
		return nil
	}
	return sv
}

// RankQuery computes the lexical rank of a query against a search vector:
// the sum of the indexed weights of the distinct query terms. Zero when there
// is no lexical overlap. Independent of the semantic signal.
func RankQuery(queryTerms []string, sv map[string]float32) float32 {
	if len(queryTerms) == 0 || len(sv) == 0 {
		return 0
	}
	var rank float32
	seen := make(map[string]bool, len(queryTerms))
	for _, term := range queryTerms {
		if seen[term] {
			continue
		}
		seen[term] = true
		rank += sv[term]
	}
	return rank
}

// NormalizeRank maps an unbounded lexical rank into [0, 1) via rank/(rank+1),
// making it comparable with the bounded vector similarity signal.
func NormalizeRank(rank float32) float32 {
	if rank <= 0 {
		return 0
	}
	return rank / (rank + 1)
}
