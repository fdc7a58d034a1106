package search

import (
	"strings"
	"unicode"
)

// Score combination weights: the backend vector score dominates, text
// relevance refines.
const (
	vectorWeight = 0.7
	textWeight   = 0.3
)

// Per-term match weights for the text relevance formula.
const (
	exactWeight   = 2.0
	partialWeight = 1.0
	synonymWeight = 1.5
)

// synonymGroups is the bilingual synonym map. Every term of a group
// matches every other term of the same group.
var synonymGroups = [][]string{
	{"database", "datenbank", "sqlite", "storage"},
	{"configure", "konfigurieren", "setup", "einrichten"},
	{"cloud", "azure"},
	{"storage", "files", "file", "datei", "dateien", "speicher"},
	{"document", "dokument", "unterlagen"},
	{"search", "suche", "suchen", "finden", "find"},
	{"delete", "remove", "löschen", "loeschen", "entfernen"},
	{"upload", "hochladen"},
	{"error", "fehler", "problem"},
	{"question", "frage", "anfrage", "query"},
}

var synonymsOf map[string]map[string]struct{}

func init() {
	synonymsOf = make(map[string]map[string]struct{})
	for _, group := range synonymGroups {
		for _, term := range group {
			set := synonymsOf[term]
			if set == nil {
				set = make(map[string]struct{})
				synonymsOf[term] = set
			}
			for _, other := range group {
				if other != term {
					set[other] = struct{}{}
				}
			}
		}
	}
}

// MeaningfulTerms lowercases, splits on whitespace and punctuation,
// and drops stop-words and terms of length <= 2.
func MeaningfulTerms(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) <= 2 || isStopWord(f) {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// TextRelevance scores content against a query in [0,1]. Exact
// standalone matches count double, synonym matches 1.5, substring
// matches single weight, normalized by twice the query term count.
func TextRelevance(content, query string) float64 {
	queryTerms := MeaningfulTerms(query)
	if len(queryTerms) == 0 {
		return 0
	}

	contentTerms := MeaningfulTerms(content)
	contentSet := make(map[string]struct{}, len(contentTerms))
	for _, t := range contentTerms {
		contentSet[t] = struct{}{}
	}
	lowerContent := strings.ToLower(content)

	var weighted float64
	for _, q := range queryTerms {
		if _, ok := contentSet[q]; ok {
			weighted += exactWeight
			continue
		}
		if matchesSynonym(q, contentSet) {
			weighted += synonymWeight
			continue
		}
		if strings.Contains(lowerContent, q) {
			weighted += partialWeight
		}
	}

	relevance := weighted / (exactWeight * float64(len(queryTerms)))
	if relevance > 1 {
		relevance = 1
	}
	return relevance
}

// CombinedScore fuses the backend vector score with text relevance.
func CombinedScore(vectorScore, textRelevance float64) float64 {
	return vectorWeight*vectorScore + textWeight*textRelevance
}

func matchesSynonym(term string, contentSet map[string]struct{}) bool {
	syns, ok := synonymsOf[term]
	if !ok {
		return false
	}
	for s := range syns {
		if _, present := contentSet[s]; present {
			return true
		}
	}
	return false
}
