package search

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"docqa/internal/domain"
)

// followUpPhrases are case-insensitive substrings that mark a query as
// a follow-up to the prior conversation (German and English).
var followUpPhrases = []string{
	"beispiel", "beispiele", "mehr über", "mehr dazu", "mehr infos",
	"mehr details", "weitere informationen", "nachteile davon",
	"vorteile davon", "probleme dabei", "schwierigkeiten",
	"andere aspekte", "zusätzlich", "außerdem", "darüber hinaus",
	"kannst du", "könntest du", "erklär mir", "sag mir mehr",
	"gib mir", "zeig mir", "was meinst du", "erkläre das", "genauer",
	"spezifischer", "details",
	"example", "examples", "can you", "could you", "tell me more",
	"give me", "show me", "what do you mean", "explain that",
	"more about", "more details", "more info", "disadvantages",
	"advantages", "problems with", "issues with", "other aspects",
	"additionally", "furthermore", "more specific", "more precise",
	"elaborate",
}

// questionWords open direct questions; a long query that starts with
// one is treated as self-contained rather than a follow-up.
var questionWords = map[string]struct{}{
	"was": {}, "wie": {}, "warum": {}, "weshalb": {}, "wo": {},
	"wann": {}, "wer": {}, "welche": {}, "welcher": {}, "welches": {},
	"what": {}, "how": {}, "why": {}, "where": {}, "when": {},
	"who": {}, "which": {},
}

// followUpWords are the individual tokens of the follow-up phrases,
// excluded from history keyword extraction.
var followUpWords map[string]struct{}

func init() {
	followUpWords = make(map[string]struct{})
	for _, phrase := range followUpPhrases {
		for _, w := range strings.Fields(phrase) {
			followUpWords[w] = struct{}{}
		}
	}
}

// sourceMarkers open the citation section of an assistant answer.
var sourceMarkers = []string{"sources", "quellen"}

// fileNamePattern matches referenced document file names.
var fileNamePattern = regexp.MustCompile(`(?i)[\p{L}\p{N}][\p{L}\p{N}_\-. ()]*\.(?:pdf|docx|doc|txt|md)\b`)

const (
	historyWindow   = 3
	keywordLimit    = 8
	recencyDecay    = 0.7
	minReferenceLen = 5
	maxReferenceLen = 100
)

// IsFollowUp is the follow-up predicate. Very short queries are always
// follow-ups; long queries opened by a question word are not; anything
// else is a follow-up iff it contains a follow-up phrase.
func IsFollowUp(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	words := strings.Fields(q)
	if len(q) < 10 || len(words) <= 2 {
		return true
	}
	if len(words) > 0 {
		first := strings.Trim(words[0], ",.!?")
		if _, ok := questionWords[first]; ok && len(q) > 20 {
			return false
		}
	}
	for _, phrase := range followUpPhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

// ExtractKeywords pulls the most recent content-bearing words from the
// last messages. More recent messages weigh more; stop-words,
// follow-up tokens and words of length <= 3 are excluded.
func ExtractKeywords(history []domain.ChatHistoryEntry) []string {
	recent := lastN(history, historyWindow)

	weights := make(map[string]float64)
	order := make(map[string]int)
	next := 0
	for i, msg := range recent {
		// The last message of the window carries full weight, each
		// step back decays by recencyDecay.
		weight := math.Pow(recencyDecay, float64(len(recent)-1-i))
		for _, raw := range strings.Fields(strings.ToLower(msg.Content)) {
			w := strings.Trim(raw, ".,;:!?\"'()[]")
			if len([]rune(w)) <= 3 || isStopWord(w) {
				continue
			}
			if _, ok := followUpWords[w]; ok {
				continue
			}
			if _, seen := weights[w]; !seen {
				order[w] = next
				next++
			}
			weights[w] += weight
		}
	}

	keywords := make([]string, 0, len(weights))
	for w := range weights {
		keywords = append(keywords, w)
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		if weights[keywords[i]] != weights[keywords[j]] {
			return weights[keywords[i]] > weights[keywords[j]]
		}
		return order[keywords[i]] < order[keywords[j]]
	})
	if len(keywords) > keywordLimit {
		keywords = keywords[:keywordLimit]
	}
	return keywords
}

// ExtractDocumentReferences scans the last assistant messages for a
// sources section and collects the file names cited there.
func ExtractDocumentReferences(history []domain.ChatHistoryEntry) []string {
	var assistant []domain.ChatHistoryEntry
	for _, msg := range history {
		if msg.Role == "assistant" {
			assistant = append(assistant, msg)
		}
	}
	assistant = lastN(assistant, historyWindow)

	var refs []string
	seen := make(map[string]struct{})
	for _, msg := range assistant {
		inSources := false
		for _, line := range strings.Split(msg.Content, "\n") {
			if startsWithSourceMarker(line) {
				inSources = true
			}
			if !inSources {
				continue
			}
			for _, match := range fileNamePattern.FindAllString(line, -1) {
				match = strings.TrimSpace(match)
				if len(match) < minReferenceLen || len(match) > maxReferenceLen {
					continue
				}
				key := strings.ToLower(match)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				refs = append(refs, match)
			}
		}
	}
	return refs
}

// LastAssistantMessage returns the newest assistant turn, or "".
func LastAssistantMessage(history []domain.ChatHistoryEntry) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "assistant" {
			return history[i].Content
		}
	}
	return ""
}

// LastUserMessages returns up to n of the newest user turns, oldest
// first.
func LastUserMessages(history []domain.ChatHistoryEntry, n int) []string {
	var users []string
	for _, msg := range history {
		if msg.Role == "user" {
			users = append(users, msg.Content)
		}
	}
	if len(users) > n {
		users = users[len(users)-n:]
	}
	return users
}

// CosineSimilarity over equal-length vectors; zero magnitude yields 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// SharesQuestionStructure reports whether both texts open with or
// contain a common question or action word, the weaker signal used for
// related-topic detection.
func SharesQuestionStructure(a, b string) bool {
	wordsA := questionOrActionWords(a)
	wordsB := questionOrActionWords(b)
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			return true
		}
	}
	return false
}

func questionOrActionWords(s string) map[string]struct{} {
	found := make(map[string]struct{})
	for _, raw := range strings.Fields(strings.ToLower(s)) {
		w := strings.Trim(raw, ",.!?")
		if _, ok := questionWords[w]; ok {
			found[w] = struct{}{}
			continue
		}
		if _, ok := followUpWords[w]; ok {
			found[w] = struct{}{}
		}
	}
	return found
}

func startsWithSourceMarker(line string) bool {
	trimmed := strings.ToLower(strings.TrimLeft(strings.TrimSpace(line), "*#->• \t"))
	for _, marker := range sourceMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

func lastN(history []domain.ChatHistoryEntry, n int) []domain.ChatHistoryEntry {
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}
