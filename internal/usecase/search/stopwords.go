package search

// stopWords is the combined German and English closed list used by the
// relevance scorer and the history keyword extractor. Terms of length
// <= 2 are dropped unconditionally before this list is consulted.
var stopWords = map[string]struct{}{
	// English articles, pronouns, auxiliaries, prepositions
	"the": {}, "and": {}, "but": {}, "for": {}, "nor": {}, "not": {},
	"with": {}, "about": {}, "against": {}, "between": {}, "into": {},
	"through": {}, "during": {}, "before": {}, "after": {}, "above": {},
	"below": {}, "from": {}, "down": {}, "out": {}, "off": {}, "over": {},
	"under": {}, "again": {}, "further": {}, "once": {}, "here": {},
	"there": {}, "all": {}, "any": {}, "both": {}, "each": {}, "few": {},
	"more": {}, "most": {}, "other": {}, "some": {}, "such": {},
	"only": {}, "own": {}, "same": {}, "than": {}, "too": {}, "very": {},
	"can": {}, "will": {}, "just": {}, "should": {}, "now": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "then": {},
	"else": {}, "when": {}, "what": {}, "which": {}, "who": {},
	"whom": {}, "how": {}, "why": {}, "where": {},
	"are": {}, "was": {}, "were": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "does": {}, "did": {},
	"you": {}, "your": {}, "they": {}, "their": {}, "them": {},
	"its": {}, "his": {}, "her": {}, "she": {}, "him": {}, "our": {},

	// German articles, pronouns, auxiliaries, prepositions
	"der": {}, "die": {}, "das": {}, "den": {}, "dem": {}, "des": {},
	"ein": {}, "eine": {}, "einer": {}, "eines": {}, "einem": {},
	"einen": {}, "und": {}, "oder": {}, "aber": {}, "wenn": {},
	"dann": {}, "sonst": {}, "als": {}, "bei": {}, "fuer": {},
	"für": {}, "mit": {}, "ohne": {}, "über": {}, "ueber": {},
	"gegen": {}, "zwischen": {}, "durch": {}, "während": {},
	"waehrend": {}, "vor": {}, "nach": {}, "auf": {}, "aus": {},
	"von": {}, "zum": {}, "zur": {}, "ist": {}, "sind": {},
	"war": {}, "waren": {}, "sein": {}, "seine": {}, "gewesen": {},
	"haben": {}, "hat": {}, "hatte": {}, "hatten": {}, "werden": {},
	"wird": {}, "wurde": {}, "wurden": {}, "kann": {}, "können": {},
	"koennen": {}, "soll": {}, "sollte": {}, "muss": {}, "müssen": {},
	"muessen": {}, "ich": {}, "mir": {}, "mich": {}, "dir": {},
	"dich": {}, "ihm": {}, "ihn": {}, "ihr": {}, "uns": {},
	"euch": {}, "sie": {}, "wir": {}, "auch": {}, "noch": {},
	"nur": {}, "schon": {}, "mal": {}, "man": {}, "sich": {},
	"nicht": {}, "kein": {}, "keine": {}, "wie": {},
	"warum": {}, "weshalb": {}, "wann": {}, "wer": {}, "welche": {},
	"welcher": {}, "welches": {}, "dieser": {}, "diese": {},
	"dieses": {}, "dass": {}, "damit": {}, "darauf": {}, "dazu": {},
}

// isStopWord reports whether a lowercased term is on the closed list.
func isStopWord(term string) bool {
	_, ok := stopWords[term]
	return ok
}
