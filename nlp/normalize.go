package nlp

import (
	"strings"
	"unicode"
)

// Normalize lower-cases text, reduces each token to its base form, drops
// stopwords and non-alphabetic tokens, and joins the survivors with single
// spaces. It is deterministic, never fails, and is idempotent on its own
// output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	tokens := tokenize(strings.ToLower(text))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !isAlphabetic(tok) {
			continue
		}
		lemma := Lemmatize(tok)
		if lemma == "" || stopWords[lemma] {
			continue
		}
		out = append(out, lemma)
	}
	return strings.Join(out, " ")
}

// tokenize splits on any non-letter run.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// Lemmatize maps an already lower-cased token to its base form using an
// irregular table plus English suffix stripping. Approximate by design;
// the same token always maps to the same lemma, and lemmas are fixed
// points of the function.
func Lemmatize(token string) string {
	if lemma, ok := irregularLemmas[token]; ok {
		return lemma
	}

	n := len(token)
	switch {
	case n > 4 && strings.HasSuffix(token, "ies"):
		return token[:n-3] + "y" // memories -> memory
	case n > 4 && strings.HasSuffix(token, "sses"):
		return token[:n-2]
	case n > 3 && strings.HasSuffix(token, "es") && !strings.HasSuffix(token, "ses"):
		stem := token[:n-2]
		if strings.HasSuffix(stem, "sh") || strings.HasSuffix(stem, "ch") ||
			strings.HasSuffix(stem, "x") || strings.HasSuffix(stem, "z") {
			return stem
		}
		return token[:n-1]
	case n > 3 && strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && !strings.HasSuffix(token, "us"):
		return token[:n-1]
	case n > 5 && strings.HasSuffix(token, "ing"):
		return undouble(token[:n-3])
	case n > 4 && strings.HasSuffix(token, "ied"):
		return token[:n-3] + "y"
	case n > 4 && strings.HasSuffix(token, "ed"):
		return undouble(token[:n-2])
	default:
		return token
	}
}

// undouble collapses a doubled final consonant left by suffix stripping
// (runn -> run) and restores a dropped trailing "e" (mak -> make).
func undouble(stem string) string {
	n := len(stem)
	if n < 3 {
		return stem
	}
	last := stem[n-1]
	if last == stem[n-2] && last != 'l' && last != 's' && isConsonant(last) {
		return stem[:n-1]
	}
	if isConsonant(last) && !isConsonant(stem[n-2]) && isConsonant(stem[n-3]) {
		switch last {
		case 'v', 'z', 'c', 'g':
			return stem + "e"
		}
	}
	return stem
}

func isConsonant(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	}
	return b >= 'a' && b <= 'z'
}

var irregularLemmas = map[string]string{
	"am": "be", "are": "be", "is": "be", "was": "be", "were": "be", "been": "be", "being": "be",
	"has": "have", "had": "have", "having": "have",
	"does": "do", "did": "do", "done": "do", "doing": "do",
	"went": "go", "gone": "go", "going": "go", "goes": "go",
	"made": "make", "making": "make",
	"said": "say", "saying": "say",
	"got": "get", "gotten": "get", "getting": "get",
	"took": "take", "taken": "take", "taking": "take",
	"came": "come", "coming": "come",
	"saw": "see", "seen": "see", "seeing": "see",
	"knew": "know", "known": "know", "knowing": "know",
	"thought": "think", "thinking": "think",
	"felt": "feel", "feeling": "feel",
	"found": "find", "finding": "find",
	"told": "tell", "telling": "tell",
	"gave": "give", "given": "give", "giving": "give",
	"left": "leave", "leaving": "leave",
	"kept": "keep", "keeping": "keep",
	"men": "man", "women": "woman", "children": "child", "people": "person",
	"feet": "foot", "teeth": "tooth", "mice": "mouse", "lives": "life",
	"better": "good", "best": "good", "worse": "bad", "worst": "bad",
}

// stopWords are common words removed during normalization.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "up": true, "about": true,
	"into": true, "through": true, "during": true, "before": true,
	"after": true, "above": true, "below": true, "between": true, "out": true,
	"off": true, "over": true, "under": true, "again": true, "further": true,
	"then": true, "once": true, "here": true, "there": true, "when": true,
	"where": true, "why": true, "how": true, "all": true, "any": true,
	"both": true, "each": true, "few": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "no": true, "nor": true,
	"not": true, "only": true, "own": true, "same": true, "so": true,
	"than": true, "too": true, "very": true, "can": true, "will": true,
	"just": true, "should": true, "now": true, "i": true, "me": true,
	"my": true, "myself": true, "we": true, "our": true, "you": true,
	"your": true, "he": true, "him": true, "his": true, "she": true,
	"her": true, "it": true, "its": true, "they": true, "them": true,
	"their": true, "what": true, "which": true, "who": true, "whom": true,
	"this": true, "that": true, "these": true, "those": true, "be": true,
	"have": true, "do": true, "would": true, "could": true, "ought": true,
	"as": true, "if": true, "because": true, "while": true, "until": true,
	"against": true, "down": true, "am": true,
}
