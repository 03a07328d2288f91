package detector

import "sort"

// stopWords is seeded once at init and never written again, so readers need
// no synchronization. Matching is exact and case-sensitive.
var stopWords = newStopWordSet(
	// english
	"a", "an", "and", "are", "as", "at", "be", "by", "for",
	"from", "has", "he", "in", "is", "it", "its", "of", "on",
	"that", "the", "to", "this",
)

func newStopWordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsStopWord reports whether token is excluded from counting.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// StopWords returns a sorted copy of the stop-word set.
func StopWords() []string {
	words := make([]string, 0, len(stopWords))
	for w := range stopWords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
