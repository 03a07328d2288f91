package detector

import (
	"sort"
	"sync"
)

// Entry is a single token and the number of times it was counted.
type Entry struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Histogram counts token occurrences. It is safe for concurrent use.
type Histogram struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewHistogram returns an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{counts: make(map[string]int)}
}

// Update increments the count for token, inserting it with 1 when absent.
func (h *Histogram) Update(token string) {
	h.mu.Lock()
	h.counts[token]++
	h.mu.Unlock()
}

// Count returns the current count for token, 0 when it was never seen.
func (h *Histogram) Count(token string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[token]
}

// Len returns the number of distinct tokens.
func (h *Histogram) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.counts)
}

// Snapshot returns a copy of the histogram ordered by descending count, with
// ties ordered by ascending token. Later updates do not affect the result.
func (h *Histogram) Snapshot() []Entry {
	h.mu.Lock()
	entries := make([]Entry, 0, len(h.counts))
	for token, count := range h.counts {
		entries = append(entries, Entry{Token: token, Count: count})
	}
	h.mu.Unlock()

	SortEntries(entries)
	return entries
}

// Reset removes every entry. The histogram is reused, not replaced.
func (h *Histogram) Reset() {
	h.mu.Lock()
	clear(h.counts)
	h.mu.Unlock()
}

// SortEntries orders entries by descending count, then ascending token.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Token < entries[j].Token
	})
}

// Top returns the first n entries of a sorted snapshot. n <= 0 keeps all.
func Top(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
