package detector

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestHistogramUpdateCounts(t *testing.T) {
	h := NewHistogram()
	for i := 0; i < 3; i++ {
		h.Update("bunny")
	}
	h.Update("buck")

	if got := h.Count("bunny"); got != 3 {
		t.Fatalf("Count(bunny) = %d, want 3", got)
	}
	if got := h.Count("buck"); got != 1 {
		t.Fatalf("Count(buck) = %d, want 1", got)
	}
	if got := h.Count("missing"); got != 0 {
		t.Fatalf("Count(missing) = %d, want 0", got)
	}
	if got := h.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestHistogramSnapshotOrdering(t *testing.T) {
	h := NewHistogram()
	for _, token := range []string{"zeta", "alpha", "mid", "mid", "beta", "beta", "beta", "alpha"} {
		h.Update(token)
	}

	want := []Entry{
		{Token: "beta", Count: 3},
		{Token: "alpha", Count: 2},
		{Token: "mid", Count: 2},
		{Token: "zeta", Count: 1},
	}
	for i := 0; i < 5; i++ {
		if got := h.Snapshot(); !reflect.DeepEqual(got, want) {
			t.Fatalf("Snapshot() = %v, want %v", got, want)
		}
	}
}

func TestHistogramSnapshotIsCopy(t *testing.T) {
	h := NewHistogram()
	h.Update("one")
	snap := h.Snapshot()

	h.Update("one")
	h.Update("two")
	if len(snap) != 1 || snap[0].Count != 1 {
		t.Fatalf("snapshot changed after later updates: %v", snap)
	}

	snap[0].Count = 99
	if got := h.Count("one"); got != 2 {
		t.Fatalf("mutating snapshot affected histogram: Count(one) = %d", got)
	}
}

func TestHistogramReset(t *testing.T) {
	h := NewHistogram()
	h.Update("a1")
	h.Update("b2")
	h.Reset()

	snap := h.Snapshot()
	if snap == nil || len(snap) != 0 {
		t.Fatalf("Snapshot() after Reset = %#v, want empty slice", snap)
	}

	h.Update("a1")
	if got := h.Count("a1"); got != 1 {
		t.Fatalf("Count after reset+update = %d, want 1", got)
	}
}

func TestHistogramConcurrentUpdates(t *testing.T) {
	h := NewHistogram()
	const writers = 16
	const perWriter = 500

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				h.Update("shared")
				h.Update(fmt.Sprintf("w%d", w))
				if i%50 == 0 {
					_ = h.Snapshot()
				}
			}
		}(w)
	}
	wg.Wait()

	if got := h.Count("shared"); got != writers*perWriter {
		t.Fatalf("Count(shared) = %d, want %d", got, writers*perWriter)
	}
	for w := 0; w < writers; w++ {
		if got := h.Count(fmt.Sprintf("w%d", w)); got != perWriter {
			t.Fatalf("Count(w%d) = %d, want %d", w, got, perWriter)
		}
	}
}

func TestTop(t *testing.T) {
	entries := []Entry{{"a", 3}, {"b", 2}, {"c", 1}}
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero keeps all", 0, 3},
		{"negative keeps all", -1, 3},
		{"truncates", 2, 2},
		{"larger than len", 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Top(entries, tt.n)); got != tt.want {
				t.Fatalf("len(Top(%d)) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}
