package app

import (
	"fmt"
	"testing"

	"github.com/avorin/huddle/internal/domain"
)

func TestHistoryRingWraps(t *testing.T) {
	r := newHistoryRing(3)
	if got := r.snapshot(); len(got) != 0 {
		t.Fatalf("empty ring snapshot = %v", got)
	}

	for i := 1; i <= 2; i++ {
		r.push(domain.ChatMessage{Text: fmt.Sprintf("m%d", i)})
	}
	got := r.snapshot()
	if len(got) != 2 || got[0].Text != "m1" || got[1].Text != "m2" {
		t.Fatalf("partial ring snapshot = %v", got)
	}

	for i := 3; i <= 7; i++ {
		r.push(domain.ChatMessage{Text: fmt.Sprintf("m%d", i)})
	}
	got = r.snapshot()
	want := []string{"m5", "m6", "m7"}
	if len(got) != len(want) {
		t.Fatalf("wrapped snapshot length = %d", len(got))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Fatalf("wrapped snapshot = %v, want %v", got, want)
		}
	}
}
