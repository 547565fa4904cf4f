package conversation

import "testing"

func TestRespond(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"HELLO", "HI"},
		{"hello", "HI"},
		{"NAME", "LENSA"},
		{"GRETA", "GRETA"}, // valid word echoes back
		{"H1!", "H"},       // invalid letters filtered out
		{"", "OK"},         // nothing recoverable falls back
		{"JZ", "OK"},       // filters to empty, falls back
	}
	for _, tc := range cases {
		if got := Respond(tc.in); got != tc.want {
			t.Fatalf("Respond(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestScriptedManagerExhausts(t *testing.T) {
	m := NewManager(WithScript([]string{"HELLO", "BYE"}))

	if w, ok := m.NextWord(""); !ok || w != "HELLO" {
		t.Fatalf("first word: got %q ok=%v", w, ok)
	}
	if w, ok := m.NextWord("HI"); !ok || w != "BYE" {
		t.Fatalf("second word: got %q ok=%v", w, ok)
	}
	if _, ok := m.NextWord("BYE"); ok {
		t.Fatalf("script exhausted, expected ok=false")
	}
}

func TestResponseModeOpensWithGreeting(t *testing.T) {
	m := NewManager()
	w, ok := m.NextWord("")
	if !ok || w != "HI" {
		t.Fatalf("opening word: got %q ok=%v", w, ok)
	}
	w, ok = m.NextWord("HOW")
	if !ok || w != "GOOD" {
		t.Fatalf("response: got %q ok=%v", w, ok)
	}
	// A garbled empty turn still produces a word.
	w, ok = m.NextWord("")
	if !ok || w == "" {
		t.Fatalf("empty received word must not stall, got %q ok=%v", w, ok)
	}
}

func TestHistoryInterleaves(t *testing.T) {
	m := NewManager()
	m.NextWord("")
	m.ReceiveWord("hello")
	m.NextWord("HELLO")

	hist := m.History()
	if len(hist) != 3 {
		t.Fatalf("expected 3 exchanges, got %d", len(hist))
	}
	if hist[0].Direction != "sent" || hist[1].Direction != "received" || hist[1].Word != "HELLO" {
		t.Fatalf("unexpected history %+v", hist)
	}
}
