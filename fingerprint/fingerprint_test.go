package fingerprint

import (
	"slices"
	"testing"
)

func TestWordShape(t *testing.T) {
	e, err := New(WordShape, nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		token string
		want  Symbol
	}{
		{"the", "CVO"},
		{"cat", "CCO"},
		{"on", "VCE"},
		{"mat.", "CCE"},
		{"area", "VVE"},
		{"a", "VVO"},
		{"Idea", "VVE"},
		{"ünï", "CCO"},
		{"", Unknown},
	}
	for _, tt := range tests {
		got, ok := e.Fingerprint(tt.token)
		if !ok {
			t.Errorf("Fingerprint(%q): unexpectedly dropped", tt.token)
		}
		if got != tt.want {
			t.Errorf("Fingerprint(%q): expected %q, got %q", tt.token, tt.want, got)
		}
	}
}

func TestWordShapeSplitJoin(t *testing.T) {
	e, _ := New(WordShape, nil)
	tokens := e.Split("  the cat\tsat\non the   mat. ")
	want := []string{"the", "cat", "sat", "on", "the", "mat."}
	if !slices.Equal(tokens, want) {
		t.Fatalf("expected %q, got %q", want, tokens)
	}
	if got := e.Join(tokens); got != "the cat sat on the mat." {
		t.Errorf("Join: got %q", got)
	}
}

func TestAlphabetCoversFingerprints(t *testing.T) {
	for _, mode := range []Mode{WordShape, CharClass} {
		e, err := New(mode, nil)
		if err != nil {
			t.Fatal(err)
		}
		alphabet := e.Alphabet()
		if !slices.IsSorted(alphabet) {
			t.Errorf("%s: alphabet not sorted: %v", mode, alphabet)
		}
		for _, tok := range e.Split("Hello there, General Kenobi! Is it you? yes.") {
			sym, ok := e.Fingerprint(tok)
			if !ok {
				continue
			}
			if _, found := slices.BinarySearch(alphabet, sym); !found {
				t.Errorf("%s: symbol %q of %q missing from alphabet", mode, sym, tok)
			}
		}
	}
}

func TestCharClassDropsUnmapped(t *testing.T) {
	e, _ := New(CharClass, nil)

	for _, tok := range []string{"a", "Z", " ", ".", "!", "?"} {
		if _, ok := e.Fingerprint(tok); !ok {
			t.Errorf("Fingerprint(%q): expected mapped", tok)
		}
	}
	for _, tok := range []string{",", "\n", "7", "é", "ab"} {
		if _, ok := e.Fingerprint(tok); ok {
			t.Errorf("Fingerprint(%q): expected dropped", tok)
		}
	}

	if sym, _ := e.Fingerprint("a"); sym != "VLA" {
		t.Errorf("expected VLA for 'a', got %q", sym)
	}
	if sym, _ := e.Fingerprint("T"); sym != "CUC" {
		t.Errorf("expected CUC for 'T', got %q", sym)
	}
}

func TestCharClassCustomTable(t *testing.T) {
	table := ClassTable{'x': "XXX", '\n': "NLN"}
	e, err := New(CharClass, table)
	if err != nil {
		t.Fatal(err)
	}
	if sym, ok := e.Fingerprint("\n"); !ok || sym != "NLN" {
		t.Errorf("expected NLN, got %q (%v)", sym, ok)
	}
	if _, ok := e.Fingerprint("a"); ok {
		t.Error("custom table should not include the default letters")
	}
	if got, want := e.Alphabet(), []Symbol{"NLN", Unknown, "XXX"}; !slices.Equal(got, want) {
		t.Errorf("expected alphabet %v, got %v", want, got)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{WordShape, CharClass} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q): got %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestCached(t *testing.T) {
	base, _ := New(WordShape, nil)
	c, err := NewCached(base, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range []string{"the", "cat", "the", "sat", "on"} {
		want, _ := base.Fingerprint(tok)
		got, ok := c.Fingerprint(tok)
		if !ok || got != want {
			t.Errorf("cached Fingerprint(%q): expected %q, got %q", tok, want, got)
		}
	}
	if c.Len() != 2 {
		t.Errorf("expected cache bounded to 2 entries, got %d", c.Len())
	}
	if _, err := NewCached(base, 0); err == nil {
		t.Error("expected error for zero-sized cache")
	}
}
