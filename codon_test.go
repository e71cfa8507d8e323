package signalzip

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seiflotfy/signalzip/fingerprint"
)

func TestParseCodon(t *testing.T) {
	for _, s := range []string{"CVO#0", "VCE#17", "SNA#3"} {
		c, err := ParseCodon(s)
		if err != nil {
			t.Errorf("ParseCodon(%q): %v", s, err)
			continue
		}
		if c.String() != s {
			t.Errorf("expected %q, got %q", s, c.String())
		}
	}

	for _, s := range []string{"", "CVO", "#1", "CVO#", "CVO#01", "CVO#-1", "CVO#x", "CVO#1.0"} {
		if _, err := ParseCodon(s); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ParseCodon(%q): expected ErrInvalidFormat, got %v", s, err)
		}
	}
}

func TestParseElement(t *testing.T) {
	tests := []struct {
		in   string
		want Element
	}{
		{"CVO#2", CodonElement(Codon{Symbol: "CVO", N: 2})},
		{"I0", PhraseElement(0)},
		{"I12", PhraseElement(12)},
	}
	for _, tt := range tests {
		got, err := ParseElement(tt.in)
		if err != nil {
			t.Errorf("ParseElement(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseElement(%q): expected %+v, got %+v", tt.in, tt.want, got)
		}
		if got.Name() != tt.in {
			t.Errorf("expected name %q, got %q", tt.in, got.Name())
		}
	}

	for _, s := range []string{"", "I", "I01", "I-1", "X1", "CVO"} {
		if _, err := ParseElement(s); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ParseElement(%q): expected ErrInvalidFormat, got %v", s, err)
		}
	}
}

func disambiguate(p Policy, tokens ...string) ([]string, ReverseMap) {
	ex, _ := fingerprint.New(fingerprint.WordShape, nil)
	d := newDisambiguator(p)
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		sym, _ := ex.Fingerprint(tok)
		names[i] = d.codon(tok, sym).String()
	}
	return names, d.reverse
}

func TestDisambiguateOccurrence(t *testing.T) {
	got, rm := disambiguate(Occurrence, "the", "cat", "sat", "on", "the", "mat.")
	want := []string{"CVO#0", "CCO#0", "CCO#1", "VCE#0", "CVO#1", "CCE#0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("codons mismatch (-want +got):\n%s", diff)
	}
	if len(rm) != 6 {
		t.Errorf("expected one reverse entry per occurrence, got %d", len(rm))
	}
}

func TestDisambiguateDistinct(t *testing.T) {
	got, rm := disambiguate(Distinct, "the", "cat", "the", "tho", "cat", "sat")
	want := []string{"CVO#0", "CCO#0", "CVO#0", "CVO#1", "CCO#0", "CCO#1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("codons mismatch (-want +got):\n%s", diff)
	}
	wantMap := ReverseMap{
		{Symbol: "CVO", N: 0}: "the",
		{Symbol: "CVO", N: 1}: "tho",
		{Symbol: "CCO", N: 0}: "cat",
		{Symbol: "CCO", N: 1}: "sat",
	}
	if diff := cmp.Diff(wantMap, rm); diff != "" {
		t.Errorf("reverse map mismatch (-want +got):\n%s", diff)
	}
}

func TestDisambiguatorIsInjective(t *testing.T) {
	tokens := []string{"a", "b", "a", "ab", "ba", "abc", "b", "cab", "a"}
	for _, p := range []Policy{Occurrence, Distinct} {
		names, rm := disambiguate(p, tokens...)
		for i, name := range names {
			c, err := ParseCodon(name)
			if err != nil {
				t.Fatal(err)
			}
			if rm[c] != tokens[i] {
				t.Errorf("%s: %s restores %q, expected %q", p, name, rm[c], tokens[i])
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{Occurrence, Distinct} {
		got, err := ParsePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParsePolicy("sometimes"); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}
