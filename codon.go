package signalzip

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/seiflotfy/signalzip/fingerprint"
)

const (
	codonSep     = "#"
	phrasePrefix = "I"
)

// Codon is a fingerprint symbol made unique by a counter scoped to that
// symbol. Unlike a symbol, a codon identifies exactly one original token.
type Codon struct {
	Symbol fingerprint.Symbol
	N      int
}

// String renders the codon as SYMBOL#N.
func (c Codon) String() string {
	return string(c.Symbol) + codonSep + strconv.Itoa(c.N)
}

// ParseCodon is the inverse of Codon.String.
func ParseCodon(s string) (Codon, error) {
	i := strings.LastIndex(s, codonSep)
	if i <= 0 {
		return Codon{}, fmt.Errorf("%w: malformed codon %q", ErrInvalidFormat, s)
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil || n < 0 || strconv.Itoa(n) != s[i+1:] {
		return Codon{}, fmt.Errorf("%w: malformed codon counter in %q", ErrInvalidFormat, s)
	}
	return Codon{Symbol: fingerprint.Symbol(s[:i]), N: n}, nil
}

// ElementKind tags the variants of Element.
type ElementKind uint8

const (
	ElementCodon ElementKind = iota
	ElementPhrase
)

// Element is one token of the substituted stream: either a codon or a
// reference to a phrase dictionary entry.
type Element struct {
	Kind   ElementKind
	Codon  Codon // set for ElementCodon
	Phrase int   // set for ElementPhrase
}

// CodonElement wraps c as an Element.
func CodonElement(c Codon) Element {
	return Element{Kind: ElementCodon, Codon: c}
}

// PhraseElement references phrase index i.
func PhraseElement(i int) Element {
	return Element{Kind: ElementPhrase, Phrase: i}
}

// Name renders the element for code tables: SYMBOL#N or I<index>.
func (e Element) Name() string {
	if e.Kind == ElementPhrase {
		return phraseName(e.Phrase)
	}
	return e.Codon.String()
}

func phraseName(i int) string {
	return phrasePrefix + strconv.Itoa(i)
}

// parsePhraseName returns the index of an I<n> name.
func parsePhraseName(s string) (int, bool) {
	digits, ok := strings.CutPrefix(s, phrasePrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || strconv.Itoa(n) != digits {
		return 0, false
	}
	return n, true
}

// ParseElement is the inverse of Element.Name. Codon names always contain
// the '#' separator and phrase names never do.
func ParseElement(s string) (Element, error) {
	if strings.Contains(s, codonSep) {
		c, err := ParseCodon(s)
		if err != nil {
			return Element{}, err
		}
		return CodonElement(c), nil
	}
	if i, ok := parsePhraseName(s); ok {
		return PhraseElement(i), nil
	}
	return Element{}, fmt.Errorf("%w: unknown element %q", ErrInvalidFormat, s)
}

// Policy decides when the disambiguator mints a new codon.
type Policy uint8

const (
	// Occurrence mints a new codon for every token: the k-th token with
	// symbol S becomes S#k. The reverse map grows with the document and no
	// codon ever repeats, so folding and phrases find nothing to do.
	Occurrence Policy = iota
	// Distinct mints a new codon per distinct token within a symbol. A
	// repeated word reuses its codon, which lets folding and phrases work.
	Distinct
)

func (p Policy) String() string {
	switch p {
	case Occurrence:
		return "occurrence"
	case Distinct:
		return "distinct"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy is the inverse of Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "occurrence":
		return Occurrence, nil
	case "distinct":
		return Distinct, nil
	default:
		return 0, fmt.Errorf("unknown disambiguation policy %q", s)
	}
}

// disambiguator turns (token, symbol) pairs into codons. Every codon it
// mints is recorded in reverse with the single token it stands for.
type disambiguator struct {
	policy   Policy
	counters map[fingerprint.Symbol]int
	seen     map[string]Codon // token → codon, Distinct only
	reverse  ReverseMap
}

func newDisambiguator(p Policy) *disambiguator {
	return &disambiguator{
		policy:   p,
		counters: make(map[fingerprint.Symbol]int),
		seen:     make(map[string]Codon),
		reverse:  make(ReverseMap),
	}
}

func (d *disambiguator) codon(token string, sym fingerprint.Symbol) Codon {
	if d.policy == Distinct {
		// A token always fingerprints to the same symbol, so the token alone
		// is a sufficient key.
		if c, ok := d.seen[token]; ok {
			return c
		}
	}
	c := Codon{Symbol: sym, N: d.counters[sym]}
	d.counters[sym]++
	d.reverse[c] = token
	if d.policy == Distinct {
		d.seen[token] = c
	}
	return c
}
