// Package fingerprint derives coarse shape symbols from text tokens.
//
// A fingerprint is deliberately many-to-one: "cat" and "dog" share a symbol.
// Nothing in this package is injective, and callers that need to recover the
// original token must add their own disambiguation layer on top.
package fingerprint

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Symbol is a fingerprint drawn from a small fixed alphabet.
type Symbol string

// Unknown is the reserved symbol for tokens that have no shape, such as the
// empty string.
const Unknown Symbol = "UNK"

// Mode selects a fingerprint strategy and its tokenization granularity.
type Mode uint8

const (
	// WordShape splits text on whitespace and fingerprints each word by the
	// class of its first and last characters and the parity of its length.
	WordShape Mode = iota
	// CharClass splits text into characters and looks each one up in a
	// ClassTable. Characters missing from the table are dropped, so this
	// mode is lossy and must be selected explicitly.
	CharClass
)

func (m Mode) String() string {
	switch m {
	case WordShape:
		return "word-shape"
	case CharClass:
		return "char-class"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "word-shape":
		return WordShape, nil
	case "char-class":
		return CharClass, nil
	default:
		return 0, fmt.Errorf("unknown fingerprint mode %q", s)
	}
}

// Extractor splits text into tokens and maps each token to a Symbol.
type Extractor interface {
	// Mode reports which strategy the extractor implements.
	Mode() Mode
	// Split breaks text into tokens in document order.
	Split(text string) []string
	// Join is the inverse of Split up to the layout the mode preserves.
	Join(tokens []string) string
	// Fingerprint returns the symbol for token. ok is false when the token
	// has no entry and must be dropped from the stream.
	Fingerprint(token string) (sym Symbol, ok bool)
	// Alphabet lists every symbol Fingerprint can return, sorted.
	Alphabet() []Symbol
}

// New returns the extractor for mode. table is only consulted for CharClass;
// a nil table selects DefaultClassTable.
func New(mode Mode, table ClassTable) (Extractor, error) {
	switch mode {
	case WordShape:
		return wordShape{}, nil
	case CharClass:
		if table == nil {
			table = DefaultClassTable()
		}
		return newCharClass(table), nil
	default:
		return nil, fmt.Errorf("unknown fingerprint mode %d", mode)
	}
}

const vowels = "aeiouAEIOU"

type wordShape struct{}

func (wordShape) Mode() Mode { return WordShape }

// Split collapses all whitespace; the restored document is single-space joined.
func (wordShape) Split(text string) []string { return strings.Fields(text) }

func (wordShape) Join(tokens []string) string { return strings.Join(tokens, " ") }

func (wordShape) Fingerprint(token string) (Symbol, bool) {
	if token == "" {
		return Unknown, true
	}
	first, _ := utf8.DecodeRuneInString(token)
	last, _ := utf8.DecodeLastRuneInString(token)

	var b [3]byte
	b[0] = vowelClass(first)
	b[1] = vowelClass(last)
	if utf8.RuneCountInString(token)%2 == 0 {
		b[2] = 'E'
	} else {
		b[2] = 'O'
	}
	return Symbol(b[:]), true
}

func (wordShape) Alphabet() []Symbol {
	alphabet := make([]Symbol, 0, 9)
	for _, first := range "CV" {
		for _, last := range "CV" {
			for _, parity := range "EO" {
				alphabet = append(alphabet, Symbol([]rune{first, last, parity}))
			}
		}
	}
	alphabet = append(alphabet, Unknown)
	slices.Sort(alphabet)
	return alphabet
}

func vowelClass(r rune) byte {
	if strings.ContainsRune(vowels, r) {
		return 'V'
	}
	return 'C'
}

// ClassTable maps single characters to three-letter class codes.
type ClassTable map[rune]Symbol

// DefaultClassTable covers ASCII letters, space and terminal punctuation.
//
// Codes are class (V vowel, C consonant, S space, P punctuation), case
// (L lower, U upper, N none) and an alphabet third (A a-i, B j-r, C s-z).
// The table is returned fresh on each call so callers may extend it.
func DefaultClassTable() ClassTable {
	t := make(ClassTable, 56)
	for i := 0; i < 26; i++ {
		third := byte('A' + i/9)
		lower := rune('a' + i)
		class := vowelClass(lower)
		t[lower] = Symbol([]byte{class, 'L', third})
		t[lower-'a'+'A'] = Symbol([]byte{class, 'U', third})
	}
	t[' '] = "SNA"
	t['.'] = "PNA"
	t['!'] = "PNB"
	t['?'] = "PNC"
	return t
}

type charClass struct {
	table    ClassTable
	alphabet []Symbol
}

func newCharClass(table ClassTable) *charClass {
	seen := make(map[Symbol]struct{}, len(table))
	alphabet := make([]Symbol, 0, len(table)+1)
	alphabet = append(alphabet, Unknown)
	seen[Unknown] = struct{}{}
	for _, sym := range table {
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		alphabet = append(alphabet, sym)
	}
	slices.Sort(alphabet)
	return &charClass{table: table, alphabet: alphabet}
}

func (c *charClass) Mode() Mode { return CharClass }

func (c *charClass) Split(text string) []string {
	tokens := make([]string, 0, len(text))
	for _, r := range text {
		tokens = append(tokens, string(r))
	}
	return tokens
}

func (c *charClass) Join(tokens []string) string { return strings.Join(tokens, "") }

func (c *charClass) Fingerprint(token string) (Symbol, bool) {
	if token == "" {
		return Unknown, true
	}
	r, size := utf8.DecodeRuneInString(token)
	if size != len(token) {
		return "", false
	}
	sym, ok := c.table[r]
	return sym, ok
}

func (c *charClass) Alphabet() []Symbol {
	return slices.Clone(c.alphabet)
}
