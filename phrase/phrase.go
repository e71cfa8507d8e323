// Package phrase finds frequent contiguous runs of stream symbols and
// replaces them with compact phrase references.
//
// Streams are sequences of dense uint32 identifiers; the caller owns the
// mapping between identifiers and whatever they stand for.
package phrase

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/zeebo/xxh3"
)

const (
	// DefaultMaxWindow is the longest phrase considered by Build.
	DefaultMaxWindow = 8
	// DefaultMaxPhrases is the default dictionary capacity.
	DefaultMaxPhrases = 256
	// DefaultMinFrequency is the fewest occurrences a window needs to be
	// selected. A window seen once cannot shorten the stream.
	DefaultMinFrequency = 2
)

var (
	// ErrInvalidPhrase is returned when a dictionary entry is shorter than
	// two symbols or duplicates another entry.
	ErrInvalidPhrase = errors.New("invalid phrase")

	// ErrUnknownPhrase is returned when expansion meets a reference outside
	// the dictionary.
	ErrUnknownPhrase = errors.New("unknown phrase reference")
)

// Options bound the dictionary built from a stream.
type Options struct {
	MaxWindow    int // longest window scanned (0 = DefaultMaxWindow)
	MaxPhrases   int // dictionary capacity (0 = DefaultMaxPhrases)
	MinFrequency int // minimum window count (0 = DefaultMinFrequency)
}

// Dictionary is an immutable, ordered set of phrases. Phrase i is referenced
// by index i.
type Dictionary struct {
	phrases [][]uint32
	matcher *Matcher
}

// windowStat tracks one distinct window value.
type windowStat struct {
	start int // first occurrence
	width int
	count int
}

// Build selects the most frequent windows of width 2..MaxWindow in stream.
//
// Windows are counted by value across all widths in a single table, then
// ranked by descending count, ascending width and ascending first position.
// The ranking is total, so the same stream always yields the same dictionary.
// Time and transient memory are O(len(stream) * MaxWindow).
func Build(stream []uint32, opts Options) *Dictionary {
	maxWindow := cmp.Or(opts.MaxWindow, DefaultMaxWindow)
	maxPhrases := cmp.Or(opts.MaxPhrases, DefaultMaxPhrases)
	minFrequency := max(cmp.Or(opts.MinFrequency, DefaultMinFrequency), 1)

	buckets := make(map[uint64][]int)
	var stats []windowStat
	var scratch []byte

	for width := 2; width <= maxWindow && width <= len(stream); width++ {
		for start := 0; start+width <= len(stream); start++ {
			window := stream[start : start+width]
			scratch = appendWindow(scratch[:0], window)
			h := xxh3.Hash(scratch)

			found := false
			for _, si := range buckets[h] {
				s := &stats[si]
				if s.width == width && slices.Equal(stream[s.start:s.start+width], window) {
					s.count++
					found = true
					break
				}
			}
			if !found {
				buckets[h] = append(buckets[h], len(stats))
				stats = append(stats, windowStat{start: start, width: width, count: 1})
			}
		}
	}

	candidates := stats[:0:0]
	for _, s := range stats {
		if s.count >= minFrequency {
			candidates = append(candidates, s)
		}
	}
	slices.SortFunc(candidates, func(a, b windowStat) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.width, b.width); c != 0 {
			return c
		}
		return cmp.Compare(a.start, b.start)
	})
	if len(candidates) > maxPhrases {
		candidates = candidates[:maxPhrases]
	}

	phrases := make([][]uint32, len(candidates))
	for i, s := range candidates {
		phrases[i] = slices.Clone(stream[s.start : s.start+s.width])
	}
	return &Dictionary{phrases: phrases, matcher: NewMatcher(phrases)}
}

// New restores a dictionary from its phrases, typically read back from
// metadata.
func New(phrases [][]uint32) (*Dictionary, error) {
	owned := make([][]uint32, len(phrases))
	for i, p := range phrases {
		if len(p) < 2 {
			return nil, fmt.Errorf("%w: entry %d has %d symbols", ErrInvalidPhrase, i, len(p))
		}
		owned[i] = slices.Clone(p)
	}
	d := &Dictionary{phrases: owned, matcher: NewMatcher(owned)}
	for i, p := range owned {
		if j, _ := d.matcher.lookup(p); j != i {
			return nil, fmt.Errorf("%w: entry %d duplicates entry %d", ErrInvalidPhrase, i, j)
		}
	}
	return d, nil
}

// Len returns the number of phrases.
func (d *Dictionary) Len() int {
	return len(d.phrases)
}

// Phrase returns phrase i. The result must not be modified.
func (d *Dictionary) Phrase(i int) []uint32 {
	return d.phrases[i]
}

// Phrases returns all phrases in index order. The result must not be modified.
func (d *Dictionary) Phrases() [][]uint32 {
	return d.phrases
}

// Kind distinguishes literal stream symbols from phrase references.
type Kind uint8

const (
	Literal Kind = iota
	Ref
)

// Item is one element of a substituted stream: a literal symbol or a
// reference to a phrase index.
type Item struct {
	Kind  Kind
	Value uint32
}

// Substitute rewrites stream left to right, replacing the longest matching
// phrase at each position and passing unmatched symbols through. There is
// no backtracking; Expand assumes exactly this policy.
func (d *Dictionary) Substitute(stream []uint32) []Item {
	out := make([]Item, 0, len(stream))
	for pos := 0; pos < len(stream); {
		if idx, width, ok := d.matcher.Find(stream[pos:]); ok {
			out = append(out, Item{Kind: Ref, Value: uint32(idx)})
			pos += width
			continue
		}
		out = append(out, Item{Kind: Literal, Value: stream[pos]})
		pos++
	}
	return out
}

// Expand is the inverse of Substitute.
func (d *Dictionary) Expand(items []Item) ([]uint32, error) {
	out := make([]uint32, 0, len(items))
	for _, it := range items {
		switch it.Kind {
		case Literal:
			out = append(out, it.Value)
		case Ref:
			if int(it.Value) >= len(d.phrases) {
				return nil, fmt.Errorf("%w: I%d of %d", ErrUnknownPhrase, it.Value, len(d.phrases))
			}
			out = append(out, d.phrases[it.Value]...)
		default:
			return nil, fmt.Errorf("unknown item kind %d", it.Kind)
		}
	}
	return out, nil
}
