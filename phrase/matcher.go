package phrase

import (
	"encoding/binary"
	"slices"

	"github.com/zeebo/xxh3"
)

// Matcher is a longest-match lookup over a fixed set of phrases.
//
// Phrases are bucketed by the xxh3 hash of their contents; every candidate in
// a bucket is compared element by element, so hash collisions cost time but
// never produce a wrong match. A Matcher is not safe for concurrent use.
type Matcher struct {
	buckets map[uint64][]int // content hash → phrase indices
	widths  []int            // distinct phrase widths, longest first
	phrases [][]uint32
	scratch []byte
}

// NewMatcher indexes phrases. Index i of phrases is the value Find returns.
func NewMatcher(phrases [][]uint32) *Matcher {
	m := &Matcher{
		buckets: make(map[uint64][]int, len(phrases)),
		phrases: phrases,
	}
	for i, p := range phrases {
		h := m.hash(p)
		m.buckets[h] = append(m.buckets[h], i)
		if !slices.Contains(m.widths, len(p)) {
			m.widths = append(m.widths, len(p))
		}
	}
	slices.Sort(m.widths)
	slices.Reverse(m.widths)
	return m
}

// Find returns the index and width of the longest phrase that is a prefix
// of stream. Shorter phrases are only tried when no longer one matches.
func (m *Matcher) Find(stream []uint32) (index, width int, ok bool) {
	for _, w := range m.widths {
		if w > len(stream) {
			continue
		}
		if i, found := m.lookup(stream[:w]); found {
			return i, w, true
		}
	}
	return 0, 0, false
}

// lookup returns the phrase index equal to window, if any.
func (m *Matcher) lookup(window []uint32) (int, bool) {
	for _, i := range m.buckets[m.hash(window)] {
		if slices.Equal(m.phrases[i], window) {
			return i, true
		}
	}
	return 0, false
}

func (m *Matcher) hash(window []uint32) uint64 {
	m.scratch = appendWindow(m.scratch[:0], window)
	return xxh3.Hash(m.scratch)
}

func appendWindow(dst []byte, window []uint32) []byte {
	for _, id := range window {
		dst = binary.LittleEndian.AppendUint32(dst, id)
	}
	return dst
}
