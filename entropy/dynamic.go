package entropy

import (
	"container/heap"
	"fmt"

	"github.com/seiflotfy/signalzip/bitpack"
)

// DynamicCoder builds a frequency-weighted prefix code for each stream.
type DynamicCoder struct{}

// BuildTable returns a minimum expected length prefix code for syms.
//
// The two lowest-weight groups are merged repeatedly, prefixing 0 to the
// lighter group's codes and 1 to the heavier. Equal weights are ordered by
// first appearance so the table is reproducible. A single distinct symbol
// gets the code "0".
func BuildTable(syms []Symbol) Table {
	var alphabet []Symbol
	weights := make(map[Symbol]int)
	for _, s := range syms {
		if weights[s] == 0 {
			alphabet = append(alphabet, s)
		}
		weights[s]++
	}

	table := make(Table, len(alphabet))
	switch len(alphabet) {
	case 0:
		return table
	case 1:
		table[alphabet[0]] = "0"
		return table
	}

	codes := make([][]byte, len(alphabet))
	h := make(groupHeap, len(alphabet))
	for i, s := range alphabet {
		h[i] = group{weight: weights[s], seq: i, members: []int{i}}
	}
	heap.Init(&h)

	seq := len(alphabet)
	for h.Len() > 1 {
		lo := heap.Pop(&h).(group)
		hi := heap.Pop(&h).(group)
		for _, m := range lo.members {
			codes[m] = append(codes[m], '0')
		}
		for _, m := range hi.members {
			codes[m] = append(codes[m], '1')
		}
		heap.Push(&h, group{
			weight:  lo.weight + hi.weight,
			seq:     seq,
			members: append(lo.members, hi.members...),
		})
		seq++
	}

	// Bits were appended leaf to root; codes read root to leaf.
	for i, s := range alphabet {
		c := codes[i]
		for l, r := 0, len(c)-1; l < r; l, r = l+1, r-1 {
			c[l], c[r] = c[r], c[l]
		}
		table[s] = string(c)
	}
	return table
}

// Encode builds the table for syms and writes their codes to w.
func (DynamicCoder) Encode(syms []Symbol, w *bitpack.Writer) (Table, error) {
	table := BuildTable(syms)
	for _, s := range syms {
		if err := w.WriteCode(table[s]); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// Decode validates t and decodes r against it.
func (DynamicCoder) Decode(r *bitpack.Reader, t Table) ([]Symbol, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	alphabet := make([]Symbol, 0, len(t))
	codes := make([]string, 0, len(t))
	for s, c := range t {
		alphabet = append(alphabet, s)
		codes = append(codes, c)
	}
	cb := newCodebook(codes)

	var out []Symbol
	for {
		i, ok, err := cb.next(r)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", len(out), err)
		}
		if !ok {
			return out, nil
		}
		out = append(out, alphabet[i])
	}
}

type group struct {
	weight  int
	seq     int
	members []int
}

type groupHeap []group

func (h groupHeap) Len() int { return len(h) }

func (h groupHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].seq < h[j].seq
}

func (h groupHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *groupHeap) Push(x any) { *h = append(*h, x.(group)) }

func (h *groupHeap) Pop() any {
	old := *h
	n := len(old)
	g := old[n-1]
	*h = old[:n-1]
	return g
}
