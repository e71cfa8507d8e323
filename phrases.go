package signalzip

import (
	"fmt"

	"github.com/seiflotfy/signalzip/phrase"
)

// interner assigns dense ids to codons in first-seen order.
type interner struct {
	ids    map[Codon]uint32
	codons []Codon
}

func newInterner(sizeHint int) *interner {
	return &interner{ids: make(map[Codon]uint32, sizeHint)}
}

func (in *interner) id(c Codon) uint32 {
	if id, ok := in.ids[c]; ok {
		return id
	}
	id := uint32(len(in.codons))
	in.ids[c] = id
	in.codons = append(in.codons, c)
	return id
}

func (in *interner) all(stream []Codon) []uint32 {
	ids := make([]uint32, len(stream))
	for i, c := range stream {
		ids[i] = in.id(c)
	}
	return ids
}

// substitutePhrases builds a phrase dictionary over stream and rewrites the
// stream with it.
func substitutePhrases(stream []Codon, opts phrase.Options) ([]Element, [][]Codon) {
	in := newInterner(len(stream))
	ids := in.all(stream)

	dict := phrase.Build(ids, opts)
	items := dict.Substitute(ids)

	elements := make([]Element, len(items))
	for i, it := range items {
		if it.Kind == phrase.Ref {
			elements[i] = PhraseElement(int(it.Value))
		} else {
			elements[i] = CodonElement(in.codons[it.Value])
		}
	}

	phrases := make([][]Codon, dict.Len())
	for i, p := range dict.Phrases() {
		phrases[i] = make([]Codon, len(p))
		for j, id := range p {
			phrases[i][j] = in.codons[id]
		}
	}
	return elements, phrases
}

// expandPhrases replaces phrase references with the codons they stand for.
func expandPhrases(elements []Element, phrases [][]Codon) ([]Codon, error) {
	in := newInterner(len(elements))
	dictIDs := make([][]uint32, len(phrases))
	for i, p := range phrases {
		dictIDs[i] = in.all(p)
	}
	dict, err := phrase.New(dictIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	items := make([]phrase.Item, len(elements))
	for i, e := range elements {
		switch e.Kind {
		case ElementPhrase:
			if e.Phrase >= len(phrases) {
				return nil, fmt.Errorf("%w: %w: %s of %d", ErrInvalidFormat, phrase.ErrUnknownPhrase, e.Name(), len(phrases))
			}
			items[i] = phrase.Item{Kind: phrase.Ref, Value: uint32(e.Phrase)}
		default:
			items[i] = phrase.Item{Kind: phrase.Literal, Value: in.id(e.Codon)}
		}
	}
	ids, err := dict.Expand(items)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	stream := make([]Codon, len(ids))
	for i, id := range ids {
		stream[i] = in.codons[id]
	}
	return stream, nil
}
