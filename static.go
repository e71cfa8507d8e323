package signalzip

import (
	"github.com/seiflotfy/signalzip/entropy"
	"github.com/seiflotfy/signalzip/fingerprint"
)

// staticVocabulary lays out the fixed 8-bit codebook: the low counters of
// every alphabet symbol interleaved (S#0 for all S, then S#1, ...), then
// phraseSlots phrase references. Everything else is escaped at encode time.
// The layout depends only on configuration, never on the document.
func staticVocabulary(alphabet []fingerprint.Symbol, phraseSlots int) []string {
	vocab := make([]string, 0, entropy.MaxStaticVocabulary)
	if len(alphabet) > 0 {
		perSymbol := (entropy.MaxStaticVocabulary - phraseSlots) / len(alphabet)
		for n := 0; n < perSymbol; n++ {
			for _, sym := range alphabet {
				vocab = append(vocab, Codon{Symbol: sym, N: n}.String())
			}
		}
	}
	for i := 0; i < phraseSlots; i++ {
		vocab = append(vocab, phraseName(i))
	}
	return vocab
}

func staticPhraseSlots(m Mode) int {
	if !m.Phrases {
		return 0
	}
	return min(max(m.MaxPhrases, 0), maxStaticPhrases)
}

// coderFor returns the entropy coder an artifact of mode m is coded with.
func coderFor(m Mode, ex fingerprint.Extractor) (entropy.Coder, error) {
	if m.Entropy == entropy.Static {
		c, err := entropy.NewStatic(staticVocabulary(ex.Alphabet(), staticPhraseSlots(m)))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return entropy.DynamicCoder{}, nil
}
