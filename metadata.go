package signalzip

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"k8s.io/utils/ptr"

	"github.com/seiflotfy/signalzip/entropy"
	"github.com/seiflotfy/signalzip/fingerprint"
)

// MetadataVersion is the current metadata document version.
const MetadataVersion = 1

// Mode records which optional stages produced an artifact.
type Mode struct {
	Fingerprint    fingerprint.Mode
	Phrases        bool
	Entropy        entropy.Mode
	Disambiguation Policy
	MaxWindow      int
	MaxPhrases     int
}

// Metadata is the side-channel record that makes a binary artifact
// decodable. It owns everything needed for inversion; the binary alone is
// meaningless.
type Metadata struct {
	Version    int
	Mode       Mode
	ReverseMap ReverseMap
	CodeTable  entropy.Table
	Phrases    [][]Codon // phrase i is I<i>; nil unless Mode.Phrases
	Padding    int
	TokenCount int    // codons in the stream before phrase substitution
	Checksum   string // xxh3 of the binary artifact, hex; empty skips the check
}

// ReverseMap maps each codon to the one token it was minted for.
type ReverseMap map[Codon]string

// MarshalJSON writes the map as an object keyed by codon name.
func (m ReverseMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(m))
	for c, tok := range m {
		out[c.String()] = tok
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads an object keyed by codon name. Unlike a plain map
// decode it rejects repeated keys, since a codon listed twice is exactly
// the non-injective mapping the format exists to prevent.
func (m *ReverseMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return fmt.Errorf("%w: reverse_map is not an object", ErrInvalidFormat)
	}
	out := make(ReverseMap)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: reverse_map: %w", ErrInvalidFormat, err)
		}
		key, _ := keyTok.(string)
		c, err := ParseCodon(key)
		if err != nil {
			return err
		}
		var tok string
		if err := dec.Decode(&tok); err != nil {
			return fmt.Errorf("%w: reverse_map[%q]: %w", ErrInvalidFormat, key, err)
		}
		if prev, dup := out[c]; dup {
			return fmt.Errorf("%w: %s maps to both %q and %q", ErrCollision, c, prev, tok)
		}
		out[c] = tok
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: reverse_map: %w", ErrInvalidFormat, err)
	}
	*m = out
	return nil
}

type wireMode struct {
	Fingerprint    string `json:"fingerprint"`
	Phrases        bool   `json:"phrases"`
	Entropy        string `json:"entropy"`
	Disambiguation string `json:"disambiguation"`
	MaxWindow      int    `json:"max_window,omitempty"`
	MaxPhrases     int    `json:"max_phrases,omitempty"`
}

// wireMetadata is the JSON document. Pointer fields distinguish a missing
// required key from its zero value.
type wireMetadata struct {
	Version    *int                 `json:"version"`
	Mode       *wireMode            `json:"mode"`
	ReverseMap *ReverseMap          `json:"reverse_map"`
	CodeTable  map[string]string    `json:"code_table"`
	Phrases    *map[string][]string `json:"phrases,omitempty"`
	Padding    *int                 `json:"padding"`
	TokenCount *int                 `json:"token_count"`
	Checksum   string               `json:"checksum,omitempty"`
}

// MarshalMetadata serializes md as an indented JSON document.
func MarshalMetadata(md *Metadata) ([]byte, error) {
	if md == nil {
		return nil, errors.New("nil metadata")
	}
	w := wireMetadata{
		Version: ptr.To(md.Version),
		Mode: &wireMode{
			Fingerprint:    md.Mode.Fingerprint.String(),
			Phrases:        md.Mode.Phrases,
			Entropy:        md.Mode.Entropy.String(),
			Disambiguation: md.Mode.Disambiguation.String(),
			MaxWindow:      md.Mode.MaxWindow,
			MaxPhrases:     md.Mode.MaxPhrases,
		},
		ReverseMap: ptr.To(md.ReverseMap),
		CodeTable:  make(map[string]string, len(md.CodeTable)),
		Padding:    ptr.To(md.Padding),
		TokenCount: ptr.To(md.TokenCount),
		Checksum:   md.Checksum,
	}
	for sym, code := range md.CodeTable {
		w.CodeTable[sym.String()] = code
	}
	if md.Mode.Phrases {
		phrases := make(map[string][]string, len(md.Phrases))
		for i, p := range md.Phrases {
			names := make([]string, len(p))
			for j, c := range p {
				names[j] = c.String()
			}
			phrases[phraseName(i)] = names
		}
		w.Phrases = ptr.To(phrases)
	}
	return json.MarshalIndent(w, "", "  ")
}

// UnmarshalMetadata parses a metadata document. Invalid UTF-8, repeated
// object keys, missing required keys, unknown modes and malformed names fail
// with ErrInvalidFormat; a reverse map that lists a codon twice fails with
// ErrCollision.
func UnmarshalMetadata(data []byte) (*Metadata, error) {
	// encoding/json would quietly replace bad bytes with U+FFFD.
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: metadata is not valid UTF-8", ErrInvalidFormat)
	}
	var w wireMetadata
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, formatErr(err)
	}
	if err := uniqueKeys(data); err != nil {
		return nil, formatErr(err)
	}

	switch {
	case w.Version == nil:
		return nil, missingKey("version")
	case w.Mode == nil:
		return nil, missingKey("mode")
	case w.ReverseMap == nil:
		return nil, missingKey("reverse_map")
	case w.CodeTable == nil:
		return nil, missingKey("code_table")
	case w.Padding == nil:
		return nil, missingKey("padding")
	case w.TokenCount == nil:
		return nil, missingKey("token_count")
	}
	if *w.TokenCount < 0 {
		return nil, fmt.Errorf("%w: negative token_count", ErrInvalidFormat)
	}
	if *w.Version != MetadataVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, *w.Version)
	}

	md := &Metadata{
		Version:    *w.Version,
		ReverseMap: *w.ReverseMap,
		CodeTable:  make(entropy.Table, len(w.CodeTable)),
		Padding:    *w.Padding,
		TokenCount: *w.TokenCount,
		Checksum:   w.Checksum,
	}
	if md.ReverseMap == nil {
		md.ReverseMap = ReverseMap{}
	}

	mode, err := parseWireMode(w.Mode)
	if err != nil {
		return nil, err
	}
	md.Mode = mode

	for name, code := range w.CodeTable {
		sym, err := entropy.ParseSymbol(name)
		if err != nil {
			return nil, formatErr(err)
		}
		if _, err := ParseElement(sym.Name); err != nil {
			return nil, err
		}
		md.CodeTable[sym] = code
	}

	if mode.Phrases {
		if w.Phrases == nil {
			return nil, missingKey("phrases")
		}
		if md.Phrases, err = parsePhrases(*w.Phrases); err != nil {
			return nil, err
		}
	} else if w.Phrases != nil {
		return nil, fmt.Errorf("%w: phrases present but phrase mode is off", ErrInvalidFormat)
	}
	return md, nil
}

// uniqueKeys fails on the first key that repeats within one object. Keys of
// the top-level reverse_map are left to ReverseMap.UnmarshalJSON, which
// reports them as collisions.
func uniqueKeys(data []byte) error {
	return walkKeys(json.NewDecoder(bytes.NewReader(data)), 0, "")
}

func walkKeys(dec *json.Decoder, depth int, parent string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch delim {
	case '[':
		for dec.More() {
			if err := walkKeys(dec, depth+1, ""); err != nil {
				return err
			}
		}
	case '{':
		seen := make(map[string]bool)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			if seen[key] && !(depth == 1 && parent == "reverse_map") {
				return fmt.Errorf("%w: duplicate key %q", ErrInvalidFormat, key)
			}
			seen[key] = true
			if err := walkKeys(dec, depth+1, key); err != nil {
				return err
			}
		}
	}
	_, err = dec.Token()
	return err
}

func missingKey(key string) error {
	return fmt.Errorf("%w: missing required key %q", ErrInvalidFormat, key)
}

func parseWireMode(w *wireMode) (Mode, error) {
	var m Mode
	var err error
	if m.Fingerprint, err = fingerprint.ParseMode(w.Fingerprint); err != nil {
		return m, formatErr(err)
	}
	if m.Entropy, err = entropy.ParseMode(w.Entropy); err != nil {
		return m, formatErr(err)
	}
	if m.Disambiguation, err = ParsePolicy(w.Disambiguation); err != nil {
		return m, formatErr(err)
	}
	m.Phrases = w.Phrases
	m.MaxWindow = w.MaxWindow
	m.MaxPhrases = w.MaxPhrases
	return m, nil
}

// parsePhrases requires keys I0..I(n-1). Distinct keys in [0, n) leave no gaps.
func parsePhrases(raw map[string][]string) ([][]Codon, error) {
	phrases := make([][]Codon, len(raw))
	for name, codons := range raw {
		i, ok := parsePhraseName(name)
		if !ok || i >= len(raw) {
			return nil, fmt.Errorf("%w: unexpected phrase key %q", ErrInvalidFormat, name)
		}
		if codons == nil {
			return nil, fmt.Errorf("%w: null phrase entry %q", ErrInvalidFormat, name)
		}
		p := make([]Codon, len(codons))
		for j, s := range codons {
			c, err := ParseCodon(s)
			if err != nil {
				return nil, err
			}
			p[j] = c
		}
		phrases[i] = p
	}
	return phrases, nil
}
