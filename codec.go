// Package signalzip is a reversible text codec built from symbolic
// fingerprints, phrase substitution, run-length folding and prefix-free
// entropy coding.
//
// Compress turns a document into a packed bit stream plus a Metadata record;
// Decompress inverts it. Every stage is individually invertible:
//
//	tokens → fingerprint → codons → phrases → runs → codes → bytes
//
// Fingerprints are coarse and collide by construction. The disambiguation
// layer numbers codons so that each one maps back to exactly one token, and
// the reverse map in the metadata records that mapping.
package signalzip

import (
	"fmt"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/seiflotfy/signalzip/bitpack"
	"github.com/seiflotfy/signalzip/entropy"
	"github.com/seiflotfy/signalzip/fingerprint"
	"github.com/seiflotfy/signalzip/phrase"
)

// Artifact is a compressed document: the packed bit stream and the record
// required to decode it. The two are useless apart.
type Artifact struct {
	Binary   []byte
	Metadata *Metadata
}

// Codec compresses and decompresses documents. A Codec holds only
// configuration, so one value may serve concurrent calls.
type Codec struct {
	config    Config
	extractor fingerprint.Extractor
	logger    *zap.SugaredLogger
}

// NewCodec creates a codec with the given options.
func NewCodec(opts ...Option) (*Codec, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, stageErr(StageConfig, err)
	}
	c := &Codec{config: cfg, logger: cfg.Logger}
	if c.extractor, err = c.newExtractor(cfg.FingerprintMode); err != nil {
		return nil, stageErr(StageConfig, err)
	}
	return c, nil
}

// SetLogger replaces the codec's logger.
func (c *Codec) SetLogger(logger *zap.SugaredLogger) {
	c.logger = logger
}

// Config returns the resolved configuration.
func (c *Codec) Config() Config {
	return c.config
}

func (c *Codec) newExtractor(mode fingerprint.Mode) (fingerprint.Extractor, error) {
	ex, err := fingerprint.New(mode, c.config.CharTable)
	if err != nil {
		return nil, err
	}
	if c.config.FingerprintCache > 0 {
		cached, err := fingerprint.NewCached(ex, c.config.FingerprintCache)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return ex, nil
}

func (c *Codec) extractorFor(mode fingerprint.Mode) (fingerprint.Extractor, error) {
	if mode == c.extractor.Mode() {
		return c.extractor, nil
	}
	return c.newExtractor(mode)
}

func (c *Codec) mode() Mode {
	return Mode{
		Fingerprint:    c.config.FingerprintMode,
		Phrases:        c.config.UsePhraseDictionary,
		Entropy:        c.config.EntropyMode,
		Disambiguation: c.config.Disambiguation,
		MaxWindow:      c.config.MaxWindow,
		MaxPhrases:     c.config.MaxPhrases,
	}
}

// Compress encodes text, which must be valid UTF-8. In word-shape mode the
// text is split on whitespace and restored single-space joined; in
// char-class mode characters outside the class table are dropped.
func (c *Codec) Compress(text string) (*Artifact, error) {
	if !utf8.ValidString(text) {
		return nil, stageErr(StageFingerprint, fmt.Errorf("%w: input is not valid UTF-8", ErrInvalidFormat))
	}
	ex := c.extractor
	tokens := ex.Split(text)

	dis := newDisambiguator(c.config.Disambiguation)
	stream := make([]Codon, 0, len(tokens))
	dropped := 0
	for _, tok := range tokens {
		sym, ok := ex.Fingerprint(tok)
		if !ok {
			dropped++
			continue
		}
		stream = append(stream, dis.codon(tok, sym))
	}
	c.logger.Debugw("fingerprinted",
		"stage", StageDisambiguate, "tokens", len(tokens), "dropped", dropped, "codons", len(dis.reverse))

	md := &Metadata{
		Version:    MetadataVersion,
		Mode:       c.mode(),
		ReverseMap: dis.reverse,
		TokenCount: len(stream),
	}

	var elements []Element
	if md.Mode.Phrases {
		elements, md.Phrases = substitutePhrases(stream, phrase.Options{
			MaxWindow:  md.Mode.MaxWindow,
			MaxPhrases: md.Mode.MaxPhrases,
		})
		c.logger.Debugw("substituted phrases",
			"stage", StagePhrase, "phrases", len(md.Phrases), "elements", len(elements))
	} else {
		elements = make([]Element, len(stream))
		for i, cd := range stream {
			elements[i] = CodonElement(cd)
		}
	}

	runs := Fold(elements)
	syms := make([]entropy.Symbol, len(runs))
	for i, r := range runs {
		syms[i] = entropy.Symbol{Name: r.Value.Name(), Run: r.Count}
	}

	coder, err := coderFor(md.Mode, ex)
	if err != nil {
		return nil, stageErr(StageEntropy, err)
	}
	w := bitpack.NewWriter(len(syms) * 8)
	table, err := coder.Encode(syms, w)
	if err != nil {
		return nil, stageErr(StageEntropy, err)
	}
	data, padding := w.Bytes()
	md.CodeTable = table
	md.Padding = padding
	md.Checksum = checksum(data)

	c.logger.Debugw("encoded",
		"stage", StageEntropy, "mode", md.Mode.Entropy, "runs", len(runs), "codes", len(table),
		"bits", w.Len(), "padding", padding)
	return &Artifact{Binary: data, Metadata: md}, nil
}

// Decompress restores the text an artifact was compressed from. Only the
// codec's char table, lenient setting and logger are used; every other
// choice is read from md.
func (c *Codec) Decompress(binary []byte, md *Metadata) (string, error) {
	if md == nil {
		return "", stageErr(StageMetadata, fmt.Errorf("%w: no metadata", ErrInvalidFormat))
	}
	if md.Version != MetadataVersion {
		return "", stageErr(StageMetadata, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, md.Version))
	}
	if md.Checksum != "" && md.Checksum != checksum(binary) {
		return "", stageErr(StageMetadata, fmt.Errorf("%w: binary artifact does not match its metadata", ErrInvalidFormat))
	}
	ex, err := c.extractorFor(md.Mode.Fingerprint)
	if err != nil {
		return "", stageErr(StageMetadata, formatErr(err))
	}
	if err := checkReverseMap(md.ReverseMap, ex); err != nil {
		return "", stageErr(StageMetadata, err)
	}

	r, err := bitpack.Unpack(binary, md.Padding)
	if err != nil {
		return "", stageErr(StageUnpack, err)
	}

	coder, err := coderFor(md.Mode, ex)
	if err != nil {
		return "", stageErr(StageDecode, formatErr(err))
	}
	syms, err := coder.Decode(r, md.CodeTable)
	if err != nil {
		return "", stageErr(StageDecode, formatErr(err))
	}

	runs := make([]Run[Element], len(syms))
	total := 0
	for i, s := range syms {
		e, err := ParseElement(s.Name)
		if err != nil {
			return "", stageErr(StageDecode, err)
		}
		if e.Kind == ElementPhrase && !md.Mode.Phrases {
			return "", stageErr(StageDecode, fmt.Errorf("%w: phrase %s without phrase mode", ErrInvalidFormat, s.Name))
		}
		// Each element expands to at least one codon, so a longer run is corrupt.
		if total += s.Run; total > md.TokenCount {
			return "", stageErr(StageUnfold, fmt.Errorf("%w: more than %d tokens", ErrDecodeMismatch, md.TokenCount))
		}
		runs[i] = Run[Element]{Value: e, Count: s.Run}
	}
	elements := Unfold(runs)
	c.logger.Debugw("decoded", "stage", StageUnfold, "runs", len(runs), "elements", len(elements))

	stream, err := expandPhrases(elements, md.Phrases)
	if err != nil {
		return "", stageErr(StageExpand, err)
	}
	if len(stream) != md.TokenCount {
		return "", stageErr(StageExpand, fmt.Errorf("%w: restored %d tokens, expected %d",
			ErrDecodeMismatch, len(stream), md.TokenCount))
	}

	tokens := make([]string, len(stream))
	unknown := 0
	for i, cd := range stream {
		tok, ok := md.ReverseMap[cd]
		if !ok {
			if !c.config.Lenient {
				return "", stageErr(StageRestore, fmt.Errorf("%w: %s", ErrUnknownToken, cd))
			}
			tok = c.config.Placeholder
			unknown++
		}
		tokens[i] = tok
	}
	if unknown > 0 {
		c.logger.Warnw("replaced unknown codons", "stage", StageRestore, "count", unknown, "placeholder", c.config.Placeholder)
	}
	return ex.Join(tokens), nil
}

// checkReverseMap verifies that every token re-fingerprints to the symbol
// of the codon it is stored under.
func checkReverseMap(rm ReverseMap, ex fingerprint.Extractor) error {
	for cd, tok := range rm {
		if !utf8.ValidString(tok) {
			return fmt.Errorf("%w: token stored under %s is not valid UTF-8", ErrInvalidFormat, cd)
		}
		sym, ok := ex.Fingerprint(tok)
		if !ok || sym != cd.Symbol {
			return fmt.Errorf("%w: token %q stored under %s fingerprints to %q", ErrCollision, tok, cd, sym)
		}
	}
	return nil
}

func checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// Compress encodes text with a codec configured by opts.
func Compress(text string, opts ...Option) (*Artifact, error) {
	c, err := NewCodec(opts...)
	if err != nil {
		return nil, err
	}
	return c.Compress(text)
}

// Decompress decodes an artifact with a codec configured by opts.
func Decompress(binary []byte, md *Metadata, opts ...Option) (string, error) {
	c, err := NewCodec(opts...)
	if err != nil {
		return "", err
	}
	return c.Decompress(binary, md)
}
