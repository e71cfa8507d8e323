package entropy

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/seiflotfy/signalzip/bitpack"
)

const (
	staticCodeBits = 8
	// StaticRepeat prefixes a uvarint repeat count before a symbol code.
	StaticRepeat = 0xFE
	// StaticEscape prefixes a uvarint length and the UTF-8 bytes of a name
	// that is not in the vocabulary.
	StaticEscape = 0xFF
	// MaxStaticVocabulary is the number of codes left for names.
	MaxStaticVocabulary = StaticRepeat

	maxEscapeLen = 1 << 16
)

// StaticCoder encodes against a fixed vocabulary of up to
// MaxStaticVocabulary names, each assigned the 8-bit code of its index.
// The vocabulary is configuration shared by encoder and decoder, so Encode
// returns an empty Table and Decode ignores the one it is given.
type StaticCoder struct {
	vocab   []string
	byName  map[string]int
	decoder *codebook
}

// NewStatic creates a static coder. Names must be unique, non-empty and
// fit the vocabulary.
func NewStatic(vocab []string) (*StaticCoder, error) {
	if len(vocab) > MaxStaticVocabulary {
		return nil, fmt.Errorf("%w: static vocabulary has %d names, limit %d",
			ErrInvalidTable, len(vocab), MaxStaticVocabulary)
	}
	c := &StaticCoder{
		vocab:  vocab,
		byName: make(map[string]int, len(vocab)),
	}
	codes := make([]string, 0, len(vocab)+2)
	for i, name := range vocab {
		if name == "" {
			return nil, fmt.Errorf("%w: empty static name at %d", ErrInvalidTable, i)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate static name %q", ErrInvalidTable, name)
		}
		c.byName[name] = i
		codes = append(codes, staticCode(i))
	}
	// Reserved codes live at their own indices in the codebook.
	for len(codes) < StaticRepeat {
		codes = append(codes, "")
	}
	codes = append(codes, staticCode(StaticRepeat), staticCode(StaticEscape))
	c.decoder = newCodebook(codes)
	delete(c.decoder.byCode, "")
	return c, nil
}

func staticCode(i int) string {
	return fmt.Sprintf("%0*b", staticCodeBits, i)
}

// Vocabulary returns the coder's names in code order.
func (c *StaticCoder) Vocabulary() []string {
	return c.vocab
}

// Encode writes each symbol as an optional repeat prefix followed by its
// vocabulary code or an escaped literal name.
func (c *StaticCoder) Encode(syms []Symbol, w *bitpack.Writer) (Table, error) {
	var scratch [binary.MaxVarintLen64]byte
	writeUvarint := func(v uint64) {
		n := binary.PutUvarint(scratch[:], v)
		for _, b := range scratch[:n] {
			w.WriteBits(uint64(b), 8)
		}
	}

	for _, s := range syms {
		if s.Run > 1 {
			w.WriteBits(StaticRepeat, staticCodeBits)
			writeUvarint(uint64(s.Run))
		}
		if i, ok := c.byName[s.Name]; ok {
			w.WriteBits(uint64(i), staticCodeBits)
			continue
		}
		if s.Name == "" || len(s.Name) > maxEscapeLen {
			return nil, fmt.Errorf("%w: cannot escape %q", ErrUnknownSymbol, s.Name)
		}
		w.WriteBits(StaticEscape, staticCodeBits)
		writeUvarint(uint64(len(s.Name)))
		for i := 0; i < len(s.Name); i++ {
			w.WriteBits(uint64(s.Name[i]), 8)
		}
	}
	return Table{}, nil
}

// Decode reads symbols until the stream is exhausted.
func (c *StaticCoder) Decode(r *bitpack.Reader, _ Table) ([]Symbol, error) {
	var out []Symbol
	for {
		code, ok, err := c.decoder.next(r)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", len(out), err)
		}
		if !ok {
			return out, nil
		}

		run := 1
		if code == StaticRepeat {
			n, err := binary.ReadUvarint(r)
			if err != nil || n < 2 || n > uint64(^uint(0)>>1) {
				return nil, fmt.Errorf("%w: symbol %d: bad repeat count", ErrDecodeMismatch, len(out))
			}
			run = int(n)
			code, ok, err = c.decoder.next(r)
			if err != nil || !ok || code == StaticRepeat {
				return nil, fmt.Errorf("%w: symbol %d: repeat without symbol", ErrDecodeMismatch, len(out))
			}
		}

		name, err := c.readName(r, code)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", len(out), err)
		}
		out = append(out, Symbol{Name: name, Run: run})
	}
}

func (c *StaticCoder) readName(r *bitpack.Reader, code int) (string, error) {
	if code != StaticEscape {
		return c.vocab[code], nil
	}
	n, err := binary.ReadUvarint(r)
	if err != nil || n == 0 || n > maxEscapeLen {
		return "", fmt.Errorf("%w: bad escape length", ErrDecodeMismatch)
	}
	buf := make([]byte, n)
	for i := range buf {
		if buf[i], err = r.ReadByte(); err != nil {
			return "", fmt.Errorf("%w: escape truncated", ErrDecodeMismatch)
		}
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%w: escape is not UTF-8", ErrDecodeMismatch)
	}
	return string(buf), nil
}
