// Package entropy assigns prefix-free binary codes to a symbol alphabet and
// encodes symbol streams against them.
//
// Two coders share one interface: Dynamic builds a frequency-weighted code
// per stream and ships it as a Table, Static uses a fixed 8-bit codebook that
// never needs to be shipped. Both decode through the same bit-at-a-time
// buffered matcher, which relies on the prefix property for correctness and
// on the longest code length to detect corrupt input.
package entropy

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/seiflotfy/signalzip/bitpack"
)

var (
	// ErrDecodeMismatch is returned when the bit buffer grows past the
	// longest code without matching, or the stream ends mid-code.
	ErrDecodeMismatch = errors.New("decode mismatch")

	// ErrInvalidTable is returned for code tables that are empty-coded,
	// contain characters other than '0' and '1', or are not prefix-free.
	ErrInvalidTable = errors.New("invalid code table")

	// ErrUnknownSymbol is returned when encoding a symbol the table lacks.
	ErrUnknownSymbol = errors.New("symbol not in code table")
)

// Mode selects a coder.
type Mode uint8

const (
	Dynamic Mode = iota
	Static
)

func (m Mode) String() string {
	switch m {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "dynamic":
		return Dynamic, nil
	case "static":
		return Static, nil
	default:
		return 0, fmt.Errorf("unknown entropy mode %q", s)
	}
}

// Symbol is one unit of the coded alphabet: a name, optionally folded with a
// repeat count. Run is 1 for a plain symbol and at least 2 for a folded run.
type Symbol struct {
	Name string
	Run  int
}

// runSep separates a name from its repeat count in the text form.
const runSep = "*"

// String renders the symbol as name or name*run.
func (s Symbol) String() string {
	if s.Run <= 1 {
		return s.Name
	}
	return s.Name + runSep + strconv.Itoa(s.Run)
}

// ParseSymbol is the inverse of Symbol.String.
func ParseSymbol(s string) (Symbol, error) {
	name, run, folded := strings.Cut(s, runSep)
	if name == "" {
		return Symbol{}, fmt.Errorf("empty symbol name in %q", s)
	}
	if !folded {
		return Symbol{Name: name, Run: 1}, nil
	}
	n, err := strconv.Atoi(run)
	if err != nil || n < 2 || strconv.Itoa(n) != run {
		return Symbol{}, fmt.Errorf("invalid repeat count in %q", s)
	}
	return Symbol{Name: name, Run: n}, nil
}

// Table maps each symbol of an alphabet to its code, written as a string of
// '0' and '1' characters.
type Table map[Symbol]string

// Validate checks that every code is a non-empty bit string and that no
// code is a prefix of another.
func (t Table) Validate() error {
	codes := make([]string, 0, len(t))
	for sym, code := range t {
		if code == "" || strings.Trim(code, "01") != "" {
			return fmt.Errorf("%w: %v has code %q", ErrInvalidTable, sym, code)
		}
		codes = append(codes, code)
	}
	// In sorted order a prefix sorts immediately before the codes it prefixes.
	slices.Sort(codes)
	for i := 1; i < len(codes); i++ {
		if strings.HasPrefix(codes[i], codes[i-1]) {
			return fmt.Errorf("%w: %q is a prefix of %q", ErrInvalidTable, codes[i-1], codes[i])
		}
	}
	return nil
}

// MaxLen returns the length of the longest code.
func (t Table) MaxLen() int {
	n := 0
	for _, code := range t {
		n = max(n, len(code))
	}
	return n
}

// Coder turns symbol streams into bits and back.
type Coder interface {
	// Encode writes syms to w and returns the table a decoder needs. A coder
	// with a fixed codebook returns an empty table.
	Encode(syms []Symbol, w *bitpack.Writer) (Table, error)
	// Decode reads every data bit remaining in r.
	Decode(r *bitpack.Reader, t Table) ([]Symbol, error)
}

// codebook is the shared decoder: it accumulates bits until the buffer
// equals a known code.
type codebook struct {
	byCode map[string]int
	maxLen int
}

func newCodebook(codes []string) *codebook {
	cb := &codebook{byCode: make(map[string]int, len(codes))}
	for i, c := range codes {
		cb.byCode[c] = i
		cb.maxLen = max(cb.maxLen, len(c))
	}
	return cb
}

// next returns the index of the next code. ok is false at a clean end of
// stream; a stream that ends with a partial code is a mismatch.
func (cb *codebook) next(r *bitpack.Reader) (index int, ok bool, err error) {
	buf := make([]byte, 0, cb.maxLen)
	for {
		bit, more := r.ReadBit()
		if !more {
			if len(buf) == 0 {
				return 0, false, nil
			}
			return 0, false, fmt.Errorf("%w: stream ends inside code %q", ErrDecodeMismatch, buf)
		}
		buf = append(buf, '0'+bit)
		if i, found := cb.byCode[string(buf)]; found {
			return i, true, nil
		}
		if len(buf) >= cb.maxLen {
			return 0, false, fmt.Errorf("%w: no code matches %q", ErrDecodeMismatch, buf)
		}
	}
}
