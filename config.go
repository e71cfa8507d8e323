package signalzip

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seiflotfy/signalzip/entropy"
	"github.com/seiflotfy/signalzip/fingerprint"
	"github.com/seiflotfy/signalzip/phrase"
)

const (
	minWindow          = 2
	maxWindow          = 64
	maxPhrasesLimit    = 4096
	maxStaticPhrases   = 64 // phrase slots reserved in the static vocabulary
	defaultPlaceholder = "UNK"
)

// Config holds configuration for a Codec.
type Config struct {
	FingerprintMode     fingerprint.Mode       // word-shape (default) or char-class
	UsePhraseDictionary bool                   // substitute frequent codon runs
	MaxWindow           int                    // longest phrase (0 = 8, clamped to [2, 64])
	MaxPhrases          int                    // dictionary capacity (0 = 256, max 4096)
	EntropyMode         entropy.Mode           // dynamic (default) or static
	Disambiguation      Policy                 // occurrence (default) or distinct
	Lenient             bool                   // replace unknown codons instead of failing
	Placeholder         string                 // lenient replacement (default "UNK")
	CharTable           fingerprint.ClassTable // char-class table (nil = default)
	FingerprintCache    int                    // LRU entries for fingerprints (0 = off)
	Logger              *zap.SugaredLogger     // nil = no logging
}

// Option is a functional option for configuring a Codec.
type Option func(*Config)

// WithFingerprintMode selects word-shape or char-class fingerprinting.
// Char-class drops characters missing from its table and is therefore lossy.
func WithFingerprintMode(m fingerprint.Mode) Option {
	return func(c *Config) {
		c.FingerprintMode = m
	}
}

// WithPhraseDictionary enables phrase substitution.
func WithPhraseDictionary(enabled bool) Option {
	return func(c *Config) {
		c.UsePhraseDictionary = enabled
	}
}

// WithMaxWindow sets the longest phrase length. Values outside [2, 64] are clamped.
func WithMaxWindow(w int) Option {
	return func(c *Config) {
		c.MaxWindow = w
	}
}

// WithMaxPhrases sets the phrase dictionary capacity. Values above 4096 are clamped.
func WithMaxPhrases(k int) Option {
	return func(c *Config) {
		c.MaxPhrases = k
	}
}

// WithEntropyMode selects dynamic or static entropy coding.
func WithEntropyMode(m entropy.Mode) Option {
	return func(c *Config) {
		c.EntropyMode = m
	}
}

// WithDisambiguation selects how codons are numbered.
func WithDisambiguation(p Policy) Option {
	return func(c *Config) {
		c.Disambiguation = p
	}
}

// WithLenient makes decompression substitute placeholder for codons that
// have no reverse map entry instead of failing. An empty placeholder keeps
// the default "UNK".
func WithLenient(placeholder string) Option {
	return func(c *Config) {
		c.Lenient = true
		c.Placeholder = placeholder
	}
}

// WithCharTable replaces the default char-class table. The same table must
// be given when decompressing.
func WithCharTable(t fingerprint.ClassTable) Option {
	return func(c *Config) {
		c.CharTable = t
	}
}

// WithFingerprintCache memoizes up to n token fingerprints.
func WithFingerprintCache(n int) Option {
	return func(c *Config) {
		c.FingerprintCache = n
	}
}

// WithLogger sets the logger used for per-stage debug output.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func resolveConfig(opts []Option) (Config, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	cfg.MaxWindow = resolveMaxWindow(cfg.MaxWindow)
	cfg.MaxPhrases = resolveMaxPhrases(cfg.MaxPhrases)
	if cfg.Placeholder == "" {
		cfg.Placeholder = defaultPlaceholder
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	if _, err := fingerprint.ParseMode(cfg.FingerprintMode.String()); err != nil {
		return cfg, err
	}
	if _, err := entropy.ParseMode(cfg.EntropyMode.String()); err != nil {
		return cfg, err
	}
	if _, err := ParsePolicy(cfg.Disambiguation.String()); err != nil {
		return cfg, err
	}
	for r, sym := range cfg.CharTable {
		if sym == "" || strings.ContainsAny(string(sym), codonSep+"*") || sym == fingerprint.Unknown {
			return cfg, fmt.Errorf("char table: invalid symbol %q for %q", sym, r)
		}
	}
	return cfg, nil
}

func resolveMaxWindow(w int) int {
	switch {
	case w == 0:
		return phrase.DefaultMaxWindow
	case w < minWindow:
		return minWindow
	case w > maxWindow:
		return maxWindow
	default:
		return w
	}
}

func resolveMaxPhrases(k int) int {
	switch {
	case k <= 0:
		return phrase.DefaultMaxPhrases
	case k > maxPhrasesLimit:
		return maxPhrasesLimit
	default:
		return k
	}
}
