package signalzip

import (
	"errors"
	"fmt"

	"github.com/seiflotfy/signalzip/bitpack"
	"github.com/seiflotfy/signalzip/entropy"
)

// Sentinel errors. Every failure returned by this package wraps exactly one
// of them, so callers can tell a missing file from a corrupt artifact with
// errors.Is instead of reading messages.
var (
	// ErrInputNotFound is returned when a source text or artifact is missing.
	ErrInputNotFound = errors.New("input not found")

	// ErrInvalidFormat is returned when an artifact and its metadata do not
	// belong together or the metadata lacks a required field.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrCollision is returned when a reverse map would send one codon to two
	// tokens, or stores a token under a codon it does not fingerprint to.
	ErrCollision = errors.New("codon collision")

	// ErrDecodeMismatch is returned when the bit stream does not decode
	// against the code table.
	ErrDecodeMismatch = entropy.ErrDecodeMismatch

	// ErrPadding is returned when the padding count is outside [0, 7].
	ErrPadding = bitpack.ErrPadding

	// ErrUnknownToken is returned when a decoded codon has no reverse map
	// entry and lenient decoding is off.
	ErrUnknownToken = errors.New("unknown token")
)

// Stage names a step of the compression or decompression pipeline.
type Stage string

const (
	StageConfig       Stage = "config"
	StageFingerprint  Stage = "fingerprint"
	StageDisambiguate Stage = "disambiguate"
	StagePhrase       Stage = "phrase"
	StageEntropy      Stage = "entropy"
	StageMetadata     Stage = "metadata"
	StageUnpack       Stage = "unpack"
	StageDecode       Stage = "decode"
	StageUnfold       Stage = "unfold"
	StageExpand       Stage = "expand"
	StageRestore      Stage = "restore"
	StageRead         Stage = "read"
	StageWrite        Stage = "write"
)

// StageError records the pipeline stage at which an operation failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("signalzip: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// formatErr marks err as a format problem unless it already carries a kind.
func formatErr(err error) error {
	for _, kind := range []error{ErrInputNotFound, ErrInvalidFormat, ErrCollision, ErrDecodeMismatch, ErrPadding, ErrUnknownToken} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
}
