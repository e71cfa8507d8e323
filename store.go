package signalzip

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// BinaryExt is the extension of the packed bit stream.
	BinaryExt = ".vin"
	// MetadataExt is the extension of the metadata document.
	MetadataExt = ".smap"
	// RestoredSuffix is appended to the base name of a restored document.
	RestoredSuffix = "_restored.txt"
)

// TextSource supplies documents to compress.
type TextSource interface {
	ReadText(name string) (string, error)
}

// ArtifactStore persists binary artifacts together with their metadata.
// Save is all-or-nothing: a failed Save leaves no half of the pair behind.
type ArtifactStore interface {
	Save(name string, a *Artifact) error
	Load(name string) (*Artifact, error)
}

// FileStore keeps artifacts as sibling NAME.vin and NAME.smap files.
type FileStore struct{}

// ArtifactPaths returns the binary and metadata paths for base.
func ArtifactPaths(base string) (binPath, metaPath string) {
	return base + BinaryExt, base + MetadataExt
}

// BaseName strips the extension of path, the way artifacts are named after
// their source document.
func BaseName(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// ArtifactBase validates that path names a binary artifact and returns its
// base name.
func ArtifactBase(path string) (string, error) {
	if filepath.Ext(path) != BinaryExt {
		return "", &StageError{Stage: StageRead, Err: fmt.Errorf("%w: expected a %s file, got %q", ErrInvalidFormat, BinaryExt, path)}
	}
	return BaseName(path), nil
}

// ReadText reads a document from disk.
func (FileStore) ReadText(path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteText writes a document through a temporary file and a rename.
func (FileStore) WriteText(path, text string) error {
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return &StageError{Stage: StageWrite, Err: err}
	}
	return nil
}

// Save writes base.vin and base.smap. Both are staged as temporary files
// first; the metadata is renamed into place last, so a reader never finds
// metadata without its binary. A binary already at base.vin is kept aside
// until both renames succeed and is put back if either fails.
func (FileStore) Save(base string, a *Artifact) error {
	meta, err := MarshalMetadata(a.Metadata)
	if err != nil {
		return &StageError{Stage: StageMetadata, Err: err}
	}
	binPath, metaPath := ArtifactPaths(base)

	binTmp, err := writeTemp(binPath, a.Binary)
	if err != nil {
		return &StageError{Stage: StageWrite, Err: err}
	}
	metaTmp, err := writeTemp(metaPath, meta)
	if err != nil {
		os.Remove(binTmp)
		return &StageError{Stage: StageWrite, Err: err}
	}

	backup := binTmp + ".bak"
	hadBinary := true
	if err := os.Rename(binPath, backup); errors.Is(err, fs.ErrNotExist) {
		hadBinary = false
	} else if err != nil {
		os.Remove(binTmp)
		os.Remove(metaTmp)
		return &StageError{Stage: StageWrite, Err: err}
	}
	restore := func() {
		if hadBinary {
			os.Rename(backup, binPath)
		} else {
			os.Remove(binPath)
		}
	}

	if err := os.Rename(binTmp, binPath); err != nil {
		os.Remove(binTmp)
		os.Remove(metaTmp)
		restore()
		return &StageError{Stage: StageWrite, Err: err}
	}
	if err := os.Rename(metaTmp, metaPath); err != nil {
		os.Remove(metaTmp)
		restore()
		return &StageError{Stage: StageWrite, Err: err}
	}
	if hadBinary {
		os.Remove(backup)
	}
	return nil
}

// Load reads base.vin and base.smap. A missing file of either kind fails
// with ErrInputNotFound naming that file.
func (FileStore) Load(base string) (*Artifact, error) {
	binPath, metaPath := ArtifactPaths(base)
	bin, err := readFile(binPath)
	if err != nil {
		return nil, err
	}
	meta, err := readFile(metaPath)
	if err != nil {
		return nil, err
	}
	md, err := UnmarshalMetadata(meta)
	if err != nil {
		return nil, &StageError{Stage: StageMetadata, Err: fmt.Errorf("%s: %w", metaPath, err)}
	}
	return &Artifact{Binary: bin, Metadata: md}, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &StageError{Stage: StageRead, Err: fmt.Errorf("%w: %s", ErrInputNotFound, path)}
	}
	if err != nil {
		return nil, &StageError{Stage: StageRead, Err: err}
	}
	return data, nil
}

// writeTemp writes data to a temporary file beside path and returns its name.
func writeTemp(path string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
