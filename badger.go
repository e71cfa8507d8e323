package signalzip

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	badgerBinaryPrefix   = "vin/"
	badgerMetadataPrefix = "smap/"
)

// BadgerStore keeps artifact pairs in a BadgerDB. Both halves of a pair are
// written in one transaction.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a store at path. An empty path opens an
// in-memory store.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Save stores the artifact under name.
func (s *BadgerStore) Save(name string, a *Artifact) error {
	meta, err := MarshalMetadata(a.Metadata)
	if err != nil {
		return &StageError{Stage: StageMetadata, Err: err}
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerBinaryPrefix+name), a.Binary); err != nil {
			return err
		}
		return txn.Set([]byte(badgerMetadataPrefix+name), meta)
	})
	if err != nil {
		return &StageError{Stage: StageWrite, Err: err}
	}
	return nil
}

// Load reads the artifact stored under name.
func (s *BadgerStore) Load(name string) (*Artifact, error) {
	var bin, meta []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if bin, err = get(txn, badgerBinaryPrefix+name); err != nil {
			return err
		}
		meta, err = get(txn, badgerMetadataPrefix+name)
		return err
	})
	if err != nil {
		return nil, &StageError{Stage: StageRead, Err: err}
	}
	md, err := UnmarshalMetadata(meta)
	if err != nil {
		return nil, &StageError{Stage: StageMetadata, Err: fmt.Errorf("%s: %w", name, err)}
	}
	return &Artifact{Binary: bin, Metadata: md}, nil
}

// Delete removes both halves of the artifact stored under name.
func (s *BadgerStore) Delete(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(badgerBinaryPrefix + name)); err != nil {
			return err
		}
		return txn.Delete([]byte(badgerMetadataPrefix + name))
	})
}

func get(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
