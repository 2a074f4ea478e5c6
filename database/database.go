package database

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog/log"
)

const (
	// Default BadgerDB discardRatio. It represents the discard ratio for the
	// BadgerDB GC.
	//
	// Ref: https://godoc.org/github.com/dgraph-io/badger#DB.RunValueLogGC
	badgerDiscardRatio = 0.5

	// Default BadgerDB GC interval
	badgerGCInterval = 10 * time.Minute
)

// NewBadgerDB returns a new initialized BadgerDB database implementing the DB
// interface. If the database cannot be initialized, an error will be returned.
func NewBadgerDB(dataDir string) (DB, error) {
	if err := os.MkdirAll(dataDir, 0774); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	opts.SyncWrites = true
	return openBadger(opts)
}

// NewInMemoryDB opens a BadgerDB that never touches the disk.
func NewInMemoryDB() (DB, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func openBadger(opts badger.Options) (DB, error) {
	badgerDB, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	bdb := &BadgerDB{
		db:         badgerDB,
		ulidSource: NewMonotonicULIDsource(rand.Reader),
	}
	bdb.ctx, bdb.cancelFunc = context.WithCancel(context.Background())

	if !opts.InMemory {
		go bdb.runGC()
	}
	return bdb, nil
}

// Get implements the DB interface. It attempts to get a value for a given key
// and namespace. If the key does not exist in the provided namespace, an error
// is returned, otherwise the retrieved value.
func (bdb *BadgerDB) Get(namespace, key []byte) (value []byte, err error) {
	err = bdb.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerNamespaceKey(namespace, key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set implements the DB interface. It attempts to store a value for a given key
// and namespace. If the key/value pair cannot be saved, an error is returned.
func (bdb *BadgerDB) Set(namespace []byte, objs []Object) error {
	batch := bdb.db.NewWriteBatch()
	defer batch.Cancel()
	for _, obj := range objs {
		err := batch.Set(badgerNamespaceKey(namespace, obj.Key), obj.Value)
		if err != nil {
			log.Error().Err(err).Str("namespace", string(namespace)).Msg("failed to set key")
			return err
		}
	}
	return batch.Flush()
}

func (bdb *BadgerDB) Delete(namespace, key []byte) error {
	return bdb.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerNamespaceKey(namespace, key))
	})
}

func (bdb *BadgerDB) DeleteNamespace(namespace []byte) error {
	batch := bdb.db.NewWriteBatch()
	defer batch.Cancel()
	err := bdb.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = namespace
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := batch.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return batch.Flush()
}

// ReadIteratorCopy walks every key under prefix, handing copies of key and
// value to action until it asks to stop.
func (bdb *BadgerDB) ReadIteratorCopy(prefix []byte, reverse bool, action func(k []byte, v []byte) (bool, error)) error {
	return bdb.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = prefix
		opts.Reverse = reverse
		it := txn.NewIterator(opts)
		defer it.Close()

		start := prefix
		if reverse {
			start = append(append([]byte{}, prefix...), 0xFF)
		}
		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			willStop, err := action(k, v)
			if err != nil {
				return err
			}
			if willStop {
				return nil
			}
		}
		return nil
	})
}

// Has implements the DB interface. It returns a boolean reflecting if the
// datbase has a given key for a namespace or not. An error is only returned if
// an error to Get would be returned that is not of type badger.ErrKeyNotFound.
func (bdb *BadgerDB) Has(namespace, key []byte) (ok bool, err error) {
	_, err = bdb.Get(namespace, key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		ok, err = false, nil
	case err == nil:
		ok, err = true, nil
	}

	return
}

// Close implements the DB interface. It closes the connection to the underlying
// BadgerDB database as well as invoking the context's cancel function.
func (bdb *BadgerDB) Close() error {
	bdb.cancelFunc()
	return bdb.db.Close()
}

// runGC triggers the garbage collection for the BadgerDB backend database. It
// should be run in a goroutine.
func (bdb *BadgerDB) runGC() {
	ticker := time.NewTicker(badgerGCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := bdb.db.RunValueLogGC(badgerDiscardRatio)
			if err != nil {
				// don't report error when GC didn't result in any cleanup
				if errors.Is(err, badger.ErrNoRewrite) {
					log.Debug().Err(err).Msg("no BadgerDB GC occurred")
				} else {
					log.Error().Err(err).Msg("failed to GC BadgerDB")
				}
			}

		case <-bdb.ctx.Done():
			return
		}
	}
}

func (bdb *BadgerDB) CreateULID(t time.Time) ([]byte, error) {
	id, err := bdb.ulidSource.New(t)
	if err != nil {
		return nil, err
	}
	return id.MarshalBinary()
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}

// badgerNamespaceKey returns a composite key used for lookup and storage for a
// given namespace and key.
func badgerNamespaceKey(namespace, key []byte) []byte {
	result := make([]byte, 0, len(namespace)+len(key))
	result = append(result, namespace...)
	return append(result, key...)
}
