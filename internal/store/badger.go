package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// maxIncrRetries bounds optimistic retries when concurrent Incr calls
// conflict on the same counter.
const maxIncrRetries = 10

// Badger is a cache store backed by an embedded BadgerDB. Expiry is native
// to badger entries, with second granularity.
type Badger struct {
	db *badger.DB
}

// NewBadger opens a BadgerDB at dir. An empty dir opens an in-memory store.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// Get returns the value for key, or nil when it is missing or expired.
func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return out, nil
}

func entry(key string, value []byte, ttl time.Duration) *badger.Entry {
	e := badger.NewEntry([]byte(key), value)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return e
}

// Set stores value under key. A non-positive ttl never expires.
func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry(key, value, ttl))
	})
}

// Del removes keys. Missing keys are ignored.
func (b *Badger) Del(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}

// Keys lists live keys matching a glob pattern. The literal part before the
// first wildcard is used as an iteration prefix.
func (b *Badger) Keys(_ context.Context, pattern string) ([]string, error) {
	prefix := pattern
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		prefix = pattern[:i]
	}
	prefixOnly := prefix+"*" == pattern

	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().KeyCopy(nil))
			if prefixOnly {
				keys = append(keys, k)
				continue
			}
			if ok, err := path.Match(pattern, k); err == nil && ok {
				keys = append(keys, k)
			}
		}
		return nil
	})
	return keys, err
}

// Incr atomically increments the counter at key and (re)arms its ttl. An
// expired counter restarts at 1.
func (b *Badger) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	var n int64
	var err error
	for range maxIncrRetries {
		err = b.db.Update(func(txn *badger.Txn) error {
			n = 0
			item, err := txn.Get([]byte(key))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if vErr := item.Value(func(val []byte) error {
					n, _ = strconv.ParseInt(string(val), 10, 64)
					return nil
				}); vErr != nil {
					return vErr
				}
			}
			n++
			return txn.SetEntry(entry(key, []byte(strconv.FormatInt(n, 10)), ttl))
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return n, nil
}

// Maintain reclaims value log space. Nothing to rewrite is not an error.
func (b *Badger) Maintain(_ context.Context) error {
	if b.db.Opts().InMemory {
		return nil
	}
	err := b.db.RunValueLogGC(0.5)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
		return nil
	}
	return err
}
