// Package metacachetest provides an in-memory Store with a controllable clock.
package metacachetest

import (
	"context"
	"errors"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"
)

type entry struct {
	expires time.Time
	value   []byte
}

// Store is a map-backed metacache.Store. Set Now to control expiry and Err
// to make every call fail.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	Now     func() time.Time
	Err     error
}

func NewStore() *Store {
	return &Store{entries: map[string]entry{}, Now: time.Now}
}

// ErrStore is a convenient failure for tests.
var ErrStore = errors.New("store unavailable")

func (s *Store) live(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	if !e.expires.IsZero() && !s.Now().Before(e.expires) {
		delete(s.entries, key)
		return entry{}, false
	}
	return e, true
}

func (s *Store) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.Now().Add(ttl)
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	e, ok := s.live(key)
	if !ok {
		return nil, nil
	}
	return e.value, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.entries[key] = entry{value: value, expires: s.expiry(ttl)}
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *Store) Keys(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var keys []string
	for k := range s.entries {
		if _, ok := s.live(k); !ok {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	if e, ok := s.live(key); ok {
		n, _ = strconv.ParseInt(string(e.value), 10, 64)
	}
	n++
	s.entries[key] = entry{value: []byte(strconv.FormatInt(n, 10)), expires: s.expiry(ttl)}
	return n, nil
}

// TTL returns the remaining lifetime of key, or zero when absent.
func (s *Store) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.expires.IsZero() {
		return 0
	}
	return e.expires.Sub(s.Now())
}

// Advance moves the clock forward by d, replacing Now with a fixed clock.
func (s *Store) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.Now().Add(d)
	s.Now = func() time.Time { return t }
}
