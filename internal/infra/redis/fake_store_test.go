package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// fakeStore is an in-memory Store that honours TTLs.
type fakeStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	expires map[string]time.Time
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:  map[string]string{},
		ttls:    map[string]time.Duration{},
		expires: map[string]time.Time{},
	}
}

// liveLocked drops key if it has expired and reports whether it still exists.
func (f *fakeStore) liveLocked(key string) bool {
	if at, ok := f.expires[key]; ok && !time.Now().Before(at) {
		delete(f.values, key)
		delete(f.ttls, key)
		delete(f.expires, key)
	}
	_, ok := f.values[key]
	return ok
}

func (f *fakeStore) setLocked(key string, value any, ttl time.Duration) {
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	if ttl > 0 {
		f.expires[key] = time.Now().Add(ttl)
	} else {
		delete(f.expires, key)
	}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.setLocked(key, value, ttl)
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.liveLocked(key) {
		return false, nil
	}
	f.setLocked(key, value, ttl)
	return true, nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if !f.liveLocked(key) {
		return "", ErrKeyNotFound
	}
	return f.values[key], nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.values, k)
		delete(f.ttls, k)
		delete(f.expires, k)
	}
	return nil
}

func (f *fakeStore) DeleteIfOwner(_ context.Context, key, owner string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if !f.liveLocked(key) || f.values[key] != owner {
		return false, nil
	}
	delete(f.values, key)
	delete(f.ttls, key)
	delete(f.expires, key)
	return true, nil
}

func (f *fakeStore) ExpireIfOwner(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if !f.liveLocked(key) || f.values[key] != owner {
		return false, nil
	}
	f.setLocked(key, owner, ttl)
	return true, nil
}

func (f *fakeStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if !f.liveLocked(key) {
		f.setLocked(key, 0, ttl)
	}
	n, _ := strconv.ParseInt(f.values[key], 10, 64)
	n++
	f.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

// value reads key under the lock.
func (f *fakeStore) value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.liveLocked(key) {
		return "", false
	}
	return f.values[key], true
}

func (f *fakeStore) put(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func (f *fakeStore) ttl(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}
