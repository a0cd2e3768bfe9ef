package store

import (
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
)

// bucketsCount shards the keyspace across independent locks. Sharding gives
// a significant throughput win under wide keyspaces and high connection
// concurrency, the same tradeoff the teacher's StorageHash made.
const bucketsCount = 256

// StoreEntry pairs a stored Item with its optional absolute expiry time.
// A nil expiresAt means the key never expires.
type StoreEntry struct {
	item      *Item
	expiresAt *time.Time
}

func getBucket(key string) int {
	return int(xxhash.ChecksumString64(key) % bucketsCount)
}

// Keyspace is the typed, TTL-aware, sharded keyspace described by the
// store component of the spec. All exported methods are safe for
// concurrent use; write-serialization above the level of a single bucket
// (e.g. INCR's read-then-write) is the dispatcher's responsibility, not
// the Keyspace's.
type Keyspace struct {
	mu   [bucketsCount]sync.RWMutex
	data [bucketsCount]map[string]*StoreEntry
}

// NewKeyspace constructs an empty Keyspace.
func NewKeyspace() *Keyspace {
	k := &Keyspace{}
	for i := range k.data {
		k.data[i] = make(map[string]*StoreEntry)
	}
	return k
}

func isExpired(e *StoreEntry, now time.Time) bool {
	return e.expiresAt != nil && now.After(*e.expiresAt)
}

// lookup returns the entry for key if present and not expired. It lazily
// deletes expired entries, matching spec invariant 3 ("expiry is lazy").
func (k *Keyspace) lookup(key string) (*StoreEntry, bool) {
	b := getBucket(key)

	k.mu[b].RLock()
	entry, ok := k.data[b][key]
	k.mu[b].RUnlock()

	if !ok {
		return nil, false
	}

	now := time.Now()
	if !isExpired(entry, now) {
		return entry, true
	}

	k.mu[b].Lock()
	if existing, ok := k.data[b][key]; ok && isExpired(existing, now) {
		delete(k.data[b], key)
	}
	k.mu[b].Unlock()

	return nil, false
}

// Get returns the Item stored at key, or nil if key is absent or expired.
func (k *Keyspace) Get(key string) *Item {
	entry, ok := k.lookup(key)
	if !ok {
		return nil
	}
	return entry.item
}

// GetEntry returns the raw entry (item + expiry), or nil if absent/expired.
// Exposed for command handlers that need to preserve TTL across mutation.
func (k *Keyspace) GetEntry(key string) *StoreEntry {
	entry, ok := k.lookup(key)
	if !ok {
		return nil
	}
	return entry
}

// Read runs fn against the entry at key while holding the bucket's RLock
// for fn's entire duration, passing nil if key is absent or expired. Hash
// and SortedSet values are mutated in place by Mutate under the bucket's
// exclusive lock, so any command that inspects the inner map/SortedSet
// (rather than just a String's immutable value) must go through Read
// instead of Get, or it races a concurrent mutation of the same key.
func (k *Keyspace) Read(key string, fn func(item *Item)) {
	b := getBucket(key)

	k.mu[b].RLock()
	defer k.mu[b].RUnlock()

	entry, ok := k.data[b][key]
	if !ok || isExpired(entry, time.Now()) {
		fn(nil)
		return
	}
	fn(entry.item)
}

// Set stores item at key, replacing any existing value and kind.
// ttl == nil clears any expiry; a non-nil ttl sets expiresAt = now+*ttl.
func (k *Keyspace) Set(key string, item *Item, ttl *time.Duration) {
	var expiresAt *time.Time
	if ttl != nil {
		t := time.Now().Add(*ttl)
		expiresAt = &t
	}

	b := getBucket(key)
	k.mu[b].Lock()
	k.data[b][key] = &StoreEntry{item: item, expiresAt: expiresAt}
	k.mu[b].Unlock()
}

// Mutate performs a read-modify-write on the entry at key under the
// bucket's exclusive lock. fn receives the existing item (nil if absent or
// expired) and returns the new item to store plus a del flag; a nil item or
// del == true deletes the key. Otherwise the new item is stored with the
// key's existing expiry (none if the key was absent), so Mutate never
// changes a key's TTL.
//
// This is the single write path hash/zset command handlers use, so
// TTL-preservation (spec invariant 4: "hash and zset mutations preserve
// the existing expires_at") is enforced in one spot rather than in every
// handler.
func (k *Keyspace) Mutate(key string, fn func(existing *Item) (newItem *Item, del bool)) {
	b := getBucket(key)

	k.mu[b].Lock()
	defer k.mu[b].Unlock()

	now := time.Now()
	existing, ok := k.data[b][key]
	var existingItem *Item
	var expiresAt *time.Time
	if ok && !isExpired(existing, now) {
		existingItem = existing.item
		expiresAt = existing.expiresAt
	} else if ok {
		delete(k.data[b], key)
	}

	newItem, del := fn(existingItem)

	if del || newItem == nil {
		delete(k.data[b], key)
		return
	}

	k.data[b][key] = &StoreEntry{item: newItem, expiresAt: expiresAt}
}

// Delete removes the given keys, returning the count actually present
// (and not expired) beforehand.
func (k *Keyspace) Delete(keys ...string) int {
	count := 0
	for _, key := range keys {
		b := getBucket(key)
		k.mu[b].Lock()
		if entry, ok := k.data[b][key]; ok {
			if !isExpired(entry, time.Now()) {
				count++
			}
			delete(k.data[b], key)
		}
		k.mu[b].Unlock()
	}
	return count
}

// Exists counts how many of the given keys are present and not expired.
// Duplicate keys in the input are each counted, matching Redis semantics.
func (k *Keyspace) Exists(keys ...string) int {
	count := 0
	for _, key := range keys {
		if _, ok := k.lookup(key); ok {
			count++
		}
	}
	return count
}

// Keys returns all non-expired keys matching the glob pattern, using the
// same fnmatch-style grammar as globMatch (see glob.go): unlike the
// standard library's path.Match, '*' and '?' are not blocked by '/'.
func (k *Keyspace) Keys(pattern string) []string {
	var result []string
	now := time.Now()

	for b := range k.data {
		k.mu[b].RLock()
		for key, entry := range k.data[b] {
			if isExpired(entry, now) {
				continue
			}
			if globMatch(pattern, key) {
				result = append(result, key)
			}
		}
		k.mu[b].RUnlock()
	}

	return result
}

// TTL returns -2 if key is missing/expired, -1 if it has no expiry, else
// the remaining whole seconds (clamped at 0).
func (k *Keyspace) TTL(key string) int {
	entry, ok := k.lookup(key)
	if !ok {
		return -2
	}
	if entry.expiresAt == nil {
		return -1
	}

	remaining := time.Until(*entry.expiresAt)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// Expire sets a timeout on key. Returns 1 if the key exists and the
// timeout was set, 0 if the key doesn't exist (per spec invariant 5, this
// never creates the key).
func (k *Keyspace) Expire(key string, seconds int) int {
	b := getBucket(key)

	k.mu[b].Lock()
	defer k.mu[b].Unlock()

	entry, ok := k.data[b][key]
	if !ok || isExpired(entry, time.Now()) {
		delete(k.data[b], key)
		return 0
	}

	t := time.Now().Add(time.Duration(seconds) * time.Second)
	k.data[b][key] = &StoreEntry{item: entry.item, expiresAt: &t}
	return 1
}

// Persist removes the existing timeout on key. Returns 1 if a timeout was
// removed, 0 if the key is missing or already had no timeout.
func (k *Keyspace) Persist(key string) int {
	b := getBucket(key)

	k.mu[b].Lock()
	defer k.mu[b].Unlock()

	entry, ok := k.data[b][key]
	if !ok || isExpired(entry, time.Now()) {
		return 0
	}
	if entry.expiresAt == nil {
		return 0
	}

	k.data[b][key] = &StoreEntry{item: entry.item, expiresAt: nil}
	return 1
}
