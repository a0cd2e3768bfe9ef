package store

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
)

// readHash runs fn against the field map at key while the bucket's RLock
// is held for fn's whole duration (via Keyspace.Read), so fn can safely
// range/index the map without racing a concurrent mutateHash on the same
// key. fn receives nil if key is absent; readHash returns ErrWrongType
// without calling fn if key holds a non-Hash value.
func (k *Keyspace) readHash(key string, fn func(inner map[string]string)) error {
	var err error
	k.Read(key, func(item *Item) {
		if item == nil {
			fn(nil)
			return
		}
		if item.Kind() != KindHash {
			err = ErrWrongType
			return
		}
		fn(item.Hash())
	})
	return err
}

// mutateHash runs fn against the field map at key (creating an empty one
// first if key is absent), writing the result back under Keyspace.Mutate so
// the existing TTL is preserved. fn mutates the map in place and returns the
// count to hand back to the caller and a deleteKey flag for "hash became
// empty, drop the key entirely"; the key is also dropped whenever fn leaves
// the map empty.
func (k *Keyspace) mutateHash(key string, fn func(inner map[string]string) (result int, deleteKey bool)) (int, error) {
	var fnErr error
	var out int

	k.Mutate(key, func(existing *Item) (*Item, bool) {
		var inner map[string]string
		if existing != nil {
			if existing.Kind() != KindHash {
				fnErr = ErrWrongType
				return existing, false
			}
			inner = existing.Hash()
		} else {
			inner = make(map[string]string)
		}

		result, del := fn(inner)
		out = result
		if del || len(inner) == 0 {
			return nil, true
		}
		return NewHashItem(inner), false
	})

	return out, fnErr
}

// FieldValue is one field/value pair, the unit HSET/HMSET operate on.
type FieldValue struct {
	Field string
	Value string
}

// HSet implements HSET/HMSET: sets each field/value pair, returning the
// count of fields newly added (updates to existing fields don't count).
func (k *Keyspace) HSet(key string, pairs []FieldValue) (int, error) {
	return k.mutateHash(key, func(inner map[string]string) (int, bool) {
		added := 0
		for _, pair := range pairs {
			if _, exists := inner[pair.Field]; !exists {
				added++
			}
			inner[pair.Field] = pair.Value
		}
		return added, false
	})
}

// HSetNX implements HSETNX: sets field only if absent, returning 1 if set.
func (k *Keyspace) HSetNX(key, field, value string) (int, error) {
	return k.mutateHash(key, func(inner map[string]string) (int, bool) {
		if _, exists := inner[field]; exists {
			return 0, false
		}
		inner[field] = value
		return 1, false
	})
}

// HDel implements HDEL, returning the count of fields actually removed. If
// the hash becomes empty, the key is removed entirely.
func (k *Keyspace) HDel(key string, fields ...string) (int, error) {
	return k.mutateHash(key, func(inner map[string]string) (int, bool) {
		deleted := 0
		for _, f := range fields {
			if _, exists := inner[f]; exists {
				deleted++
				delete(inner, f)
			}
		}
		return deleted, len(inner) == 0
	})
}

// HIncrBy implements HINCRBY, returning the field's new integer value.
func (k *Keyspace) HIncrBy(key, field string, increment int64) (int64, error) {
	var newVal int64
	var fnErr error

	_, err := k.mutateHash(key, func(inner map[string]string) (int, bool) {
		current := inner[field]
		if current == "" {
			current = "0"
		}
		parsed, parseErr := strconv.ParseInt(current, 10, 64)
		if parseErr != nil {
			fnErr = ErrHashNotInteger
			return 0, false
		}
		newVal = parsed + increment
		inner[field] = strconv.FormatInt(newVal, 10)
		return 0, false
	})
	if err != nil {
		return 0, err
	}
	if fnErr != nil {
		return 0, fnErr
	}
	return newVal, nil
}

// HIncrByFloat implements HINCRBYFLOAT, returning the field's new value
// formatted the way Redis renders it.
func (k *Keyspace) HIncrByFloat(key, field string, increment float64) (string, error) {
	var formatted string
	var fnErr error

	_, err := k.mutateHash(key, func(inner map[string]string) (int, bool) {
		current := inner[field]
		if current == "" {
			current = "0"
		}
		parsed, parseErr := strconv.ParseFloat(current, 64)
		if parseErr != nil {
			fnErr = ErrHashNotFloat
			return 0, false
		}
		newVal := parsed + increment
		if math.IsNaN(newVal) || math.IsInf(newVal, 0) {
			fnErr = ErrNaNOrInf
			return 0, false
		}
		formatted = strconv.FormatFloat(newVal, 'g', 17, 64)
		inner[field] = formatted
		return 0, false
	})
	if err != nil {
		return "", err
	}
	if fnErr != nil {
		return "", fnErr
	}
	return formatted, nil
}

// HGet implements HGET: returns the field value and ok=true, or ok=false if
// the key or field is absent.
func (k *Keyspace) HGet(key, field string) (string, bool, error) {
	var val string
	var ok bool
	err := k.readHash(key, func(inner map[string]string) {
		val, ok = inner[field]
	})
	return val, ok, err
}

// HMGet implements HMGET: returns one slot per requested field, nil for
// fields that aren't present.
func (k *Keyspace) HMGet(key string, fields ...string) ([]*string, error) {
	result := make([]*string, len(fields))
	err := k.readHash(key, func(inner map[string]string) {
		for i, f := range fields {
			if val, ok := inner[f]; ok {
				v := val
				result[i] = &v
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HExists implements HEXISTS.
func (k *Keyspace) HExists(key, field string) (bool, error) {
	var ok bool
	err := k.readHash(key, func(inner map[string]string) {
		_, ok = inner[field]
	})
	return ok, err
}

// HLen implements HLEN.
func (k *Keyspace) HLen(key string) (int, error) {
	var n int
	err := k.readHash(key, func(inner map[string]string) {
		n = len(inner)
	})
	return n, err
}

// HStrLen implements HSTRLEN.
func (k *Keyspace) HStrLen(key, field string) (int, error) {
	var n int
	err := k.readHash(key, func(inner map[string]string) {
		n = len(inner[field])
	})
	return n, err
}

// HKeys implements HKEYS.
func (k *Keyspace) HKeys(key string) ([]string, error) {
	var result []string
	err := k.readHash(key, func(inner map[string]string) {
		result = make([]string, 0, len(inner))
		for f := range inner {
			result = append(result, f)
		}
	})
	return result, err
}

// HVals implements HVALS.
func (k *Keyspace) HVals(key string) ([]string, error) {
	var result []string
	err := k.readHash(key, func(inner map[string]string) {
		result = make([]string, 0, len(inner))
		for _, v := range inner {
			result = append(result, v)
		}
	})
	return result, err
}

// HGetAll implements HGETALL: a flat [field, value, ...] slice.
func (k *Keyspace) HGetAll(key string) ([]string, error) {
	var result []string
	err := k.readHash(key, func(inner map[string]string) {
		result = make([]string, 0, len(inner)*2)
		for f, v := range inner {
			result = append(result, f, v)
		}
	})
	return result, err
}

// HRandField implements HRANDFIELD. hasCount distinguishes "no count given"
// (one random field, nil on empty hash) from an explicit count: count >= 0
// samples up to count distinct fields, count < 0 samples exactly |count|
// fields with replacement.
func (k *Keyspace) HRandField(key string, hasCount bool, count int, withValues bool) ([]string, error) {
	var result []string
	err := k.readHash(key, func(inner map[string]string) {
		if len(inner) == 0 {
			return
		}

		fields := make([]string, 0, len(inner))
		for f := range inner {
			fields = append(fields, f)
		}

		var chosen []string
		switch {
		case !hasCount:
			chosen = []string{fields[rand.Intn(len(fields))]}
		case count >= 0:
			n := count
			if n > len(fields) {
				n = len(fields)
			}
			perm := rand.Perm(len(fields))
			chosen = make([]string, n)
			for i := 0; i < n; i++ {
				chosen[i] = fields[perm[i]]
			}
		default:
			n := -count
			chosen = make([]string, n)
			for i := 0; i < n; i++ {
				chosen[i] = fields[rand.Intn(len(fields))]
			}
		}

		if !withValues {
			result = chosen
			return
		}

		result = make([]string, 0, len(chosen)*2)
		for _, f := range chosen {
			result = append(result, f, inner[f])
		}
	})
	return result, err
}

// HScan implements HSCAN's simplified cursor-as-offset pagination: the
// cursor is an index into the match-filtered field list (sorted by field
// name, so successive calls see the same order), and scanning
// completes when the returned cursor is 0. This does not tolerate
// concurrent structural modification between calls the way Redis's
// real reverse-binary cursor does, a documented limitation.
func (k *Keyspace) HScan(key string, cursor int, match string, count int) (int, []string, error) {
	var nextCursor int
	var flat []string

	err := k.readHash(key, func(inner map[string]string) {
		if len(inner) == 0 {
			return
		}

		type kv struct{ field, value string }
		var all []kv
		for f, v := range inner {
			if globMatch(match, f) {
				all = append(all, kv{f, v})
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i].field < all[j].field })

		start := cursor
		if start > len(all) {
			start = len(all)
		}
		end := start + count
		if end > len(all) {
			end = len(all)
		}

		if end < len(all) {
			nextCursor = end
		}

		flat = make([]string, 0, (end-start)*2)
		for _, item := range all[start:end] {
			flat = append(flat, item.field, item.value)
		}
	})
	return nextCursor, flat, err
}
