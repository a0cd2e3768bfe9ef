package store

import "github.com/mshaverdo/assert"

//go:generate stringer -type=ValueKind

// ValueKind tags the concrete value a keyspace entry holds.
type ValueKind int

const (
	KindString ValueKind = iota
	KindHash
	KindSortedSet
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindHash:
		return "Hash"
	case KindSortedSet:
		return "SortedSet"
	default:
		return "Unknown"
	}
}

// Item is the tagged union stored for every key: a String, a Hash (field
// map), or a SortedSet. Exactly one of str/hash/zset is meaningful,
// selected by kind.
type Item struct {
	kind ValueKind
	str  string
	hash map[string]string
	zset *SortedSet
}

// NewStringItem builds a String-kind Item.
func NewStringItem(s string) *Item {
	return &Item{kind: KindString, str: s}
}

// NewHashItem builds a Hash-kind Item around the given field map.
// The map is taken by reference; callers must not reuse it elsewhere.
func NewHashItem(fields map[string]string) *Item {
	return &Item{kind: KindHash, hash: fields}
}

// NewSortedSetItem builds a SortedSet-kind Item around the given set.
func NewSortedSetItem(zset *SortedSet) *Item {
	return &Item{kind: KindSortedSet, zset: zset}
}

// Kind returns the value kind this Item holds.
func (i *Item) Kind() ValueKind {
	return i.kind
}

// Str returns the String payload. Panics if Kind() != KindString.
func (i *Item) Str() string {
	assert.True(i.kind == KindString, "Program logic error: Str() on "+i.kind.String())
	return i.str
}

// Hash returns the Hash payload. Panics if Kind() != KindHash.
func (i *Item) Hash() map[string]string {
	assert.True(i.kind == KindHash, "Program logic error: Hash() on "+i.kind.String())
	return i.hash
}

// ZSet returns the SortedSet payload. Panics if Kind() != KindSortedSet.
func (i *Item) ZSet() *SortedSet {
	assert.True(i.kind == KindSortedSet, "Program logic error: ZSet() on "+i.kind.String())
	return i.zset
}
