package store

import (
	"testing"
	"time"
)

func TestKeyspace_SetGet(t *testing.T) {
	k := NewKeyspace()
	k.Set("foo", NewStringItem("bar"), nil)

	item := k.Get("foo")
	if item == nil {
		t.Fatal("Get(foo): want item, got nil")
	}
	if item.Str() != "bar" {
		t.Errorf("Get(foo).Str() = %q, want %q", item.Str(), "bar")
	}

	if k.Get("missing") != nil {
		t.Error("Get(missing): want nil")
	}
}

func TestKeyspace_TTLExpiry(t *testing.T) {
	k := NewKeyspace()
	ttl := time.Millisecond
	k.Set("foo", NewStringItem("bar"), &ttl)

	time.Sleep(5 * time.Millisecond)

	if k.Get("foo") != nil {
		t.Error("Get(foo): want nil after expiry")
	}
	if got := k.TTL("foo"); got != -2 {
		t.Errorf("TTL(foo) = %d, want -2", got)
	}
}

func TestKeyspace_TTLNoExpiry(t *testing.T) {
	k := NewKeyspace()
	k.Set("foo", NewStringItem("bar"), nil)

	if got := k.TTL("foo"); got != -1 {
		t.Errorf("TTL(foo) = %d, want -1", got)
	}
	if got := k.TTL("missing"); got != -2 {
		t.Errorf("TTL(missing) = %d, want -2", got)
	}
}

func TestKeyspace_Expire(t *testing.T) {
	k := NewKeyspace()

	if got := k.Expire("missing", 10); got != 0 {
		t.Errorf("Expire(missing) = %d, want 0", got)
	}

	k.Set("foo", NewStringItem("bar"), nil)
	if got := k.Expire("foo", 100); got != 1 {
		t.Errorf("Expire(foo) = %d, want 1", got)
	}
	if ttl := k.TTL("foo"); ttl <= 0 || ttl > 100 {
		t.Errorf("TTL(foo) = %d, want in (0, 100]", ttl)
	}
}

func TestKeyspace_DeleteExists(t *testing.T) {
	k := NewKeyspace()
	k.Set("a", NewStringItem("1"), nil)
	k.Set("b", NewStringItem("2"), nil)

	if got := k.Exists("a", "b", "c"); got != 2 {
		t.Errorf("Exists(a,b,c) = %d, want 2", got)
	}
	if got := k.Delete("a", "c"); got != 1 {
		t.Errorf("Delete(a,c) = %d, want 1", got)
	}
	if k.Get("a") != nil {
		t.Error("Get(a): want nil after Delete")
	}
	if k.Get("b") == nil {
		t.Error("Get(b): want surviving item")
	}
}

func TestKeyspace_Keys(t *testing.T) {
	k := NewKeyspace()
	k.Set("foo:1", NewStringItem("x"), nil)
	k.Set("foo:2", NewStringItem("x"), nil)
	k.Set("bar", NewStringItem("x"), nil)

	got := k.Keys("foo:*")
	if len(got) != 2 {
		t.Errorf("Keys(foo:*) = %v, want 2 matches", got)
	}
}

func TestKeyspace_MutatePreservesTTL(t *testing.T) {
	k := NewKeyspace()
	ttl := time.Hour
	k.Set("h", NewHashItem(map[string]string{"f": "v"}), &ttl)

	k.Mutate("h", func(existing *Item) (*Item, bool) {
		inner := existing.Hash()
		inner["f2"] = "v2"
		return NewHashItem(inner), false
	})

	remaining := k.TTL("h")
	if remaining <= 0 {
		t.Errorf("TTL(h) after Mutate = %d, want > 0 (TTL preserved)", remaining)
	}
}

func TestKeyspace_MutateDeletesOnEmpty(t *testing.T) {
	k := NewKeyspace()
	k.Set("h", NewHashItem(map[string]string{"f": "v"}), nil)

	k.Mutate("h", func(existing *Item) (*Item, bool) {
		return nil, true
	})

	if k.Get("h") != nil {
		t.Error("Get(h): want nil after deleting Mutate")
	}
}

func TestKeyspace_Persist(t *testing.T) {
	k := NewKeyspace()
	ttl := time.Hour
	k.Set("foo", NewStringItem("bar"), &ttl)

	if got := k.Persist("foo"); got != 1 {
		t.Errorf("Persist(foo) = %d, want 1", got)
	}
	if got := k.TTL("foo"); got != -1 {
		t.Errorf("TTL(foo) after Persist = %d, want -1", got)
	}
	if got := k.Persist("foo"); got != 0 {
		t.Errorf("Persist(foo) again = %d, want 0", got)
	}
}
