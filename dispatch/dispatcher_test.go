package dispatch

import (
	"testing"

	"github.com/mshaverdo/radish/resp"
	"github.com/mshaverdo/radish/store"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(store.NewKeyspace())
}

func bulkArgs(ss ...string) [][]byte {
	args := make([][]byte, len(ss))
	for i, s := range ss {
		args[i] = []byte(s)
	}
	return args
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d := newTestDispatcher()
	got := d.Dispatch("NOPE", nil)
	if got.Kind != resp.Error {
		t.Fatalf("Dispatch(NOPE).Kind = %v, want Error", got.Kind)
	}
}

func TestDispatch_PingWithAndWithoutMessage(t *testing.T) {
	d := newTestDispatcher()

	got := d.Dispatch("PING", nil)
	if got.Kind != resp.SimpleString || got.Str != "PONG" {
		t.Errorf("PING = %+v, want SimpleString(PONG)", got)
	}

	got = d.Dispatch("PING", bulkArgs("hello"))
	if got.Kind != resp.SimpleString || got.Str != "hello" {
		t.Errorf("PING hello = %+v, want SimpleString(hello)", got)
	}
}

func TestDispatch_SetGetDel(t *testing.T) {
	d := newTestDispatcher()

	got := d.Dispatch("SET", bulkArgs("foo", "bar"))
	if got.Kind != resp.SimpleString || got.Str != "OK" {
		t.Fatalf("SET = %+v, want OK", got)
	}

	got = d.Dispatch("GET", bulkArgs("foo"))
	if got.Kind != resp.BulkString || string(got.Bulk) != "bar" {
		t.Fatalf("GET = %+v, want bulk(bar)", got)
	}

	got = d.Dispatch("GET", bulkArgs("missing"))
	if !got.IsNilBulkString() {
		t.Fatalf("GET missing = %+v, want nil bulk", got)
	}

	got = d.Dispatch("DEL", bulkArgs("foo"))
	if got.Kind != resp.Integer || got.Int != 1 {
		t.Fatalf("DEL = %+v, want Integer(1)", got)
	}
}

func TestDispatch_SetWithEX(t *testing.T) {
	d := newTestDispatcher()

	d.Dispatch("SET", bulkArgs("foo", "bar", "EX", "100"))
	got := d.Dispatch("TTL", bulkArgs("foo"))
	if got.Kind != resp.Integer || got.Int <= 0 || got.Int > 100 {
		t.Errorf("TTL after SET EX 100 = %+v, want in (0,100]", got)
	}
}

func TestDispatch_SetWithBadEX(t *testing.T) {
	d := newTestDispatcher()
	got := d.Dispatch("SET", bulkArgs("foo", "bar", "EX", "notanumber"))
	if got.Kind != resp.Error {
		t.Errorf("SET with bad EX = %+v, want Error", got)
	}
}

func TestDispatch_GetWrongType(t *testing.T) {
	d := newTestDispatcher()
	d.Dispatch("HSET", bulkArgs("h", "f", "v"))

	got := d.Dispatch("GET", bulkArgs("h"))
	if got.Kind != resp.Error {
		t.Fatalf("GET on hash key = %+v, want Error", got)
	}
}

func TestDispatch_Incr(t *testing.T) {
	d := newTestDispatcher()

	got := d.Dispatch("INCR", bulkArgs("counter"))
	if got.Kind != resp.Integer || got.Int != 1 {
		t.Fatalf("INCR = %+v, want Integer(1)", got)
	}
	got = d.Dispatch("INCR", bulkArgs("counter"))
	if got.Kind != resp.Integer || got.Int != 2 {
		t.Fatalf("INCR again = %+v, want Integer(2)", got)
	}
}

func TestDispatch_IncrClearsTTL(t *testing.T) {
	d := newTestDispatcher()
	d.Dispatch("SET", bulkArgs("counter", "1", "EX", "100"))
	d.Dispatch("INCR", bulkArgs("counter"))

	got := d.Dispatch("TTL", bulkArgs("counter"))
	if got.Int != -1 {
		t.Errorf("TTL after INCR = %+v, want -1 (cleared)", got)
	}
}

func TestDispatch_ExpireMissingKey(t *testing.T) {
	d := newTestDispatcher()
	got := d.Dispatch("EXPIRE", bulkArgs("missing", "10"))
	if got.Kind != resp.Integer || got.Int != 0 {
		t.Errorf("EXPIRE on missing key = %+v, want Integer(0)", got)
	}
}

func TestDispatch_HashRoundTrip(t *testing.T) {
	d := newTestDispatcher()

	got := d.Dispatch("HSET", bulkArgs("h", "a", "1", "b", "2"))
	if got.Kind != resp.Integer || got.Int != 2 {
		t.Fatalf("HSET = %+v, want Integer(2)", got)
	}

	got = d.Dispatch("HGET", bulkArgs("h", "a"))
	if got.Kind != resp.BulkString || string(got.Bulk) != "1" {
		t.Fatalf("HGET = %+v, want bulk(1)", got)
	}

	got = d.Dispatch("HLEN", bulkArgs("h"))
	if got.Int != 2 {
		t.Fatalf("HLEN = %+v, want Integer(2)", got)
	}

	got = d.Dispatch("HDEL", bulkArgs("h", "a"))
	if got.Int != 1 {
		t.Fatalf("HDEL = %+v, want Integer(1)", got)
	}
}

func TestDispatch_ZAddAndRange(t *testing.T) {
	d := newTestDispatcher()

	got := d.Dispatch("ZADD", bulkArgs("z", "1", "a", "2", "b", "3", "c"))
	if got.Kind != resp.Integer || got.Int != 3 {
		t.Fatalf("ZADD = %+v, want Integer(3)", got)
	}

	got = d.Dispatch("ZRANGE", bulkArgs("z", "0", "-1"))
	if got.Kind != resp.Array || len(got.Items) != 3 {
		t.Fatalf("ZRANGE = %+v, want 3 members", got)
	}
	if string(got.Items[0].Bulk) != "a" || string(got.Items[2].Bulk) != "c" {
		t.Errorf("ZRANGE order = %+v, want [a b c]", got.Items)
	}
}

func TestDispatch_ZAddNXXXConflict(t *testing.T) {
	d := newTestDispatcher()
	got := d.Dispatch("ZADD", bulkArgs("z", "NX", "XX", "1", "a"))
	if got.Kind != resp.Error {
		t.Errorf("ZADD NX XX = %+v, want Error", got)
	}
}

func TestDispatch_ZRevRangeByScoreArgumentOrder(t *testing.T) {
	d := newTestDispatcher()
	d.Dispatch("ZADD", bulkArgs("z", "1", "a", "2", "b", "3", "c"))

	got := d.Dispatch("ZREVRANGEBYSCORE", bulkArgs("z", "3", "1"))
	if got.Kind != resp.Array || len(got.Items) != 3 {
		t.Fatalf("ZREVRANGEBYSCORE = %+v, want 3 members", got)
	}
	if string(got.Items[0].Bulk) != "c" || string(got.Items[2].Bulk) != "a" {
		t.Errorf("ZREVRANGEBYSCORE order = %+v, want [c b a]", got.Items)
	}
}

func TestDispatch_ZScoreMissing(t *testing.T) {
	d := newTestDispatcher()
	got := d.Dispatch("ZSCORE", bulkArgs("missing", "a"))
	if !got.IsNilBulkString() {
		t.Errorf("ZSCORE on missing key = %+v, want nil bulk", got)
	}
}

func TestDispatch_WrongArgCount(t *testing.T) {
	d := newTestDispatcher()
	got := d.Dispatch("SET", bulkArgs("onlykey"))
	if got.Kind != resp.Error {
		t.Errorf("SET with 1 arg = %+v, want Error", got)
	}
}
