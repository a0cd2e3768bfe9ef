package dispatch

import (
	"strconv"
	"strings"
	"time"

	"github.com/mshaverdo/radish/resp"
	"github.com/mshaverdo/radish/store"
)

func handlePing(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() > 0 {
		msg, _ := req.GetArgumentString(0)
		return resp.NewSimpleString(msg)
	}
	return resp.NewSimpleString("PONG")
}

// handleSet implements SET key value [EX seconds | PX milliseconds].
// EX/PX are integer-only: Redis itself rejects fractional seconds here,
// which is why this diverges from a literal read of the original float
// parsing.
func handleSet(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 2 {
		return errWrongArgCount("SET")
	}

	key, _ := req.GetArgumentString(0)
	value, _ := req.GetArgumentString(1)

	var ttl *time.Duration
	rest, _ := req.GetArgumentVariadicString(2)

	for i := 0; i+1 < len(rest); i += 2 {
		opt := strings.ToUpper(rest[i])
		raw := rest[i+1]

		switch opt {
		case "EX":
			seconds, err := strconv.Atoi(raw)
			if err != nil {
				return resp.NewError("ERR value is not an integer or out of range")
			}
			secondsTTL := time.Duration(seconds) * time.Second
			ttl = &secondsTTL
		case "PX":
			millis, err := strconv.Atoi(raw)
			if err != nil {
				return resp.NewError("ERR value is not an integer or out of range")
			}
			millisTTL := time.Duration(millis) * time.Millisecond
			ttl = &millisTTL
		}
	}

	d.keyspace.Set(key, store.NewStringItem(value), ttl)
	return resp.NewSimpleString("OK")
}

func handleGet(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 1 {
		return errWrongArgCount("GET")
	}
	key, _ := req.GetArgumentString(0)

	item := d.keyspace.Get(key)
	if item == nil {
		return resp.NewNilBulkString()
	}
	if item.Kind() != store.KindString {
		return errStore(store.ErrWrongType)
	}
	return resp.NewBulkStringFromString(item.Str())
}

func handleDel(d *Dispatcher, req *Request) resp.Value {
	keys, _ := req.GetArgumentVariadicString(0)
	count := d.keyspace.Delete(keys...)
	return resp.NewInteger(int64(count))
}

func handleExists(d *Dispatcher, req *Request) resp.Value {
	keys, _ := req.GetArgumentVariadicString(0)
	count := d.keyspace.Exists(keys...)
	return resp.NewInteger(int64(count))
}

func handleKeys(d *Dispatcher, req *Request) resp.Value {
	pattern := "*"
	if req.ArgumentsLen() > 0 {
		pattern, _ = req.GetArgumentString(0)
	}

	keys := d.keyspace.Keys(pattern)
	items := make([]resp.Value, len(keys))
	for i, k := range keys {
		items[i] = resp.NewBulkStringFromString(k)
	}
	return resp.NewArray(items)
}

func handleTTL(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 1 {
		return errWrongArgCount("TTL")
	}
	key, _ := req.GetArgumentString(0)
	return resp.NewInteger(int64(d.keyspace.TTL(key)))
}

// handleIncr implements INCR. Following the behavior this server's typed
// string values inherit from the original key-value store, a successful
// INCR rewrites the key with no expiry — mutations that must preserve TTL
// are the hash/zset family, not plain strings.
func handleIncr(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 1 {
		return errWrongArgCount("INCR")
	}
	key, _ := req.GetArgumentString(0)

	current := "0"
	if item := d.keyspace.Get(key); item != nil {
		if item.Kind() != store.KindString {
			return errStore(store.ErrWrongType)
		}
		current = item.Str()
	}

	val, err := strconv.ParseInt(current, 10, 64)
	if err != nil {
		return errStore(store.ErrNotInteger)
	}

	newVal := val + 1
	d.keyspace.Set(key, store.NewStringItem(strconv.FormatInt(newVal, 10)), nil)
	return resp.NewInteger(newVal)
}

func handleExpire(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 2 {
		return errWrongArgCount("EXPIRE")
	}
	key, _ := req.GetArgumentString(0)
	seconds, err := req.GetArgumentInt(1)
	if err != nil {
		return resp.NewError("ERR value is not an integer or out of range")
	}

	return resp.NewInteger(int64(d.keyspace.Expire(key, seconds)))
}
