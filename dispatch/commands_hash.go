package dispatch

import (
	"strconv"
	"strings"

	"github.com/mshaverdo/radish/resp"
	"github.com/mshaverdo/radish/store"
)

func bulkOrNil(val string, ok bool) resp.Value {
	if !ok {
		return resp.NewNilBulkString()
	}
	return resp.NewBulkStringFromString(val)
}

func stringsToArray(items []string) resp.Value {
	values := make([]resp.Value, len(items))
	for i, s := range items {
		values[i] = resp.NewBulkStringFromString(s)
	}
	return resp.NewArray(values)
}

func handleHSet(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 3 || req.ArgumentsLen()%2 == 0 {
		return errWrongArgCount("HSET")
	}
	key, _ := req.GetArgumentString(0)
	pairs, _ := req.GetArgumentVariadicString(1)

	fields := make([]store.FieldValue, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields = append(fields, store.FieldValue{Field: pairs[i], Value: pairs[i+1]})
	}

	added, err := d.keyspace.HSet(key, fields)
	if err != nil {
		return errStore(err)
	}
	return resp.NewInteger(int64(added))
}

func handleHMSet(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 3 || req.ArgumentsLen()%2 == 0 {
		return errWrongArgCount("HMSET")
	}
	key, _ := req.GetArgumentString(0)
	pairs, _ := req.GetArgumentVariadicString(1)

	fields := make([]store.FieldValue, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields = append(fields, store.FieldValue{Field: pairs[i], Value: pairs[i+1]})
	}

	if _, err := d.keyspace.HSet(key, fields); err != nil {
		return errStore(err)
	}
	return resp.NewSimpleString("OK")
}

func handleHSetNX(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 3 {
		return errWrongArgCount("HSETNX")
	}
	key, _ := req.GetArgumentString(0)
	field, _ := req.GetArgumentString(1)
	value, _ := req.GetArgumentString(2)

	result, err := d.keyspace.HSetNX(key, field, value)
	if err != nil {
		return errStore(err)
	}
	return resp.NewInteger(int64(result))
}

func handleHGet(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 2 {
		return errWrongArgCount("HGET")
	}
	key, _ := req.GetArgumentString(0)
	field, _ := req.GetArgumentString(1)

	val, ok, err := d.keyspace.HGet(key, field)
	if err != nil {
		return errStore(err)
	}
	return bulkOrNil(val, ok)
}

func handleHMGet(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 2 {
		return errWrongArgCount("HMGET")
	}
	key, _ := req.GetArgumentString(0)
	fields, _ := req.GetArgumentVariadicString(1)

	results, err := d.keyspace.HMGet(key, fields...)
	if err != nil {
		return errStore(err)
	}

	items := make([]resp.Value, len(results))
	for i, r := range results {
		if r == nil {
			items[i] = resp.NewNilBulkString()
		} else {
			items[i] = resp.NewBulkStringFromString(*r)
		}
	}
	return resp.NewArray(items)
}

func handleHDel(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 2 {
		return errWrongArgCount("HDEL")
	}
	key, _ := req.GetArgumentString(0)
	fields, _ := req.GetArgumentVariadicString(1)

	count, err := d.keyspace.HDel(key, fields...)
	if err != nil {
		return errStore(err)
	}
	return resp.NewInteger(int64(count))
}

func handleHExists(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 2 {
		return errWrongArgCount("HEXISTS")
	}
	key, _ := req.GetArgumentString(0)
	field, _ := req.GetArgumentString(1)

	ok, err := d.keyspace.HExists(key, field)
	if err != nil {
		return errStore(err)
	}
	if ok {
		return resp.NewInteger(1)
	}
	return resp.NewInteger(0)
}

func handleHLen(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 1 {
		return errWrongArgCount("HLEN")
	}
	key, _ := req.GetArgumentString(0)

	n, err := d.keyspace.HLen(key)
	if err != nil {
		return errStore(err)
	}
	return resp.NewInteger(int64(n))
}

func handleHStrLen(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 2 {
		return errWrongArgCount("HSTRLEN")
	}
	key, _ := req.GetArgumentString(0)
	field, _ := req.GetArgumentString(1)

	n, err := d.keyspace.HStrLen(key, field)
	if err != nil {
		return errStore(err)
	}
	return resp.NewInteger(int64(n))
}

func handleHKeys(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 1 {
		return errWrongArgCount("HKEYS")
	}
	key, _ := req.GetArgumentString(0)

	keys, err := d.keyspace.HKeys(key)
	if err != nil {
		return errStore(err)
	}
	return stringsToArray(keys)
}

func handleHVals(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 1 {
		return errWrongArgCount("HVALS")
	}
	key, _ := req.GetArgumentString(0)

	vals, err := d.keyspace.HVals(key)
	if err != nil {
		return errStore(err)
	}
	return stringsToArray(vals)
}

func handleHGetAll(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 1 {
		return errWrongArgCount("HGETALL")
	}
	key, _ := req.GetArgumentString(0)

	flat, err := d.keyspace.HGetAll(key)
	if err != nil {
		return errStore(err)
	}
	return stringsToArray(flat)
}

func handleHIncrBy(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 3 {
		return errWrongArgCount("HINCRBY")
	}
	key, _ := req.GetArgumentString(0)
	field, _ := req.GetArgumentString(1)
	increment, err := req.GetArgumentInt(2)
	if err != nil {
		return resp.NewError("ERR value is not an integer or out of range")
	}

	newVal, err := d.keyspace.HIncrBy(key, field, int64(increment))
	if err != nil {
		return errStore(err)
	}
	return resp.NewInteger(newVal)
}

func handleHIncrByFloat(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 3 {
		return errWrongArgCount("HINCRBYFLOAT")
	}
	key, _ := req.GetArgumentString(0)
	field, _ := req.GetArgumentString(1)
	increment, err := req.GetArgumentFloat(2)
	if err != nil {
		return resp.NewError("ERR value is not a valid float")
	}

	formatted, err := d.keyspace.HIncrByFloat(key, field, increment)
	if err != nil {
		return errStore(err)
	}
	return resp.NewBulkStringFromString(formatted)
}

func handleHRandField(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 1 {
		return errWrongArgCount("HRANDFIELD")
	}
	key, _ := req.GetArgumentString(0)

	hasCount := req.ArgumentsLen() >= 2
	count := 0
	if hasCount {
		c, err := req.GetArgumentInt(1)
		if err != nil {
			return resp.NewError("ERR value is not an integer or out of range")
		}
		count = c
	}

	withValues := false
	if req.ArgumentsLen() >= 3 {
		opt, _ := req.GetArgumentString(2)
		withValues = strings.ToUpper(opt) == "WITHVALUES"
	}

	fields, err := d.keyspace.HRandField(key, hasCount, count, withValues)
	if err != nil {
		return errStore(err)
	}
	if fields == nil {
		if hasCount {
			return resp.NewArray(nil)
		}
		return resp.NewNilBulkString()
	}
	if !hasCount {
		return resp.NewBulkStringFromString(fields[0])
	}
	return stringsToArray(fields)
}

func handleHScan(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 2 {
		return errWrongArgCount("HSCAN")
	}
	key, _ := req.GetArgumentString(0)
	cursor, err := req.GetArgumentInt(1)
	if err != nil {
		return resp.NewError("ERR cursor is not an integer")
	}

	match := "*"
	count := 10

	rest, _ := req.GetArgumentVariadicString(2)
	for i := 0; i < len(rest); {
		opt := strings.ToUpper(rest[i])
		switch {
		case opt == "MATCH" && i+1 < len(rest):
			match = rest[i+1]
			i += 2
		case opt == "COUNT" && i+1 < len(rest):
			c, err := strconv.Atoi(rest[i+1])
			if err != nil {
				return resp.NewError("ERR COUNT is not an integer")
			}
			count = c
			i += 2
		default:
			i++
		}
	}

	nextCursor, flat, err := d.keyspace.HScan(key, cursor, match, count)
	if err != nil {
		return errStore(err)
	}

	return resp.NewArray([]resp.Value{
		resp.NewBulkStringFromString(strconv.Itoa(nextCursor)),
		stringsToArray(flat),
	})
}
