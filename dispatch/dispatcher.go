// Package dispatch routes parsed RESP commands to store operations. It owns
// the single process-wide write lock that turns each mutating command's
// read-modify-write sequence into an atomic step, on top of the Keyspace's
// own per-bucket locking.
package dispatch

import (
	"strings"
	"sync"

	"github.com/mshaverdo/radish/log"
	"github.com/mshaverdo/radish/resp"
	"github.com/mshaverdo/radish/store"
)

type handlerFunc func(d *Dispatcher, req *Request) resp.Value

type handlerEntry struct {
	fn    handlerFunc
	write bool
}

// Dispatcher holds the command registry and the keyspace it operates on.
// A single Dispatcher is shared by every connection.
type Dispatcher struct {
	keyspace *store.Keyspace
	writeMu  sync.Mutex
	registry map[string]handlerEntry
}

// NewDispatcher builds a Dispatcher backed by ks, with the full command
// registry wired in.
func NewDispatcher(ks *store.Keyspace) *Dispatcher {
	d := &Dispatcher{keyspace: ks}
	d.registry = d.buildRegistry()
	return d
}

// Dispatch runs cmd with the given raw argument bytes and returns the RESP
// reply. Unknown commands produce a RESP error rather than a Go error: the
// connection stays open and keeps processing subsequent frames.
func (d *Dispatcher) Dispatch(cmd string, rawArgs [][]byte) resp.Value {
	upperCmd := strings.ToUpper(cmd)

	entry, ok := d.registry[upperCmd]
	if !ok {
		log.Debugf("unknown command: %q", cmd)
		return resp.NewError("ERR unknown command '" + cmd + "'")
	}

	req := NewRequest(upperCmd, rawArgs)

	if entry.write {
		d.writeMu.Lock()
		defer d.writeMu.Unlock()
	}

	return entry.fn(d, req)
}

func (d *Dispatcher) buildRegistry() map[string]handlerEntry {
	return map[string]handlerEntry{
		"PING":   {handlePing, false},
		"SET":    {handleSet, true},
		"GET":    {handleGet, false},
		"DEL":    {handleDel, true},
		"EXISTS": {handleExists, false},
		"KEYS":   {handleKeys, false},
		"TTL":    {handleTTL, false},
		"INCR":   {handleIncr, true},
		"EXPIRE": {handleExpire, true},

		"HSET":          {handleHSet, true},
		"HMSET":         {handleHMSet, true},
		"HSETNX":        {handleHSetNX, true},
		"HGET":          {handleHGet, false},
		"HMGET":         {handleHMGet, false},
		"HDEL":          {handleHDel, true},
		"HEXISTS":       {handleHExists, false},
		"HLEN":          {handleHLen, false},
		"HSTRLEN":       {handleHStrLen, false},
		"HKEYS":         {handleHKeys, false},
		"HVALS":         {handleHVals, false},
		"HGETALL":       {handleHGetAll, false},
		"HINCRBY":       {handleHIncrBy, true},
		"HINCRBYFLOAT":  {handleHIncrByFloat, true},
		"HRANDFIELD":    {handleHRandField, false},
		"HSCAN":         {handleHScan, false},

		"ZADD":             {handleZAdd, true},
		"ZREM":             {handleZRem, true},
		"ZINCRBY":          {handleZIncrBy, true},
		"ZSCORE":           {handleZScore, false},
		"ZRANK":            {handleZRank, false},
		"ZREVRANK":         {handleZRevRank, false},
		"ZCARD":            {handleZCard, false},
		"ZCOUNT":           {handleZCount, false},
		"ZRANGEBYSCORE":    {handleZRangeByScore, false},
		"ZREVRANGEBYSCORE": {handleZRevRangeByScore, false},
		"ZRANGE":           {handleZRange, false},
		"ZREVRANGE":        {handleZRevRange, false},
	}
}

func errWrongArgCount(cmd string) resp.Value {
	return resp.NewError("ERR wrong number of arguments for '" + strings.ToLower(cmd) + "' command")
}

func errStore(err error) resp.Value {
	return resp.NewError(err.Error())
}
