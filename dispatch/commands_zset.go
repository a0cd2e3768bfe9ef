package dispatch

import (
	"strconv"
	"strings"

	"github.com/mshaverdo/radish/resp"
	"github.com/mshaverdo/radish/store"
)

// zsetMutate runs fn against the SortedSet at key (via Keyspace.Mutate, to
// hold the bucket lock across the whole read-modify-write), creating one if
// the key is absent and dropping the key if fn leaves it empty. Returns
// ErrWrongType if key holds a non-SortedSet value.
func zsetMutate(d *Dispatcher, key string, fn func(z *store.SortedSet)) error {
	var wrongType error
	d.keyspace.Mutate(key, func(existing *store.Item) (*store.Item, bool) {
		var zset *store.SortedSet
		if existing != nil {
			if existing.Kind() != store.KindSortedSet {
				wrongType = store.ErrWrongType
				return existing, false
			}
			zset = existing.ZSet()
		} else {
			zset = store.NewSortedSet()
		}

		fn(zset)

		if zset.Card() == 0 {
			return nil, true
		}
		return store.NewSortedSetItem(zset), false
	})
	return wrongType
}

// zsetRead runs fn against the SortedSet at key while the bucket's RLock is
// held for fn's entire duration (via Keyspace.Read), so fn can safely read
// the set's member/score index without racing a concurrent zsetMutate on
// the same key. fn receives nil if key is absent; zsetRead returns
// ErrWrongType without calling fn if key holds a non-SortedSet value.
// Callers must compute their whole result inside fn, not after zsetRead
// returns.
func zsetRead(d *Dispatcher, key string, fn func(z *store.SortedSet)) error {
	var err error
	d.keyspace.Read(key, func(item *store.Item) {
		if item == nil {
			fn(nil)
			return
		}
		if item.Kind() != store.KindSortedSet {
			err = store.ErrWrongType
			return
		}
		fn(item.ZSet())
	})
	return err
}

func handleZAdd(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 3 {
		return errWrongArgCount("ZADD")
	}
	key, _ := req.GetArgumentString(0)

	var nx, xx, gt, lt, ch bool
	i := 1
	flagSet := map[string]bool{"NX": true, "XX": true, "GT": true, "LT": true, "CH": true}
	for i < req.ArgumentsLen() {
		arg, _ := req.GetArgumentString(i)
		flag := strings.ToUpper(arg)
		if !flagSet[flag] {
			break
		}
		switch flag {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "GT":
			gt = true
		case "LT":
			lt = true
		case "CH":
			ch = true
		}
		i++
	}

	if nx && xx {
		return resp.NewError("ERR XX and NX options at the same time are not compatible")
	}
	if gt && lt {
		return resp.NewError("ERR GT and LT options at the same time are not compatible")
	}
	if nx && (gt || lt) {
		return resp.NewError("ERR GT, LT, and NX options at the same time are not compatible")
	}

	tail, _ := req.GetArgumentVariadicString(i)
	if len(tail) < 2 || len(tail)%2 != 0 {
		return resp.NewError("ERR syntax error")
	}

	// ZADD scores are plain floats, not the "(5"-prefixed exclusive-boundary
	// grammar ZRANGEBYSCORE/ZCOUNT use, so they're parsed directly rather
	// than via store.ParseScoreBound.
	pairs := make([]store.MemberScore, 0, len(tail)/2)
	for j := 0; j+1 < len(tail); j += 2 {
		score, err := strconv.ParseFloat(tail[j], 64)
		if err != nil {
			return resp.NewError("ERR value is not a valid float")
		}
		pairs = append(pairs, store.MemberScore{Member: tail[j+1], Score: score})
	}

	var result int
	err := zsetMutate(d, key, func(z *store.SortedSet) {
		result = z.Add(pairs, nx, xx, gt, lt, ch)
	})
	if err != nil {
		return errStore(err)
	}
	return resp.NewInteger(int64(result))
}

func handleZRem(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() < 2 {
		return errWrongArgCount("ZREM")
	}
	key, _ := req.GetArgumentString(0)
	members, _ := req.GetArgumentVariadicString(1)

	var result int
	err := zsetMutate(d, key, func(z *store.SortedSet) {
		result = z.Rem(members...)
	})
	if err != nil {
		return errStore(err)
	}
	return resp.NewInteger(int64(result))
}

func handleZIncrBy(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 3 {
		return errWrongArgCount("ZINCRBY")
	}
	key, _ := req.GetArgumentString(0)
	increment, err := req.GetArgumentFloat(1)
	if err != nil {
		return resp.NewError("ERR value is not a valid float")
	}
	member, _ := req.GetArgumentString(2)

	var newScore float64
	mutErr := zsetMutate(d, key, func(z *store.SortedSet) {
		newScore = z.IncrBy(member, increment)
	})
	if mutErr != nil {
		return errStore(mutErr)
	}
	return resp.NewBulkStringFromString(store.FormatScore(newScore))
}

func handleZScore(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 2 {
		return errWrongArgCount("ZSCORE")
	}
	key, _ := req.GetArgumentString(0)
	member, _ := req.GetArgumentString(1)

	result := resp.NewNilBulkString()
	err := zsetRead(d, key, func(z *store.SortedSet) {
		if z == nil {
			return
		}
		if score, ok := z.Score(member); ok {
			result = resp.NewBulkStringFromString(store.FormatScore(score))
		}
	})
	if err != nil {
		return errStore(err)
	}
	return result
}

func handleRank(d *Dispatcher, req *Request, cmd string, reverse bool) resp.Value {
	if req.ArgumentsLen() != 2 {
		return errWrongArgCount(cmd)
	}
	key, _ := req.GetArgumentString(0)
	member, _ := req.GetArgumentString(1)

	result := resp.NewNilBulkString()
	err := zsetRead(d, key, func(z *store.SortedSet) {
		if z == nil {
			return
		}
		if rank, ok := z.Rank(member, reverse); ok {
			result = resp.NewInteger(int64(rank))
		}
	})
	if err != nil {
		return errStore(err)
	}
	return result
}

func handleZRank(d *Dispatcher, req *Request) resp.Value {
	return handleRank(d, req, "ZRANK", false)
}

func handleZRevRank(d *Dispatcher, req *Request) resp.Value {
	return handleRank(d, req, "ZREVRANK", true)
}

func handleZCard(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 1 {
		return errWrongArgCount("ZCARD")
	}
	key, _ := req.GetArgumentString(0)

	var card int
	err := zsetRead(d, key, func(z *store.SortedSet) {
		if z != nil {
			card = z.Card()
		}
	})
	if err != nil {
		return errStore(err)
	}
	return resp.NewInteger(int64(card))
}

func handleZCount(d *Dispatcher, req *Request) resp.Value {
	if req.ArgumentsLen() != 3 {
		return errWrongArgCount("ZCOUNT")
	}
	key, _ := req.GetArgumentString(0)
	minRaw, _ := req.GetArgumentString(1)
	maxRaw, _ := req.GetArgumentString(2)

	min, err := store.ParseScoreBound(minRaw)
	if err != nil {
		return errStore(err)
	}
	max, err := store.ParseScoreBound(maxRaw)
	if err != nil {
		return errStore(err)
	}

	var count int
	zerr := zsetRead(d, key, func(z *store.SortedSet) {
		if z != nil {
			count = z.Count(min, max)
		}
	})
	if zerr != nil {
		return errStore(zerr)
	}
	return resp.NewInteger(int64(count))
}

// parseWithScoresLimit parses the optional [WITHSCORES] [LIMIT offset
// count] tail shared by ZRANGEBYSCORE/ZREVRANGEBYSCORE.
func parseWithScoresLimit(args []string) (withScores bool, offset, count int, errMsg string) {
	count = -1
	i := 0
	for i < len(args) {
		opt := strings.ToUpper(args[i])
		switch opt {
		case "WITHSCORES":
			withScores = true
			i++
		case "LIMIT":
			if i+2 >= len(args) {
				return false, 0, -1, "ERR syntax error"
			}
			o, err1 := parseIntStrict(args[i+1])
			c, err2 := parseIntStrict(args[i+2])
			if err1 != nil || err2 != nil {
				return false, 0, -1, "ERR LIMIT values must be integers"
			}
			offset, count = o, c
			i += 3
		default:
			return false, 0, -1, "ERR syntax error near '" + args[i] + "'"
		}
	}
	return withScores, offset, count, ""
}

func parseIntStrict(s string) (int, error) {
	return strconv.Atoi(s)
}

func handleZRangeByScore(d *Dispatcher, req *Request) resp.Value {
	return handleRangeByScore(d, req, "ZRANGEBYSCORE", false)
}

func handleZRevRangeByScore(d *Dispatcher, req *Request) resp.Value {
	return handleRangeByScore(d, req, "ZREVRANGEBYSCORE", true)
}

// handleRangeByScore implements both ZRANGEBYSCORE and ZREVRANGEBYSCORE.
// ZREVRANGEBYSCORE takes its min/max arguments in swapped (max, min) order.
func handleRangeByScore(d *Dispatcher, req *Request, cmd string, reverse bool) resp.Value {
	if req.ArgumentsLen() < 3 {
		return errWrongArgCount(cmd)
	}
	key, _ := req.GetArgumentString(0)
	first, _ := req.GetArgumentString(1)
	second, _ := req.GetArgumentString(2)

	minRaw, maxRaw := first, second
	if reverse {
		minRaw, maxRaw = second, first
	}

	tail, _ := req.GetArgumentVariadicString(3)
	withScores, offset, count, errMsg := parseWithScoresLimit(tail)
	if errMsg != "" {
		return resp.NewError(errMsg)
	}

	min, err := store.ParseScoreBound(minRaw)
	if err != nil {
		return errStore(err)
	}
	max, err := store.ParseScoreBound(maxRaw)
	if err != nil {
		return errStore(err)
	}

	var result []string
	zerr := zsetRead(d, key, func(z *store.SortedSet) {
		if z != nil {
			result = z.RangeByScore(min, max, withScores, offset, count, reverse)
		}
	})
	if zerr != nil {
		return errStore(zerr)
	}
	return stringsToArray(result)
}

func handleZRange(d *Dispatcher, req *Request) resp.Value {
	return handleRangeByRank(d, req, "ZRANGE", false)
}

func handleZRevRange(d *Dispatcher, req *Request) resp.Value {
	return handleRangeByRank(d, req, "ZREVRANGE", true)
}

func handleRangeByRank(d *Dispatcher, req *Request, cmd string, reverse bool) resp.Value {
	if req.ArgumentsLen() < 3 {
		return errWrongArgCount(cmd)
	}
	key, _ := req.GetArgumentString(0)
	start, err := req.GetArgumentInt(1)
	if err != nil {
		return resp.NewError("ERR value is not an integer or out of range")
	}
	stop, err := req.GetArgumentInt(2)
	if err != nil {
		return resp.NewError("ERR value is not an integer or out of range")
	}

	withScores := false
	if req.ArgumentsLen() > 3 {
		opt, _ := req.GetArgumentString(3)
		withScores = strings.ToUpper(opt) == "WITHSCORES"
	}

	var result []string
	zerr := zsetRead(d, key, func(z *store.SortedSet) {
		if z != nil {
			result = z.Range(start, stop, withScores, reverse)
		}
	})
	if zerr != nil {
		return errStore(zerr)
	}
	return stringsToArray(result)
}
