package store

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// MemberScore is one (member, score) pair, the unit ZADD operates on.
type MemberScore struct {
	Member string
	Score  float64
}

type zsetEntry struct {
	score  float64
	member string
}

func zsetLess(a, b zsetEntry) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.member < b.member
}

// SortedSet is a member->score map plus a score-ordered slice, giving O(1)
// score lookup, O(log n) rank/boundary search (sort.Search over the
// score-ascending slice) and O(log n + k) range extraction. Insert/remove
// shift the backing slice, so they're O(n) — the same complexity the
// grounding Python original pays for its bisect.insort/list.pop on a plain
// list. Every access to a SortedSet happens while its owning Keyspace
// bucket lock is held (shared for reads, via Keyspace.Read, or exclusive
// for writes, via Keyspace.Mutate), so the type itself carries no lock.
type SortedSet struct {
	scores  map[string]float64
	ordered []zsetEntry
}

// NewSortedSet returns an empty SortedSet.
func NewSortedSet() *SortedSet {
	return &SortedSet{
		scores: make(map[string]float64),
	}
}

// Card returns the number of members.
func (z *SortedSet) Card() int {
	return len(z.scores)
}

// Score returns the member's score, or ok=false if the member is absent.
func (z *SortedSet) Score(member string) (score float64, ok bool) {
	score, ok = z.scores[member]
	return
}

// search returns the insertion point (bisect-left) for e in the
// score-ascending, member-ascending ordered slice: the first index i such
// that !zsetLess(ordered[i], e). If e is present, ordered[i] == e.
func (z *SortedSet) search(e zsetEntry) int {
	return sort.Search(len(z.ordered), func(i int) bool {
		return !zsetLess(z.ordered[i], e)
	})
}

func (z *SortedSet) insert(e zsetEntry) {
	i := z.search(e)
	z.ordered = append(z.ordered, zsetEntry{})
	copy(z.ordered[i+1:], z.ordered[i:])
	z.ordered[i] = e
}

func (z *SortedSet) remove(e zsetEntry) {
	i := z.search(e)
	if i >= len(z.ordered) || z.ordered[i] != e {
		return
	}
	copy(z.ordered[i:], z.ordered[i+1:])
	z.ordered = z.ordered[:len(z.ordered)-1]
}

// Add applies ZADD semantics for each pair in order: nx skips existing
// members, xx skips new members, gt/lt only accept a strictly
// better-scoring update, ch makes the returned count reflect changed
// members instead of newly-added ones. Flag mutual-exclusion validation
// is the caller's responsibility; Add assumes a consistent flag set.
func (z *SortedSet) Add(pairs []MemberScore, nx, xx, gt, lt, ch bool) int {
	added, changed := 0, 0

	for _, pair := range pairs {
		existingScore, isNew := z.scores[pair.Member]
		isNew = !isNew

		if nx && !isNew {
			continue
		}
		if xx && isNew {
			continue
		}
		if gt && !isNew && pair.Score <= existingScore {
			continue
		}
		if lt && !isNew && pair.Score >= existingScore {
			continue
		}

		if isNew {
			added++
			changed++
			z.insert(zsetEntry{score: pair.Score, member: pair.Member})
		} else if pair.Score != existingScore {
			changed++
			z.remove(zsetEntry{score: existingScore, member: pair.Member})
			z.insert(zsetEntry{score: pair.Score, member: pair.Member})
		}

		z.scores[pair.Member] = pair.Score
	}

	if ch {
		return changed
	}
	return added
}

// IncrBy adds increment to member's score (member starts at 0 if absent)
// and returns the new score.
func (z *SortedSet) IncrBy(member string, increment float64) float64 {
	current := z.scores[member]
	newScore := current + increment
	z.Add([]MemberScore{{Member: member, Score: newScore}}, false, false, false, false, false)
	return newScore
}

// Rem removes the given members, returning the count actually removed.
func (z *SortedSet) Rem(members ...string) int {
	removed := 0
	for _, member := range members {
		score, ok := z.scores[member]
		if !ok {
			continue
		}
		removed++
		delete(z.scores, member)
		z.remove(zsetEntry{score: score, member: member})
	}
	return removed
}

// Rank returns the 0-based rank of member by ascending score (or
// descending, if reverse), and ok=false if member is absent. O(log n) via
// binary search on the ordered slice.
func (z *SortedSet) Rank(member string, reverse bool) (rank int, ok bool) {
	score, ok := z.scores[member]
	if !ok {
		return 0, false
	}

	idx := z.search(zsetEntry{score: score, member: member})

	if reverse {
		return len(z.ordered) - 1 - idx, true
	}
	return idx, true
}

// ScoreBound is one end of a ZRANGEBYSCORE/ZCOUNT interval.
type ScoreBound struct {
	Value     float64
	Exclusive bool
}

// ParseScoreBound parses a RESP score boundary: "-inf", "+inf", "5" or the
// exclusive form "(5".
func ParseScoreBound(raw string) (ScoreBound, error) {
	switch raw {
	case "-inf":
		return ScoreBound{Value: math.Inf(-1)}, nil
	case "+inf", "inf":
		return ScoreBound{Value: math.Inf(1)}, nil
	}

	exclusive := strings.HasPrefix(raw, "(")
	numeric := raw
	if exclusive {
		numeric = raw[1:]
	}

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return ScoreBound{}, ErrNotFloat
	}
	return ScoreBound{Value: value, Exclusive: exclusive}, nil
}

func inRange(score float64, min, max ScoreBound) bool {
	loOK := score > min.Value
	if !min.Exclusive {
		loOK = score >= min.Value
	}
	hiOK := score < max.Value
	if !max.Exclusive {
		hiOK = score <= max.Value
	}
	return loOK && hiOK
}

// scoreRange returns [lo, hi) bounding the run of z.ordered whose score
// satisfies [min, max], via two binary searches over the score-ascending
// slice (valid since scores are non-decreasing across it regardless of the
// member tie-break). O(log n).
func (z *SortedSet) scoreRange(min, max ScoreBound) (lo, hi int) {
	lo = sort.Search(len(z.ordered), func(i int) bool {
		s := z.ordered[i].score
		if min.Exclusive {
			return s > min.Value
		}
		return s >= min.Value
	})
	hi = sort.Search(len(z.ordered), func(i int) bool {
		s := z.ordered[i].score
		if max.Exclusive {
			return s >= max.Value
		}
		return s > max.Value
	})
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Count returns how many members fall within [min, max]. O(log n).
func (z *SortedSet) Count(min, max ScoreBound) int {
	lo, hi := z.scoreRange(min, max)
	return hi - lo
}

// RangeByScore implements ZRANGEBYSCORE (reverse=false) and
// ZREVRANGEBYSCORE (reverse=true). It returns a flat slice of members, or
// interleaved [member, formattedScore, ...] pairs when withScores is set.
// count<0 means "no limit". O(log n + k) where k is the matched range size.
func (z *SortedSet) RangeByScore(min, max ScoreBound, withScores bool, offset, count int, reverse bool) []string {
	lo, hi := z.scoreRange(min, max)

	matching := make([]zsetEntry, hi-lo)
	copy(matching, z.ordered[lo:hi])

	if reverse {
		for i, j := 0, len(matching)-1; i < j; i, j = i+1, j-1 {
			matching[i], matching[j] = matching[j], matching[i]
		}
	}

	if offset > 0 {
		if offset >= len(matching) {
			matching = nil
		} else {
			matching = matching[offset:]
		}
	}
	if count >= 0 && count < len(matching) {
		matching = matching[:count]
	}

	result := make([]string, 0, len(matching))
	for _, item := range matching {
		result = append(result, item.member)
		if withScores {
			result = append(result, FormatScore(item.score))
		}
	}
	return result
}

// Range implements ZRANGE (reverse=false) and ZREVRANGE (reverse=true) by
// rank index, with Python-style negative index normalization. O(k) where k
// is the page size: start/stop index directly into the ordered slice.
func (z *SortedSet) Range(start, stop int, withScores bool, reverse bool) []string {
	length := len(z.ordered)
	if length == 0 {
		return nil
	}

	if start < 0 {
		start = length + start
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop = length + stop
	}
	if stop > length-1 {
		stop = length - 1
	}
	if start > stop {
		return nil
	}

	page := make([]zsetEntry, stop-start+1)
	copy(page, z.ordered[start:stop+1])

	if reverse {
		for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
			page[i], page[j] = page[j], page[i]
		}
	}

	result := make([]string, 0, len(page))
	for _, item := range page {
		result = append(result, item.member)
		if withScores {
			result = append(result, FormatScore(item.score))
		}
	}
	return result
}

// FormatScore renders a score the way Redis does: integral scores without a
// decimal point, infinities as "+inf"/"-inf", everything else via the
// shortest round-trippable decimal representation.
func FormatScore(score float64) string {
	if math.IsInf(score, 1) {
		return "+inf"
	}
	if math.IsInf(score, -1) {
		return "-inf"
	}
	if score == math.Trunc(score) {
		return strconv.FormatFloat(score, 'f', -1, 64)
	}
	return strconv.FormatFloat(score, 'g', -1, 64)
}
