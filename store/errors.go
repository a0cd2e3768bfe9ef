package store

import "errors"

// ErrWrongType is returned when a command targets a key holding a value of
// a different kind than the command expects.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// ErrNotInteger is returned when a stored string value can't be parsed as
// an integer by a command that requires one (e.g. INCR).
var ErrNotInteger = errors.New("ERR value is not an integer")

// ErrHashNotInteger is the HINCRBY-specific variant of ErrNotInteger.
var ErrHashNotInteger = errors.New("ERR hash value is not an integer")

// ErrHashNotFloat is the HINCRBYFLOAT-specific float parse failure.
var ErrHashNotFloat = errors.New("ERR hash value is not a float")

// ErrNaNOrInf is returned when a HINCRBYFLOAT result would be NaN or +/-Inf.
var ErrNaNOrInf = errors.New("ERR increment would produce NaN or Infinity")

// ErrNotFloat is returned when a ZRANGEBYSCORE/ZCOUNT score boundary can't
// be parsed as a float (or -inf/+inf).
var ErrNotFloat = errors.New("ERR min or max is not a float")
