// Package resp implements a byte-level codec for RESP2, the wire protocol
// spoken by Redis and Redis-compatible servers.
package resp

// Kind tags the concrete shape a Value holds.
type Kind int

const (
	SimpleString Kind = iota
	Error
	Integer
	BulkString
	Array
)

// Value is the RESP2 tagged union: SimpleString | Error | Integer |
// BulkString | Array. Exactly the fields relevant to Kind are meaningful.
//
// Bulk == nil represents a nil bulk string ($-1\r\n); a present-but-empty
// bulk string is represented by a non-nil zero-length slice. The same
// nil-vs-empty distinction applies to Array via the Items field.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Bulk  []byte
	Items []Value
}

// NewSimpleString builds a SimpleString value.
func NewSimpleString(s string) Value {
	return Value{Kind: SimpleString, Str: s}
}

// NewError builds an Error value. msg should already carry the Redis-style
// error prefix ("ERR ...", "WRONGTYPE ...") where applicable.
func NewError(msg string) Value {
	return Value{Kind: Error, Str: msg}
}

// NewInteger builds an Integer value.
func NewInteger(n int64) Value {
	return Value{Kind: Integer, Int: n}
}

// NewBulkString builds a present BulkString value from b. A nil b here is
// treated the same as an empty string; use NewNilBulkString for $-1.
func NewBulkString(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Kind: BulkString, Bulk: b}
}

// NewBulkStringFromString is a convenience wrapper over NewBulkString.
func NewBulkStringFromString(s string) Value {
	return NewBulkString([]byte(s))
}

// NewNilBulkString builds the nil BulkString ($-1\r\n).
func NewNilBulkString() Value {
	return Value{Kind: BulkString, Bulk: nil}
}

// IsNilBulkString reports whether v is a nil BulkString.
func (v Value) IsNilBulkString() bool {
	return v.Kind == BulkString && v.Bulk == nil
}

// NewArray builds a present Array value from items. A nil items here is
// treated the same as an empty array; use NewNilArray for *-1.
func NewArray(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: Array, Items: items}
}

// NewNilArray builds the nil Array (*-1\r\n).
func NewNilArray() Value {
	return Value{Kind: Array, Items: nil}
}

// IsNilArray reports whether v is a nil Array.
func (v Value) IsNilArray() bool {
	return v.Kind == Array && v.Items == nil
}
