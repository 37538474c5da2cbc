// Package canonicaljson produces the deterministic byte form of a JSON
// value that signing and verification operate on: object keys sorted by
// code point, no insignificant whitespace, literal UTF-8, integers only.
package canonicaljson

import (
	"errors"
	"sort"
	"strconv"
	"unicode/utf8"
)

var (
	ErrFloat        = errors.New("canonicaljson: non-integer number")
	ErrDuplicateKey = errors.New("canonicaljson: duplicate object key")
	ErrTooDeep      = errors.New("canonicaljson: nesting too deep")
	ErrIntRange     = errors.New("canonicaljson: integer outside safe range")
	ErrInvalidUTF8  = errors.New("canonicaljson: string is not valid utf-8")
	ErrSyntax       = errors.New("canonicaljson: invalid json")
)

// MaxDepth bounds recursion for both Encode and Parse so pathological
// input fails instead of overflowing the stack.
const MaxDepth = 64

// Signed content must stay representable in every peer implementation,
// so integers are bounded to the IEEE-754 exact range.
const (
	maxSafeInt = 1<<53 - 1
	minSafeInt = -maxSafeInt
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindString
	KindArray
	KindObject
)

// Member is a single object entry. Insertion order is preserved inside a
// Value; only Encode sorts.
type Member struct {
	Key   string
	Value Value
}

// Value is a closed sum over the JSON shapes allowed in signed content.
// Floating point has no representation here on purpose.
type Value struct {
	kind Kind
	b    bool
	i    int64
	s    string
	arr  []Value
	obj  []Member
}

func Null() Value            { return Value{kind: KindNull} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Int(i int64) Value      { return Value{kind: KindInt, i: i} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Array(v ...Value) Value { return Value{kind: KindArray, arr: v} }

// Object builds an object value from members in the given order.
// Duplicate keys are a caller error and surface from Encode.
func Object(members ...Member) Value {
	return Value{kind: KindObject, obj: members}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) BoolValue() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) IntValue() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) StringValue() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Get returns the value stored under key in an object. The first match
// wins, mirroring lookup order before Encode rejects duplicates.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// WithMember returns a copy of an object value with key set to val,
// replacing an existing entry or appending a new one. The receiver is
// left untouched.
func (v Value) WithMember(key string, val Value) Value {
	if v.kind != KindObject {
		return v
	}
	out := make([]Member, len(v.obj), len(v.obj)+1)
	copy(out, v.obj)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = val
			return Value{kind: KindObject, obj: out}
		}
	}
	out = append(out, Member{Key: key, Value: val})
	return Value{kind: KindObject, obj: out}
}

// Without returns a copy of an object value with the given top-level
// keys removed. Nested objects are shared, not copied; values are
// treated as immutable throughout this package.
func (v Value) Without(keys ...string) Value {
	if v.kind != KindObject {
		return v
	}
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := make([]Member, 0, len(v.obj))
	for _, m := range v.obj {
		if _, skip := drop[m.Key]; skip {
			continue
		}
		out = append(out, m)
	}
	return Value{kind: KindObject, obj: out}
}

// Encode serializes v into its canonical byte form. The output is
// bit-exact across implementations: it is the only input ever given to
// the signing primitive.
func Encode(v Value) ([]byte, error) {
	return appendValue(nil, v, 0)
}

func appendValue(dst []byte, v Value, depth int) ([]byte, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}
	switch v.kind {
	case KindNull:
		return append(dst, "null"...), nil
	case KindBool:
		if v.b {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case KindInt:
		if v.i > maxSafeInt || v.i < minSafeInt {
			return nil, ErrIntRange
		}
		return strconv.AppendInt(dst, v.i, 10), nil
	case KindString:
		// Canonical bytes must survive a re-parse unchanged; invalid
		// UTF-8 would be rewritten to U+FFFD on the way back in.
		if !utf8.ValidString(v.s) {
			return nil, ErrInvalidUTF8
		}
		return appendEscaped(dst, v.s), nil
	case KindArray:
		dst = append(dst, '[')
		for i, e := range v.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = appendValue(dst, e, depth+1)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case KindObject:
		members := make([]Member, len(v.obj))
		copy(members, v.obj)
		sort.Slice(members, func(i, j int) bool {
			return members[i].Key < members[j].Key
		})
		dst = append(dst, '{')
		for i, m := range members {
			if i > 0 {
				if m.Key == members[i-1].Key {
					return nil, ErrDuplicateKey
				}
				dst = append(dst, ',')
			}
			if !utf8.ValidString(m.Key) {
				return nil, ErrInvalidUTF8
			}
			dst = appendEscaped(dst, m.Key)
			dst = append(dst, ':')
			var err error
			dst, err = appendValue(dst, m.Value, depth+1)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil
	}
	return nil, ErrSyntax
}

const hexDigits = "0123456789abcdef"

// appendEscaped writes s as a JSON string using only the mandatory
// escapes. Multi-byte characters pass through as raw UTF-8: \uXXXX
// escapes for printable text are forbidden in canonical form.
func appendEscaped(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c >= 0x20:
			dst = append(dst, c)
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		default:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		}
	}
	return append(dst, '"')
}
