package canonicaljson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Parse reads a single JSON document into a Value, rejecting everything
// the canonical form cannot carry: non-integer numbers, integers outside
// the safe range, duplicate object keys, excessive nesting and trailing
// data. The stdlib decoder is used only as tokenizer; its map-based
// decoding would silently swallow duplicate keys.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec, 0)
	if err != nil {
		return Value{}, err
	}
	if dec.More() {
		return Value{}, fmt.Errorf("%w: trailing data", ErrSyntax)
	}
	return v, nil
}

func parseValue(dec *json.Decoder, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, ErrTooDeep
	}
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return parseToken(dec, tok, depth)
}

func parseToken(dec *json.Decoder, tok json.Token, depth int) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(t)
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec, depth)
		case '[':
			return parseArray(dec, depth)
		}
	}
	return Value{}, fmt.Errorf("%w: unexpected token %v", ErrSyntax, tok)
}

func parseNumber(n json.Number) (Value, error) {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return Value{}, fmt.Errorf("%w: %q", ErrFloat, s)
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q", ErrIntRange, s)
	}
	if i > maxSafeInt || i < minSafeInt {
		return Value{}, fmt.Errorf("%w: %q", ErrIntRange, s)
	}
	return Int(i), nil
}

func parseObject(dec *json.Decoder, depth int) (Value, error) {
	var members []Member
	seen := make(map[string]struct{})
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("%w: object key %v", ErrSyntax, keyTok)
		}
		if _, dup := seen[key]; dup {
			return Value{}, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		seen[key] = struct{}{}
		val, err := parseValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return Object(members...), nil
}

func parseArray(dec *json.Decoder, depth int) (Value, error) {
	var elems []Value
	for dec.More() {
		val, err := parseValue(dec, depth+1)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, val)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return Array(elems...), nil
}
