package canonicaljson

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseEncodeIdempotence(t *testing.T) {
	values := []Value{
		Null(),
		Bool(true),
		Int(-42),
		String("日本 \"quoted\" \\slash\\ \n"),
		Array(Int(1), Null(), String("x"), Array(), Object()),
		Object(
			Member{Key: "z", Value: Int(1)},
			Member{Key: "a", Value: Array(Bool(false), Null())},
			Member{Key: "nested", Value: Object(
				Member{Key: "本", Value: Int(2)},
				Member{Key: "日", Value: Int(1)},
			)},
		),
	}
	for _, v := range values {
		first, err := Encode(v)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		parsed, err := Parse(first)
		if err != nil {
			t.Fatalf("parse of canonical output failed: %v (input %s)", err, first)
		}
		second, err := Encode(parsed)
		if err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
		if !bytes.Equal(first, second) {
			t.Fatalf("idempotence violated:\n first %s\nsecond %s", first, second)
		}
	}
}

func TestParseAcceptsEscapedUnicodeAsLiteral(t *testing.T) {
	v, err := Parse([]byte(`{"a": "\u65e5"}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	out, err := Encode(v)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	// The \uXXXX escape collapses to literal UTF-8 in canonical form.
	if string(out) != `{"a":"日"}` {
		t.Fatalf("unexpected canonical form: %s", out)
	}
}

func TestParseRejectsFloats(t *testing.T) {
	for _, input := range []string{`1.5`, `{"a": 2.0}`, `1e3`, `[3E-2]`} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrFloat) {
			t.Fatalf("expected ErrFloat for %q, got %v", input, err)
		}
	}
}

func TestParseRejectsOutOfRangeIntegers(t *testing.T) {
	for _, input := range []string{`9007199254740992`, `-9007199254740992`, `99999999999999999999`} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrIntRange) {
			t.Fatalf("expected ErrIntRange for %q, got %v", input, err)
		}
	}
}

func TestParseRejectsDuplicateKeys(t *testing.T) {
	if _, err := Parse([]byte(`{"a":1,"a":2}`)); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	if _, err := Parse([]byte(`{} {}`)); !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{``, `{`, `{"a":}`, `[1,]`} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrSyntax) {
			t.Fatalf("expected ErrSyntax for %q, got %v", input, err)
		}
	}
}

func TestParseRejectsExcessiveDepth(t *testing.T) {
	input := strings.Repeat("[", MaxDepth+2) + strings.Repeat("]", MaxDepth+2)
	if _, err := Parse([]byte(input)); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func TestParsePreservesArrayOrder(t *testing.T) {
	v, err := Parse([]byte(`[3,1,2]`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	elems := v.Elements()
	if len(elems) != 3 {
		t.Fatalf("unexpected element count: %d", len(elems))
	}
	want := []int64{3, 1, 2}
	for i, e := range elems {
		if got, _ := e.IntValue(); got != want[i] {
			t.Fatalf("element %d: got %d want %d", i, got, want[i])
		}
	}
}
