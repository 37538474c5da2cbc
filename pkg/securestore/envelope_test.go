package securestore

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundtrip(t *testing.T) {
	data, err := Seal("pass", []byte("account state"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	plain, err := Open("pass", data)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if string(plain) != "account state" {
		t.Fatalf("unexpected plaintext: %q", string(plain))
	}
}

func TestOpenWrongPassphraseFails(t *testing.T) {
	data, err := Seal("pass", []byte("account state"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if _, err := Open("wrong", data); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestOpenTamperedFailsDeterministically(t *testing.T) {
	data, err := Seal("pass", []byte("account state"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	data[len(data)-2] ^= 0xFF
	_, err = Open("pass", data)
	if !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected auth or envelope failure, got %v", err)
	}
}

func TestRawKeyRoundtripAndKDFMismatch(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	data, err := SealWithKey(key, []byte("raw"))
	if err != nil {
		t.Fatalf("seal with key failed: %v", err)
	}
	plain, err := OpenWithKey(key, data)
	if err != nil {
		t.Fatalf("open with key failed: %v", err)
	}
	if string(plain) != "raw" {
		t.Fatalf("unexpected plaintext: %q", string(plain))
	}
	// A raw-key frame must not open via the passphrase path.
	if _, err := Open("pass", data); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := SealWithKey([]byte("short"), []byte("raw")); !errors.Is(err, ErrBadKeySize) {
		t.Fatalf("expected ErrBadKeySize, got %v", err)
	}
}

func TestOpenRejectsUnframedData(t *testing.T) {
	if _, err := Open("pass", []byte("not a pickle")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
