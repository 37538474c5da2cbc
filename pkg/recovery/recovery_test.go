package recovery

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mr-tron/base58/base58"
)

func TestRecoveryKeyRoundtrip(t *testing.T) {
	key, err := NewKey()
	if err != nil {
		t.Fatalf("new key failed: %v", err)
	}
	encoded, err := EncodeKey(key)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeKey(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(key, decoded) {
		t.Fatal("decoded key differs from original")
	}
}

func TestDecodeKeyDetectsCorruption(t *testing.T) {
	key, _ := NewKey()
	encoded, _ := EncodeKey(key)

	// Flip one bit in the raw payload; the parity byte no longer XORs
	// to zero and decoding must refuse.
	raw, err := base58.Decode(encoded)
	if err != nil {
		t.Fatalf("decode raw failed: %v", err)
	}
	raw[10] ^= 0x01
	if _, err := DecodeKey(base58.Encode(raw)); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("expected ErrMalformedKey, got %v", err)
	}

	if _, err := DecodeKey("0OIl"); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("expected ErrMalformedKey for non-base58, got %v", err)
	}
	if _, err := DecodeKey(""); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("expected ErrMalformedKey for empty input, got %v", err)
	}
}

func TestEncodeKeyRejectsWrongSize(t *testing.T) {
	if _, err := EncodeKey([]byte("short")); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("expected ErrMalformedKey, got %v", err)
	}
}

func TestMnemonicRoundtrip(t *testing.T) {
	key, err := NewKey()
	if err != nil {
		t.Fatalf("new key failed: %v", err)
	}
	mnemonic, err := KeyToMnemonic(key)
	if err != nil {
		t.Fatalf("mnemonic encode failed: %v", err)
	}
	if words := strings.Fields(mnemonic); len(words) != 24 {
		t.Fatalf("expected 24 words, got %d", len(words))
	}
	restored, err := KeyFromMnemonic(mnemonic)
	if err != nil {
		t.Fatalf("mnemonic decode failed: %v", err)
	}
	if !bytes.Equal(key, restored) {
		t.Fatal("restored key differs from original")
	}
}

func TestMnemonicRejectsInvalidInput(t *testing.T) {
	if _, err := KeyFromMnemonic("not a valid mnemonic phrase"); !errors.Is(err, ErrBadMnemonic) {
		t.Fatalf("expected ErrBadMnemonic, got %v", err)
	}
}
