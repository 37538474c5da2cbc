// Package recovery turns a raw 32-byte pickle key into forms a person
// can write down: a base58 recovery key with a parity check, or a
// 24-word mnemonic.
package recovery

import (
	"crypto/rand"
	"errors"

	"github.com/mr-tron/base58/base58"
	"github.com/tyler-smith/go-bip39"
)

const keySize = 32

// Recovery keys carry a two-byte prefix so a pasted string can be told
// apart from other base58 blobs, plus a parity byte that XORs the whole
// payload to zero.
var keyPrefix = []byte{0x8b, 0x01}

var (
	ErrMalformedKey = errors.New("recovery: malformed recovery key")
	ErrBadMnemonic  = errors.New("recovery: invalid mnemonic")
)

// NewKey generates a fresh 32-byte pickle key.
func NewKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncodeKey renders key as a base58 recovery string.
func EncodeKey(key []byte) (string, error) {
	if len(key) != keySize {
		return "", ErrMalformedKey
	}
	buf := make([]byte, 0, len(keyPrefix)+keySize+1)
	buf = append(buf, keyPrefix...)
	buf = append(buf, key...)
	var parity byte
	for _, b := range buf {
		parity ^= b
	}
	buf = append(buf, parity)
	return base58.Encode(buf), nil
}

// DecodeKey parses a recovery string back into the raw key, rejecting
// wrong prefixes, wrong lengths and parity failures.
func DecodeKey(s string) ([]byte, error) {
	buf, err := base58.Decode(s)
	if err != nil {
		return nil, ErrMalformedKey
	}
	if len(buf) != len(keyPrefix)+keySize+1 {
		return nil, ErrMalformedKey
	}
	if buf[0] != keyPrefix[0] || buf[1] != keyPrefix[1] {
		return nil, ErrMalformedKey
	}
	var parity byte
	for _, b := range buf {
		parity ^= b
	}
	if parity != 0 {
		return nil, ErrMalformedKey
	}
	return append([]byte(nil), buf[len(keyPrefix):len(keyPrefix)+keySize]...), nil
}

// KeyToMnemonic renders the key as a 24-word BIP-39 mnemonic.
func KeyToMnemonic(key []byte) (string, error) {
	if len(key) != keySize {
		return "", ErrMalformedKey
	}
	mnemonic, err := bip39.NewMnemonic(key)
	if err != nil {
		return "", ErrMalformedKey
	}
	return mnemonic, nil
}

// KeyFromMnemonic recovers the raw key from its mnemonic form.
func KeyFromMnemonic(mnemonic string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrBadMnemonic
	}
	key, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, ErrBadMnemonic
	}
	if len(key) != keySize {
		return nil, ErrBadMnemonic
	}
	return key, nil
}
