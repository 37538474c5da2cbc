// Package backend is the capability boundary in front of the elliptic
// curve primitives. Nothing above it touches curve math directly, and a
// deterministic implementation stands in for it under test.
package backend

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrCryptoBackend marks malformed key encodings and backend-internal
	// faults. Operations that hit it must not be retried with the same
	// key material.
	ErrCryptoBackend = errors.New("crypto backend failure")

	ErrUnknownKind = errors.New("unknown key kind")
)

type Kind string

const (
	KindCurve25519 Kind = "curve25519"
	KindEd25519    Kind = "ed25519"
)

// keyEncoding is the unpadded standard base64 used for every public key
// and signature on the wire.
var keyEncoding = base64.RawStdEncoding

// KeyPair holds one generated pair. The private scalar stays opaque:
// it never leaves the backend boundary except through an account pickle.
type KeyPair struct {
	kind    Kind
	public  []byte
	private []byte
}

func (k KeyPair) Kind() Kind { return k.kind }

// PublicBase64 returns the public key in unpadded standard base64.
func (k KeyPair) PublicBase64() string {
	return keyEncoding.EncodeToString(k.public)
}

// PublicBytes returns a copy of the raw public key.
func (k KeyPair) PublicBytes() []byte {
	return append([]byte(nil), k.public...)
}

// IsZero reports whether the pair has no key material.
func (k KeyPair) IsZero() bool {
	return len(k.public) == 0 && len(k.private) == 0
}

// PrivateBytes exposes the raw private scalar for pickling only.
// Callers other than the account export path have no business with it.
func (k KeyPair) PrivateBytes() []byte {
	return append([]byte(nil), k.private...)
}

// PairFromPrivate rebuilds a KeyPair from pickled private material.
func PairFromPrivate(kind Kind, private []byte) (KeyPair, error) {
	switch kind {
	case KindEd25519:
		if len(private) != ed25519.PrivateKeySize {
			return KeyPair{}, fmt.Errorf("%w: ed25519 private key size %d", ErrCryptoBackend, len(private))
		}
		priv := ed25519.PrivateKey(append([]byte(nil), private...))
		pub := priv.Public().(ed25519.PublicKey)
		return KeyPair{kind: kind, public: pub, private: priv}, nil
	case KindCurve25519:
		if len(private) != 32 {
			return KeyPair{}, fmt.Errorf("%w: curve25519 private key size %d", ErrCryptoBackend, len(private))
		}
		pub, err := curvePublic(private)
		if err != nil {
			return KeyPair{}, err
		}
		return KeyPair{kind: kind, public: pub, private: append([]byte(nil), private...)}, nil
	}
	return KeyPair{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Backend is the capability interface over the external crypto library.
type Backend interface {
	// GenerateKeyPair creates a fresh pair of the given kind.
	GenerateKeyPair(kind Kind) (KeyPair, error)

	// Sign signs message with an Ed25519 pair and returns the signature
	// in unpadded base64.
	Sign(pair KeyPair, message []byte) (string, error)

	// Verify checks signatureB64 over message against an Ed25519 public
	// key in unpadded base64. A bad or undecodable signature reports
	// (false, nil); only a malformed public key or internal fault is an
	// error.
	Verify(publicKeyB64 string, message []byte, signatureB64 string) (bool, error)
}
