package backend

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// Local is the production backend: stdlib Ed25519 plus X25519 from
// golang.org/x/crypto, keyed from crypto/rand.
type Local struct {
	random io.Reader
}

func NewLocal() *Local {
	return &Local{random: rand.Reader}
}

func (l *Local) GenerateKeyPair(kind Kind) (KeyPair, error) {
	return generateFrom(l.random, kind)
}

func (l *Local) Sign(pair KeyPair, message []byte) (string, error) {
	return signEd25519(pair, message)
}

func (l *Local) Verify(publicKeyB64 string, message []byte, signatureB64 string) (bool, error) {
	return verifyEd25519(publicKeyB64, message, signatureB64)
}

func generateFrom(random io.Reader, kind Kind) (KeyPair, error) {
	switch kind {
	case KindEd25519:
		pub, priv, err := ed25519.GenerateKey(random)
		if err != nil {
			return KeyPair{}, fmt.Errorf("%w: %v", ErrCryptoBackend, err)
		}
		return KeyPair{kind: kind, public: pub, private: priv}, nil
	case KindCurve25519:
		priv := make([]byte, 32)
		if _, err := io.ReadFull(random, priv); err != nil {
			return KeyPair{}, fmt.Errorf("%w: %v", ErrCryptoBackend, err)
		}
		clampScalar(priv)
		pub, err := curvePublic(priv)
		if err != nil {
			return KeyPair{}, err
		}
		return KeyPair{kind: kind, public: pub, private: priv}, nil
	}
	return KeyPair{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func signEd25519(pair KeyPair, message []byte) (string, error) {
	if pair.kind != KindEd25519 || len(pair.private) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("%w: signing requires an ed25519 pair", ErrCryptoBackend)
	}
	sig := ed25519.Sign(ed25519.PrivateKey(pair.private), message)
	return keyEncoding.EncodeToString(sig), nil
}

func verifyEd25519(publicKeyB64 string, message []byte, signatureB64 string) (bool, error) {
	pub, err := keyEncoding.DecodeString(publicKeyB64)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: malformed ed25519 public key", ErrCryptoBackend)
	}
	// The signature is untrusted input: anything undecodable is just a
	// bad signature, indistinguishable from a cryptographic mismatch.
	sig, err := keyEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig), nil
}

func curvePublic(priv []byte) ([]byte, error) {
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoBackend, err)
	}
	return pub, nil
}

// clampScalar applies the standard X25519 scalar clamp.
func clampScalar(priv []byte) {
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64
}
