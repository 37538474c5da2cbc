package backend

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Deterministic is a drop-in Backend whose key material is an HKDF
// stream over a fixed seed. It exists so tests exercise the exact
// signing and verification paths without nondeterministic entropy.
type Deterministic struct {
	stream io.Reader
}

// NewDeterministic returns a backend that yields the same sequence of
// key pairs for the same seed, in generation order.
func NewDeterministic(seed []byte) *Deterministic {
	return &Deterministic{
		stream: hkdf.New(sha256.New, seed, nil, []byte("e2ee-core/test-backend/v1")),
	}
}

func (d *Deterministic) GenerateKeyPair(kind Kind) (KeyPair, error) {
	return generateFrom(d.stream, kind)
}

func (d *Deterministic) Sign(pair KeyPair, message []byte) (string, error) {
	return signEd25519(pair, message)
}

func (d *Deterministic) Verify(publicKeyB64 string, message []byte, signatureB64 string) (bool, error) {
	return verifyEd25519(publicKeyB64, message, signatureB64)
}
