// Package securestore seals account pickles. A passphrase is stretched
// with argon2id into an XChaCha20-Poly1305 key; a raw 32-byte key (for
// recovery-key flows) skips the KDF.
package securestore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	pickleMagic     = "FEDPKL1\n"

	kdfTime     = 2
	kdfMemoryKB = 64 * 1024
	kdfThreads  = 1
)

var (
	ErrAuthFailed = errors.New("securestore: authentication failed")
	ErrInvalid    = errors.New("securestore: envelope is invalid")
	ErrBadKeySize = errors.New("securestore: raw key must be 32 bytes")
)

// Envelope is the versioned sealed form. KDF parameters ride along so
// they can be raised later without breaking old pickles.
type Envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// Seal encrypts plaintext under a passphrase and frames the envelope
// for storage by an external collaborator.
func Seal(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := stretch(passphrase, salt)
	defer zeroBytes(key)

	env, err := sealWithKey(key, plaintext)
	if err != nil {
		return nil, err
	}
	env.KDF = "argon2id"
	env.KDFTime = kdfTime
	env.KDFMemoryKB = kdfMemoryKB
	env.KDFThreads = kdfThreads
	env.Salt = salt
	return frame(env)
}

// SealWithKey encrypts plaintext under a raw 32-byte key, bypassing the
// passphrase KDF.
func SealWithKey(key, plaintext []byte) ([]byte, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrBadKeySize
	}
	env, err := sealWithKey(key, plaintext)
	if err != nil {
		return nil, err
	}
	env.KDF = "none"
	return frame(env)
}

// Open decrypts a passphrase-sealed frame.
func Open(passphrase string, data []byte) ([]byte, error) {
	env, err := unframe(data)
	if err != nil {
		return nil, err
	}
	if env.KDF != "argon2id" {
		return nil, ErrInvalid
	}
	key := argon2.IDKey([]byte(passphrase), env.Salt,
		env.KDFTime, env.KDFMemoryKB, env.KDFThreads, chacha20poly1305.KeySize)
	defer zeroBytes(key)
	return openWithKey(key, env)
}

// OpenWithKey decrypts a raw-key-sealed frame.
func OpenWithKey(key []byte, data []byte) ([]byte, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrBadKeySize
	}
	env, err := unframe(data)
	if err != nil {
		return nil, err
	}
	if env.KDF != "none" {
		return nil, ErrInvalid
	}
	return openWithKey(key, env)
}

func sealWithKey(key, plaintext []byte) (*Envelope, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return &Envelope{
		Version:    envelopeVersion,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

func openWithKey(key []byte, env *Envelope) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func frame(env *Envelope) ([]byte, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(pickleMagic), raw...), nil
}

func unframe(data []byte) (*Envelope, error) {
	if !strings.HasPrefix(string(data), pickleMagic) {
		return nil, ErrInvalid
	}
	var env Envelope
	if err := json.Unmarshal(data[len(pickleMagic):], &env); err != nil {
		return nil, ErrInvalid
	}
	if env.Version != envelopeVersion {
		return nil, ErrInvalid
	}
	return &env, nil
}

func stretch(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, kdfTime, kdfMemoryKB, kdfThreads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
