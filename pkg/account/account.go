// Package account owns an E2EE device's key material: the long-term
// Curve25519/Ed25519 identity pairs, the single-use Curve25519 pool,
// and every signature produced on their behalf.
package account

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"

	"fedchat/e2ee-core/internal/metrics"
	"fedchat/e2ee-core/internal/platform/ratelimiter"
	"fedchat/e2ee-core/pkg/backend"
	"fedchat/e2ee-core/pkg/models"
)

var (
	ErrAlreadyInitialized = errors.New("account: already initialized")
	ErrNotInitialized     = errors.New("account: not initialized")
	ErrIdentityNotSet     = errors.New("account: identity not set")
	ErrIdentityImmutable  = errors.New("account: identity is immutable once set")
	ErrInvalidIdentity    = errors.New("account: user_id and device_id are required")
	ErrInvalidKeyCount    = errors.New("account: key count must be positive")
	ErrPoolLimit          = errors.New("account: one-time key pool limit reached")
	ErrPoolEmpty          = errors.New("account: one-time key pool is empty")
	ErrClaimThrottled     = errors.New("account: one-time key claim throttled")
)

// Algorithms advertised in the device-keys object, in upload order.
const (
	AlgorithmOlm    = "m.olm.v1.curve25519-aes-sha2"
	AlgorithmMegolm = "m.megolm.v1.aes-sha2"
)

type oneTimeKey struct {
	id   uint64
	pair backend.KeyPair
}

// Account is safe for concurrent use: mutators serialize on the write
// lock, snapshots and signing take the read lock so a key id is always
// observed with its public key or not at all.
type Account struct {
	backend backend.Backend
	opts    Options
	log     *slog.Logger
	claims  *ratelimiter.PeerLimiter

	mu            sync.RWMutex
	initialized   bool
	fp            string // fingerprint of the signing key, set on init
	identityCurve backend.KeyPair
	identityEd    backend.KeyPair
	identity      models.Identity
	oneTimeKeys   []oneTimeKey // ascending by id
	nextKeyID     uint64
}

// New returns an uninitialized store bound to a crypto backend.
func New(b backend.Backend, opts Options) *Account {
	if opts.MaxOneTimeKeys <= 0 {
		opts.MaxOneTimeKeys = DefaultOptions().MaxOneTimeKeys
	}
	log := opts.Logger
	if log == nil {
		log = DefaultLogger()
	}
	return &Account{
		backend:   b,
		opts:      opts,
		log:       log,
		claims:    ratelimiter.New(opts.ClaimRPS, opts.ClaimBurst, time.Duration(opts.ClaimIdleTTL)),
		nextKeyID: 1,
	}
}

// CreateAccount generates both identity pairs. It succeeds exactly once
// per store; the pairs are immutable afterwards.
func (a *Account) CreateAccount() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return ErrAlreadyInitialized
	}
	curve, err := a.backend.GenerateKeyPair(backend.KindCurve25519)
	if err != nil {
		return err
	}
	ed, err := a.backend.GenerateKeyPair(backend.KindEd25519)
	if err != nil {
		return err
	}
	a.identityCurve = curve
	a.identityEd = ed
	a.fp = fingerprint(ed)
	a.initialized = true
	a.log.Info("account created", "fingerprint", a.fp)
	return nil
}

// SetIdentity pins the owning user and device. Both values are opaque
// strings here; once set they never change.
func (a *Account) SetIdentity(userID, deviceID string) error {
	if userID == "" || deviceID == "" {
		return ErrInvalidIdentity
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.identity.IsSet() {
		return ErrIdentityImmutable
	}
	a.identity = models.Identity{UserID: userID, DeviceID: deviceID}
	a.log.Debug("identity set", "user_id", userID, "device_id", deviceID)
	return nil
}

// Identity returns the pinned identity, which may be unset.
func (a *Account) Identity() models.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.identity
}

// IdentityKeys returns the public identity keys in unpadded base64.
func (a *Account) IdentityKeys() (models.IdentityKeys, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.initialized {
		return models.IdentityKeys{}, ErrNotInitialized
	}
	return models.IdentityKeys{
		Curve25519: a.identityCurve.PublicBase64(),
		Ed25519:    a.identityEd.PublicBase64(),
	}, nil
}

// Fingerprint is a short human-comparable handle for the signing key.
func (a *Account) Fingerprint() (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.initialized {
		return "", ErrNotInitialized
	}
	return a.fp, nil
}

func fingerprint(ed backend.KeyPair) string {
	sum := blake2b.Sum256(ed.PublicBytes())
	return "fed1" + base58.Encode(sum[:])
}

// GenerateOneTimeKeys appends count fresh Curve25519 pairs to the pool.
// Key ids keep counting up across generations, claims and pickles; an
// id is assigned at most once in the account's lifetime.
func (a *Account) GenerateOneTimeKeys(count int) error {
	if count <= 0 {
		return ErrInvalidKeyCount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return ErrNotInitialized
	}
	if len(a.oneTimeKeys)+count > a.opts.MaxOneTimeKeys {
		return fmt.Errorf("%w: %d unclaimed, %d requested, cap %d",
			ErrPoolLimit, len(a.oneTimeKeys), count, a.opts.MaxOneTimeKeys)
	}
	for i := 0; i < count; i++ {
		pair, err := a.backend.GenerateKeyPair(backend.KindCurve25519)
		if err != nil {
			return err
		}
		a.oneTimeKeys = append(a.oneTimeKeys, oneTimeKey{id: a.nextKeyID, pair: pair})
		a.nextKeyID++
	}
	metrics.OneTimeKeysGenerated.Add(float64(count))
	metrics.OneTimeKeyPoolSize.WithLabelValues(a.fp).Set(float64(len(a.oneTimeKeys)))
	a.log.Debug("one-time keys generated", "count", count, "pool", len(a.oneTimeKeys))
	return nil
}

// OneTimeKeys is a read-only snapshot of the unclaimed pool, keyed by
// key id. It never consumes.
func (a *Account) OneTimeKeys() map[uint64]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[uint64]string, len(a.oneTimeKeys))
	for _, k := range a.oneTimeKeys {
		out[k.id] = k.pair.PublicBase64()
	}
	return out
}

// ClaimOneTimeKey atomically removes and returns the oldest pool entry.
// A claimed id is gone for good: no later snapshot or claim can see it.
// The peer label feeds the optional claim throttle and may be empty.
func (a *Account) ClaimOneTimeKey(peer string) (models.OneTimeKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return models.OneTimeKey{}, ErrNotInitialized
	}
	if len(a.oneTimeKeys) == 0 {
		return models.OneTimeKey{}, ErrPoolEmpty
	}
	// Only a claim that could actually hand out a key spends a token.
	if !a.claims.Allow(peer, time.Now()) {
		return models.OneTimeKey{}, ErrClaimThrottled
	}
	claimed := a.oneTimeKeys[0]
	a.oneTimeKeys = a.oneTimeKeys[1:]
	metrics.OneTimeKeysClaimed.Inc()
	metrics.OneTimeKeyPoolSize.WithLabelValues(a.fp).Set(float64(len(a.oneTimeKeys)))
	a.log.Debug("one-time key claimed", "key_id", claimed.id, "peer_id", peer, "pool", len(a.oneTimeKeys))
	return models.OneTimeKey{ID: claimed.id, PublicKey: claimed.pair.PublicBase64()}, nil
}

// SignMessage signs raw bytes with the Ed25519 identity key.
func (a *Account) SignMessage(message []byte) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.initialized {
		return "", ErrNotInitialized
	}
	sig, err := a.backend.Sign(a.identityEd, message)
	if err != nil {
		return "", err
	}
	metrics.SignaturesCreated.Inc()
	return sig, nil
}
