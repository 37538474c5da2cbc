package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"fedchat/e2ee-core/pkg/backend"
	"fedchat/e2ee-core/pkg/models"
	"fedchat/e2ee-core/pkg/securestore"
)

const pickleVersion = 1

var ErrBadPickle = errors.New("account: pickle is invalid")

// Pickle exports the full account state sealed under a passphrase.
// Persistence of the returned bytes is the caller's concern.
func (a *Account) Pickle(passphrase string) ([]byte, error) {
	state, err := a.exportState()
	if err != nil {
		return nil, err
	}
	return securestore.Seal(passphrase, state)
}

// PickleWithKey seals the account state under a raw 32-byte key,
// typically one carried by a recovery encoding.
func (a *Account) PickleWithKey(key []byte) ([]byte, error) {
	state, err := a.exportState()
	if err != nil {
		return nil, err
	}
	return securestore.SealWithKey(key, state)
}

// Unpickle restores an account from a passphrase-sealed pickle. The
// monotonic key counter survives the round trip, so ids handed out
// before the pickle can never be reissued after it.
func Unpickle(b backend.Backend, data []byte, passphrase string, opts Options) (*Account, error) {
	plaintext, err := securestore.Open(passphrase, data)
	if err != nil {
		return nil, err
	}
	return fromState(b, plaintext, opts)
}

// UnpickleWithKey restores an account from a raw-key-sealed pickle.
func UnpickleWithKey(b backend.Backend, data []byte, key []byte, opts Options) (*Account, error) {
	plaintext, err := securestore.OpenWithKey(key, data)
	if err != nil {
		return nil, err
	}
	return fromState(b, plaintext, opts)
}

func (a *Account) exportState() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	pool := make([]models.OneTimeKeyPickle, 0, len(a.oneTimeKeys))
	for _, k := range a.oneTimeKeys {
		pool = append(pool, models.OneTimeKeyPickle{ID: k.id, PrivateKey: k.pair.PrivateBytes()})
	}
	return json.Marshal(models.AccountPickle{
		Version:           pickleVersion,
		Identity:          a.identity,
		IdentityCurvePriv: a.identityCurve.PrivateBytes(),
		IdentityEdPriv:    a.identityEd.PrivateBytes(),
		OneTimeKeys:       pool,
		NextKeyID:         a.nextKeyID,
	})
}

func fromState(b backend.Backend, plaintext []byte, opts Options) (*Account, error) {
	var state models.AccountPickle
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, ErrBadPickle
	}
	if state.Version != pickleVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadPickle, state.Version)
	}

	curve, err := backend.PairFromPrivate(backend.KindCurve25519, state.IdentityCurvePriv)
	if err != nil {
		return nil, err
	}
	ed, err := backend.PairFromPrivate(backend.KindEd25519, state.IdentityEdPriv)
	if err != nil {
		return nil, err
	}

	pool := make([]oneTimeKey, 0, len(state.OneTimeKeys))
	for _, k := range state.OneTimeKeys {
		pair, err := backend.PairFromPrivate(backend.KindCurve25519, k.PrivateKey)
		if err != nil {
			return nil, err
		}
		pool = append(pool, oneTimeKey{id: k.ID, pair: pair})
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].id < pool[j].id })

	// Each id was issued at most once and the counter stays ahead of
	// every id ever issued.
	nextID := state.NextKeyID
	if nextID == 0 {
		nextID = 1
	}
	for i, k := range pool {
		if k.id >= nextID {
			return nil, fmt.Errorf("%w: key id %d outruns counter %d", ErrBadPickle, k.id, nextID)
		}
		if i > 0 && k.id == pool[i-1].id {
			return nil, fmt.Errorf("%w: duplicate key id %d", ErrBadPickle, k.id)
		}
	}

	a := New(b, opts)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initialized = true
	a.fp = fingerprint(ed)
	a.identityCurve = curve
	a.identityEd = ed
	a.identity = state.Identity
	a.oneTimeKeys = pool
	a.nextKeyID = nextID
	return a, nil
}
