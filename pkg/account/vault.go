package account

import (
	"errors"
	"sync"
	"time"

	"fedchat/e2ee-core/pkg/backend"
)

var ErrVaultLocked = errors.New("account: unlock attempts are temporarily locked")

// Vault holds a sealed pickle and meters unlock attempts: failed
// passphrases trigger an exponential lockout so the argon2 cost cannot
// be brute-forced from a loop.
type Vault struct {
	mu             sync.Mutex
	pickled        []byte
	failedAttempts int
	lockedUntil    time.Time
	now            func() time.Time
}

func NewVault(pickled []byte) *Vault {
	return &Vault{
		pickled: append([]byte(nil), pickled...),
		now:     time.Now,
	}
}

func newVaultWithClock(pickled []byte, now func() time.Time) *Vault {
	v := NewVault(pickled)
	v.now = now
	return v
}

// Unlock restores the account behind the vault. A wrong passphrase
// counts toward the lockout; success resets it.
func (v *Vault) Unlock(b backend.Backend, passphrase string, opts Options) (*Account, error) {
	v.mu.Lock()
	if !v.lockedUntil.IsZero() && v.now().Before(v.lockedUntil) {
		v.mu.Unlock()
		return nil, ErrVaultLocked
	}
	data := append([]byte(nil), v.pickled...)
	v.mu.Unlock()

	acct, err := Unpickle(b, data, passphrase, opts)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.failedAttempts++
		v.lockedUntil = v.now().Add(unlockBackoff(v.failedAttempts))
		return nil, err
	}
	v.failedAttempts = 0
	v.lockedUntil = time.Time{}
	return acct, nil
}

// 1s, 2s, 4s... capped at 32s.
func unlockBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	shift := attempt - 1
	if shift > 5 {
		shift = 5
	}
	return time.Second * time.Duration(1<<shift)
}
