package models

// Identity pins an account to its owner once, before any signed
// identity object is produced. Both fields are opaque protocol strings.
type Identity struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
}

func (i Identity) IsSet() bool {
	return i.UserID != "" && i.DeviceID != ""
}

// IdentityKeys is the public half of an account's long-term pairs,
// both in unpadded base64.
type IdentityKeys struct {
	Curve25519 string `json:"curve25519"`
	Ed25519    string `json:"ed25519"`
}

// OneTimeKey is one published pool entry. The ID is the monotonic
// counter value assigned at generation and is never reissued.
type OneTimeKey struct {
	ID        uint64 `json:"id"`
	PublicKey string `json:"public_key"`
}

// AccountPickle is the export/import contract for account state. It
// round-trips everything an account cannot regenerate: both identity
// private scalars, the unclaimed pool and the counter.
type AccountPickle struct {
	Version           uint32             `json:"version"`
	Identity          Identity           `json:"identity"`
	IdentityCurvePriv []byte             `json:"identity_curve25519_priv"`
	IdentityEdPriv    []byte             `json:"identity_ed25519_priv"`
	OneTimeKeys       []OneTimeKeyPickle `json:"one_time_keys"`
	NextKeyID         uint64             `json:"next_key_id"`
}

type OneTimeKeyPickle struct {
	ID         uint64 `json:"id"`
	PrivateKey []byte `json:"private_key"`
}
