package account

import (
	"strconv"

	"fedchat/e2ee-core/pkg/canonicaljson"
)

// deviceKeysLocked builds the device-keys object without a signatures
// member. Signing always happens over this form: the slot the signature
// will occupy must not exist while the bytes are produced.
// Callers hold at least the read lock.
func (a *Account) deviceKeysLocked() (canonicaljson.Value, error) {
	if !a.initialized {
		return canonicaljson.Value{}, ErrNotInitialized
	}
	if !a.identity.IsSet() {
		return canonicaljson.Value{}, ErrIdentityNotSet
	}
	return canonicaljson.Object(
		canonicaljson.Member{Key: "algorithms", Value: canonicaljson.Array(
			canonicaljson.String(AlgorithmOlm),
			canonicaljson.String(AlgorithmMegolm),
		)},
		canonicaljson.Member{Key: "user_id", Value: canonicaljson.String(a.identity.UserID)},
		canonicaljson.Member{Key: "device_id", Value: canonicaljson.String(a.identity.DeviceID)},
		canonicaljson.Member{Key: "keys", Value: canonicaljson.Object(
			canonicaljson.Member{
				Key:   "curve25519:" + a.identity.DeviceID,
				Value: canonicaljson.String(a.identityCurve.PublicBase64()),
			},
			canonicaljson.Member{
				Key:   "ed25519:" + a.identity.DeviceID,
				Value: canonicaljson.String(a.identityEd.PublicBase64()),
			},
		)},
	), nil
}

// SignIdentityKeys signs the canonical device-keys object with the
// Ed25519 identity key and returns the signature.
func (a *Account) SignIdentityKeys() (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.signIdentityKeysLocked()
}

func (a *Account) signIdentityKeysLocked() (string, error) {
	keys, err := a.deviceKeysLocked()
	if err != nil {
		return "", err
	}
	encoded, err := canonicaljson.Encode(keys)
	if err != nil {
		return "", err
	}
	return a.backend.Sign(a.identityEd, encoded)
}

// UploadKeysRequest assembles the full upload-keys payload: the signed
// device-keys object plus every unclaimed one-time key. The
// self-signature is inserted only after the signed bytes were produced.
func (a *Account) UploadKeysRequest() (canonicaljson.Value, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	deviceKeys, err := a.deviceKeysLocked()
	if err != nil {
		return canonicaljson.Value{}, err
	}
	sig, err := a.signIdentityKeysLocked()
	if err != nil {
		return canonicaljson.Value{}, err
	}
	deviceKeys = deviceKeys.WithMember("signatures", canonicaljson.Object(
		canonicaljson.Member{Key: a.identity.UserID, Value: canonicaljson.Object(
			canonicaljson.Member{
				Key:   "ed25519:" + a.identity.DeviceID,
				Value: canonicaljson.String(sig),
			},
		)},
	))

	oneTime := make([]canonicaljson.Member, 0, len(a.oneTimeKeys))
	for _, k := range a.oneTimeKeys {
		oneTime = append(oneTime, canonicaljson.Member{
			Key:   "curve25519:" + strconv.FormatUint(k.id, 10),
			Value: canonicaljson.String(k.pair.PublicBase64()),
		})
	}

	return canonicaljson.Object(
		canonicaljson.Member{Key: "device_keys", Value: deviceKeys},
		canonicaljson.Member{Key: "one_time_keys", Value: canonicaljson.Object(oneTime...)},
	), nil
}
