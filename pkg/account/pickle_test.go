package account

import (
	"encoding/json"
	"errors"
	"testing"

	"fedchat/e2ee-core/pkg/backend"
	"fedchat/e2ee-core/pkg/models"
	"fedchat/e2ee-core/pkg/recovery"
	"fedchat/e2ee-core/pkg/securestore"
)

func TestPickleRoundtripPreservesState(t *testing.T) {
	be := backend.NewDeterministic([]byte("seed"))
	a := New(be, testOptions())
	if err := a.CreateAccount(); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := a.SetIdentity("@alice:example.org", "DEV"); err != nil {
		t.Fatalf("set identity failed: %v", err)
	}
	if err := a.GenerateOneTimeKeys(3); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := a.ClaimOneTimeKey(""); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	keysBefore, _ := a.IdentityKeys()
	poolBefore := a.OneTimeKeys()

	data, err := a.Pickle("passphrase")
	if err != nil {
		t.Fatalf("pickle failed: %v", err)
	}
	restored, err := Unpickle(be, data, "passphrase", testOptions())
	if err != nil {
		t.Fatalf("unpickle failed: %v", err)
	}

	keysAfter, err := restored.IdentityKeys()
	if err != nil {
		t.Fatalf("identity keys failed: %v", err)
	}
	if keysAfter != keysBefore {
		t.Fatal("identity keys changed across pickle roundtrip")
	}
	if restored.Identity() != a.Identity() {
		t.Fatal("identity changed across pickle roundtrip")
	}
	poolAfter := restored.OneTimeKeys()
	if len(poolAfter) != len(poolBefore) {
		t.Fatalf("pool size changed: %d vs %d", len(poolAfter), len(poolBefore))
	}
	for id, pub := range poolBefore {
		if poolAfter[id] != pub {
			t.Fatalf("pool entry %d changed across roundtrip", id)
		}
	}

	// The monotonic counter survives: new keys continue after id 3.
	if err := restored.GenerateOneTimeKeys(1); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, ok := restored.OneTimeKeys()[4]; !ok {
		t.Fatal("counter should resume at 4 after unpickling")
	}
	if _, ok := restored.OneTimeKeys()[1]; ok {
		t.Fatal("id 1 was claimed before pickling and must stay gone")
	}
}

func TestUnpickleWrongPassphraseFails(t *testing.T) {
	a := newTestAccount(t, "seed")
	data, err := a.Pickle("passphrase")
	if err != nil {
		t.Fatalf("pickle failed: %v", err)
	}
	_, err = Unpickle(backend.NewLocal(), data, "wrong", testOptions())
	if !errors.Is(err, securestore.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestPickleRequiresInitializedAccount(t *testing.T) {
	a := New(backend.NewLocal(), testOptions())
	if _, err := a.Pickle("passphrase"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestUnpickleRejectsDuplicateKeyIDs(t *testing.T) {
	be := backend.NewDeterministic([]byte("seed"))
	curve, _ := be.GenerateKeyPair(backend.KindCurve25519)
	ed, _ := be.GenerateKeyPair(backend.KindEd25519)
	oneTime, _ := be.GenerateKeyPair(backend.KindCurve25519)

	// A pool carrying the same id twice would let it be claimed twice.
	state, err := json.Marshal(models.AccountPickle{
		Version:           pickleVersion,
		IdentityCurvePriv: curve.PrivateBytes(),
		IdentityEdPriv:    ed.PrivateBytes(),
		OneTimeKeys: []models.OneTimeKeyPickle{
			{ID: 1, PrivateKey: oneTime.PrivateBytes()},
			{ID: 1, PrivateKey: oneTime.PrivateBytes()},
		},
		NextKeyID: 2,
	})
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	data, err := securestore.Seal("passphrase", state)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if _, err := Unpickle(be, data, "passphrase", testOptions()); !errors.Is(err, ErrBadPickle) {
		t.Fatalf("expected ErrBadPickle, got %v", err)
	}
}

func TestPickleWithRecoveryKey(t *testing.T) {
	be := backend.NewDeterministic([]byte("seed"))
	a := New(be, testOptions())
	if err := a.CreateAccount(); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	key, err := recovery.NewKey()
	if err != nil {
		t.Fatalf("new key failed: %v", err)
	}
	data, err := a.PickleWithKey(key)
	if err != nil {
		t.Fatalf("pickle with key failed: %v", err)
	}

	// Round-trip the key through its written-down form first.
	encoded, err := recovery.EncodeKey(key)
	if err != nil {
		t.Fatalf("encode key failed: %v", err)
	}
	decoded, err := recovery.DecodeKey(encoded)
	if err != nil {
		t.Fatalf("decode key failed: %v", err)
	}

	restored, err := UnpickleWithKey(be, data, decoded, testOptions())
	if err != nil {
		t.Fatalf("unpickle with key failed: %v", err)
	}
	want, _ := a.IdentityKeys()
	got, _ := restored.IdentityKeys()
	if got != want {
		t.Fatal("identity keys changed across recovery-key roundtrip")
	}
}
