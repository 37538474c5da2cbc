// Package verify checks the signatures embedded in protocol objects
// received from peers. It is a trust boundary: every failure mode —
// malformed object, missing signature path, canonicalization mismatch,
// cryptographic mismatch — collapses to a plain false so callers cannot
// build an oracle out of the reason.
package verify

import (
	"fedchat/e2ee-core/internal/metrics"
	"fedchat/e2ee-core/pkg/backend"
	"fedchat/e2ee-core/pkg/canonicaljson"
)

// Verifier validates signed objects against a known signing key.
// It is stateless and safe for concurrent use.
type Verifier struct {
	backend backend.Backend
}

func New(b backend.Backend) *Verifier {
	return &Verifier{backend: b}
}

// VerifySignature reconstructs the exact bytes a peer signed — the
// canonical form of obj with `signatures` and `unsigned` absent — and
// checks the signature found at signatures[userID]["ed25519:"+deviceID]
// against signingKeyB64. It never returns an error: untrusted input
// yields true or false, nothing else.
func (v *Verifier) VerifySignature(obj canonicaljson.Value, deviceID, userID, signingKeyB64 string) bool {
	if obj.Kind() != canonicaljson.KindObject {
		return v.reject()
	}

	// The expected signature is read from the original object before
	// anything is stripped.
	signatures, ok := obj.Get("signatures")
	if !ok {
		return v.reject()
	}
	byUser, ok := signatures.Get(userID)
	if !ok {
		return v.reject()
	}
	sigValue, ok := byUser.Get("ed25519:" + deviceID)
	if !ok {
		return v.reject()
	}
	sig, ok := sigValue.StringValue()
	if !ok {
		return v.reject()
	}

	stripped := obj.Without("unsigned", "signatures")
	message, err := canonicaljson.Encode(stripped)
	if err != nil {
		return v.reject()
	}

	valid, err := v.backend.Verify(signingKeyB64, message, sig)
	if err != nil || !valid {
		metrics.Verifications.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return false
	}
	metrics.Verifications.WithLabelValues(metrics.OutcomeValid).Inc()
	return true
}

// VerifySignatureJSON parses raw JSON and verifies it. Unparseable
// input is just another verification failure.
func (v *Verifier) VerifySignatureJSON(raw []byte, deviceID, userID, signingKeyB64 string) bool {
	obj, err := canonicaljson.Parse(raw)
	if err != nil {
		return v.reject()
	}
	return v.VerifySignature(obj, deviceID, userID, signingKeyB64)
}

func (v *Verifier) reject() bool {
	metrics.Verifications.WithLabelValues(metrics.OutcomeRejected).Inc()
	return false
}
