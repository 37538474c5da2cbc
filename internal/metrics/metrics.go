// Package metrics exposes counters for the signing core on the default
// prometheus registry. The embedding process decides how to serve them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignaturesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "e2ee_signatures_created_total",
		Help: "Signatures produced with the account identity key.",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "e2ee_signature_verifications_total",
		Help: "Signature verification attempts by outcome.",
	}, []string{"outcome"})

	OneTimeKeysGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "e2ee_one_time_keys_generated_total",
		Help: "One-time keys added to the pool.",
	})

	OneTimeKeysClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "e2ee_one_time_keys_claimed_total",
		Help: "One-time keys handed out and removed from the pool.",
	})

	OneTimeKeyPoolSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "e2ee_one_time_key_pool_size",
		Help: "Unclaimed one-time keys currently in the pool, per account.",
	}, []string{"account"})
)

// VerificationOutcome labels for the Verifications counter.
const (
	OutcomeValid    = "valid"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
)
