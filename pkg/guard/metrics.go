package guard

import (
	"errors"
	"time"

	"github.com/Overclock-Validator/bankpda/pkg/pda"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeCommitted          = "committed"
	OutcomeAlreadyInitialized = "already_initialized"
	OutcomeInvalidProof       = "invalid_proof"
	OutcomeUnauthorized       = "unauthorized"
	OutcomeAllocationFailed   = "allocation_failed"
	OutcomeOutcomeUnknown     = "outcome_unknown"
	OutcomeInvalidSeeds       = "invalid_seeds"
	OutcomeError              = "error"
)

// Outcome classifies the result of an initialize call.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeCommitted
	case errors.Is(err, ErrAlreadyInitialized):
		return OutcomeAlreadyInitialized
	case errors.Is(err, ErrInvalidProof):
		return OutcomeInvalidProof
	case errors.Is(err, ErrUnauthorized):
		return OutcomeUnauthorized
	case errors.Is(err, ErrAllocationFailed):
		return OutcomeAllocationFailed
	case errors.Is(err, ErrOutcomeUnknown):
		return OutcomeOutcomeUnknown
	case errors.Is(err, pda.ErrEmptySeeds), errors.Is(err, pda.ErrSeedsTooLong), errors.Is(err, pda.ErrDerivationExhausted):
		return OutcomeInvalidSeeds
	default:
		return OutcomeError
	}
}

type Metrics struct {
	initializeTotal *prometheus.CounterVec
	commitDuration  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		initializeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bankpda",
			Subsystem: "guard",
			Name:      "initialize_total",
			Help:      "Initialize calls by outcome.",
		}, []string{"result"}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bankpda",
			Subsystem: "guard",
			Name:      "commit_duration_seconds",
			Help:      "Time spent waiting for the ledger to commit or reject a conditional write.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	reg.MustRegister(m.initializeTotal, m.commitDuration)
	return m
}

func (m *Metrics) observeResult(err error) {
	if m == nil {
		return
	}
	m.initializeTotal.WithLabelValues(Outcome(err)).Inc()
}

func (m *Metrics) observeCommit(d time.Duration) {
	if m == nil {
		return
	}
	m.commitDuration.Observe(d.Seconds())
}
