package fetch

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// newExponential doubles from base up to limit with 50% randomization and no elapsed-time cutoff.
func newExponential(base, limit time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxInterval = limit
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// policyBackOff picks the schedule from the reason of the last failed attempt:
// blocked scrapes back off without a cap, everything else is capped.
type policyBackOff struct {
	blocked   *backoff.ExponentialBackOff
	transient *backoff.ExponentialBackOff
	reason    *string
}

func (p *policyBackOff) NextBackOff() time.Duration {
	if *p.reason == ReasonBlocked {
		return p.blocked.NextBackOff()
	}
	return p.transient.NextBackOff()
}

func (p *policyBackOff) Reset() {
	p.blocked.Reset()
	p.transient.Reset()
}
