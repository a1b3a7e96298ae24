package facr

import (
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// ErrSiteUnavailable is returned without sending a request while the
// federation site is considered down.
var ErrSiteUnavailable = crerr.New("federation site is temporarily unavailable")

type BreakerState string

const (
	BreakerClosed  BreakerState = "closed"
	BreakerOpen    BreakerState = "open"
	BreakerProbing BreakerState = "probing"
)

// BreakerConfig mirrors the FACR_CIRCUIT_* settings. HalfOpenProbes is how
// many report requests may test the site after OpenTimeout; all of them must
// reach the site before normal fetching resumes.
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenProbes   int
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenProbes:   1,
	}
}

func (c BreakerConfig) normalized() BreakerConfig {
	defaults := DefaultBreakerConfig()
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaults.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaults.OpenTimeout
	}
	if c.HalfOpenProbes < 1 {
		c.HalfOpenProbes = defaults.HalfOpenProbes
	}
	return c
}

// BreakerStats is a snapshot of the site breaker, surfaced in logs and the
// CLI ingest summary.
type BreakerStats struct {
	State               BreakerState `json:"state"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	Opened              int          `json:"opened"`
	Rejected            int          `json:"rejected"`
	OpenUntil           time.Time    `json:"open_until,omitempty"`
}

// siteBreaker stops hammering fotbal.cz once report requests keep failing
// transiently. Only errors marked errFetchTransient count; a 404 for one
// report says nothing about the site. A 429 or 503 carrying Retry-After keeps
// the breaker open for at least that long.
type siteBreaker struct {
	mu  sync.Mutex
	cfg BreakerConfig
	now func() time.Time

	state        BreakerState
	failures     int
	openUntil    time.Time
	probesFlight int
	probesPassed int
	opened       int
	rejected     int

	onChange func(from, to BreakerState, stats BreakerStats)
}

func newSiteBreaker(cfg BreakerConfig, onChange func(from, to BreakerState, stats BreakerStats)) *siteBreaker {
	return &siteBreaker{
		cfg:      cfg.normalized(),
		now:      time.Now,
		state:    BreakerClosed,
		onChange: onChange,
	}
}

// do runs fetch when the breaker admits a request and records its outcome.
func (b *siteBreaker) do(fetch func() ([]byte, error)) ([]byte, error) {
	if err := b.admit(); err != nil {
		return nil, err
	}
	raw, err := fetch()
	b.record(err)
	return raw, err
}

func (b *siteBreaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.now().Before(b.openUntil) {
			b.rejected++
			return crerr.Wrapf(ErrSiteUnavailable, "retry after %s", b.openUntil.Format(time.RFC3339))
		}
		b.transition(BreakerProbing)
	}
	if b.state == BreakerProbing {
		if b.probesFlight >= b.cfg.HalfOpenProbes {
			b.rejected++
			return crerr.Wrap(ErrSiteUnavailable, "site is being probed")
		}
		b.probesFlight++
	}
	return nil
}

func (b *siteBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil && crerr.Is(err, errFetchTransient) {
		b.recordFailure(retryAfterOf(err))
		return
	}

	switch b.state {
	case BreakerClosed:
		b.failures = 0
	case BreakerProbing:
		b.probesFlight = max(b.probesFlight-1, 0)
		b.probesPassed++
		if b.probesPassed >= b.cfg.HalfOpenProbes && b.probesFlight == 0 {
			b.failures = 0
			b.transition(BreakerClosed)
		}
	}
}

func (b *siteBreaker) recordFailure(retryAfter time.Duration) {
	b.failures++
	switch b.state {
	case BreakerClosed:
		if b.failures < b.cfg.FailureThreshold {
			return
		}
	case BreakerProbing:
		b.probesFlight = max(b.probesFlight-1, 0)
	}
	b.openUntil = b.now().Add(max(b.cfg.OpenTimeout, retryAfter))
	if b.state != BreakerOpen {
		b.opened++
		b.transition(BreakerOpen)
	}
}

// transition must be called with mu held.
func (b *siteBreaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	b.probesFlight = 0
	b.probesPassed = 0
	if b.onChange != nil && from != to {
		b.onChange(from, to, b.snapshot())
	}
}

func (b *siteBreaker) stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

func (b *siteBreaker) snapshot() BreakerStats {
	stats := BreakerStats{
		State:               b.state,
		ConsecutiveFailures: b.failures,
		Opened:              b.opened,
		Rejected:            b.rejected,
	}
	if b.state == BreakerOpen {
		stats.OpenUntil = b.openUntil
	}
	return stats
}
