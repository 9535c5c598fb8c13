package archive

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Governor bounds how many chunk fetches may be in flight and optionally
// throttles request rate against the archive. Both strategies are optional:
// a nil Governor, or one built with zero limits, imposes nothing.
type Governor struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewGovernor builds a governor. maxInFlight <= 0 disables the permit pool,
// requestsPerSecond <= 0 disables rate limiting.
func NewGovernor(maxInFlight int64, requestsPerSecond float64) *Governor {
	g := &Governor{}
	if maxInFlight > 0 {
		g.sem = semaphore.NewWeighted(maxInFlight)
	}
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return g
}

// Enter waits for the rate limiter and acquires an in-flight permit. The
// returned release func must be called when the fetch completes, success or
// failure; it is safe to call when no permit pool is configured. A canceled
// context aborts the wait and leaves nothing held.
func (g *Governor) Enter(ctx context.Context) (func(), error) {
	release := func() {}
	if g == nil {
		return release, nil
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		release = func() { g.sem.Release(1) }
	}
	return release, nil
}
