// Package version implements the monotone logical version clock used to
// stamp container meta-values (spec C3): versions are wall-clock seconds,
// bumped by one when multiple updates land within the same second.
package version

// Env supplies the current wall-clock time, seconds since epoch. Injected
// rather than called directly so tests can pin time.
type Env interface {
	NowSeconds() uint64
}

// EnvFunc adapts a function to Env.
type EnvFunc func() uint64

func (f EnvFunc) NowSeconds() uint64 { return f() }

// Clock generates new logical versions from an Env.
type Clock struct {
	Env Env
}

// NewClock returns a Clock driven by the given Env.
func NewClock(env Env) *Clock {
	return &Clock{Env: env}
}

// Update returns a new version v' such that v' > prev and v' >= NowSeconds().
//
//	t  := now()
//	v' := (t > prev) ? t : prev + 1
func (c *Clock) Update(prev uint64) uint64 {
	t := c.Env.NowSeconds()
	if t > prev {
		return t
	}
	return prev + 1
}
