package resilience

import "golang.org/x/sync/singleflight"

// SingleFlight deduplicates concurrent calls for the same key, e.g. two
// resolves asking for the same search page at once.
type SingleFlight struct {
	group singleflight.Group
}

func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	return g.group.Do(key, fn)
}
