package aggregate

import "strings"

// Default exclusion fragments for internal, non-client projects.
var defaultInternalFragments = []string{"iwd", "runners", "dominate"}

const defaultGlobalRate = 155

// Aggregator applies the exclusion rules and rate resolution policy.
type Aggregator struct {
	internalFragments  []string
	excludedWeeklyUser string
	contractors        map[string]bool
	defaultRate        int
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithInternalProjects replaces the internal-project denylist fragments.
func WithInternalProjects(fragments []string) Option {
	return func(a *Aggregator) {
		if len(fragments) == 0 {
			return
		}
		a.internalFragments = make([]string, 0, len(fragments))
		for _, f := range fragments {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				a.internalFragments = append(a.internalFragments, f)
			}
		}
	}
}

// WithExcludedWeeklyUser drops one named user from the weekly buckets only.
func WithExcludedWeeklyUser(name string) Option {
	return func(a *Aggregator) {
		a.excludedWeeklyUser = strings.TrimSpace(name)
	}
}

// WithContractors marks users excluded from bonus eligibility and share
// percentages. Matching is by exact name, case-insensitive.
func WithContractors(names []string) Option {
	return func(a *Aggregator) {
		for _, n := range names {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
				a.contractors[n] = true
			}
		}
	}
}

// WithDefaultRate sets the fallback hourly rate used when the rate table is
// missing or carries no global rate.
func WithDefaultRate(rate int) Option {
	return func(a *Aggregator) {
		if rate > 0 {
			a.defaultRate = rate
		}
	}
}

// New creates an Aggregator with the default exclusion policy.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		internalFragments: defaultInternalFragments,
		contractors:       make(map[string]bool),
		defaultRate:       defaultGlobalRate,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
