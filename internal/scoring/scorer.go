// Package scoring computes pair compatibility for the discovery queue.
// Scoring is a pure function of its inputs: no storage access, no hidden
// state, no randomness. Identical inputs always yield identical scores, which
// the queue relies on for a stable sort.
package scoring

import (
	"math"
	"time"
)

// Snapshot is the read-only projection of a profile used as scoring input.
// Optional fields are nil/empty when unknown; hard filters default to
// permissive behavior on missing data.
type Snapshot struct {
	ID                  uint64
	Location            *LatLon
	MatchRadiusKm       float64
	Intent              string // empty = unset
	InterestedInGenders []string
	Gender              string
	Interests           []string
	LastActiveAt        *time.Time
}

// Config holds the intent pair tables. Pairs are unordered.
type Config struct {
	// IncompatibleIntents makes a pair ineligible outright.
	IncompatibleIntents [][2]string
	// OverlapIntents score 20 instead of the default 10.
	OverlapIntents [][2]string
}

// DefaultConfig returns the production intent tables.
func DefaultConfig() Config {
	return Config{
		IncompatibleIntents: [][2]string{
			{"hookups", "long_term"},
			{"hookups", "friendship"},
		},
		OverlapIntents: [][2]string{
			{"casual", "unsure"},
			{"long_term", "unsure"},
			{"friendship", "unsure"},
		},
	}
}

// Scorer scores candidate snapshots against a viewer snapshot.
type Scorer struct {
	incompatible map[string]bool
	overlap      map[string]bool
	now          func() time.Time
}

// New creates a Scorer from the given config.
func New(cfg Config) *Scorer {
	s := &Scorer{
		incompatible: make(map[string]bool),
		overlap:      make(map[string]bool),
		now:          time.Now,
	}
	for _, p := range cfg.IncompatibleIntents {
		s.incompatible[p[0]+"|"+p[1]] = true
		s.incompatible[p[1]+"|"+p[0]] = true
	}
	for _, p := range cfg.OverlapIntents {
		s.overlap[p[0]+"|"+p[1]] = true
		s.overlap[p[1]+"|"+p[0]] = true
	}
	return s
}

// WithNow overrides the clock used by the recency component. Tests use this
// to keep scoring fully deterministic.
func (s *Scorer) WithNow(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score returns the 0-100 compatibility score for candidate from viewer's
// perspective, plus whether the candidate passes the hard filters.
//
// distanceKm < 0 means the distance is unknown (either side has no location);
// the distance filter is then skipped and the distance component scores 0.
func (s *Scorer) Score(viewer, candidate Snapshot, distanceKm float64) (int, bool) {
	if !s.eligible(viewer, candidate, distanceKm) {
		return 0, false
	}

	score := s.distanceComponent(distanceKm, viewer.MatchRadiusKm) +
		s.intentComponent(viewer.Intent, candidate.Intent) +
		s.interestsComponent(viewer.Interests, candidate.Interests) +
		s.recencyComponent(candidate.LastActiveAt)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, true
}

func (s *Scorer) eligible(viewer, candidate Snapshot, distanceKm float64) bool {
	if distanceKm >= 0 && viewer.MatchRadiusKm > 0 && distanceKm > viewer.MatchRadiusKm {
		return false
	}

	if len(viewer.InterestedInGenders) > 0 && candidate.Gender != "" {
		found := false
		for _, g := range viewer.InterestedInGenders {
			if g == candidate.Gender {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if viewer.Intent != "" && candidate.Intent != "" &&
		s.incompatible[viewer.Intent+"|"+candidate.Intent] {
		return false
	}

	return true
}

// distanceComponent: 0-30, linear decay inside the radius.
// Well-defined even for out-of-radius inputs (scores 0) so it can be reused
// outside the filtered path.
func (s *Scorer) distanceComponent(distanceKm, radiusKm float64) int {
	if distanceKm < 0 || radiusKm <= 0 || distanceKm > radiusKm {
		return 0
	}
	return int(math.Round(30 * (1 - distanceKm/radiusKm)))
}

// intentComponent: 30 identical non-null, 20 compatible overlap, 10 otherwise
// (including either side unset).
func (s *Scorer) intentComponent(viewerIntent, candidateIntent string) int {
	if viewerIntent != "" && viewerIntent == candidateIntent {
		return 30
	}
	if viewerIntent != "" && candidateIntent != "" &&
		s.overlap[viewerIntent+"|"+candidateIntent] {
		return 20
	}
	return 10
}

// interestsComponent: 0-30 proportional to the shared fraction, measured
// against the larger of the two sets. 0 if either set is empty.
func (s *Scorer) interestsComponent(viewerInterests, candidateInterests []string) int {
	if len(viewerInterests) == 0 || len(candidateInterests) == 0 {
		return 0
	}

	set := make(map[string]bool, len(viewerInterests))
	for _, in := range viewerInterests {
		set[in] = true
	}
	shared := 0
	for _, in := range candidateInterests {
		if set[in] {
			shared++
		}
	}

	max := len(viewerInterests)
	if len(candidateInterests) > max {
		max = len(candidateInterests)
	}
	return int(math.Round(30 * float64(shared) / float64(max)))
}

// recencyComponent: 10/6/3 at 1h/24h/72h, 0 beyond or unknown.
func (s *Scorer) recencyComponent(lastActiveAt *time.Time) int {
	if lastActiveAt == nil {
		return 0
	}
	since := s.now().Sub(*lastActiveAt)
	switch {
	case since <= time.Hour:
		return 10
	case since <= 24*time.Hour:
		return 6
	case since <= 72*time.Hour:
		return 3
	default:
		return 0
	}
}
