package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ember-dating/engine/internal/scoring"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newScorer() *scoring.Scorer {
	return scoring.New(scoring.DefaultConfig()).WithNow(func() time.Time { return testNow })
}

func activeAgo(d time.Duration) *time.Time {
	t := testNow.Add(-d)
	return &t
}

func TestScoreScenario(t *testing.T) {
	// viewer radius 10km, intent casual, 5 interests; candidate 5km away,
	// intent casual, 3 shared interests, active 30 minutes ago.
	s := newScorer()

	viewer := scoring.Snapshot{
		MatchRadiusKm:       10,
		Intent:              "casual",
		InterestedInGenders: []string{"female"},
		Interests:           []string{"hiking", "music", "travel", "yoga", "cinema"},
	}
	candidate := scoring.Snapshot{
		Gender:       "female",
		Intent:       "casual",
		Interests:    []string{"hiking", "music", "travel"},
		LastActiveAt: activeAgo(30 * time.Minute),
	}

	score, eligible := s.Score(viewer, candidate, 5)
	assert.True(t, eligible)
	// 15 distance + 30 intent + 18 interests + 10 recency
	assert.Equal(t, 73, score)
}

func TestScoreDeterministic(t *testing.T) {
	s := newScorer()

	viewer := scoring.Snapshot{
		MatchRadiusKm: 50,
		Intent:        "long_term",
		Interests:     []string{"reading", "cooking"},
	}
	candidate := scoring.Snapshot{
		Intent:       "unsure",
		Interests:    []string{"cooking", "gaming", "climbing"},
		LastActiveAt: activeAgo(3 * time.Hour),
	}

	first, firstOK := s.Score(viewer, candidate, 12.3)
	for i := 0; i < 10; i++ {
		score, ok := s.Score(viewer, candidate, 12.3)
		assert.Equal(t, first, score)
		assert.Equal(t, firstOK, ok)
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.LessOrEqual(t, first, 100)
}

func TestDistanceFilter(t *testing.T) {
	s := newScorer()

	viewer := scoring.Snapshot{MatchRadiusKm: 10}
	candidate := scoring.Snapshot{}

	_, eligible := s.Score(viewer, candidate, 11)
	assert.False(t, eligible, "candidate outside radius must be ineligible")

	_, eligible = s.Score(viewer, candidate, 10)
	assert.True(t, eligible)

	// unknown distance skips the filter
	_, eligible = s.Score(viewer, candidate, -1)
	assert.True(t, eligible)
}

func TestGenderFilter(t *testing.T) {
	s := newScorer()

	viewer := scoring.Snapshot{MatchRadiusKm: 50, InterestedInGenders: []string{"female"}}

	_, eligible := s.Score(viewer, scoring.Snapshot{Gender: "male"}, 5)
	assert.False(t, eligible)

	_, eligible = s.Score(viewer, scoring.Snapshot{Gender: "female"}, 5)
	assert.True(t, eligible)

	// empty preference set is permissive
	_, eligible = s.Score(scoring.Snapshot{MatchRadiusKm: 50}, scoring.Snapshot{Gender: "male"}, 5)
	assert.True(t, eligible)
}

func TestIncompatibleIntents(t *testing.T) {
	s := newScorer()

	cases := [][2]string{
		{"hookups", "long_term"},
		{"long_term", "hookups"},
		{"hookups", "friendship"},
		{"friendship", "hookups"},
	}
	for _, c := range cases {
		viewer := scoring.Snapshot{MatchRadiusKm: 50, Intent: c[0]}
		candidate := scoring.Snapshot{Intent: c[1]}
		_, eligible := s.Score(viewer, candidate, 5)
		assert.False(t, eligible, "%s vs %s should be ineligible", c[0], c[1])
	}

	// null intent on either side never hard-filters
	_, eligible := s.Score(scoring.Snapshot{MatchRadiusKm: 50, Intent: "hookups"}, scoring.Snapshot{}, 5)
	assert.True(t, eligible)
}

func TestIntentComponent(t *testing.T) {
	s := newScorer()
	base := scoring.Snapshot{MatchRadiusKm: 50}

	// overlap pair scores 20, default 10; isolate by leaving everything
	// else empty so only the intent component contributes.
	overlap := base
	overlap.Intent = "casual"
	score, _ := s.Score(overlap, scoring.Snapshot{Intent: "unsure"}, -1)
	assert.Equal(t, 20, score)

	score, _ = s.Score(overlap, scoring.Snapshot{Intent: "friendship"}, -1)
	assert.Equal(t, 10, score)

	score, _ = s.Score(base, scoring.Snapshot{}, -1)
	assert.Equal(t, 10, score, "both intents unset scores the default 10")
}

func TestInterestsComponent(t *testing.T) {
	s := newScorer()

	viewer := scoring.Snapshot{
		MatchRadiusKm: 50,
		Interests:     []string{"a", "b", "c", "d", "e"},
	}

	// no candidate interests → component is 0 (10 = intent default only)
	score, _ := s.Score(viewer, scoring.Snapshot{}, -1)
	assert.Equal(t, 10, score)

	// full overlap against the larger set size
	score, _ = s.Score(viewer, scoring.Snapshot{Interests: []string{"a", "b", "c", "d", "e"}}, -1)
	assert.Equal(t, 40, score) // 30 interests + 10 intent default
}

func TestRecencyTiers(t *testing.T) {
	s := newScorer()
	viewer := scoring.Snapshot{MatchRadiusKm: 50}

	cases := []struct {
		ago  time.Duration
		want int
	}{
		{30 * time.Minute, 10},
		{5 * time.Hour, 6},
		{48 * time.Hour, 3},
		{100 * time.Hour, 0},
	}
	for _, c := range cases {
		score, _ := s.Score(viewer, scoring.Snapshot{LastActiveAt: activeAgo(c.ago)}, -1)
		assert.Equal(t, 10+c.want, score, "active %v ago", c.ago) // +10 intent default
	}

	// unknown last-active scores 0
	score, _ := s.Score(viewer, scoring.Snapshot{}, -1)
	assert.Equal(t, 10, score)
}

func TestDistanceKm(t *testing.T) {
	london := scoring.LatLon{Lat: 51.5074, Lon: -0.1278}
	paris := scoring.LatLon{Lat: 48.8566, Lon: 2.3522}

	d := scoring.DistanceKm(london, paris)
	assert.InDelta(t, 344, d, 5)

	assert.Zero(t, scoring.DistanceKm(london, london))
}

func TestSnapshotDistanceUnknown(t *testing.T) {
	with := scoring.Snapshot{Location: &scoring.LatLon{Lat: 1, Lon: 1}}
	without := scoring.Snapshot{}

	assert.Equal(t, float64(-1), scoring.SnapshotDistanceKm(with, without))
	assert.Equal(t, float64(-1), scoring.SnapshotDistanceKm(without, with))
}
