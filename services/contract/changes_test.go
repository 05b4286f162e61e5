package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func baseContract() *GroupContract {
	return &GroupContract{
		GroupID:              1,
		AllTags:              NewStringSet("action"),
		AllCustomTags:        NewStringSet(),
		AllTitles:            NewStringSet("Some Show"),
		SeriesTypes:          NewStringSet("tv"),
		AllVideoQuality:      NewStringSet("BluRay"),
		VideoQualityEpisodes: NewStringSet("BluRay"),
		AudioLanguages:       NewStringSet("japanese"),
		SubtitleLanguages:    NewStringSet("english"),
		EpisodeCount:         12,
		AirDateMin:           date(2004, time.April, 1),
		AirDateMax:           date(2004, time.April, 1),
	}
}

func TestDetectChangedConditions_NilOldMeansEverything(t *testing.T) {
	changed := DetectChangedConditions(nil, baseContract())
	require.Equal(t, len(allConditionTypes), len(changed))
	for _, ct := range allConditionTypes {
		assert.True(t, changed.Has(ct), "missing %v", ct)
	}
}

func TestDetectChangedConditions_EqualContractsChangeNothing(t *testing.T) {
	changed := DetectChangedConditions(baseContract(), baseContract())
	assert.Empty(t, changed)
}

func TestDetectChangedConditions_FieldDiffs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *GroupContract)
		want   []ConditionType
	}{
		{
			name:   "tags",
			mutate: func(c *GroupContract) { c.AllTags.Add("comedy") },
			want:   []ConditionType{ConditionTag},
		},
		{
			name:   "episode count",
			mutate: func(c *GroupContract) { c.EpisodeCount = 13 },
			want:   []ConditionType{ConditionEpisodeCount},
		},
		{
			name:   "missing episodes combines both counters",
			mutate: func(c *GroupContract) { c.MissingEpisodeCount = 2 },
			want:   []ConditionType{ConditionMissingEpisodes},
		},
		{
			name:   "missing in other groups flips both conditions",
			mutate: func(c *GroupContract) { c.MissingEpisodeCountGroups = 1 },
			want:   []ConditionType{ConditionMissingEpisodes, ConditionMissingEpisodesCollecting},
		},
		{
			name: "quality of fully present episodes",
			mutate: func(c *GroupContract) {
				c.VideoQualityEpisodes = NewStringSet()
			},
			want: []ConditionType{ConditionVideoQuality},
		},
		{
			name:   "airing state",
			mutate: func(c *GroupContract) { c.IsCurrentlyAiring = true },
			want:   []ConditionType{ConditionFinishedAiring},
		},
		{
			name: "user vote overall unions rating conditions",
			mutate: func(c *GroupContract) {
				v := 8.5
				c.UserVoteOverall = &v
			},
			want: []ConditionType{ConditionUserRating, ConditionUserVotedAny},
		},
		{
			name: "permanent vote",
			mutate: func(c *GroupContract) {
				v := 9.0
				c.UserVotePermanent = &v
			},
			want: []ConditionType{ConditionUserVoted},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := baseContract()
			tc.mutate(next)
			changed := DetectChangedConditions(baseContract(), next)
			require.Equal(t, len(tc.want), len(changed), "got %v", changed.Values())
			for _, ct := range tc.want {
				assert.True(t, changed.Has(ct), "missing %v", ct)
			}
		})
	}
}

func TestDetectChangedConditions_YearSentinel(t *testing.T) {
	old := baseContract()
	next := baseContract()

	// Same calendar year, different day: the air date changed but the year
	// did not.
	next.AirDateMin = date(2004, time.October, 1)
	changed := DetectChangedConditions(old, next)
	assert.True(t, changed.Has(ConditionAirDate))
	assert.False(t, changed.Has(ConditionYear))

	// Dropping the date entirely crosses the nil sentinel.
	next = baseContract()
	next.AirDateMin = nil
	changed = DetectChangedConditions(old, next)
	assert.True(t, changed.Has(ConditionAirDate))
	assert.True(t, changed.Has(ConditionYear))
}
