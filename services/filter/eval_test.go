package filter

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/contract"
)

func evalContract() *contract.GroupContract {
	airMin := time.Date(2003, time.April, 1, 0, 0, 0, 0, time.UTC)
	airMax := time.Date(2004, time.October, 1, 0, 0, 0, 0, time.UTC)
	vote := 8.5
	return &contract.GroupContract{
		GroupID:               42,
		AllTags:               contract.NewStringSet("action", "mecha"),
		AllCustomTags:         contract.NewStringSet(),
		AllTitles:             contract.NewStringSet("Some Show"),
		SeriesTypes:           contract.NewStringSet("tv"),
		AllVideoQuality:       contract.NewStringSet("BluRay", "DVD"),
		VideoQualityEpisodes:  contract.NewStringSet("BluRay"),
		AudioLanguages:        contract.NewStringSet("japanese"),
		SubtitleLanguages:     contract.NewStringSet("english"),
		EpisodeCount:          26,
		AirDateMin:            &airMin,
		AirDateMax:            &airMax,
		HasFinishedAiring:     true,
		IsComplete:            true,
		HasTvDBLink:           true,
		Rating:                8.2,
		UserVoteOverall:       &vote,
		UnwatchedEpisodeCount: 3,
	}
}

func cond(typ contract.ConditionType, op, param string) models.FilterCondition {
	return models.FilterCondition{Type: string(typ), Operator: op, Parameter: param}
}

func TestEvaluate_Conditions(t *testing.T) {
	c := evalContract()
	cases := []struct {
		name string
		cond models.FilterCondition
		want bool
	}{
		{"tag include hit", cond(contract.ConditionTag, OpInclude, "Action"), true},
		{"tag include miss", cond(contract.ConditionTag, OpInclude, "romance"), false},
		{"tag exclude", cond(contract.ConditionTag, OpExclude, "romance"), true},
		{"tag in list", cond(contract.ConditionTag, OpIn, "romance, mecha"), true},
		{"tag notin list", cond(contract.ConditionTag, OpNotIn, "romance, mecha"), false},
		{"flag include", cond(contract.ConditionCompletedSeries, OpInclude, ""), true},
		{"flag exclude", cond(contract.ConditionCompletedSeries, OpExclude, ""), false},
		{"episode count gt", cond(contract.ConditionEpisodeCount, OpGreater, "12"), true},
		{"episode count lt", cond(contract.ConditionEpisodeCount, OpLess, "12"), false},
		{"episode count bad param", cond(contract.ConditionEpisodeCount, OpGreater, "dozens"), false},
		{"rating gt", cond(contract.ConditionRating, OpGreater, "8.0"), true},
		{"user rating gt", cond(contract.ConditionUserRating, OpGreater, "8.0"), true},
		{"air date after", cond(contract.ConditionAirDate, OpGreater, "2003-01-01"), true},
		{"air date before", cond(contract.ConditionAirDate, OpLess, "2005-01-01"), true},
		{"air date bad param", cond(contract.ConditionAirDate, OpGreater, "spring 2003"), false},
		{"year inside span", cond(contract.ConditionYear, OpInclude, "2004"), true},
		{"year outside span", cond(contract.ConditionYear, OpInclude, "2010"), false},
		{"group id", cond(contract.ConditionGroup, OpEquals, "42"), true},
		{"video quality", cond(contract.ConditionVideoQuality, OpInclude, "dvd"), true},
		{"unwatched", cond(contract.ConditionHasUnwatchedEpisodes, OpInclude, ""), true},
		{"voted any", cond(contract.ConditionUserVotedAny, OpInclude, ""), true},
		{"voted permanent", cond(contract.ConditionUserVoted, OpInclude, ""), false},
		{"unknown type", models.FilterCondition{Type: "bogus", Operator: OpInclude}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &models.GroupFilter{Conditions: []models.FilterCondition{tc.cond}}
			assert.Equal(t, tc.want, Evaluate(f, c))
		})
	}
}

func TestEvaluate_AllConditionsMustHold(t *testing.T) {
	c := evalContract()
	f := &models.GroupFilter{Conditions: []models.FilterCondition{
		cond(contract.ConditionTag, OpInclude, "mecha"),
		cond(contract.ConditionEpisodeCount, OpGreater, "100"),
	}}
	assert.False(t, Evaluate(f, c))

	f.Conditions[1].Parameter = "10"
	assert.True(t, Evaluate(f, c))
}

func TestEvaluate_NoConditionsMatchesEverything(t *testing.T) {
	assert.True(t, Evaluate(&models.GroupFilter{}, evalContract()))
}

func TestEvaluate_YearOpenEndedWhileAiring(t *testing.T) {
	c := evalContract()
	c.IsCurrentlyAiring = true
	thisYear := strconv.Itoa(time.Now().Year())
	f := &models.GroupFilter{Conditions: []models.FilterCondition{
		cond(contract.ConditionYear, OpInclude, thisYear),
	}}
	assert.True(t, Evaluate(f, c))
}
