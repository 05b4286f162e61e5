package filter

import (
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/contract"
)

// Condition operators. Set-valued fields take include/exclude (single value)
// and in/notin (comma-separated list); flags take include/exclude; numbers
// and dates take the comparison operators.
const (
	OpInclude   = "include"
	OpExclude   = "exclude"
	OpIn        = "in"
	OpNotIn     = "notin"
	OpEquals    = "equals"
	OpNotEquals = "notequals"
	OpGreater   = "gt"
	OpLess      = "lt"
)

const dateLayout = "2006-01-02"

// Evaluate reports whether the contract satisfies every condition of the
// filter. A condition whose parameter fails to parse evaluates to false, so
// a broken filter shrinks instead of matching everything.
func Evaluate(f *models.GroupFilter, c *contract.GroupContract) bool {
	for _, cond := range f.Conditions {
		if !evalCondition(&cond, c) {
			return false
		}
	}
	return true
}

func evalCondition(cond *models.FilterCondition, c *contract.GroupContract) bool {
	switch contract.ConditionType(cond.Type) {
	case contract.ConditionCompletedSeries:
		return evalFlag(cond, c.IsComplete)
	case contract.ConditionMissingEpisodes:
		return evalFlag(cond, c.MissingEpisodeCount > 0)
	case contract.ConditionMissingEpisodesCollecting:
		return evalFlag(cond, c.MissingEpisodeCountGroups > 0)
	case contract.ConditionTag:
		return evalSet(cond, c.AllTags)
	case contract.ConditionCustomTags:
		return evalSet(cond, c.AllCustomTags)
	case contract.ConditionAirDate:
		return evalDateRange(cond, c.AirDateMin, c.AirDateMax)
	case contract.ConditionLatestEpisodeAirDate:
		return evalDate(cond, c.LatestEpisodeAirDate)
	case contract.ConditionSeriesCreatedDate:
		return evalDate(cond, c.SeriesCreatedDate)
	case contract.ConditionEpisodeAddedDate:
		return evalDate(cond, c.EpisodeAddedDate)
	case contract.ConditionEpisodeCount:
		return evalInt(cond, int64(c.EpisodeCount))
	case contract.ConditionSeriesType:
		return evalSet(cond, c.SeriesTypes)
	case contract.ConditionVideoQuality:
		return evalSet(cond, c.AllVideoQuality)
	case contract.ConditionAudioLanguage:
		return evalSet(cond, c.AudioLanguages)
	case contract.ConditionSubtitleLanguage:
		return evalSet(cond, c.SubtitleLanguages)
	case contract.ConditionAssignedTvDBInfo:
		return evalFlag(cond, c.HasTvDBLink)
	case contract.ConditionAssignedMovieDBInfo:
		return evalFlag(cond, c.HasMovieDBLink)
	case contract.ConditionAssignedMALInfo:
		return evalFlag(cond, c.HasMALLink)
	case contract.ConditionAssignedTvDBOrMovieDBInfo:
		return evalFlag(cond, c.HasMovieDBOrTvDBLink)
	case contract.ConditionFinishedAiring:
		return evalFlag(cond, c.HasFinishedAiring)
	case contract.ConditionGroup:
		return evalInt(cond, c.GroupID)
	case contract.ConditionRating:
		return evalFloat(cond, c.Rating, true)
	case contract.ConditionYear:
		return evalYear(cond, c)
	case contract.ConditionUserVoted:
		return evalFlag(cond, c.UserVotePermanent != nil)
	case contract.ConditionUserVotedAny:
		return evalFlag(cond, c.UserVoteOverall != nil)
	case contract.ConditionUserRating:
		if c.UserVoteOverall == nil {
			return false
		}
		return evalFloat(cond, *c.UserVoteOverall, true)
	case contract.ConditionFavorite:
		return evalFlag(cond, c.IsFavorite)
	case contract.ConditionHasUnwatchedEpisodes:
		return evalFlag(cond, c.UnwatchedEpisodeCount > 0)
	case contract.ConditionHasWatchedEpisodes:
		return evalFlag(cond, c.WatchedEpisodeCount > 0)
	case contract.ConditionEpisodeWatchedDate:
		return evalDate(cond, c.WatchedDate)
	}
	log.WithField("type", cond.Type).Warn("unknown filter condition type")
	return false
}

func evalFlag(cond *models.FilterCondition, v bool) bool {
	switch cond.Operator {
	case OpInclude:
		return v
	case OpExclude:
		return !v
	}
	return false
}

func evalSet(cond *models.FilterCondition, s contract.StringSet) bool {
	switch cond.Operator {
	case OpInclude:
		return s.Has(cond.Parameter)
	case OpExclude:
		return !s.Has(cond.Parameter)
	case OpIn:
		return anyOf(s, cond.Parameter)
	case OpNotIn:
		return !anyOf(s, cond.Parameter)
	}
	return false
}

func anyOf(s contract.StringSet, params string) bool {
	for _, p := range strings.Split(params, ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if s.Has(p) {
			return true
		}
	}
	return false
}

func evalInt(cond *models.FilterCondition, v int64) bool {
	param, err := strconv.ParseInt(strings.TrimSpace(cond.Parameter), 10, 64)
	if err != nil {
		return false
	}
	switch cond.Operator {
	case OpEquals:
		return v == param
	case OpNotEquals:
		return v != param
	case OpGreater:
		return v > param
	case OpLess:
		return v < param
	}
	return false
}

func evalFloat(cond *models.FilterCondition, v float64, known bool) bool {
	if !known {
		return false
	}
	param, err := strconv.ParseFloat(strings.TrimSpace(cond.Parameter), 64)
	if err != nil {
		return false
	}
	switch cond.Operator {
	case OpEquals:
		return v == param
	case OpNotEquals:
		return v != param
	case OpGreater:
		return v > param
	case OpLess:
		return v < param
	}
	return false
}

func evalDate(cond *models.FilterCondition, v *time.Time) bool {
	if v == nil {
		return false
	}
	param, err := time.Parse(dateLayout, strings.TrimSpace(cond.Parameter))
	if err != nil {
		return false
	}
	switch cond.Operator {
	case OpEquals:
		return v.Equal(param)
	case OpGreater:
		return v.After(param)
	case OpLess:
		return v.Before(param)
	}
	return false
}

// evalDateRange compares against the group's airing span: gt means the whole
// span starts after the parameter, lt means it ended before.
func evalDateRange(cond *models.FilterCondition, from, to *time.Time) bool {
	switch cond.Operator {
	case OpGreater:
		return evalDate(cond, from)
	case OpLess:
		return evalDate(cond, to)
	case OpEquals:
		return evalDate(cond, from)
	}
	return false
}

// evalYear checks the parameter year against the group's airing years: the
// span from the first air year to the last air year, open-ended while the
// group is still airing.
func evalYear(cond *models.FilterCondition, c *contract.GroupContract) bool {
	year, err := strconv.Atoi(strings.TrimSpace(cond.Parameter))
	if err != nil {
		return false
	}
	if c.AirDateMin == nil {
		return cond.Operator == OpExclude || cond.Operator == OpNotEquals
	}
	first := c.AirDateMin.Year()
	last := first
	if c.AirDateMax != nil {
		last = c.AirDateMax.Year()
	}
	if c.IsCurrentlyAiring {
		last = time.Now().Year()
	}
	in := year >= first && year <= last
	switch cond.Operator {
	case OpInclude, OpEquals:
		return in
	case OpExclude, OpNotEquals:
		return !in
	}
	return false
}
