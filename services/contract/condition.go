package contract

import "sort"

// ConditionType names a category of contract fields whose change makes saved
// filters declaring it stale.
type ConditionType string

const (
	ConditionCompletedSeries           ConditionType = "completed_series"
	ConditionMissingEpisodes           ConditionType = "missing_episodes"
	ConditionMissingEpisodesCollecting ConditionType = "missing_episodes_collecting"
	ConditionTag                       ConditionType = "tag"
	ConditionCustomTags                ConditionType = "custom_tags"
	ConditionAirDate                   ConditionType = "air_date"
	ConditionLatestEpisodeAirDate      ConditionType = "latest_episode_air_date"
	ConditionSeriesCreatedDate         ConditionType = "series_created_date"
	ConditionEpisodeAddedDate          ConditionType = "episode_added_date"
	ConditionEpisodeCount              ConditionType = "episode_count"
	ConditionSeriesType                ConditionType = "series_type"
	ConditionVideoQuality              ConditionType = "video_quality"
	ConditionAudioLanguage             ConditionType = "audio_language"
	ConditionSubtitleLanguage          ConditionType = "subtitle_language"
	ConditionAssignedTvDBInfo          ConditionType = "assigned_tvdb_info"
	ConditionAssignedMovieDBInfo       ConditionType = "assigned_moviedb_info"
	ConditionAssignedMALInfo           ConditionType = "assigned_mal_info"
	ConditionAssignedTvDBOrMovieDBInfo ConditionType = "assigned_tvdb_or_moviedb_info"
	ConditionFinishedAiring            ConditionType = "finished_airing"
	ConditionGroup                     ConditionType = "group"
	ConditionRating                    ConditionType = "rating"
	ConditionYear                      ConditionType = "year"
	ConditionUserVoted                 ConditionType = "user_voted"
	ConditionUserVotedAny              ConditionType = "user_voted_any"
	ConditionUserRating                ConditionType = "user_rating"
	ConditionFavorite                  ConditionType = "favorite"
	ConditionHasUnwatchedEpisodes      ConditionType = "has_unwatched_episodes"
	ConditionHasWatchedEpisodes        ConditionType = "has_watched_episodes"
	ConditionEpisodeWatchedDate        ConditionType = "episode_watched_date"
)

var allConditionTypes = []ConditionType{
	ConditionCompletedSeries,
	ConditionMissingEpisodes,
	ConditionMissingEpisodesCollecting,
	ConditionTag,
	ConditionCustomTags,
	ConditionAirDate,
	ConditionLatestEpisodeAirDate,
	ConditionSeriesCreatedDate,
	ConditionEpisodeAddedDate,
	ConditionEpisodeCount,
	ConditionSeriesType,
	ConditionVideoQuality,
	ConditionAudioLanguage,
	ConditionSubtitleLanguage,
	ConditionAssignedTvDBInfo,
	ConditionAssignedMovieDBInfo,
	ConditionAssignedMALInfo,
	ConditionAssignedTvDBOrMovieDBInfo,
	ConditionFinishedAiring,
	ConditionGroup,
	ConditionRating,
	ConditionYear,
	ConditionUserVoted,
	ConditionUserVotedAny,
	ConditionUserRating,
	ConditionFavorite,
	ConditionHasUnwatchedEpisodes,
	ConditionHasWatchedEpisodes,
	ConditionEpisodeWatchedDate,
}

type ConditionSet map[ConditionType]struct{}

func NewConditionSet(types ...ConditionType) ConditionSet {
	s := make(ConditionSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// AllConditions is the complete condition-type set the schema defines.
func AllConditions() ConditionSet {
	return NewConditionSet(allConditionTypes...)
}

func (s ConditionSet) Add(types ...ConditionType) {
	for _, t := range types {
		s[t] = struct{}{}
	}
}

func (s ConditionSet) Has(t ConditionType) bool {
	_, ok := s[t]
	return ok
}

func (s ConditionSet) Intersects(types []string) bool {
	for _, t := range types {
		if s.Has(ConditionType(t)) {
			return true
		}
	}
	return false
}

func (s ConditionSet) Copy() ConditionSet {
	c := make(ConditionSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

func (s ConditionSet) Values() []ConditionType {
	vals := make([]ConditionType, 0, len(s))
	for t := range s {
		vals = append(vals, t)
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	return vals
}
