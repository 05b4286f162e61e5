package contract

import "time"

// GroupContract is the cached snapshot of every derived statistic clients and
// filters consume for a group. It is rebuilt as a whole by the aggregator --
// never partially mutated -- and serialized into the group's contract blob.
//
// The watch-state fields are zero in the cached snapshot; they are overlaid
// per user when the contract is read on a user's behalf.
type GroupContract struct {
	GroupID         int64  `json:"group_id"`
	ParentGroupID   *int64 `json:"parent_group_id,omitempty"`
	DefaultSeriesID *int64 `json:"default_series_id,omitempty"`
	Name            string `json:"name"`
	SortName        string `json:"sort_name"`
	Description     string `json:"description"`

	MissingEpisodeCount       int        `json:"missing_episode_count"`
	MissingEpisodeCountGroups int        `json:"missing_episode_count_groups"`
	LatestEpisodeAirDate      *time.Time `json:"latest_episode_air_date,omitempty"`
	EpisodeAddedDate          *time.Time `json:"episode_added_date,omitempty"`
	UpdatedAt                 time.Time  `json:"updated_at"`

	// Per-user overlay.
	IsFavorite            bool       `json:"is_favorite"`
	WatchedEpisodeCount   int        `json:"watched_episode_count"`
	UnwatchedEpisodeCount int        `json:"unwatched_episode_count"`
	PlayedCount           int        `json:"played_count"`
	WatchedCount          int        `json:"watched_count"`
	StoppedCount          int        `json:"stopped_count"`
	WatchedDate           *time.Time `json:"watched_date,omitempty"`

	// Aggregated statistics.
	AllTags              StringSet  `json:"all_tags"`
	AllCustomTags        StringSet  `json:"all_custom_tags"`
	AllTitles            StringSet  `json:"all_titles"`
	SeriesTypes          StringSet  `json:"series_types"`
	AllVideoQuality      StringSet  `json:"all_video_quality"`
	VideoQualityEpisodes StringSet  `json:"video_quality_episodes"`
	AudioLanguages       StringSet  `json:"audio_languages"`
	SubtitleLanguages    StringSet  `json:"subtitle_languages"`
	IsComplete           bool       `json:"is_complete"`
	HasFinishedAiring    bool       `json:"has_finished_airing"`
	IsCurrentlyAiring    bool       `json:"is_currently_airing"`
	HasTvDBLink          bool       `json:"has_tvdb_link"`
	HasMovieDBLink       bool       `json:"has_moviedb_link"`
	HasMALLink           bool       `json:"has_mal_link"`
	HasMovieDBOrTvDBLink bool       `json:"has_moviedb_or_tvdb_link"`
	SeriesCount          int        `json:"series_count"`
	EpisodeCount         int        `json:"episode_count"`
	AirDateMin           *time.Time `json:"air_date_min,omitempty"`
	AirDateMax           *time.Time `json:"air_date_max,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	SeriesCreatedDate    *time.Time `json:"series_created_date,omitempty"`
	Rating               float64    `json:"rating"`
	UserVoteOverall      *float64   `json:"user_vote_overall,omitempty"`
	UserVotePermanent    *float64   `json:"user_vote_permanent,omitempty"`
	UserVoteTemporary    *float64   `json:"user_vote_temporary,omitempty"`
}

// Copy returns an independent copy; set and pointer fields are duplicated so
// overlaying user state never touches the memoized snapshot.
func (c *GroupContract) Copy() *GroupContract {
	cp := *c
	cp.ParentGroupID = copyInt64(c.ParentGroupID)
	cp.DefaultSeriesID = copyInt64(c.DefaultSeriesID)
	cp.LatestEpisodeAirDate = copyTime(c.LatestEpisodeAirDate)
	cp.EpisodeAddedDate = copyTime(c.EpisodeAddedDate)
	cp.WatchedDate = copyTime(c.WatchedDate)
	cp.AllTags = c.AllTags.Copy()
	cp.AllCustomTags = c.AllCustomTags.Copy()
	cp.AllTitles = c.AllTitles.Copy()
	cp.SeriesTypes = c.SeriesTypes.Copy()
	cp.AllVideoQuality = c.AllVideoQuality.Copy()
	cp.VideoQualityEpisodes = c.VideoQualityEpisodes.Copy()
	cp.AudioLanguages = c.AudioLanguages.Copy()
	cp.SubtitleLanguages = c.SubtitleLanguages.Copy()
	cp.AirDateMin = copyTime(c.AirDateMin)
	cp.AirDateMax = copyTime(c.AirDateMax)
	cp.EndDate = copyTime(c.EndDate)
	cp.SeriesCreatedDate = copyTime(c.SeriesCreatedDate)
	cp.UserVoteOverall = copyFloat(c.UserVoteOverall)
	cp.UserVotePermanent = copyFloat(c.UserVotePermanent)
	cp.UserVoteTemporary = copyFloat(c.UserVoteTemporary)
	return &cp
}

// SeriesContract is the per-series snapshot, a reduced analogue of
// GroupContract.
type SeriesContract struct {
	SeriesID int64  `json:"series_id"`
	GroupID  int64  `json:"group_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`

	AirDate *time.Time `json:"air_date,omitempty"`
	EndDate *time.Time `json:"end_date,omitempty"`

	EpisodeCountNormal        int        `json:"episode_count_normal"`
	EpisodeCountSpecial       int        `json:"episode_count_special"`
	MissingEpisodeCount       int        `json:"missing_episode_count"`
	MissingEpisodeCountGroups int        `json:"missing_episode_count_groups"`
	LatestEpisodeAirDate      *time.Time `json:"latest_episode_air_date,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`

	// Per-user overlay.
	WatchedEpisodeCount   int        `json:"watched_episode_count"`
	UnwatchedEpisodeCount int        `json:"unwatched_episode_count"`
	PlayedCount           int        `json:"played_count"`
	WatchedCount          int        `json:"watched_count"`
	StoppedCount          int        `json:"stopped_count"`
	WatchedDate           *time.Time `json:"watched_date,omitempty"`
}

func (c *SeriesContract) Copy() *SeriesContract {
	cp := *c
	cp.AirDate = copyTime(c.AirDate)
	cp.EndDate = copyTime(c.EndDate)
	cp.LatestEpisodeAirDate = copyTime(c.LatestEpisodeAirDate)
	cp.WatchedDate = copyTime(c.WatchedDate)
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyInt64(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
