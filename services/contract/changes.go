package contract

import "time"

// DetectChangedConditions diffs an old contract against a freshly computed one
// and returns the condition types whose backing fields changed. A nil old
// contract means there is no previous snapshot: everything is treated as
// changed, including the per-user condition types the field diff below never
// emits.
func DetectChangedConditions(old, new *GroupContract) ConditionSet {
	if old == nil {
		return AllConditions()
	}

	changed := NewConditionSet()

	if old.IsComplete != new.IsComplete {
		changed.Add(ConditionCompletedSeries)
	}
	if (old.MissingEpisodeCount > 0 || old.MissingEpisodeCountGroups > 0) !=
		(new.MissingEpisodeCount > 0 || new.MissingEpisodeCountGroups > 0) {
		changed.Add(ConditionMissingEpisodes)
	}
	if (old.MissingEpisodeCountGroups > 0) != (new.MissingEpisodeCountGroups > 0) {
		changed.Add(ConditionMissingEpisodesCollecting)
	}
	if !old.AllTags.Equals(new.AllTags) {
		changed.Add(ConditionTag)
	}
	if !old.AllCustomTags.Equals(new.AllCustomTags) {
		changed.Add(ConditionCustomTags)
	}
	if !timeEqual(old.AirDateMin, new.AirDateMin) || !timeEqual(old.AirDateMax, new.AirDateMax) {
		changed.Add(ConditionAirDate)
	}
	if !timeEqual(old.LatestEpisodeAirDate, new.LatestEpisodeAirDate) {
		changed.Add(ConditionLatestEpisodeAirDate)
	}
	if !timeEqual(old.SeriesCreatedDate, new.SeriesCreatedDate) {
		changed.Add(ConditionSeriesCreatedDate)
	}
	if !timeEqual(old.EpisodeAddedDate, new.EpisodeAddedDate) {
		changed.Add(ConditionEpisodeAddedDate)
	}
	if old.EpisodeCount != new.EpisodeCount {
		changed.Add(ConditionEpisodeCount)
	}
	if !old.SeriesTypes.Equals(new.SeriesTypes) {
		changed.Add(ConditionSeriesType)
	}
	if !old.AllVideoQuality.Equals(new.AllVideoQuality) ||
		!old.VideoQualityEpisodes.Equals(new.VideoQualityEpisodes) {
		changed.Add(ConditionVideoQuality)
	}
	if !old.AudioLanguages.Equals(new.AudioLanguages) {
		changed.Add(ConditionAudioLanguage)
	}
	if !old.SubtitleLanguages.Equals(new.SubtitleLanguages) {
		changed.Add(ConditionSubtitleLanguage)
	}
	if old.HasTvDBLink != new.HasTvDBLink {
		changed.Add(ConditionAssignedTvDBInfo)
	}
	if old.HasMovieDBLink != new.HasMovieDBLink {
		changed.Add(ConditionAssignedMovieDBInfo)
	}
	if old.HasMALLink != new.HasMALLink {
		changed.Add(ConditionAssignedMALInfo)
	}
	if old.HasMovieDBOrTvDBLink != new.HasMovieDBOrTvDBLink {
		changed.Add(ConditionAssignedTvDBOrMovieDBInfo)
	}
	if old.HasFinishedAiring != new.HasFinishedAiring ||
		old.IsCurrentlyAiring != new.IsCurrentlyAiring {
		changed.Add(ConditionFinishedAiring)
	}
	if old.GroupID != new.GroupID {
		changed.Add(ConditionGroup)
	}
	if old.Rating != new.Rating {
		changed.Add(ConditionRating)
	}

	// Year compares only the calendar year of the minimum air date; a missing
	// date maps to the -1 sentinel so nil<->set transitions within the same
	// year are still caught by the AirDate check above, and year flips across
	// the nil boundary are caught here.
	if yearOf(old.AirDateMin) != yearOf(new.AirDateMin) {
		changed.Add(ConditionYear)
	}

	if !floatEqual(old.UserVotePermanent, new.UserVotePermanent) {
		changed.Add(ConditionUserVoted)
	}
	if !floatEqual(old.UserVoteOverall, new.UserVoteOverall) {
		changed.Add(ConditionUserRating)
		changed.Add(ConditionUserVotedAny)
	}

	return changed
}

func yearOf(t *time.Time) int {
	if t == nil {
		return -1
	}
	return t.Year()
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
