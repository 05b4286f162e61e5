package stats

import (
	"context"

	"github.com/pkg/errors"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/contract"
)

// UserGroupContract returns the group's contract overlaid with one user's
// watch state. The cached snapshot is copied first, so the overlay never
// leaks into the memoized value. A group without any snapshot yields an
// empty contract rather than nil.
//
// When the user has no watch record yet, the watch-state fields keep their
// defaults and the optional conds set is extended with the condition types
// those fields feed, so filters depending on them still get re-evaluated.
func (a *Aggregator) UserGroupContract(ctx context.Context, g *models.Group, userID int64, conds contract.ConditionSet) (*contract.GroupContract, error) {
	c := a.groups.GetOrEmpty(g).Copy()
	rec, err := a.st.GroupUser(ctx, userID, g.GroupID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get watch record of user %v for group %v", userID, g.GroupID)
	}
	if rec == nil {
		if conds != nil {
			conds.Add(
				contract.ConditionFavorite,
				contract.ConditionHasUnwatchedEpisodes,
				contract.ConditionHasWatchedEpisodes,
				contract.ConditionEpisodeWatchedDate,
			)
		}
		return c, nil
	}
	c.IsFavorite = rec.IsFavorite
	c.WatchedEpisodeCount = rec.WatchedEpisodeCount
	c.UnwatchedEpisodeCount = rec.UnwatchedEpisodeCount
	c.PlayedCount = rec.PlayedCount
	c.WatchedCount = rec.WatchedCount
	c.StoppedCount = rec.StoppedCount
	if rec.WatchedDate != nil {
		d := *rec.WatchedDate
		c.WatchedDate = &d
	}
	return c, nil
}

// UserSeriesContract is the series analogue of UserGroupContract.
func (a *Aggregator) UserSeriesContract(ctx context.Context, ser *models.Series, userID int64) (*contract.SeriesContract, error) {
	c := a.series.GetOrEmpty(ser).Copy()
	rec, err := a.st.SeriesUser(ctx, userID, ser.SeriesID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get watch record of user %v for series %v", userID, ser.SeriesID)
	}
	if rec == nil {
		return c, nil
	}
	c.WatchedEpisodeCount = rec.WatchedEpisodeCount
	c.UnwatchedEpisodeCount = rec.UnwatchedEpisodeCount
	c.PlayedCount = rec.PlayedCount
	c.WatchedCount = rec.WatchedCount
	c.StoppedCount = rec.StoppedCount
	if rec.WatchedDate != nil {
		d := *rec.WatchedDate
		c.WatchedDate = &d
	}
	return c, nil
}
