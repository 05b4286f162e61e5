package stats

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/hierarchy"
	"github.com/koyomi-io/koyomi/services/snapshot"
	"github.com/koyomi-io/koyomi/services/store"
)

// Aggregator recomputes the derived statistics of groups and series: missing
// episode counters, per-user watch counters, and the cached contract
// snapshots. Recomputes of the same group are serialized; different groups
// may be recomputed in parallel.
type Aggregator struct {
	st       store.Store
	resolver *hierarchy.Resolver
	groups   *snapshot.GroupContracts
	series   *snapshot.SeriesContracts
	locks    *keyedMutex
}

func New(st store.Store, resolver *hierarchy.Resolver, groups *snapshot.GroupContracts, series *snapshot.SeriesContracts) *Aggregator {
	return &Aggregator{
		st:       st,
		resolver: resolver,
		groups:   groups,
		series:   series,
		locks:    newKeyedMutex(),
	}
}

// UpdateGroupStats recomputes the requested counter families for one group
// and persists it. Counters are always rebuilt from the child entities, never
// adjusted incrementally, so a second run with unchanged data is a no-op.
func (a *Aggregator) UpdateGroupStats(ctx context.Context, g *models.Group, watchedStats, missingEpisodeStats bool) error {
	if !watchedStats && !missingEpisodeStats {
		return nil
	}
	unlock := a.locks.Lock(g.GroupID)
	defer unlock()

	series, err := a.resolver.AllSeries(ctx, g, true)
	if err != nil {
		return err
	}
	if missingEpisodeStats {
		a.updateMissingEpisodeStats(g, series)
	}
	if watchedStats {
		users, err := a.st.AllUsers(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to list users")
		}
		if err := a.updateWatchedStats(ctx, g, series, users); err != nil {
			return err
		}
	}
	g.UpdatedAt = time.Now()
	if err := a.st.SaveGroup(ctx, g); err != nil {
		return errors.Wrapf(err, "failed to save group %v", g.GroupID)
	}
	return nil
}

// UpdateStatsFromTopLevel recomputes stats for the whole tree under a
// top-level group, deepest groups included, then the top-level group itself.
func (a *Aggregator) UpdateStatsFromTopLevel(ctx context.Context, g *models.Group, watchedStats, missingEpisodeStats bool) error {
	if !g.IsTopLevel() {
		var err error
		g, err = a.resolver.TopLevelGroup(ctx, g)
		if err != nil {
			return err
		}
	}
	children, err := a.resolver.AllChildGroups(ctx, g)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := a.UpdateGroupStats(ctx, child, watchedStats, missingEpisodeStats); err != nil {
			return err
		}
	}
	return a.UpdateGroupStats(ctx, g, watchedStats, missingEpisodeStats)
}

// BatchUpdateStats recomputes stats for many groups sharing one user-list
// lookup. A nil group list is a usage error; asking for neither counter
// family is a fast no-op.
func (a *Aggregator) BatchUpdateStats(ctx context.Context, groups []*models.Group, watchedStats, missingEpisodeStats bool) error {
	if groups == nil {
		return errors.New("group list is required for batch stat update")
	}
	if !watchedStats && !missingEpisodeStats {
		return nil
	}
	users, err := a.st.AllUsers(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list users")
	}
	for _, g := range groups {
		unlock := a.locks.Lock(g.GroupID)
		series, err := a.resolver.AllSeries(ctx, g, true)
		if err != nil {
			unlock()
			return err
		}
		if missingEpisodeStats {
			a.updateMissingEpisodeStats(g, series)
		}
		if watchedStats {
			if err := a.updateWatchedStats(ctx, g, series, users); err != nil {
				unlock()
				return err
			}
		}
		g.UpdatedAt = time.Now()
		err = a.st.SaveGroup(ctx, g)
		unlock()
		if err != nil {
			return errors.Wrapf(err, "failed to save group %v", g.GroupID)
		}
	}
	return nil
}

// updateMissingEpisodeStats sums the missing-episode counters of every series
// in the subtree and tracks the latest episode air date seen.
func (a *Aggregator) updateMissingEpisodeStats(g *models.Group, series []*models.Series) {
	g.MissingEpisodeCount = 0
	g.MissingEpisodeCountGroups = 0
	g.LatestEpisodeAirDate = nil
	for _, ser := range series {
		g.MissingEpisodeCount += ser.MissingEpisodeCount
		g.MissingEpisodeCountGroups += ser.MissingEpisodeCountGroups
		if ser.LatestEpisodeAirDate != nil &&
			(g.LatestEpisodeAirDate == nil || ser.LatestEpisodeAirDate.After(*g.LatestEpisodeAirDate)) {
			d := *ser.LatestEpisodeAirDate
			g.LatestEpisodeAirDate = &d
		}
	}
}

// updateWatchedStats rebuilds every user's watch record for the group from
// the per-series records. Each record is zeroed first, so counters for
// series that left the group disappear rather than linger.
func (a *Aggregator) updateWatchedStats(ctx context.Context, g *models.Group, series []*models.Series, users []*models.User) error {
	for _, u := range users {
		rec, err := a.st.GroupUser(ctx, u.UserID, g.GroupID)
		if err != nil {
			return errors.Wrapf(err, "failed to get watch record of user %v for group %v", u.UserID, g.GroupID)
		}
		if rec == nil {
			rec = &models.GroupUser{UserID: u.UserID, GroupID: g.GroupID}
		}
		rec.ResetStats()
		for _, ser := range series {
			srec, err := a.st.SeriesUser(ctx, u.UserID, ser.SeriesID)
			if err != nil {
				return errors.Wrapf(err, "failed to get watch record of user %v for series %v", u.UserID, ser.SeriesID)
			}
			if srec == nil {
				continue
			}
			rec.WatchedEpisodeCount += srec.WatchedEpisodeCount
			rec.UnwatchedEpisodeCount += srec.UnwatchedEpisodeCount
			rec.PlayedCount += srec.PlayedCount
			rec.WatchedCount += srec.WatchedCount
			rec.StoppedCount += srec.StoppedCount
			if srec.WatchedDate != nil &&
				(rec.WatchedDate == nil || srec.WatchedDate.After(*rec.WatchedDate)) {
				d := *srec.WatchedDate
				rec.WatchedDate = &d
			}
		}
		if err := a.st.SaveGroupUser(ctx, rec); err != nil {
			return errors.Wrapf(err, "failed to save watch record of user %v for group %v", u.UserID, g.GroupID)
		}
	}
	return nil
}

// UpdateSeriesStats rebuilds one user's watch record for a series from the
// per-episode records. Only episodes that have at least one file count toward
// the unwatched backlog.
func (a *Aggregator) UpdateSeriesStats(ctx context.Context, ser *models.Series, userID int64) error {
	rec, err := a.st.SeriesUser(ctx, userID, ser.SeriesID)
	if err != nil {
		return errors.Wrapf(err, "failed to get watch record of user %v for series %v", userID, ser.SeriesID)
	}
	if rec == nil {
		rec = &models.SeriesUser{UserID: userID, SeriesID: ser.SeriesID}
	}
	rec.ResetStats()

	episodes, err := a.st.EpisodesBySeriesID(ctx, ser.SeriesID)
	if err != nil {
		return errors.Wrapf(err, "failed to get episodes of series %v", ser.SeriesID)
	}
	xrefs, err := a.st.EpisodeFilesBySeriesID(ctx, ser.SeriesID)
	if err != nil {
		return errors.Wrapf(err, "failed to get episode files of series %v", ser.SeriesID)
	}
	hasFile := make(map[int64]struct{}, len(xrefs))
	for _, x := range xrefs {
		hasFile[x.EpisodeID] = struct{}{}
	}
	epUsers, err := a.st.EpisodeUsersByUserAndSeries(ctx, userID, ser.SeriesID)
	if err != nil {
		return errors.Wrapf(err, "failed to get episode watch records of user %v for series %v", userID, ser.SeriesID)
	}
	byEpisode := make(map[int64]*models.EpisodeUser, len(epUsers))
	for _, eu := range epUsers {
		byEpisode[eu.EpisodeID] = eu
	}

	for _, ep := range episodes {
		if ep.Type != models.EpisodeTypeNormal && ep.Type != models.EpisodeTypeSpecial {
			continue
		}
		eu := byEpisode[ep.EpisodeID]
		if eu != nil && eu.IsWatched() {
			rec.WatchedEpisodeCount++
			rec.PlayedCount += eu.PlayedCount
			rec.WatchedCount += eu.WatchedCount
			rec.StoppedCount += eu.StoppedCount
			if eu.WatchedDate != nil &&
				(rec.WatchedDate == nil || eu.WatchedDate.After(*rec.WatchedDate)) {
				d := *eu.WatchedDate
				rec.WatchedDate = &d
			}
			continue
		}
		if _, ok := hasFile[ep.EpisodeID]; ok {
			rec.UnwatchedEpisodeCount++
		}
	}

	if err := a.st.SaveSeriesUser(ctx, rec); err != nil {
		return errors.Wrapf(err, "failed to save watch record of user %v for series %v", userID, ser.SeriesID)
	}
	log.WithField("seriesID", ser.SeriesID).
		WithField("userID", userID).
		Debug("recomputed series watch stats")
	return nil
}
