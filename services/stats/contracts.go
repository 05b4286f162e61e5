package stats

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/contract"
	"github.com/koyomi-io/koyomi/services/snapshot"
)

// batchLookups holds the read-only lookups shared by every group in a batch.
// They are computed once before any contract is touched and never mutated
// afterwards.
type batchLookups struct {
	seriesByGroup map[int64][]*models.Series
	tags          map[int64][]string
	customTags    map[int64][]string
	titles        map[int64][]*models.SeriesTitle
	audioLangs    map[int64][]string
	subLangs      map[int64][]string
	tvdbRefs      map[int64][]*models.CatalogRef
	moviedbRefs   map[int64][]*models.CatalogRef
	malRefs       map[int64][]*models.CatalogRef
	videoQuality  map[int64][]string
	votes         map[int64]*GroupVotes
}

func (a *Aggregator) loadBatchLookups(ctx context.Context, groups []*models.Group) (*batchLookups, error) {
	l := &batchLookups{seriesByGroup: make(map[int64][]*models.Series, len(groups))}
	groupIDs := make([]int64, 0, len(groups))
	var seriesIDs []int64
	for _, g := range groups {
		series, err := a.resolver.AllSeries(ctx, g, true)
		if err != nil {
			return nil, err
		}
		l.seriesByGroup[g.GroupID] = series
		groupIDs = append(groupIDs, g.GroupID)
		for _, ser := range series {
			seriesIDs = append(seriesIDs, ser.SeriesID)
		}
	}

	var err error
	if l.tags, err = a.st.TagsBySeriesIDs(ctx, seriesIDs); err != nil {
		return nil, errors.Wrap(err, "failed to load tags for batch")
	}
	if l.customTags, err = a.st.CustomTagsBySeriesIDs(ctx, seriesIDs); err != nil {
		return nil, errors.Wrap(err, "failed to load custom tags for batch")
	}
	if l.titles, err = a.st.TitlesBySeriesIDs(ctx, seriesIDs); err != nil {
		return nil, errors.Wrap(err, "failed to load titles for batch")
	}
	if l.audioLangs, err = a.st.AudioLanguagesBySeriesIDs(ctx, seriesIDs); err != nil {
		return nil, errors.Wrap(err, "failed to load audio languages for batch")
	}
	if l.subLangs, err = a.st.SubtitleLanguagesBySeriesIDs(ctx, seriesIDs); err != nil {
		return nil, errors.Wrap(err, "failed to load subtitle languages for batch")
	}
	if l.tvdbRefs, err = a.st.CatalogRefsBySeriesIDs(ctx, models.CatalogTvDB, seriesIDs); err != nil {
		return nil, errors.Wrap(err, "failed to load tvdb refs for batch")
	}
	if l.moviedbRefs, err = a.st.CatalogRefsBySeriesIDs(ctx, models.CatalogMovieDB, seriesIDs); err != nil {
		return nil, errors.Wrap(err, "failed to load moviedb refs for batch")
	}
	if l.malRefs, err = a.st.CatalogRefsBySeriesIDs(ctx, models.CatalogMAL, seriesIDs); err != nil {
		return nil, errors.Wrap(err, "failed to load mal refs for batch")
	}
	if l.videoQuality, err = a.st.VideoQualityByGroupIDs(ctx, groupIDs); err != nil {
		return nil, errors.Wrap(err, "failed to load video quality for batch")
	}
	if l.votes, err = a.BatchVotes(ctx, l.seriesByGroup); err != nil {
		return nil, err
	}
	return l, nil
}

// BatchUpdateContracts rebuilds the contract snapshot of every group in the
// batch and reports, per group, which condition types changed against the
// previous snapshot. The new blob is written onto each group entity; the
// caller persists the entities.
//
// With updateStats false the expensive stat fields are carried over from the
// previous snapshot and only the header fields are refreshed.
func (a *Aggregator) BatchUpdateContracts(ctx context.Context, groups []*models.Group, updateStats bool) (map[int64]contract.ConditionSet, error) {
	if groups == nil {
		return nil, errors.New("group list is required for batch contract update")
	}
	changed := make(map[int64]contract.ConditionSet, len(groups))
	if len(groups) == 0 {
		return changed, nil
	}
	lookups, err := a.loadBatchLookups(ctx, groups)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		old := a.groups.Get(g)
		var c *contract.GroupContract
		if old != nil && !updateStats {
			c = old.Copy()
			fillContractHeader(c, g)
		} else {
			c, err = a.buildGroupContract(ctx, g, lookups)
			if err != nil {
				return nil, err
			}
		}
		changed[g.GroupID] = contract.DetectChangedConditions(old, c)
		if err := a.groups.Set(g, c); err != nil {
			return nil, errors.Wrapf(err, "failed to cache contract of group %v", g.GroupID)
		}
	}
	log.WithField("groups", len(groups)).Debug("rebuilt group contracts")
	return changed, nil
}

// UpdateContract rebuilds a single group's contract snapshot.
func (a *Aggregator) UpdateContract(ctx context.Context, g *models.Group, updateStats bool) (contract.ConditionSet, error) {
	changed, err := a.BatchUpdateContracts(ctx, []*models.Group{g}, updateStats)
	if err != nil {
		return nil, err
	}
	return changed[g.GroupID], nil
}

func fillContractHeader(c *contract.GroupContract, g *models.Group) {
	c.GroupID = g.GroupID
	c.ParentGroupID = g.ParentGroupID
	c.DefaultSeriesID = g.DefaultSeriesID
	c.Name = g.Name
	c.SortName = g.SortName
	c.Description = g.Description
	c.MissingEpisodeCount = g.MissingEpisodeCount
	c.MissingEpisodeCountGroups = g.MissingEpisodeCountGroups
	c.LatestEpisodeAirDate = g.LatestEpisodeAirDate
	c.EpisodeAddedDate = g.EpisodeAddedDate
	c.UpdatedAt = g.UpdatedAt
}

// groupEndDateFloor is the seed for the aggregated end date. A group whose
// series all ended earlier keeps this floor.
var groupEndDateFloor = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

func (a *Aggregator) buildGroupContract(ctx context.Context, g *models.Group, l *batchLookups) (*contract.GroupContract, error) {
	c := snapshot.EmptyGroupContract(g)
	fillContractHeader(c, g)

	series := l.seriesByGroup[g.GroupID]
	c.SeriesCount = len(series)
	c.AllVideoQuality.AddAll(l.videoQuality[g.GroupID])

	endDate := &groupEndDateFloor
	hasTvDB := true
	hasMovieDB := true
	hasMAL := true
	hasMovieDBOrTvDB := true
	now := time.Now()

	for _, ser := range series {
		c.EpisodeCount += ser.EpisodeCountNormal

		c.AllTags.AddAll(l.tags[ser.SeriesID])
		c.AllCustomTags.AddAll(l.customTags[ser.SeriesID])
		c.AllTitles.Add(ser.ResolvedName())
		for _, t := range l.titles[ser.SeriesID] {
			c.AllTitles.Add(t.Title)
		}
		c.SeriesTypes.Add(string(ser.Type))
		c.AudioLanguages.AddAll(l.audioLangs[ser.SeriesID])
		c.SubtitleLanguages.AddAll(l.subLangs[ser.SeriesID])

		if err := a.addFullyPresentQualities(ctx, ser, c.VideoQualityEpisodes); err != nil {
			return nil, err
		}

		if ser.AirDate != nil {
			if c.AirDateMin == nil || ser.AirDate.Before(*c.AirDateMin) {
				d := *ser.AirDate
				c.AirDateMin = &d
			}
			if c.AirDateMax == nil || ser.AirDate.After(*c.AirDateMax) {
				d := *ser.AirDate
				c.AirDateMax = &d
			}
		}
		if ser.EndDate == nil {
			// No end date means the series is ongoing, which makes the
			// whole group open-ended.
			endDate = nil
		} else if endDate != nil && ser.EndDate.After(*endDate) {
			d := *ser.EndDate
			endDate = &d
		}
		if ser.EndDate != nil && ser.EndDate.Before(now) {
			c.HasFinishedAiring = true
			if ser.MissingEpisodeCount == 0 && ser.MissingEpisodeCountGroups == 0 {
				c.IsComplete = true
			}
		}
		// An announced end date still in the future counts as airing.
		if ser.EndDate == nil || ser.EndDate.After(now) {
			c.IsCurrentlyAiring = true
		}
		if c.SeriesCreatedDate == nil || ser.CreatedAt.Before(*c.SeriesCreatedDate) {
			d := ser.CreatedAt
			c.SeriesCreatedDate = &d
		}

		// A series only counts against the tvdb flag when a tvdb entry can
		// exist for it; movies and restricted series are exempt. The
		// moviedb flag mirrors that for movies.
		expectTvDB := ser.Type != models.SeriesTypeMovie && !ser.Restricted
		if expectTvDB && len(l.tvdbRefs[ser.SeriesID]) == 0 {
			hasTvDB = false
		}
		expectMovieDB := ser.Type == models.SeriesTypeMovie && !ser.Restricted
		if expectMovieDB && len(l.moviedbRefs[ser.SeriesID]) == 0 {
			hasMovieDB = false
		}
		if len(l.malRefs[ser.SeriesID]) == 0 {
			hasMAL = false
		}
		hasMovieDBOrTvDB = hasTvDB || hasMovieDB
	}
	c.HasTvDBLink = hasTvDB
	c.HasMovieDBLink = hasMovieDB
	c.HasMALLink = hasMAL
	c.HasMovieDBOrTvDBLink = hasMovieDBOrTvDB
	c.EndDate = endDate

	if rating, ok := GroupRating(series); ok {
		c.Rating = rating
	}
	if gv := l.votes[g.GroupID]; gv != nil {
		c.UserVoteOverall = gv.All
		c.UserVotePermanent = gv.Permanent
		c.UserVoteTemporary = gv.Temporary
	}
	return c, nil
}

// addFullyPresentQualities adds every quality for which the series has a file
// covering each of its normal episodes.
func (a *Aggregator) addFullyPresentQualities(ctx context.Context, ser *models.Series, out contract.StringSet) error {
	if ser.EpisodeCountNormal == 0 {
		return nil
	}
	files, err := a.st.FilesBySeriesID(ctx, ser.SeriesID)
	if err != nil {
		return errors.Wrapf(err, "failed to get files of series %v", ser.SeriesID)
	}
	xrefs, err := a.st.EpisodeFilesBySeriesID(ctx, ser.SeriesID)
	if err != nil {
		return errors.Wrapf(err, "failed to get episode files of series %v", ser.SeriesID)
	}
	episodes, err := a.st.EpisodesBySeriesID(ctx, ser.SeriesID)
	if err != nil {
		return errors.Wrapf(err, "failed to get episodes of series %v", ser.SeriesID)
	}
	normal := make(map[int64]struct{})
	for _, ep := range episodes {
		if ep.Type == models.EpisodeTypeNormal {
			normal[ep.EpisodeID] = struct{}{}
		}
	}
	sourceByHash := make(map[string]string, len(files))
	for _, f := range files {
		sourceByHash[f.Hash] = f.Source
	}
	covered := make(map[string]map[int64]struct{})
	for _, x := range xrefs {
		if _, ok := normal[x.EpisodeID]; !ok {
			continue
		}
		source, ok := sourceByHash[x.FileHash]
		if !ok || source == "" {
			continue
		}
		if covered[source] == nil {
			covered[source] = make(map[int64]struct{})
		}
		covered[source][x.EpisodeID] = struct{}{}
	}
	for source, eps := range covered {
		if len(eps) == ser.EpisodeCountNormal {
			out.Add(source)
		}
	}
	return nil
}

// UpdateSeriesContract rebuilds a series' contract snapshot from the entity
// itself. The blob is written onto the entity; the caller persists it.
func (a *Aggregator) UpdateSeriesContract(ctx context.Context, ser *models.Series) error {
	c := &contract.SeriesContract{
		SeriesID:                  ser.SeriesID,
		GroupID:                   ser.GroupID,
		Name:                      ser.ResolvedName(),
		Type:                      string(ser.Type),
		AirDate:                   ser.AirDate,
		EndDate:                   ser.EndDate,
		EpisodeCountNormal:        ser.EpisodeCountNormal,
		EpisodeCountSpecial:       ser.EpisodeCountSpecial,
		MissingEpisodeCount:       ser.MissingEpisodeCount,
		MissingEpisodeCountGroups: ser.MissingEpisodeCountGroups,
		LatestEpisodeAirDate:      ser.LatestEpisodeAirDate,
		CreatedAt:                 ser.CreatedAt,
	}
	if err := a.series.Set(ser, c); err != nil {
		return errors.Wrapf(err, "failed to cache contract of series %v", ser.SeriesID)
	}
	return nil
}
