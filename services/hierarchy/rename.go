package hierarchy

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/store"
)

// StatsUpdater refreshes aggregated stats for a whole group tree after its
// naming data has been repopulated.
type StatsUpdater interface {
	UpdateStatsFromTopLevel(ctx context.Context, g *models.Group, watchedStats, missingEpisodeStats bool) error
}

// Renamer regenerates group names from their member series.
type Renamer struct {
	st       store.Store
	resolver *Resolver
	stats    StatsUpdater
}

func NewRenamer(st store.Store, resolver *Resolver, stats StatsUpdater) *Renamer {
	return &Renamer{st: st, resolver: resolver, stats: stats}
}

// RenameAllGroups sweeps every group. A group with a single member series
// always adopts that series' resolved name, custom name or not. A group with
// several series keeps a custom name when one is detected, otherwise takes
// the name of its default series or, absent a default, of the series that
// aired first.
func (rn *Renamer) RenameAllGroups(ctx context.Context) error {
	groups, err := rn.st.AllGroups(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list groups for rename sweep")
	}
	for _, g := range groups {
		if err := rn.renameGroup(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func (rn *Renamer) renameGroup(ctx context.Context, g *models.Group) error {
	series, err := rn.resolver.DirectSeries(ctx, g)
	if err != nil {
		return err
	}
	switch len(series) {
	case 0:
		return nil
	case 1:
		name := series[0].ResolvedName()
		if name == g.Name && name == g.SortName {
			return nil
		}
		g.Name = name
		g.SortName = name
		log.WithField("groupID", g.GroupID).WithField("name", name).Info("renamed single-series group")
		return rn.st.SaveGroup(ctx, g)
	}

	var winner *models.Series
	hasCustomName := true
	if g.DefaultSeriesID != nil {
		winner, err = rn.st.SeriesByID(ctx, *g.DefaultSeriesID)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve default series of group %v", g.GroupID)
		}
		if winner == nil {
			g.DefaultSeriesID = nil
		} else {
			hasCustomName = false
		}
	}
	if g.DefaultSeriesID == nil {
		generated, err := rn.nameIsGenerated(ctx, g, series)
		if err != nil {
			return err
		}
		hasCustomName = !generated
		for _, ser := range series {
			if winner == nil {
				winner = ser
				continue
			}
			if ser.AirDate != nil && (winner.AirDate == nil || ser.AirDate.Before(*winner.AirDate)) {
				winner = ser
			}
		}
	}
	if winner == nil {
		return nil
	}

	name := winner.ResolvedName()
	if hasCustomName {
		name = g.Name
	}
	rn.repopulate(g, winner)
	g.Name = name
	g.SortName = name
	if err := rn.st.SaveGroup(ctx, g); err != nil {
		return err
	}

	top, err := rn.resolver.TopLevelGroup(ctx, g)
	if err != nil {
		return err
	}
	return rn.stats.UpdateStatsFromTopLevel(ctx, top, true, true)
}

// nameIsGenerated reports whether the group's current name matches one of the
// names its series could have generated: a name override, an alias title, or
// a catalog crossref title. A name matching none of these is custom.
func (rn *Renamer) nameIsGenerated(ctx context.Context, g *models.Group, series []*models.Series) (bool, error) {
	ids := make([]int64, 0, len(series))
	for _, ser := range series {
		if strings.EqualFold(ser.NameOverride, g.Name) || strings.EqualFold(ser.Title, g.Name) {
			return true, nil
		}
		ids = append(ids, ser.SeriesID)
	}
	titles, err := rn.st.TitlesBySeriesIDs(ctx, ids)
	if err != nil {
		return false, errors.Wrapf(err, "failed to resolve titles for group %v", g.GroupID)
	}
	for _, seriesTitles := range titles {
		for _, t := range seriesTitles {
			if strings.EqualFold(t.Title, g.Name) {
				return true, nil
			}
		}
	}
	for _, catalog := range []models.Catalog{models.CatalogTvDB, models.CatalogMovieDB, models.CatalogMAL} {
		refs, err := rn.st.CatalogRefsBySeriesIDs(ctx, catalog, ids)
		if err != nil {
			return false, errors.Wrapf(err, "failed to resolve %v refs for group %v", catalog, g.GroupID)
		}
		for _, seriesRefs := range refs {
			for _, ref := range seriesRefs {
				if ref.RemoteTitle != "" && strings.EqualFold(ref.RemoteTitle, g.Name) {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// repopulate refreshes the descriptive fields a group mirrors from its name
// winner series.
func (rn *Renamer) repopulate(g *models.Group, winner *models.Series) {
	if !g.IsManuallyNamed {
		g.Description = winner.Description
	}
}
