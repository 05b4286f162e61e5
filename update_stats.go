package main

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"
	"golang.org/x/sync/errgroup"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/filter"
	"github.com/koyomi-io/koyomi/services/hierarchy"
	"github.com/koyomi-io/koyomi/services/snapshot"
	"github.com/koyomi-io/koyomi/services/stats"
	"github.com/koyomi-io/koyomi/services/store"
)

func makeUpdateStatsCMD() cli.Command {
	updateStatsCMD := cli.Command{
		Name:    "update-stats",
		Aliases: []string{"u"},
		Usage:   "Recomputes group statistics and contract snapshots",
		Action:  updateStats,
	}
	configureUpdateStats(&updateStatsCMD)
	return updateStatsCMD
}

func configureUpdateStats(c *cli.Command) {
	c.Flags = append(c.Flags,
		cli.BoolFlag{
			Name:  "missing",
			Usage: "recompute missing-episode counters only",
		},
		cli.BoolFlag{
			Name:  "watched",
			Usage: "recompute watched counters only",
		},
		cli.BoolFlag{
			Name:  "contracts-only",
			Usage: "rebuild contract snapshots without touching counters",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of group trees processed in parallel",
			Value: 4,
		},
		cli.Int64Flag{
			Name:  "group",
			Usage: "only process the tree containing this group id",
		},
	)
	c.Flags = cs.RegisterPGFlags(c.Flags)
}

func updateStats(c *cli.Context) error {
	watched := c.Bool("watched")
	missing := c.Bool("missing")
	contractsOnly := c.Bool("contracts-only")
	if !watched && !missing && !contractsOnly {
		watched = true
		missing = true
	}
	workers := c.Int("workers")
	if workers < 1 {
		workers = 1
	}

	// Setting DB
	pg := cs.NewPG(c)
	defer pg.Close()

	// Setting Migrations
	m := cs.NewPGMigration(pg)
	err := m.Run()
	if err != nil {
		return err
	}

	// Setting Store
	st := store.NewPG(pg)

	// Setting Contract Caches
	codec := snapshot.NewCodec()
	groupContracts := snapshot.NewGroupContracts(codec)
	seriesContracts := snapshot.NewSeriesContracts(codec)

	// Setting Resolver
	resolver := hierarchy.NewResolver(st)

	// Setting Aggregator
	agg := stats.New(st, resolver, groupContracts, seriesContracts)

	// Setting Filter Updater
	upd := filter.NewUpdater(st, agg)

	ctx := context.Background()
	var tops []*models.Group
	if groupID := c.Int64("group"); groupID != 0 {
		g, err := st.GroupByID(ctx, groupID)
		if err != nil {
			return err
		}
		if g == nil {
			return errors.Errorf("group %v not found", groupID)
		}
		top, err := resolver.TopLevelGroup(ctx, g)
		if err != nil {
			return err
		}
		tops = append(tops, top)
	} else {
		tops, err = st.TopLevelGroups(ctx)
		if err != nil {
			return err
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, top := range tops {
		top := top
		eg.Go(func() error {
			return updateTopLevel(ctx, st, resolver, agg, upd, top, watched, missing, contractsOnly)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	log.WithField("groups", len(tops)).Info("stats update finished")
	return nil
}

func updateTopLevel(
	ctx context.Context,
	st store.Store,
	resolver *hierarchy.Resolver,
	agg *stats.Aggregator,
	upd *filter.Updater,
	top *models.Group,
	watched, missing, contractsOnly bool,
) error {
	if !contractsOnly {
		if err := agg.UpdateStatsFromTopLevel(ctx, top, watched, missing); err != nil {
			return err
		}
	}
	children, err := resolver.AllChildGroups(ctx, top)
	if err != nil {
		return err
	}
	groups := append([]*models.Group{top}, children...)
	changed, err := agg.BatchUpdateContracts(ctx, groups, true)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if err := st.SaveGroup(ctx, g); err != nil {
			return err
		}
	}
	for _, g := range groups {
		if err := upd.UpdateGroupFilters(ctx, g, changed[g.GroupID], nil); err != nil {
			return err
		}
	}
	return nil
}
