package main

import (
	"context"

	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/koyomi-io/koyomi/services/hierarchy"
	"github.com/koyomi-io/koyomi/services/snapshot"
	"github.com/koyomi-io/koyomi/services/stats"
	"github.com/koyomi-io/koyomi/services/store"
)

func makeRenameGroupsCMD() cli.Command {
	renameGroupsCMD := cli.Command{
		Name:    "rename-groups",
		Aliases: []string{"r"},
		Usage:   "Regenerates group names from their member series",
		Action:  renameGroups,
	}
	configureRenameGroups(&renameGroupsCMD)
	return renameGroupsCMD
}

func configureRenameGroups(c *cli.Command) {
	c.Flags = cs.RegisterPGFlags(c.Flags)
}

func renameGroups(c *cli.Context) error {
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

	// Setting Renamer
	renamer := hierarchy.NewRenamer(st, resolver, agg)

	return renamer.RenameAllGroups(context.Background())
}
