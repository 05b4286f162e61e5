package main

import (
	"github.com/urfave/cli"
)

func configure(app *cli.App) {
	updateStatsCMD := makeUpdateStatsCMD()
	renameGroupsCMD := makeRenameGroupsCMD()
	migrationCMD := makeMigrationCMD()
	app.Commands = []cli.Command{updateStatsCMD, renameGroupsCMD, migrationCMD}
}
