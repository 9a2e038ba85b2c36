// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/crate/internal/shared"
	"github.com/urfave/cli/v3"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Write logs to this file instead of stderr",
		},
	}
}

// initCommand writes a starter config file.
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create config.toml from the built-in template",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Where to write the config file",
				Value:   "config.toml",
			},
		},
		Action: r.Init,
	}
}

// exportCommand exports the Discogs collection to CSV.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a Discogs collection (folder 0) to CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Discogs personal access token",
				Sources: cli.EnvVars(shared.EnvToken),
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Discogs username",
				Sources: cli.EnvVars(shared.EnvUsername),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "CSV output path (default from config: discogs_collection.csv)",
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the local relay server. It takes no flags; the port comes from config.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the app from the working directory and relay /api/discogs/ to the Discogs API",
		Action: r.Serve,
	}
}
