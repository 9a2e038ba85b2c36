package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/crate/internal/shared"
	"github.com/urfave/cli/v3"
)

// Init writes the embedded example config to disk.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s Config written to %s\n", styles.ok.Render("✓"), path)
	r.writePlain("Set discogs.token and discogs.username, or export %s and %s.\n", shared.EnvToken, shared.EnvUsername)
	return nil
}
