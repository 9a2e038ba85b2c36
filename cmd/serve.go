package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/crate/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the static file server and Discogs relay until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.config.Server
	handler := server.NewFromConfig(config, r.logger, r.configPathOrDefault())

	r.writePlain("%s http://localhost:%d\n", styles.title.Render("Vinyl Collection —"), config.Port)
	r.writePlain("%s\n\n", styles.rule.Render("Ctrl+C to stop."))

	if err := server.NewServer(config.Addr(), handler, r.logger).ListenAndServe(ctx); err != nil {
		return fmt.Errorf("relay server: %w", err)
	}
	return nil
}
