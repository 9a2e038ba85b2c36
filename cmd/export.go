package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/crate/internal/discogs"
	"github.com/desertthunder/crate/internal/shared"
	"github.com/desertthunder/crate/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export pulls the configured user's collection and writes it to CSV.
//
// Credentials are checked before any network call.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	if token := cmd.String("token"); token != "" {
		config.Discogs.Token = token
	}
	if user := cmd.String("user"); user != "" {
		config.Discogs.Username = user
	}
	output := cmd.String("output")
	if output == "" {
		output = config.Export.Output
	}

	if err := config.ValidateDiscogs(); err != nil {
		r.writePlain("%s configure your Discogs token and username before exporting.\n", styles.err.Render("Error:"))
		r.writePlain("  - Environment variables: %s, %s\n", shared.EnvToken, shared.EnvUsername)
		r.writePlain("  - Or set discogs.token and discogs.username in %s\n", r.configPathOrDefault())
		return err
	}

	client := discogs.NewClient(discogs.ClientOpts{
		BaseURL:    config.Discogs.BaseURL,
		Token:      config.Discogs.Token,
		UserAgent:  config.Discogs.UserAgent,
		HTTPClient: r.httpClient,
		Pace:       clientPace(config.Export.Pace.Duration),
		Logger:     r.logger,
	})
	engine := tasks.NewExportEngine(client, r.logger)

	r.logger.Info("starting export", "user", config.Discogs.Username, "output", output)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPages:
				r.writePlain("%s\n", update.Message)
			case tasks.FetchReleases:
				if update.Step == 0 {
					r.writePlainln("%s", update.Message)
				} else if update.Step%25 == 0 {
					r.writePlain("  -> %d/%d releases\n", update.Step, update.Total)
				}
			case tasks.WriteRows:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := engine.Run(ctx, progressCh, tasks.ExportOpts{
		Username: config.Discogs.Username,
		Folder:   config.Export.Folder,
		PerPage:  config.Export.PerPage,
		Output:   output,
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export complete!")
	r.writePlain("File: %s\n", result.Output)
	r.writePlain("Rows: %d of %d items\n", len(result.Rows), result.Items)
	if result.Skipped > 0 {
		r.writePlain("%s\n", styles.warn.Render(
			fmt.Sprintf("Skipped %d items without a release id", result.Skipped),
		))
	}

	return nil
}

// clientPace maps the configured pace onto the client's options, where "0s" in config turns pacing off.
func clientPace(d time.Duration) time.Duration {
	if d <= 0 {
		return -1
	}
	return d
}

func (r *Runner) configPathOrDefault() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}
