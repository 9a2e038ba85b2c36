package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/discogs"
	"github.com/desertthunder/crate/internal/formatter"
	"github.com/desertthunder/crate/internal/shared"
)

const (
	DefaultFolder  = "0"
	DefaultPerPage = 100
	logEvery       = 25
)

// Collection is the subset of the Discogs API the exporter depends on.
type Collection interface {
	CollectionPage(ctx context.Context, username, folder string, page, perPage int) (*discogs.CollectionPage, error)
	Release(ctx context.Context, id int) (*discogs.ReleaseDetail, error)
}

// ExportOpts configures a single export run.
type ExportOpts struct {
	Username string // Discogs username whose collection is exported
	Folder   string // Collection folder (default: "0", the uncategorized folder)
	PerPage  int    // Listing page size (default: 100)
	Output   string // CSV path; empty skips writing
}

// ExportResult summarizes a finished export.
type ExportResult struct {
	Items   int                   // Items returned by the listing
	Pages   int                   // Listing pages fetched
	Skipped int                   // Items without a release id
	Rows    []formatter.ExportRow // Flattened rows in listing order
	Output  string                // Path written, if any
}

// ExportEngine exports a Discogs collection to flattened rows.
type ExportEngine struct {
	client Collection
	logger *log.Logger
}

// NewExportEngine creates an ExportEngine backed by client.
func NewExportEngine(client Collection, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ExportEngine{client: client, logger: shared.WithLogger(logger, "task", "export")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run fetches the whole collection folder, enriches every item, and optionally writes the CSV.
func (e *ExportEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: discogs client not initialized", shared.ErrInvalidConfig)
	}
	if opts.Username == "" {
		return nil, fmt.Errorf("%w: username is required", shared.ErrMissingArgument)
	}
	if opts.Folder == "" {
		opts.Folder = DefaultFolder
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}

	items, pages, err := e.collect(ctx, progress, opts)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		Items: len(items),
		Pages: pages,
		Rows:  make([]formatter.ExportRow, 0, len(items)),
	}

	e.logger.Info("collection listed", "user", opts.Username, "items", len(items), "pages", pages)
	e.sendProgress(progress, collectedUpdate(len(items)))

	for i, item := range items {
		step := i + 1
		basic := item.BasicInformation
		if basic.ID == 0 {
			result.Skipped++
			e.logger.Debug("skipping item without release id", "instance", item.InstanceID)
			e.sendProgress(progress, skippedUpdate(step, len(items)))
			continue
		}

		detail, err := e.client.Release(ctx, basic.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch release %d: %w", basic.ID, err)
		}

		row := formatter.BuildRow(basic, detail)
		result.Rows = append(result.Rows, row)
		e.sendProgress(progress, releaseUpdate(step, len(items), &row))

		if step%logEvery == 0 {
			e.logger.Infof("%d/%d releases", step, len(items))
		}
	}

	if opts.Output != "" {
		e.sendProgress(progress, writeRowsUpdate(len(result.Rows), opts.Output))
		if err := formatter.WriteCSVExport(opts.Output, result.Rows); err != nil {
			return nil, err
		}
		result.Output = opts.Output
		e.logger.Info("export written", "path", opts.Output, "rows", len(result.Rows))
	}

	return result, nil
}

// collect pages through the folder listing and returns every item with the number of pages fetched.
func (e *ExportEngine) collect(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) ([]discogs.CollectionItem, int, error) {
	var items []discogs.CollectionItem

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, page - 1, err
		}

		resp, err := e.client.CollectionPage(ctx, opts.Username, opts.Folder, page, opts.PerPage)
		if err != nil {
			return nil, page - 1, fmt.Errorf("failed to fetch collection page %d: %w", page, err)
		}
		items = append(items, resp.Releases...)

		pages := resp.Pagination.Pages
		if pages < 1 {
			pages = 1
		}

		e.logger.Info("collection page", "page", page, "pages", pages, "items", len(resp.Releases), "total", len(items))
		e.sendProgress(progress, fetchPageUpdate(page, pages, len(resp.Releases), len(items)))

		if page >= pages {
			return items, page, nil
		}
	}
}
