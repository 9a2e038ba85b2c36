// package formatter flattens Discogs releases into export rows and writes them as CSV
package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/crate/internal/discogs"
	"github.com/jszwec/csvutil"
)

const (
	listSep    = ", "
	commentSep = " — "
)

// Header is the fixed CSV column order.
var Header = []string{"artist", "title", "year", "label", "ref", "genre", "comment", "cover"}

// ExportRow is one flattened collection entry.
type ExportRow struct {
	Artist  string `csv:"artist"`
	Title   string `csv:"title"`
	Year    string `csv:"year"`
	Label   string `csv:"label"`
	Ref     string `csv:"ref"` // catalog numbers
	Genre   string `csv:"genre"`
	Comment string `csv:"comment"`
	Cover   string `csv:"cover"`
}

// BuildRow merges a release detail with its collection summary.
//
// Detail values win; summary values fill in when a detail field is absent or empty.
// A nil detail builds the row from the summary alone.
func BuildRow(basic discogs.BasicInformation, detail *discogs.ReleaseDetail) ExportRow {
	if detail == nil {
		detail = &discogs.ReleaseDetail{}
	}

	artists := detail.Artists
	if len(artists) == 0 {
		artists = basic.Artists
	}
	labels := detail.Labels
	if len(labels) == 0 {
		labels = basic.Labels
	}
	formats := detail.Formats
	if len(formats) == 0 {
		formats = basic.Formats
	}

	title := detail.Title
	if title == "" {
		title = basic.Title
	}
	year := detail.Year
	if year == 0 {
		year = basic.Year
	}

	return ExportRow{
		Artist:  JoinArtists(artists),
		Title:   title,
		Year:    FormatYear(year),
		Label:   JoinLabels(labels),
		Ref:     JoinCatalogNumbers(labels),
		Genre:   JoinGenres(detail.Genres, detail.Styles),
		Comment: Comment(detail.Country, JoinFormats(formats)),
		Cover:   Cover(detail.Images, basic),
	}
}

// JoinArtists joins trimmed artist names.
func JoinArtists(artists []discogs.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, strings.TrimSpace(a.Name))
	}
	return strings.Join(names, listSep)
}

// JoinLabels joins label names.
func JoinLabels(labels []discogs.Label) string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return strings.Join(names, listSep)
}

// JoinCatalogNumbers joins the non-empty catalog numbers.
func JoinCatalogNumbers(labels []discogs.Label) string {
	var refs []string
	for _, l := range labels {
		if l.CatNo != "" {
			refs = append(refs, l.CatNo)
		}
	}
	return strings.Join(refs, listSep)
}

// JoinFormats joins format names.
func JoinFormats(formats []discogs.Format) string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name)
	}
	return strings.Join(names, listSep)
}

// JoinGenres joins genres followed by styles, in source order and without deduplication.
func JoinGenres(genres, styles []string) string {
	tags := make([]string, 0, len(genres)+len(styles))
	tags = append(tags, genres...)
	tags = append(tags, styles...)
	return strings.Join(tags, listSep)
}

// Comment joins the non-empty country and format strings with an em dash so they can be split again.
func Comment(country, formats string) string {
	var parts []string
	for _, p := range []string{country, formats} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, commentSep)
}

// Cover picks the first detail image, then the summary cover image, then the summary thumbnail.
func Cover(images []discogs.Image, basic discogs.BasicInformation) string {
	if len(images) > 0 && images[0].URI != "" {
		return images[0].URI
	}
	if basic.CoverImage != "" {
		return basic.CoverImage
	}
	return basic.Thumb
}

// FormatYear renders a release year; Discogs uses 0 for unknown.
func FormatYear(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}

// WriteCSV writes the header followed by one line per row.
//
// The header is written even when rows is empty.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	writer := csv.NewWriter(w)
	enc := csvutil.NewEncoder(writer)

	if err := enc.EncodeHeader(ExportRow{}); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}

	return nil
}

// WriteCSVExport writes rows to a UTF-8 CSV file at path, replacing any existing file.
func WriteCSVExport(path string, rows []ExportRow) error {
	if path == "" {
		return fmt.Errorf("empty output path")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file: %w", err)
	}
	return nil
}
