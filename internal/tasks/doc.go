// Package tasks runs the collection export pipeline with real-time progress reporting.
//
// # Export
//
// [ExportEngine.Run] works in two phases:
//
//  1. Page through the collection folder until the reported page count is reached,
//     accumulating every item so the total is known up front.
//  2. Fetch the release detail for each item in order and flatten it into a
//     [formatter.ExportRow]. Items without a release id are skipped.
//
// The CSV is written only after every row is built, so an aborted run leaves no partial file.
//
// # Progress Reporting
//
// Updates are sent on an optional channel with select/default so a slow consumer never blocks the export.
package tasks
