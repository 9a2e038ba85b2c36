// Package server implements the local relay server used by the collection app.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Routes
//
// Two entries, dispatched on path prefix:
//
//	GET /api/discogs/*  → [RelayHandler], forwarded to https://api.discogs.com/*
//	    /*              → [StaticHandler], files from the working directory
//
// # Relay
//
// The relay strips the prefix and appends the remaining path and query string verbatim to the upstream base.
// The upstream status and body are copied back with Content-Type: application/json.
// Upstream error statuses pass through untouched; transport failures become a 502 with a JSON {"message": ...} body.
//
// # Logging
//
// [RequestLogger] keeps the console quiet: relay requests log method and path only (never the query, which carries
// the caller's token), and static requests log only when the response status is not 200.
//
// # Lifecycle
//
// [Server] runs [http.Server.Serve] and a shutdown watcher in an errgroup; cancelling the context stops both.
package server
