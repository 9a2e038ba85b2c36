// Package discogs is a small client for the parts of the Discogs API the exporter needs.
//
// # Requests
//
// Every request carries the personal access token (Authorization: Discogs token=...) and a User-Agent.
// Requests are paced through a [rate.Limiter] so consecutive calls are at least [DefaultPace] apart.
//
// # Rate Limiting
//
// A 429 response is retried exactly once after sleeping for the server's Retry-After value
// (5 seconds when the header is absent). A second 429 yields [shared.ErrRateLimited];
// any other non-2xx status yields [shared.ErrAPIRequest].
//
// # Endpoints
//
//   - [Client.CollectionPage] : GET /users/{username}/collection/folders/{folder}/releases
//   - [Client.Release] : GET /releases/{id}
package discogs
