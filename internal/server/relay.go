package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultPrefix    = "/api/discogs/"
	DefaultUpstream  = "https://api.discogs.com"
	DefaultUserAgent = "VinylCollectionApp/1.0"
	DefaultTimeout   = 15 * time.Second
)

// RelayOpts configures a [RelayHandler]. Zero values fall back to the package defaults.
type RelayOpts struct {
	Prefix     string
	Upstream   string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// RelayHandler forwards requests under a path prefix to an upstream JSON API.
//
// No Authorization header is added; callers pass their own token in the query string.
type RelayHandler struct {
	prefix     string
	upstream   string
	userAgent  string
	httpClient *http.Client
}

type relayError struct {
	Message string `json:"message"`
}

// NewRelayHandler creates a relay handler.
//
// The default client ignores HTTP(S)_PROXY so requests always go direct.
func NewRelayHandler(opts RelayOpts) *RelayHandler {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if !strings.HasSuffix(opts.Prefix, "/") {
		opts.Prefix += "/"
	}
	if opts.Upstream == "" {
		opts.Upstream = DefaultUpstream
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = nil
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout, Transport: transport}
	}

	return &RelayHandler{
		prefix:     opts.Prefix,
		upstream:   strings.TrimRight(opts.Upstream, "/"),
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
	}
}

// Prefix returns the reserved path prefix.
func (h *RelayHandler) Prefix() string {
	return h.prefix
}

// Routes returns the HTTP routes this handler serves.
func (h *RelayHandler) Routes() []string {
	return []string{h.prefix}
}

// UpstreamURL maps an incoming request to the upstream URL, keeping the remaining path and query verbatim.
func (h *RelayHandler) UpstreamURL(r *http.Request) string {
	rest := strings.TrimPrefix(r.URL.EscapedPath(), h.prefix)
	target := h.upstream + "/" + rest
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}

// ServeHTTP relays the request upstream and copies the status and body back as JSON.
func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, h.UpstreamURL(r), nil)
	if err != nil {
		h.fail(w, err)
		return
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}

// fail writes a synthesized JSON error for transport-level failures.
func (h *RelayHandler) fail(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(relayError{Message: fmt.Sprintf("Proxy error: %v", err)})
}
