package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://api.discogs.com"
	DefaultUserAgent  = "VinylCollectionExporter/1.0"
	DefaultPace       = 1100 * time.Millisecond
	DefaultRetryAfter = 5 * time.Second
	DefaultTimeout    = 30 * time.Second
)

// ClientOpts configures a [Client]. Zero values fall back to the package defaults.
type ClientOpts struct {
	BaseURL    string
	Token      string
	UserAgent  string
	HTTPClient *http.Client
	Pace       time.Duration // delay after each successful response; zero uses DefaultPace, negative disables pacing
	Logger     *log.Logger
	Sleep      func(ctx context.Context, d time.Duration) error
}

// Client issues authenticated, paced requests against the Discogs API.
//
// A Client is not safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	pace       time.Duration
	limiter    *rate.Limiter
	logger     *log.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new Discogs client.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.Pace == 0 {
		opts.Pace = DefaultPace
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	limit := rate.Inf
	if opts.Pace > 0 {
		limit = rate.Every(opts.Pace)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		pace:       opts.Pace,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     opts.Logger,
		sleep:      opts.Sleep,
	}
}

// CollectionPage fetches one page of a user's collection folder.
func (c *Client) CollectionPage(ctx context.Context, username, folder string, page, perPage int) (*CollectionPage, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", shared.ErrMissingArgument)
	}

	path := fmt.Sprintf("/users/%s/collection/folders/%s/releases", url.PathEscape(username), url.PathEscape(folder))
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	var out CollectionPage
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Release fetches the full release record for id.
func (c *Client) Release(ctx context.Context, id int) (*ReleaseDetail, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: release id %d", shared.ErrInvalidInput, id)
	}

	var out ReleaseDetail
	if err := c.get(ctx, fmt.Sprintf("/releases/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// get performs a GET against path and decodes the JSON body into out.
//
// A 429 is retried once after the server's Retry-After delay.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	resp, err := c.do(ctx, fullURL)
	if err != nil {
		return err
	}

	if resp.status == http.StatusTooManyRequests {
		wait := retryAfter(resp.header)
		c.logger.Warn("rate limited, waiting", "path", path, "wait", wait)
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}

		if resp, err = c.do(ctx, fullURL); err != nil {
			return err
		}
		if resp.status == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s still limited after waiting %s", shared.ErrRateLimited, path, wait)
		}
	}

	if resp.status < 200 || resp.status >= 300 {
		return fmt.Errorf("%w: %s: status %d, body: %s", shared.ErrAPIRequest, path, resp.status, string(resp.body))
	}
	c.holdPace()

	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrDecode, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, fullURL string) (*rawResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// holdPace starts a fresh pacing window at the end of a successful response,
// so the next request waits a full pace from now rather than from when this one started.
func (c *Client) holdPace() {
	if c.pace <= 0 {
		return
	}
	c.limiter = rate.NewLimiter(rate.Every(c.pace), 1)
	c.limiter.Allow()
}

// retryAfter reads the Retry-After header as whole seconds.
func retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return DefaultRetryAfter
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return DefaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
