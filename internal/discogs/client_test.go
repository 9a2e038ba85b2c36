package discogs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/crate/internal/shared"
	tu "github.com/desertthunder/crate/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *sleepRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &sleepRecorder{}
	client := NewClient(ClientOpts{
		BaseURL: srv.URL,
		Token:   "secret",
		Pace:    -1,
		Logger:  shared.NewLogger(io.Discard),
		Sleep:   rec.Sleep,
	})
	return client, rec
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewClient(ClientOpts{})
		assert.Equal(t, DefaultBaseURL, c.baseURL)
		assert.Equal(t, DefaultUserAgent, c.userAgent)
		assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
		assert.InDelta(t, float64(time.Second)/float64(DefaultPace), float64(c.limiter.Limit()), 0.0001)
	})

	t.Run("negative pace disables limiter", func(t *testing.T) {
		c := NewClient(ClientOpts{Pace: -1})
		assert.Equal(t, rate.Inf, c.limiter.Limit())
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		c := NewClient(ClientOpts{BaseURL: "http://example.com/"})
		assert.Equal(t, "http://example.com", c.baseURL)
	})
}

func TestCollectionPage(t *testing.T) {
	t.Run("sends auth and paging parameters", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/digger/collection/folders/0/releases", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			assert.Equal(t, "Discogs token=secret", r.Header.Get("Authorization"))
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))

			fmt.Fprint(w, `{"pagination":{"page":2,"pages":3,"per_page":100,"items":250},
				"releases":[{"id":1,"basic_information":{"id":42,"title":"Blue","year":1971,"thumb":"t.jpg"}}]}`)
		})

		page, err := client.CollectionPage(context.Background(), "digger", "0", 2, 100)
		require.NoError(t, err)
		assert.Equal(t, 3, page.Pagination.Pages)
		require.Len(t, page.Releases, 1)
		assert.Equal(t, 42, page.Releases[0].BasicInformation.ID)
		assert.Equal(t, "Blue", page.Releases[0].BasicInformation.Title)
		assert.Equal(t, "t.jpg", page.Releases[0].BasicInformation.Thumb)
	})

	t.Run("escapes username", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/dj%20shadow/collection/folders/0/releases", r.URL.EscapedPath())
			fmt.Fprint(w, `{"pagination":{"pages":1},"releases":[]}`)
		})

		_, err := client.CollectionPage(context.Background(), "dj shadow", "0", 1, 100)
		require.NoError(t, err)
	})

	t.Run("requires username", func(t *testing.T) {
		client := NewClient(ClientOpts{Pace: -1})
		_, err := client.CollectionPage(context.Background(), "", "0", 1, 100)
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})
}

func TestRelease(t *testing.T) {
	t.Run("decodes detail", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/releases/42", r.URL.Path)
			fmt.Fprint(w, `{"id":42,"title":"Blue","year":1971,"country":"US",
				"artists":[{"name":"Joni Mitchell"}],
				"labels":[{"name":"Reprise Records","catno":"MS 2038"}],
				"genres":["Folk, World, & Country"],"styles":["Folk"],
				"formats":[{"name":"Vinyl"}],"images":[{"type":"primary","uri":"big.jpg"}]}`)
		})

		rel, err := client.Release(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, "US", rel.Country)
		assert.Equal(t, "MS 2038", rel.Labels[0].CatNo)
		assert.Equal(t, []string{"Folk"}, rel.Styles)
		assert.Equal(t, "big.jpg", rel.Images[0].URI)
	})

	t.Run("rejects invalid id", func(t *testing.T) {
		client := NewClient(ClientOpts{Pace: -1})
		_, err := client.Release(context.Background(), 0)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("non-success status is fatal", func(t *testing.T) {
		var calls int32
		client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Release not found."}`)
		})

		_, err := client.Release(context.Background(), 7)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
		assert.Contains(t, err.Error(), "404")
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		assert.Empty(t, rec.waits)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `not json`)
		})

		_, err := client.Release(context.Background(), 7)
		assert.ErrorIs(t, err, shared.ErrDecode)
	})

	t.Run("transport failure", func(t *testing.T) {
		client := NewClient(ClientOpts{
			Pace:       -1,
			Logger:     shared.NewLogger(io.Discard),
			HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
		})

		_, err := client.Release(context.Background(), 7)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("cancellation stays in the error chain", func(t *testing.T) {
		client := NewClient(ClientOpts{
			Pace:       -1,
			Logger:     shared.NewLogger(io.Discard),
			HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, context.Canceled)},
		})

		_, err := client.Release(context.Background(), 7)
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPacing(t *testing.T) {
	const (
		pace     = 150 * time.Millisecond
		response = 200 * time.Millisecond
	)

	t.Run("waits a full pace after each successful response", func(t *testing.T) {
		var mu sync.Mutex
		var finished, started []time.Time
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			started = append(started, time.Now())
			mu.Unlock()

			time.Sleep(response)
			fmt.Fprint(w, `{"id":1}`)

			mu.Lock()
			finished = append(finished, time.Now())
			mu.Unlock()
		}))
		defer srv.Close()

		client := NewClient(ClientOpts{BaseURL: srv.URL, Pace: pace, Logger: shared.NewLogger(io.Discard)})
		for range 2 {
			_, err := client.Release(context.Background(), 1)
			require.NoError(t, err)
		}

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, started, 2)
		require.Len(t, finished, 2)
		assert.GreaterOrEqual(t, started[1].Sub(finished[0]), pace-10*time.Millisecond)
		assert.GreaterOrEqual(t, started[1].Sub(started[0]), response+pace-10*time.Millisecond)
	})

	t.Run("failed responses do not restart the window", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		client.pace = pace

		_, err := client.Release(context.Background(), 1)
		require.Error(t, err)
		assert.Equal(t, rate.Inf, client.limiter.Limit())
	})

	t.Run("disabled pace keeps an unlimited limiter", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":1}`)
		})

		_, err := client.Release(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, rate.Inf, client.limiter.Limit())
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("retries once after Retry-After", func(t *testing.T) {
		var calls int32
		client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `{"id":9,"title":"Retry"}`)
		})

		rel, err := client.Release(context.Background(), 9)
		require.NoError(t, err)
		assert.Equal(t, "Retry", rel.Title)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
		assert.Equal(t, []time.Duration{3 * time.Second}, rec.waits)
	})

	t.Run("defaults to five seconds", func(t *testing.T) {
		var calls int32
		client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `{"id":9}`)
		})

		_, err := client.Release(context.Background(), 9)
		require.NoError(t, err)
		assert.Equal(t, []time.Duration{DefaultRetryAfter}, rec.waits)
	})

	t.Run("second 429 is fatal", func(t *testing.T) {
		var calls int32
		client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.Release(context.Background(), 9)
		assert.ErrorIs(t, err, shared.ErrRateLimited)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
		assert.Len(t, rec.waits, 1)
	})

	t.Run("other error after retry is fatal", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.Release(context.Background(), 9)
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})
}

func TestRetryAfter(t *testing.T) {
	tc := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "seconds", value: "12", want: 12 * time.Second},
		{name: "zero", value: "0", want: 0},
		{name: "absent", value: "", want: DefaultRetryAfter},
		{name: "garbage", value: "soon", want: DefaultRetryAfter},
		{name: "negative", value: "-4", want: DefaultRetryAfter},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			assert.Equal(t, tt.want, retryAfter(h))
		})
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), 0))
}
