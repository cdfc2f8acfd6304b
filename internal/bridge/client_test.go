package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refusingTransport struct {
	calls atomic.Int32
}

func (t *refusingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return nil, &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func newTestClient(t *testing.T, baseURL string, transport http.RoundTripper, rec *sleepRecorder) *Client {
	t.Helper()
	opts := Options{
		BaseURL:   baseURL,
		Token:     "secret",
		Transport: transport,
	}
	if rec != nil {
		opts.Sleep = rec.sleep
	}
	return New(opts)
}

func TestConnectionRefusedIsRetriedWithLinearBackoff(t *testing.T) {
	transport := &refusingTransport{}
	rec := &sleepRecorder{}
	c := newTestClient(t, "http://bridge.invalid", transport, rec)

	_, err := c.VoteNext(context.Background(), "abc")
	require.Error(t, err)

	assert.EqualValues(t, 3, transport.calls.Load())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, rec.delays)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.MethodGet, reqErr.Method)
	assert.Equal(t, PathVoteNext, reqErr.Path)
	assert.Equal(t, "http://bridge.invalid", reqErr.BaseURL)
	assert.Equal(t, 3, reqErr.Attempts)
	assert.Contains(t, err.Error(), "bridge request GET /v1/vote/next failed")

	var connErr *ConnectionError
	assert.ErrorAs(t, err, &connErr)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
}

func TestHTTPErrorsAreNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusFound} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if status == http.StatusFound {
				w.Header().Set("Location", "/elsewhere")
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":true,"status":0,"message":"Player not found"}`)
		}))

		rec := &sleepRecorder{}
		c := newTestClient(t, srv.URL, nil, rec)
		_, err := c.ResolveLink(context.Background(), "42")
		srv.Close()

		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr, "status %d", status)
		assert.Equal(t, status, httpErr.Status)
		assert.Equal(t, status, httpErr.StatusCode())
		assert.Equal(t, "Player not found", httpErr.Message)
		assert.EqualValues(t, 1, calls.Load(), "status %d", status)
		assert.Empty(t, rec.delays)
	}
}

func TestHTTPErrorWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, &sleepRecorder{})
	_, err := c.VoteNext(context.Background(), "abc")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Empty(t, httpErr.Message)
	assert.Contains(t, string(httpErr.Body), "bad gateway")
	assert.Equal(t, "bridge returned 502 for GET /v1/vote/next", httpErr.Error())
}

func TestAuthenticatedRequestHeadersAndBody(t *testing.T) {
	var gotAuth, gotType string
	var gotBody placeholderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathPlaceholders, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"uuid":"u-1","values":{"%vault_eco_balance%":"12.50"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"///", nil, nil)
	out, err := c.EvalPlaceholders(context.Background(), "u-1", []string{"%vault_eco_balance%"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, placeholderRequest{UUID: "u-1", Placeholders: []string{"%vault_eco_balance%"}}, gotBody)
	assert.Equal(t, "12.50", out.Values["%vault_eco_balance%"])
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestGetSendsQueryWithoutContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("discord_id"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"linked":true,"uuid":"u-1","name":"Steve"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, nil)
	link, err := c.ResolveLink(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, link.Linked)
	assert.True(t, *link.Linked)
	assert.Equal(t, "Steve", *link.Name)
}

func TestHealthIsUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathHealth, r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"ok":true,"versions":{"bridge":"1.0.0","server":"Paper"},"integrations":{"discordsrv":true,"votingplugin":false,"placeholderapi":true}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, nil)
	h, err := c.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, h.OK)
	assert.Equal(t, "1.0.0", h.Versions.Bridge)
	assert.True(t, h.Integrations.DiscordSRV)
	assert.False(t, h.Integrations.VotingPlugin)
}

func TestHealthFailureOnlyWarns(t *testing.T) {
	transport := &refusingTransport{}
	c := newTestClient(t, "http://bridge.invalid", transport, &sleepRecorder{})

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	ok := c.LogHealth(context.Background(), log)
	assert.False(t, ok)
	assert.EqualValues(t, 3, transport.calls.Load())
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "bridge health check failed")
}

func TestAttemptTimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	c := New(Options{BaseURL: srv.URL, Token: "secret", Timeout: 50 * time.Millisecond, Sleep: rec.sleep})

	_, err := c.VoteNext(context.Background(), "abc")

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.EqualValues(t, 3, calls.Load())
	assert.Len(t, rec.delays, 2)
}

func TestDecodeFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, "<html>not json</html>")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, &sleepRecorder{})
	_, err := c.VoteNext(context.Background(), "abc")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 1, reqErr.Attempts)
	assert.False(t, IsTransient(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestMaxRetriesOption(t *testing.T) {
	transport := &refusingTransport{}
	c := New(Options{BaseURL: "http://bridge.invalid", Transport: transport, MaxRetries: NoRetries})

	_, err := c.VoteNext(context.Background(), "abc")
	require.Error(t, err)
	assert.EqualValues(t, 1, transport.calls.Load())
}

func TestWorstCase(t *testing.T) {
	c := New(Options{BaseURL: "http://bridge.invalid"})
	// three 5s attempts plus 500ms and 1s of backoff
	assert.Equal(t, 16500*time.Millisecond, c.WorstCase())
}

func TestVoteReportReady(t *testing.T) {
	r := VoteReport{Sites: []VoteSite{{SiteName: "A", ReadyNow: true}, {SiteName: "B"}}}
	assert.Equal(t, 1, r.Ready())
}
