package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsdash/internal/platform/apiclient"
	apperrors "adsdash/internal/platform/errors"
)

func TestDetailExtraction(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Incorrect email or password", apiclient.Detail([]byte(`{"detail":"Incorrect email or password"}`)))
	assert.Equal(t, "", apiclient.Detail([]byte(`{"detail":[{"loc":["body","username"],"msg":"field required"}]}`)))
	assert.Equal(t, "", apiclient.Detail([]byte(`not json`)))
	assert.Equal(t, "", apiclient.Detail(nil))
}

func TestGetJSONSendsBearerRequestIDAndQuery(t *testing.T) {
	t.Parallel()
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	t.Cleanup(srv.Close)

	c, err := apiclient.New(srv.URL, time.Second, nil)
	require.NoError(t, err)
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.GetJSON(context.Background(), "metrics", "/metrics", "tok", url.Values{"page": {"2"}}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get(apiclient.RequestIDHeader))
	assert.Equal(t, "2", got.URL.Query().Get("page"))
	assert.Equal(t, "/metrics", got.URL.Path)
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"Invalid sort_by column: nope"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	t.Cleanup(srv.Close)
	c, err := apiclient.New(srv.URL, time.Second, nil)
	require.NoError(t, err)

	err = c.GetJSON(context.Background(), "me", "/unauthorized", "tok", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.Equal(t, "Could not validate credentials", apperrors.Message(err))

	err = c.GetJSON(context.Background(), "metrics", "/bad", "tok", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsRequest(err))
	assert.Equal(t, "Invalid sort_by column: nope", apperrors.Message(err))

	err = c.GetJSON(context.Background(), "metrics", "/gateway", "tok", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "status 502", apperrors.Message(err))
}

func TestTimeoutIsRequestError(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	c, err := apiclient.New(srv.URL, 50*time.Millisecond, nil)
	require.NoError(t, err)

	err = c.GetJSON(context.Background(), "metrics", "/metrics", "tok", nil, nil)
	require.Error(t, err)
	var reqErr *apperrors.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.True(t, reqErr.Timeout())
	assert.Equal(t, "request timed out", apperrors.Message(err))
}

func TestNewRejectsRelativeURL(t *testing.T) {
	t.Parallel()
	_, err := apiclient.New("localhost", time.Second, nil)
	assert.Error(t, err)
}
