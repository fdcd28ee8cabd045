package out_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metricsoutadapter "adsdash/internal/modules/metrics/adapter/out"
	"adsdash/internal/modules/metrics/domain"
	"adsdash/internal/platform/apiclient"
	"adsdash/internal/platform/apiclient/apitest"
	apperrors "adsdash/internal/platform/errors"
)

func signedIn(t *testing.T, role string, rows []map[string]any) (*apitest.Backend, *metricsoutadapter.HTTPGateway, string) {
	t.Helper()
	backend := &apitest.Backend{
		Users: []apitest.User{{ID: 1, Email: "u@example.com", Role: role, Password: "pw"}},
		Rows:  rows,
	}
	srv := apitest.NewServer(t, backend)
	client, err := apiclient.New(srv.URL, time.Second, nil)
	require.NoError(t, err)
	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, client.PostForm(context.Background(), "login", "/token", map[string][]string{
		"username": {"u@example.com"}, "password": {"pw"},
	}, &token))
	gw := metricsoutadapter.NewHTTPGateway(client).(*metricsoutadapter.HTTPGateway)
	return backend, gw, token.AccessToken
}

func TestQueryParamsOmitAbsentFields(t *testing.T) {
	t.Parallel()
	q := domain.DefaultQuery(100)
	v := metricsoutadapter.QueryParams(q)
	assert.Equal(t, "page=1&page_size=100", v.Encode())

	q = q.WithDateRange("2024-01-01", "").ToggleSort(domain.ColumnClicks).ToggleSort(domain.ColumnClicks)
	v = metricsoutadapter.QueryParams(q)
	assert.Equal(t, "2024-01-01", v.Get("start_date"))
	assert.False(t, v.Has("end_date"))
	assert.Equal(t, "clicks", v.Get("sort_by"))
	assert.Equal(t, "desc", v.Get("sort_dir"))
}

func TestFetchPageViewerHasNoCost(t *testing.T) {
	t.Parallel()
	backend, gw, token := signedIn(t, "viewer", apitest.Rows("acc-1", 5))
	page, err := gw.FetchPage(context.Background(), token, domain.DefaultQuery(100))
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.PageSize)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Rows, 5)
	assert.Equal(t, "2024-01-01", page.Rows[0].Value(domain.ColumnDate))
	assert.Equal(t, int64(1000), page.Rows[0].Impressions)
	assert.Nil(t, page.Rows[0].CostMicros)
	require.Len(t, backend.MetricsRequests(), 1)
	assert.False(t, backend.MetricsRequests()[0].Has("sort_by"))
}

func TestFetchPageAdminFilteredAndSorted(t *testing.T) {
	t.Parallel()
	_, gw, token := signedIn(t, "admin", apitest.Rows("acc-9", 40))
	q := domain.DefaultQuery(10).WithDateRange("2024-01-05", "2024-01-20").ToggleSort(domain.ColumnImpressions).ToggleSort(domain.ColumnImpressions)
	page, err := gw.FetchPage(context.Background(), token, q)
	require.NoError(t, err)
	assert.Equal(t, 16, page.Total)
	require.Len(t, page.Rows, 10)
	assert.Equal(t, "2024-01-20", page.Rows[0].Value(domain.ColumnDate))
	require.NotNil(t, page.Rows[0].CostMicros)
	assert.Equal(t, int64(250000+19*1000), *page.Rows[0].CostMicros)
}

func TestFetchPageAdoptsClampedPageSize(t *testing.T) {
	t.Parallel()
	_, gw, token := signedIn(t, "viewer", apitest.Rows("acc-1", 3))
	q := domain.DefaultQuery(5000)
	page, err := gw.FetchPage(context.Background(), token, q)
	require.NoError(t, err)
	assert.Equal(t, 1000, page.PageSize)
}

func TestFetchPageErrors(t *testing.T) {
	t.Parallel()
	backend, gw, token := signedIn(t, "viewer", apitest.Rows("acc-1", 3))

	_, err := gw.FetchPage(context.Background(), token, domain.DefaultQuery(10).ToggleSort("bogus"))
	require.True(t, apperrors.IsRequest(err), "got %v", err)
	assert.Equal(t, "Invalid sort_by column: bogus", apperrors.Message(err))

	backend.Revoke(token)
	_, err = gw.FetchPage(context.Background(), token, domain.DefaultQuery(10))
	require.True(t, apperrors.IsAuth(err), "got %v", err)
	assert.Equal(t, "Could not validate credentials", apperrors.Message(err))
}

func TestFetchPageDecodesLooseRows(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"account_id":42,"date":"2025-09-01T00:00:00","impressions":1000.0,"clicks":"50","conversions":null,"cost_micros":1230000},
			{"account_id":"acc-2","date":"2025-09-02","impressions":1,"clicks":2,"conversions":3,"cost_micros":null}
		],"page":1,"page_size":100,"total":2}`))
	}))
	t.Cleanup(srv.Close)
	client, err := apiclient.New(srv.URL, time.Second, nil)
	require.NoError(t, err)
	page, err := metricsoutadapter.NewHTTPGateway(client).FetchPage(context.Background(), "tok", domain.DefaultQuery(100))
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)
	first := page.Rows[0]
	assert.Equal(t, "42", first.AccountID)
	assert.Equal(t, "2025-09-01", first.Value(domain.ColumnDate))
	assert.Equal(t, int64(1000), first.Impressions)
	assert.Equal(t, int64(50), first.Clicks)
	assert.Equal(t, int64(0), first.Conversions)
	require.NotNil(t, first.CostMicros)
	assert.Equal(t, "1230000", first.Value(domain.ColumnCostMicros))
	assert.Nil(t, page.Rows[1].CostMicros)
	assert.Equal(t, "2025-09-02", page.Rows[1].Value(domain.ColumnDate))
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"2024-03-04", "2024-03-04T00:00:00", "2024-03-04T10:11:12Z", "2024-03-04 05:06:07"} {
		assert.Equal(t, "2024-03-04", metricsoutadapter.ParseDate(raw).Format(domain.DateLayout), raw)
	}
	assert.True(t, metricsoutadapter.ParseDate("yesterday").IsZero())
}
