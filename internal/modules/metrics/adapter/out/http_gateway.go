package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"adsdash/internal/modules/metrics/domain"
	metricsout "adsdash/internal/modules/metrics/port/out"
	"adsdash/internal/platform/apiclient"
)

type HTTPGateway struct {
	client *apiclient.Client
}

func NewHTTPGateway(client *apiclient.Client) metricsout.Gateway {
	return &HTTPGateway{client: client}
}

func (g *HTTPGateway) FetchPage(ctx context.Context, token string, query domain.QuerySpec) (domain.PageResult, error) {
	var payload pagePayload
	if err := g.client.GetJSON(ctx, "metrics", "/metrics", token, QueryParams(query), &payload); err != nil {
		return domain.PageResult{}, err
	}
	out := domain.PageResult{
		Rows:     make([]domain.MetricRow, 0, len(payload.Data)),
		Page:     payload.Page,
		PageSize: payload.PageSize,
		Total:    payload.Total,
	}
	for _, r := range payload.Data {
		out.Rows = append(out.Rows, r.toDomain())
	}
	return out, nil
}

// QueryParams encodes query for /metrics. Absent fields are omitted; sort_dir travels only
// with sort_by.
func QueryParams(query domain.QuerySpec) url.Values {
	v := url.Values{}
	if query.StartDate != "" {
		v.Set("start_date", query.StartDate)
	}
	if query.EndDate != "" {
		v.Set("end_date", query.EndDate)
	}
	if query.SortBy != "" {
		v.Set("sort_by", query.SortBy)
		dir := query.SortDir
		if dir == "" {
			dir = domain.SortAsc
		}
		v.Set("sort_dir", string(dir))
	}
	v.Set("page", strconv.Itoa(query.Page))
	v.Set("page_size", strconv.Itoa(query.PageSize))
	return v
}

type pagePayload struct {
	Data     []rowPayload `json:"data"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Total    int          `json:"total"`
}

type rowPayload struct {
	AccountID   flexString `json:"account_id"`
	Date        flexTime   `json:"date"`
	Impressions flexInt    `json:"impressions"`
	Clicks      flexInt    `json:"clicks"`
	Conversions flexInt    `json:"conversions"`
	CostMicros  *flexInt   `json:"cost_micros"`
}

func (r rowPayload) toDomain() domain.MetricRow {
	row := domain.MetricRow{
		AccountID:   string(r.AccountID),
		Date:        time.Time(r.Date),
		Impressions: int64(r.Impressions),
		Clicks:      int64(r.Clicks),
		Conversions: int64(r.Conversions),
	}
	if r.CostMicros != nil {
		c := int64(*r.CostMicros)
		row.CostMicros = &c
	}
	return row
}

// flexString accepts a JSON string or number; account ids arrive as either.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	*s = flexString(b)
	return nil
}

// flexInt accepts integers, integral floats (12.0) and numeric strings. Null decodes to zero,
// or to a nil pointer where the field is optional.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	v, err := parseFlexInt(b)
	if err != nil {
		return err
	}
	*n = flexInt(v)
	return nil
}

func parseFlexInt(b []byte) (int64, error) {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		return 0, nil
	}
	raw = strings.Trim(raw, `"`)
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("decode integer %q", raw)
	}
	return int64(math.Round(f)), nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	domain.DateLayout,
}

// flexTime accepts ISO dates with or without time and zone. Unparseable values decode to zero
// and render empty.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		*t = flexTime{}
		return nil
	}
	*t = flexTime(ParseDate(raw))
	return nil
}

func ParseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}
