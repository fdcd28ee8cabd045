package domain

import (
	"strconv"
	"time"
)

// DateLayout is how metric dates are shown and exported.
const DateLayout = "2006-01-02"

type MetricRow struct {
	AccountID   string
	Date        time.Time
	Impressions int64
	Clicks      int64
	Conversions int64
	CostMicros  *int64
}

// Value renders the cell for column key. Unknown keys and absent cost render empty.
func (r MetricRow) Value(key string) string {
	switch key {
	case ColumnAccountID:
		return r.AccountID
	case ColumnDate:
		if r.Date.IsZero() {
			return ""
		}
		return r.Date.Format(DateLayout)
	case ColumnImpressions:
		return strconv.FormatInt(r.Impressions, 10)
	case ColumnClicks:
		return strconv.FormatInt(r.Clicks, 10)
	case ColumnConversions:
		return strconv.FormatInt(r.Conversions, 10)
	case ColumnCostMicros:
		if r.CostMicros == nil {
			return ""
		}
		return strconv.FormatInt(*r.CostMicros, 10)
	}
	return ""
}

type PageResult struct {
	Rows     []MetricRow
	Page     int
	PageSize int
	Total    int
}
