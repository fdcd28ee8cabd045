package dto

import "time"

type QueryInput struct {
	StartDate string
	EndDate   string
	SortBy    string
	SortDir   string
	Page      int
	PageSize  int
}

type QueryOutput struct {
	StartDate string
	EndDate   string
	SortBy    string
	SortDir   string
	Page      int
	PageSize  int
}

// Ticket identifies one issued fetch. Only the newest ticket may change the view.
type Ticket struct {
	Seq   uint64
	Query QueryOutput
}

type ColumnOutput struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type RowOutput struct {
	AccountID   string `json:"account_id"`
	Date        string `json:"date"`
	Impressions int64  `json:"impressions"`
	Clicks      int64  `json:"clicks"`
	Conversions int64  `json:"conversions"`
	CostMicros  *int64 `json:"cost_micros,omitempty"`
}

type ViewerOutput struct {
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	IsAdmin     bool   `json:"is_admin"`
}

type ViewOutput struct {
	Columns   []ColumnOutput `json:"columns"`
	Rows      []RowOutput    `json:"rows"`
	Cells     [][]string     `json:"-"`
	Loading   bool           `json:"-"`
	Error     string         `json:"error,omitempty"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	Total     int            `json:"total"`
	CanNext   bool           `json:"-"`
	CanPrev   bool           `json:"-"`
	Summary   string         `json:"-"`
	UpdatedAt time.Time      `json:"updated_at"`
	Query     QueryOutput    `json:"-"`
	Viewer    ViewerOutput   `json:"-"`
	HasViewer bool           `json:"-"`
}

type FetchResult struct {
	Seq       uint64
	Applied   bool
	Stale     bool
	SignedOut bool
	Err       error
}

type ExportOutput struct {
	Path string
	Rows int
}
