// Package apitest runs an in-process fake of the metrics backend for adapter and usecase tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type User struct {
	ID       int
	Email    string
	FullName string
	Role     string
	Password string
}

// Backend mirrors the backend contract: form login, bearer /me, paginated /metrics.
type Backend struct {
	Users []User
	Rows  []map[string]any

	// Delay, when set, holds a /metrics response for the returned duration.
	Delay func(query url.Values) time.Duration
	// Fail, when set and returning a non-zero status, replaces the /metrics response.
	Fail func(query url.Values) (status int, detail string)

	mu       sync.Mutex
	tokens   map[string]string
	requests []url.Values
}

func NewServer(t testing.TB, b *Backend) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/token", b.token)
	r.Get("/me", b.me)
	r.Get("/metrics", b.metrics)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// Revoke invalidates token as if it had expired.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// SetDelay replaces Delay while the server is running.
func (b *Backend) SetDelay(fn func(query url.Values) time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Delay = fn
}

// SetFail replaces Fail while the server is running.
func (b *Backend) SetFail(fn func(query url.Values) (int, string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Fail = fn
}

// MetricsRequests returns the query of every /metrics call in arrival order.
func (b *Backend) MetricsRequests() []url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]url.Values, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *Backend) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "bad form")
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	for _, u := range b.Users {
		if u.Email == email && u.Password == password {
			token := "tok-" + strings.ReplaceAll(email, "@", "-at-")
			b.mu.Lock()
			if b.tokens == nil {
				b.tokens = map[string]string{}
			}
			b.tokens[token] = email
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"access_token": token, "token_type": "bearer"})
			return
		}
	}
	writeDetail(w, http.StatusBadRequest, "Incorrect email or password")
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authorize(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "email": u.Email, "full_name": u.FullName, "role": u.Role})
}

func (b *Backend) metrics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	b.mu.Lock()
	b.requests = append(b.requests, query)
	b.mu.Unlock()

	u, ok := b.authorize(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	b.mu.Lock()
	delay, fail := b.Delay, b.Fail
	b.mu.Unlock()
	if delay != nil {
		select {
		case <-time.After(delay(query)):
		case <-r.Context().Done():
			return
		}
	}
	if fail != nil {
		if status, detail := fail(query); status != 0 {
			writeDetail(w, status, detail)
			return
		}
	}

	rows := make([]map[string]any, 0, len(b.Rows))
	start, end := query.Get("start_date"), query.Get("end_date")
	for _, row := range b.Rows {
		day := fmt.Sprint(row["date"])
		if len(day) >= 10 {
			day = day[:10]
		}
		if start != "" && day < start {
			continue
		}
		if end != "" && day > end {
			continue
		}
		rows = append(rows, row)
	}

	if sortBy := query.Get("sort_by"); sortBy != "" {
		if len(b.Rows) > 0 {
			if _, ok := b.Rows[0][sortBy]; !ok {
				writeDetail(w, http.StatusBadRequest, "Invalid sort_by column: "+sortBy)
				return
			}
		}
		desc := strings.ToLower(query.Get("sort_dir")) == "desc"
		sort.SliceStable(rows, func(i, j int) bool {
			less := compare(rows[i][sortBy], rows[j][sortBy])
			if desc {
				return less > 0
			}
			return less < 0
		})
	}

	page := atoiDefault(query.Get("page"), 1)
	pageSize := atoiDefault(query.Get("page_size"), 100)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 1000 {
		pageSize = 1000
	}
	if page < 1 {
		page = 1
	}
	total := len(rows)
	from := (page - 1) * pageSize
	to := from + pageSize
	if from > total {
		from = total
	}
	if to > total {
		to = total
	}
	data := make([]map[string]any, 0, to-from)
	for _, row := range rows[from:to] {
		copied := make(map[string]any, len(row))
		for k, v := range row {
			if k == "cost_micros" && u.Role != "admin" {
				continue
			}
			copied[k] = v
		}
		data = append(data, copied)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "page": page, "page_size": pageSize, "total": total})
}

func (b *Backend) authorize(r *http.Request) (User, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	b.mu.Lock()
	email, ok := b.tokens[token]
	b.mu.Unlock()
	if !ok {
		return User{}, false
	}
	for _, u := range b.Users {
		if u.Email == email {
			return u, true
		}
	}
	return User{}, false
}

func compare(a, b any) int {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func atoiDefault(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Rows builds n rows for account acc, one per day starting at 2024-01-01.
func Rows(acc string, n int) []map[string]any {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{
			"account_id":  acc,
			"date":        base.AddDate(0, 0, i).Format("2006-01-02T15:04:05"),
			"impressions": 1000 + i*10,
			"clicks":      50 + i,
			"conversions": i % 7,
			"cost_micros": 250000 + i*1000,
		})
	}
	return out
}
