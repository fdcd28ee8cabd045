package usecase_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	authoutadapter "adsdash/internal/modules/auth/adapter/out"
	"adsdash/internal/modules/auth/dto"
	"adsdash/internal/modules/auth/service"
	"adsdash/internal/modules/auth/usecase"
	"adsdash/internal/platform/apiclient"
	"adsdash/internal/platform/apiclient/apitest"
	"adsdash/internal/platform/clock"
	apperrors "adsdash/internal/platform/errors"
)

func TestLoginRestoreLogoutAcrossProcesses(t *testing.T) {
	t.Parallel()
	backend := &apitest.Backend{Users: []apitest.User{
		{ID: 7, Email: "vera@example.com", FullName: "Vera Viewer", Role: "viewer", Password: "secret"},
	}}
	srv := apitest.NewServer(t, backend)
	dbPath := filepath.Join(t.TempDir(), "adsdash.db")
	clk := clock.SystemClock{}

	build := func() *usecase.Interactor {
		client, err := apiclient.New(srv.URL, time.Second, nil)
		if err != nil {
			t.Fatalf("client: %v", err)
		}
		store, err := authoutadapter.NewSQLiteTokenStore(dbPath, clk)
		if err != nil {
			t.Fatalf("store: %v", err)
		}
		svc := service.NewSessionService(clk, store, authoutadapter.NewHTTPGateway(client), nil)
		return usecase.NewInteractor(svc, authoutadapter.NewJWTInspector(), clk).(*usecase.Interactor)
	}

	first := build()
	if _, err := first.Login(context.Background(), dto.LoginInput{Email: "vera@example.com", Password: "nope"}); !apperrors.IsAuth(err) {
		t.Fatalf("expected auth error for wrong password, got %v", err)
	}
	out, err := first.Login(context.Background(), dto.LoginInput{Email: "vera@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !out.HasUser || out.User.Role != "viewer" || out.User.IsAdmin {
		t.Fatalf("unexpected login output %+v", out)
	}

	second := build()
	restored, err := second.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.Restored || restored.User.FullName != "Vera Viewer" {
		t.Fatalf("unexpected restore output %+v", restored)
	}
	status, err := second.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.SignedIn || !status.HasUser || status.Subject != "" {
		t.Fatalf("opaque fake token should report signed in without claims, got %+v", status)
	}

	if err := second.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	third := build()
	if _, err := third.Restore(context.Background()); err != apperrors.ErrNoSession {
		t.Fatalf("expected no session after logout, got %v", err)
	}
	if _, ok := third.Token(context.Background()); ok {
		t.Fatalf("token must be gone after logout")
	}
}
