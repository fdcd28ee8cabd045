package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"adsdash/internal/modules/auth/domain"
	authout "adsdash/internal/modules/auth/port/out"
	"adsdash/internal/platform/clock"
	apperrors "adsdash/internal/platform/errors"
)

// SessionService owns the one live session of the process. Nothing else reads the token store.
type SessionService struct {
	clock   clock.Clock
	store   authout.TokenStore
	gateway authout.Gateway
	log     *zap.Logger

	mu      sync.Mutex
	current *domain.Session
}

func NewSessionService(clock clock.Clock, store authout.TokenStore, gateway authout.Gateway, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{clock: clock, store: store, gateway: gateway, log: log}
}

// Login exchanges credentials for a token, persists it and resolves the user.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, &apperrors.AuthError{Message: "email and password are required"}
	}
	token, err := s.gateway.Authenticate(ctx, email, password)
	if err != nil {
		s.log.Info("login rejected", zap.String("email", email), zap.Error(err))
		return domain.Session{}, err
	}
	if err := s.store.Set(ctx, token); err != nil {
		return domain.Session{}, fmt.Errorf("persist token: %w", err)
	}
	session := &domain.Session{Token: token, CreatedAt: s.clock.Now()}
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	user, err := s.gateway.FetchSelf(ctx, token)
	if err != nil {
		if apperrors.IsAuth(err) {
			s.dropRejected(ctx)
		}
		return domain.Session{}, err
	}
	s.log.Info("login succeeded", zap.String("email", user.Email), zap.String("role", string(user.Role)))
	return s.attachUser(session, user), nil
}

// Restore rebuilds the session from a persisted token. A rejected token is cleared; a network
// failure keeps the session without a user so the dashboard can try again.
func (s *SessionService) Restore(ctx context.Context) (domain.Session, error) {
	token, ok, err := s.store.Get(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return domain.Session{}, apperrors.ErrNoSession
	}
	session := &domain.Session{Token: token, CreatedAt: s.clock.Now()}
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	user, err := s.gateway.FetchSelf(ctx, token)
	if err != nil {
		if apperrors.IsAuth(err) {
			s.log.Info("stored token rejected", zap.Error(err))
			s.dropRejected(ctx)
			return domain.Session{}, err
		}
		s.log.Warn("resolve user failed", zap.Error(err))
		return *session, err
	}
	return s.attachUser(session, user), nil
}

// ResolveUser fetches the user for the live session when it is not known yet.
func (s *SessionService) ResolveUser(ctx context.Context) (domain.User, error) {
	s.mu.Lock()
	session := s.current
	var known *domain.User
	if session != nil {
		known = session.User
	}
	s.mu.Unlock()
	if session == nil {
		return domain.User{}, apperrors.ErrNoSession
	}
	if known != nil {
		return *known, nil
	}
	user, err := s.gateway.FetchSelf(ctx, session.Token)
	if err != nil {
		if apperrors.IsAuth(err) {
			s.dropRejected(ctx)
		}
		return domain.User{}, err
	}
	s.attachUser(session, user)
	return user, nil
}

func (s *SessionService) Current() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Session{}, false
	}
	return *s.current, true
}

// Invalidate destroys the session and clears the persisted token.
func (s *SessionService) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// dropRejected clears a token the backend refused. A failed clear leaves the token on disk,
// so the next restore will be rejected again.
func (s *SessionService) dropRejected(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil {
		s.log.Warn("clear rejected token", zap.Error(err))
	}
}

// Adopt loads a persisted token into memory without contacting the backend. One-shot CLI
// commands use it; the user is resolved lazily.
func (s *SessionService) Adopt(ctx context.Context) (domain.Session, bool, error) {
	s.mu.Lock()
	if s.current != nil {
		defer s.mu.Unlock()
		return *s.current, true, nil
	}
	s.mu.Unlock()
	token, ok, err := s.store.Get(ctx)
	if err != nil || !ok {
		return domain.Session{}, false, err
	}
	session := &domain.Session{Token: token, CreatedAt: s.clock.Now()}
	s.mu.Lock()
	if s.current == nil {
		s.current = session
	}
	out := *s.current
	s.mu.Unlock()
	return out, true, nil
}

func (s *SessionService) attachUser(session *domain.Session, user domain.User) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	session.User = &u
	return *session
}
