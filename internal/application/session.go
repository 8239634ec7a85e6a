package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

// SessionController is the only writer of the authenticated identity.
// It persists the token and nothing else.
type SessionController struct {
	store    ports.StateStore
	decoder  ports.TokenDecoder
	profiles ports.ProfileFetcher
	logger   ports.Logger

	mu      sync.RWMutex
	session domain.Session
}

func NewSessionController(store ports.StateStore, decoder ports.TokenDecoder, profiles ports.ProfileFetcher, logger ports.Logger) *SessionController {
	return &SessionController{store: store, decoder: decoder, profiles: profiles, logger: logger}
}

// SetProfiles wires the profile fetcher after construction. The gateway
// needs the controller as its token source, so one of them comes second.
func (s *SessionController) SetProfiles(profiles ports.ProfileFetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = profiles
}

// Hydrate restores the session from a persisted token. An undecodable token
// is removed. A failed profile fetch keeps the token but leaves the session
// anonymous.
func (s *SessionController) Hydrate(ctx context.Context) (domain.Session, bool) {
	token, err := s.store.Get(ctx, ports.KeyToken)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn(ctx, "session hydrate: read token", "error", err)
		}
		return domain.Session{}, false
	}
	if token == "" {
		return domain.Session{}, false
	}

	claims, err := s.decoder.Decode(token)
	if err != nil {
		s.logger.Warn(ctx, "session hydrate: invalid token", "error", err)
		if delErr := s.store.Delete(ctx, ports.KeyToken); delErr != nil {
			s.logger.Error(ctx, "session hydrate: delete token", "error", delErr)
		}
		s.clear()
		return domain.Session{}, false
	}

	profile, err := s.fetcher().FetchProfile(ctx, token, claims.ID)
	if err != nil {
		s.logger.Error(ctx, "session hydrate: fetch profile", "user_id", claims.ID, "error", err)
		s.clear()
		return domain.Session{}, false
	}

	sess := newSession(token, claims, profile)
	s.set(sess)
	s.logger.Debug(ctx, "session restored", "user_id", sess.ID, "role", sess.Role)
	return sess, true
}

// Login establishes a session from a freshly issued token. Any failure
// leaves the controller anonymous with no persisted token.
func (s *SessionController) Login(ctx context.Context, token string) (domain.Session, error) {
	sess, err := s.login(ctx, token)
	if err != nil {
		s.clear()
		if delErr := s.store.Delete(ctx, ports.KeyToken); delErr != nil {
			s.logger.Error(ctx, "login: delete token", "error", delErr)
		}
		return domain.Session{}, err
	}
	s.set(sess)
	s.logger.Info(ctx, "logged in", "user_id", sess.ID, "role", sess.Role)
	return sess, nil
}

func (s *SessionController) login(ctx context.Context, token string) (domain.Session, error) {
	claims, err := s.decoder.Decode(token)
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.store.Set(ctx, ports.KeyToken, token); err != nil {
		return domain.Session{}, fmt.Errorf("persist token: %w", err)
	}
	profile, err := s.fetcher().FetchProfile(ctx, token, claims.ID)
	if err != nil {
		return domain.Session{}, err
	}
	return newSession(token, claims, profile), nil
}

// Logout always clears memory. A store failure is returned afterwards.
func (s *SessionController) Logout(ctx context.Context) error {
	s.clear()
	if err := s.store.Delete(ctx, ports.KeyToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *SessionController) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.session.Authenticated()
}

// Token is empty while anonymous.
func (s *SessionController) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

func (s *SessionController) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Role
}

// Require returns the session or domain.ErrNoSession.
func (s *SessionController) Require() (domain.Session, error) {
	sess, ok := s.Current()
	if !ok {
		return domain.Session{}, domain.ErrNoSession
	}
	return sess, nil
}

// Refresh replaces the profile part of the session after a profile edit.
func (s *SessionController) Refresh(profile domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Authenticated() || profile.ID != s.session.ID {
		return
	}
	s.session = newSession(s.session.Token, domain.TokenClaims{ID: s.session.ID, Role: s.session.Role}, profile)
}

func (s *SessionController) fetcher() ports.ProfileFetcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles
}

func (s *SessionController) set(sess domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
}

func (s *SessionController) clear() {
	s.set(domain.Session{})
}

// newSession merges the token claims with the fetched profile. The token's
// id and role win over the profile's.
func newSession(token string, claims domain.TokenClaims, p domain.Profile) domain.Session {
	role := claims.Role
	if role == "" {
		role = p.Role
	}
	if role == "" {
		role = domain.RoleUser
	}
	return domain.Session{
		ID:         claims.ID,
		Name:       p.Name,
		Mobile:     p.Mobile,
		Role:       role,
		Gender:     p.Gender,
		DOB:        p.DOB,
		Caste:      p.Caste,
		ProfilePic: p.ProfilePic,
		Documents:  p.Documents,
		Token:      token,
	}
}
