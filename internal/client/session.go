package client

import (
	"context"
	"sync"

	"medifinder/m/domain"
	"medifinder/m/internal/identity"
)

type sessionState struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// Session is the signed-in account and its token. It changes only when
// the server confirms a login or signup, or on Logout.
type Session struct {
	mu    sync.RWMutex
	state sessionState
	store Store
}

// OpenSession restores the session saved in store. A nil store keeps the
// session in memory only.
func OpenSession(store Store) (*Session, error) {
	s := &Session{store: store}
	if store != nil {
		if _, err := store.Load(&s.state); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// User returns the signed-in user, or nil.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *Session) Login(ctx context.Context, c *Client, email, password string) error {
	res, err := c.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.set(res)
}

func (s *Session) Signup(ctx context.Context, c *Client, req SignupRequest) error {
	res, err := c.Signup(ctx, req)
	if err != nil {
		return err
	}
	return s.set(res)
}

func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sessionState{}
	return s.save()
}

func (s *Session) set(res identity.AuthResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := res.User
	s.state = sessionState{User: &u, Token: res.Token}
	return s.save()
}

func (s *Session) save() error {
	if s.store == nil {
		return nil
	}
	return s.store.Save(s.state)
}
