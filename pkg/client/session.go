package client

import (
	"context"
	"net/http"
	"sync"
)

// Session 当前登录用户和令牌。其他组件通过它拿到用户ID
type Session struct {
	api *Client

	mu        sync.RWMutex
	token     string
	user      *Profile
	listeners map[int]func(*Profile)
	nextID    int
}

func (s *Session) Register(ctx context.Context, req RegisterRequest) (*Profile, error) {
	var resp struct {
		User Profile `json:"user"`
	}
	if err := s.api.do(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login 成功后通知所有监听者
func (s *Session) Login(ctx context.Context, email, password string) (*Profile, error) {
	var resp struct {
		Token string  `json:"token"`
		User  Profile `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := s.api.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	s.set(resp.Token, &resp.User)
	return &resp.User, nil
}

// Restore 使用已保存的令牌恢复会话
func (s *Session) Restore(ctx context.Context, token string) (*Profile, error) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	var resp struct {
		Profile Profile `json:"profile"`
	}
	if err := s.api.do(ctx, http.MethodGet, "/api/profiles/me", nil, &resp); err != nil {
		s.set("", nil)
		return nil, err
	}
	s.set(token, &resp.Profile)
	return &resp.Profile, nil
}

func (s *Session) Logout() {
	s.set("", nil)
}

func (s *Session) set(token string, user *Profile) {
	s.mu.Lock()
	s.token = token
	s.user = user
	listeners := make([]func(*Profile), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User 未登录时返回 nil
func (s *Session) User() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}

// OnChange 登录、登出时调用 fn，返回取消监听的函数
func (s *Session) OnChange(fn func(*Profile)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[int]func(*Profile))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
