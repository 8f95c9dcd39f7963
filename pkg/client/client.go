// Package client 是服务端 HTTP 和实时接口的 Go 客户端：
// 会话、俱乐部目录、成员关系同步和消息面板。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsStatus 判断 err 是否为指定状态码的 APIError
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
	log        *zap.Logger
	session    *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// New baseURL 形如 http://localhost:8080
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		dialer:     websocket.DefaultDialer,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.session = &Session{api: c}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: errBody.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) ListClubs(ctx context.Context, search string) ([]Club, error) {
	path := "/api/clubs"
	if search != "" {
		path += "?q=" + url.QueryEscape(search)
	}
	var resp struct {
		Clubs []Club `json:"clubs"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Clubs, nil
}

func (c *Client) GetClub(ctx context.Context, id uuid.UUID) (*Club, error) {
	var resp struct {
		Club Club `json:"club"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/clubs/"+id.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Club, nil
}

// Join 返回是否新建了成员关系
func (c *Client) Join(ctx context.Context, clubID uuid.UUID) (bool, error) {
	var resp struct {
		Created bool `json:"created"`
	}
	err := c.do(ctx, http.MethodPost, "/api/clubs/"+clubID.String()+"/membership", nil, &resp)
	return resp.Created, err
}

// Leave 返回是否真的删除了成员关系
func (c *Client) Leave(ctx context.Context, clubID uuid.UUID) (bool, error) {
	var resp struct {
		Removed bool `json:"removed"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/clubs/"+clubID.String()+"/membership", nil, &resp)
	return resp.Removed, err
}

func (c *Client) MyMemberships(ctx context.Context) ([]Membership, error) {
	var resp struct {
		Memberships []Membership `json:"memberships"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me/memberships", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Memberships, nil
}

// Messages limit<=0 时使用服务端默认值
func (c *Client) Messages(ctx context.Context, clubID uuid.UUID, limit int) ([]Message, error) {
	path := "/api/clubs/" + clubID.String() + "/messages"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Messages []Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) GetMessage(ctx context.Context, id uuid.UUID) (*Message, error) {
	var resp struct {
		Message Message `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+id.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

func (c *Client) SendMessage(ctx context.Context, clubID uuid.UUID, content string) (*Message, error) {
	var resp struct {
		Message Message `json:"message"`
	}
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/api/clubs/"+clubID.String()+"/messages", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

func (c *Client) GetProfile(ctx context.Context, id uuid.UUID) (*PublicProfile, error) {
	var resp struct {
		Profile PublicProfile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profiles/"+id.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

// realtimeURL 把 http(s) 地址换成 ws(s)，令牌放在 query 中
func (c *Client) realtimeURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/api/realtime")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.session.Token())
	u.RawQuery = q.Encode()
	return u.String(), nil
}
