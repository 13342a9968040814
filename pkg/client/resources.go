package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/burnes-center/fair/pkg/llm"
	"github.com/burnes-center/fair/pkg/storage"
)

// LoginResult identifies the logged-in user. The backend creates unknown
// users on first login.
type LoginResult struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

// SessionSummary is one entry of a session listing.
type SessionSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatorID int64  `json:"creator_id,omitempty"`
}

// ChatSummary is one entry of a chat listing.
type ChatSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Session is a fully loaded session.
type Session struct {
	SessionID  int64         `json:"session_id"`
	Name       string        `json:"name"`
	Summary    string        `json:"summary"`
	Transcript string        `json:"transcript"`
	Messages   []llm.Message `json:"messages"`
	Chats      []ChatSummary `json:"chats"`
}

// Chat is a fully loaded chat thread.
type Chat struct {
	ChatID      int64         `json:"chat_id"`
	Name        string        `json:"name"`
	SessionID   int64         `json:"session_id"`
	SessionName string        `json:"session_name"`
	Messages    []llm.Message `json:"messages"`
}

// CreatedChat is the answer to CreateChat.
type CreatedChat struct {
	Message string `json:"message"`
	ChatID  int64  `json:"chat_id"`
	Name    string `json:"name"`
}

// RelayList is a page of relay records.
type RelayList struct {
	Count  int               `json:"count"`
	Relays []*storage.Record `json:"relays"`
}

func (c *Client) Login(ctx context.Context, username string) (*LoginResult, error) {
	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("login"), map[string]string{"username": username}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions returns every session known to the backend.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	var out []SessionSummary
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("sessions"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserSessions returns the sessions a user is subscribed to.
func (c *Client) UserSessions(ctx context.Context, userID string) ([]SessionSummary, error) {
	var out []SessionSummary
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("users", userID, "sessions"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LoadSession(ctx context.Context, sessionID string) (*Session, error) {
	var out Session
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("sessions", sessionID, "load"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameSession(ctx context.Context, sessionID, name string) error {
	return c.doJSON(ctx, http.MethodPatch, c.endpoint("session", sessionID), map[string]string{"name": name}, nil)
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.endpoint("sessions", sessionID, "delete"), nil, nil)
}

func (c *Client) ListChats(ctx context.Context, sessionID string) ([]ChatSummary, error) {
	var out []ChatSummary
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("chats", sessionID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateChat opens a new chat thread seeded with the start of the
// session's default chat.
func (c *Client) CreateChat(ctx context.Context, sessionID, name string) (*CreatedChat, error) {
	var out CreatedChat
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("chat", "create", sessionID), map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LoadChat(ctx context.Context, chatID string) (*Chat, error) {
	var out Chat
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("chat", chatID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameChat(ctx context.Context, chatID, name string) error {
	return c.doJSON(ctx, http.MethodPatch, c.endpoint("chat", chatID), map[string]string{"name": name}, nil)
}

func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.endpoint("chat", chatID), nil, nil)
}

func (c *Client) Subscribe(ctx context.Context, userID, sessionID string) error {
	return c.doJSON(ctx, http.MethodPost, c.endpoint("users", userID, "subscribe", sessionID), nil, nil)
}

func (c *Client) Unsubscribe(ctx context.Context, userID, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.endpoint("users", userID, "unsubscribe", sessionID), nil, nil)
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.endpoint("users", userID), nil, nil)
}

// GetRelay fetches the record of a finished relay.
func (c *Client) GetRelay(ctx context.Context, relayID string) (*storage.Record, error) {
	var out storage.Record
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("relays", relayID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRelays lists relay records newest first. Empty filters and a zero
// limit leave the gateway defaults in place.
func (c *Client) ListRelays(ctx context.Context, sessionID, endpoint string, limit int) (*RelayList, error) {
	q := url.Values{}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	if endpoint != "" {
		q.Set("endpoint", endpoint)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	target := c.endpoint("relays")
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var out RelayList
	if err := c.doJSON(ctx, http.MethodGet, target, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
