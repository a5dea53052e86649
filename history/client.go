// Package history is the REST side of the chat server: the room list,
// per-room message history, and the non-realtime fallback send path.
// Only the client-visible contract is assumed; everything behind the
// endpoints belongs to the server.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/lo"

	"shelftalk/domain"
	"shelftalk/errors"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient}
}

type wireRoom struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	RoomType    string `json:"room_type"`
	UnreadCount int    `json:"unread_count"`
}

type wireMessage struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type messagesPage struct {
	Messages []wireMessage `json:"messages"`
}

// ListRooms fetches the rooms visible to the authenticated user, in
// server order.
func (c *Client) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var rooms []wireRoom
	if err := c.get(ctx, "/rooms", &rooms); err != nil {
		return nil, err
	}
	return lo.Map(rooms, func(r wireRoom, _ int) domain.Room {
		return domain.Room{
			ID:          domain.RoomID(r.ID),
			Name:        r.Name,
			Kind:        domain.RoomKind(r.RoomType),
			UnreadCount: r.UnreadCount,
		}
	}), nil
}

// RoomMessages fetches up to limit recent messages for the room. A reply
// without a messages field is an empty history, not an error.
func (c *Client) RoomMessages(ctx context.Context, roomID domain.RoomID, limit int) ([]domain.Message, error) {
	var page messagesPage
	path := fmt.Sprintf("/messages/room/%d?limit=%d", roomID, limit)
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return lo.Map(page.Messages, func(m wireMessage, _ int) domain.Message {
		return toDomainMessage(m)
	}), nil
}

// CreateRoom creates a room and returns it.
func (c *Client) CreateRoom(ctx context.Context, name string, kind domain.RoomKind) (domain.Room, error) {
	payload := map[string]any{"name": name, "room_type": string(kind)}
	var created wireRoom
	if err := c.post(ctx, "/rooms", payload, &created); err != nil {
		return domain.Room{}, err
	}
	return domain.Room{
		ID:          domain.RoomID(created.ID),
		Name:        created.Name,
		Kind:        domain.RoomKind(created.RoomType),
		UnreadCount: created.UnreadCount,
	}, nil
}

// PostMessage is the non-realtime send path, used when the websocket is
// unavailable. Like the realtime path, the created message only becomes
// visible through history or a new_message echo.
func (c *Client) PostMessage(ctx context.Context, roomID domain.RoomID, content string) (domain.Message, error) {
	payload := map[string]any{"room_id": int64(roomID), "content": content}
	var created wireMessage
	if err := c.post(ctx, "/messages", payload, &created); err != nil {
		return domain.Message{}, err
	}
	return toDomainMessage(created), nil
}

func toDomainMessage(m wireMessage) domain.Message {
	return domain.Message{
		ID:        m.ID,
		RoomID:    domain.RoomID(m.RoomID),
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the body shows up in the error.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%w: %s %s -> %d %s",
			errors.ErrUnexpectedReply, req.Method, req.URL.Path, resp.StatusCode, string(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s reply: %w", req.URL.Path, err)
	}
	return nil
}
