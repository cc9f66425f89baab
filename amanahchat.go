// Package amanahchat provides the embeddable Go SDK for the AmanahChat
// widget backend.
//
// It covers the REST API, the realtime push hub, and the client-side state
// the widget UI renders from: navigation, the chat list, and the open
// conversation.
//
// Example:
//
//	client := amanahchat.NewClient(token, amanahchat.WithBaseURL("https://chat.example.com"))
//	hub := amanahchat.NewHubClient("https://chat.example.com", amanahchat.HubConfig{
//		Token:         token,
//		AutoReconnect: true,
//	})
//
//	widget := amanahchat.NewWidget(amanahchat.WidgetConfig{
//		Client:    client,
//		Transport: hub,
//		Identity:  amanahchat.Identity{UserID: "u-1", WorkspaceID: "w-1"},
//	})
//	widget.Start(ctx)
package amanahchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.amanahchat.app"
	DefaultTimeout = 30 * time.Second
)

// ============================================================================
// Client
// ============================================================================

// Client is the REST API client.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// NewClient creates a new AmanahChat REST client authenticated with the
// session token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken updates the auth token, e.g. after a refresh.
func (c *Client) SetToken(token string) {
	c.token = token
}

// ============================================================================
// Internal request helpers
// ============================================================================

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string, query map[string]string) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		params := url.Values{}
		for k, v := range query {
			params.Set(k, v)
		}
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error: HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// call performs a JSON request and unwraps the response envelope.
func (c *Client) call(ctx context.Context, method, path string, body interface{}, query map[string]string) (*APIResult, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
		contentType = "application/json"
	}

	data, err := c.doRequest(ctx, method, path, reader, contentType, query)
	if err != nil {
		return nil, err
	}

	result, err := decodeJSON[APIResult](data)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// ============================================================================
// Chat Rooms
// ============================================================================

// GetChatRooms lists the viewer's conversations with summary metadata.
func (c *Client) GetChatRooms(ctx context.Context) ([]ConversationSummary, error) {
	result, err := c.call(ctx, "GET", "/api/ChatRooms/GetChatRoomsByUser", nil, nil)
	if err != nil {
		return nil, err
	}
	var rooms []ConversationSummary
	if err := result.Decode(&rooms); err != nil {
		return nil, fmt.Errorf("failed to decode chat rooms: %w", err)
	}
	return rooms, nil
}

// CreateChatRoom creates a group room and returns its id.
func (c *Client) CreateChatRoom(ctx context.Context, req CreateRoomRequest) (string, error) {
	result, err := c.call(ctx, "POST", "/api/ChatRooms/Add", req, nil)
	if err != nil {
		return "", err
	}
	var id string
	if err := result.Decode(&id); err != nil {
		return "", fmt.Errorf("failed to decode room id: %w", err)
	}
	return id, nil
}

// CreateDirectChat creates (or returns the existing) one-to-one room with
// the given user.
func (c *Client) CreateDirectChat(ctx context.Context, userID string) (string, error) {
	result, err := c.call(ctx, "POST", "/api/ChatRooms/CreateDirectChat",
		map[string]string{"userId": userID}, nil)
	if err != nil {
		return "", err
	}
	var id string
	if err := result.Decode(&id); err != nil {
		return "", fmt.Errorf("failed to decode room id: %w", err)
	}
	return id, nil
}

// DeleteChatRoom removes a room the viewer administers.
func (c *Client) DeleteChatRoom(ctx context.Context, chatRoomID string) error {
	_, err := c.call(ctx, "DELETE", "/api/ChatRooms/Delete/"+chatRoomID, nil, nil)
	return err
}

// GetRoomMembers lists the participants of a room.
func (c *Client) GetRoomMembers(ctx context.Context, chatRoomID string) ([]RoomMember, error) {
	result, err := c.call(ctx, "GET", "/api/ChatRooms/GetRoomMembers/"+chatRoomID, nil, nil)
	if err != nil {
		return nil, err
	}
	var members []RoomMember
	if err := result.Decode(&members); err != nil {
		return nil, fmt.Errorf("failed to decode room members: %w", err)
	}
	return members, nil
}

// AddRoomMembers adds users to a room.
func (c *Client) AddRoomMembers(ctx context.Context, chatRoomID string, members []AddRoomMemberRequest) error {
	_, err := c.call(ctx, "POST", "/api/ChatRooms/AddRoomMembers/"+chatRoomID, members, nil)
	return err
}

// RemoveRoomMember removes one membership from a room.
func (c *Client) RemoveRoomMember(ctx context.Context, roomMemberID string) error {
	_, err := c.call(ctx, "DELETE", "/api/ChatRooms/RemoveRoomMember/"+roomMemberID, nil, nil)
	return err
}

// ============================================================================
// Messages
// ============================================================================

// GetMessages returns one page of a room's history, oldest first.
func (c *Client) GetMessages(ctx context.Context, chatRoomID string, page, pageSize int) ([]Message, error) {
	query := map[string]string{}
	if page > 0 {
		query["page"] = strconv.Itoa(page)
	}
	if pageSize > 0 {
		query["pageSize"] = strconv.Itoa(pageSize)
	}
	if len(query) == 0 {
		query = nil
	}

	result, err := c.call(ctx, "GET", "/api/Messages/RoomMessages/"+chatRoomID, nil, query)
	if err != nil {
		return nil, err
	}
	var msgs []Message
	if err := result.Decode(&msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}

// SendMessage posts a message as multipart form data and returns the id the
// backend assigned. The file part is included only when req.File is set.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (string, error) {
	if req.ChatRoomID == "" || req.RoomMemberID == "" {
		return "", fmt.Errorf("chatRoomId and roomMemberId are required")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("roomMemberId", req.RoomMemberID)
	_ = w.WriteField("chatRoomId", req.ChatRoomID)
	_ = w.WriteField("message", req.Body)

	if len(req.File) > 0 {
		name := req.FileName
		if name == "" {
			name = "attachment"
		}
		part, err := w.CreateFormFile("file", name)
		if err != nil {
			return "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(req.File); err != nil {
			return "", fmt.Errorf("failed to write file data: %w", err)
		}
	}
	_ = w.Close()

	data, err := c.doRequest(ctx, "POST", "/api/Messages/Add", &buf, w.FormDataContentType(), nil)
	if err != nil {
		return "", err
	}

	result, err := decodeJSON[APIResult](data)
	if err != nil {
		return "", err
	}
	if err := result.Err(); err != nil {
		return "", err
	}

	var id string
	if err := result.Decode(&id); err != nil {
		return "", fmt.Errorf("failed to decode message id: %w", err)
	}
	return id, nil
}

// DeleteMessage removes a message the viewer sent.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	_, err := c.call(ctx, "DELETE", "/api/Messages/Delete/"+messageID, nil, nil)
	return err
}

// ============================================================================
// Users
// ============================================================================

// GetUsersByWorkspace lists the members of a workspace.
func (c *Client) GetUsersByWorkspace(ctx context.Context, workspaceID string) ([]WorkspaceUser, error) {
	result, err := c.call(ctx, "GET", "/api/Users/GetUsersByWorkspace/"+workspaceID, nil, nil)
	if err != nil {
		return nil, err
	}
	var users []WorkspaceUser
	if err := result.Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
