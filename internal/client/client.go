// Package client is a small typed client for the companion HTTP API, used by
// the CLI to drive a running server.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultServerURL = "http://127.0.0.1:37777"
	httpTimeout      = 90 * time.Second
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Client talks to the companion server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty URL respects COMPANION_URL
// and falls back to http://127.0.0.1:37777.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("COMPANION_URL")
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: strings.TrimRight(serverURL, "/"),
	}
}

// URL returns the server base URL.
func (c *Client) URL() string { return c.serverURL }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return apiError(method, path, resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func apiError(method, path string, status int, data []byte) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Method: method, Path: path, Status: status, Message: msg}
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil) == nil
}

// User is a registered participant.
type User struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	ConditionID string    `json:"condition_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is one conversation window.
type Session struct {
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// Condition is a user's assigned condition with its participant-facing text.
type Condition struct {
	UserID      string `json:"user_id"`
	ConditionID string `json:"condition_id"`
	Description string `json:"description"`
}

// Candidate is a proposed memory awaiting review.
type Candidate struct {
	MemoryID string `json:"memory_id"`
	Text     string `json:"text"`
}

// ChatReply is the outcome of one turn.
type ChatReply struct {
	Response   string      `json:"response"`
	Candidates []Candidate `json:"memory_candidates"`
}

// RegisterUser creates a participant. An empty condition takes the server default.
func (c *Client) RegisterUser(ctx context.Context, username, conditionID string) (*User, error) {
	var u User
	err := c.do(ctx, http.MethodPost, "/api/users", map[string]string{
		"username":     username,
		"condition_id": conditionID,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Condition returns the user's current condition.
func (c *Client) Condition(ctx context.Context, userID string) (*Condition, error) {
	var cond Condition
	if err := c.do(ctx, http.MethodGet, "/api/conditions/"+url.PathEscape(userID), nil, &cond); err != nil {
		return nil, err
	}
	return &cond, nil
}

// SetCondition reassigns the user's condition.
func (c *Client) SetCondition(ctx context.Context, userID, conditionID string) (*Condition, error) {
	var cond Condition
	err := c.do(ctx, http.MethodPut, "/api/conditions/"+url.PathEscape(userID),
		map[string]string{"condition_id": conditionID}, &cond)
	if err != nil {
		return nil, err
	}
	return &cond, nil
}

// StartSession opens a session, ending any the user still has open.
func (c *Client) StartSession(ctx context.Context, userID string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", map[string]string{"user_id": userID}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// EndSession closes a session.
func (c *Client) EndSession(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(sessionID)+"/end", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Context returns the context block the next turn of the session would carry.
func (c *Client) Context(ctx context.Context, userID, sessionID string) (string, error) {
	q := url.Values{"user_id": {userID}, "session_id": {sessionID}}
	var out struct {
		Context string `json:"context"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/context?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	return out.Context, nil
}

// Chat sends one message and waits for the full reply.
func (c *Client) Chat(ctx context.Context, userID, sessionID, message string) (*ChatReply, error) {
	var reply ChatReply
	err := c.do(ctx, http.MethodPost, "/api/chat", map[string]string{
		"user_id":    userID,
		"session_id": sessionID,
		"message":    message,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// ApproveMemory activates a candidate.
func (c *Client) ApproveMemory(ctx context.Context, memoryID string) error {
	return c.do(ctx, http.MethodPost, "/api/memories/"+url.PathEscape(memoryID)+"/approve", nil, nil)
}

type streamEvent struct {
	Token      string      `json:"token"`
	Done       bool        `json:"done"`
	Reply      string      `json:"reply"`
	Candidates []Candidate `json:"candidates"`
	Error      string      `json:"error"`
}

// ChatStream sends one message and calls onToken for each reply fragment as
// it arrives. The returned reply carries the assembled text and candidates.
func (c *Client) ChatStream(ctx context.Context, userID, sessionID, message string, onToken func(string)) (*ChatReply, error) {
	const path = "/api/chat/stream"
	raw, err := json.Marshal(map[string]string{
		"user_id":    userID,
		"session_id": sessionID,
		"message":    message,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return nil, apiError(http.MethodPost, path, resp.StatusCode, data)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			return nil, fmt.Errorf("decode stream event: %w", err)
		}
		switch {
		case ev.Error != "":
			return nil, fmt.Errorf("POST %s: %s", path, ev.Error)
		case ev.Done:
			return &ChatReply{Response: ev.Reply, Candidates: ev.Candidates}, nil
		case onToken != nil:
			onToken(ev.Token)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return nil, fmt.Errorf("POST %s: stream ended before completion", path)
}
