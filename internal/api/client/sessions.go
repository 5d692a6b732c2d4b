package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// CurrentSession asks the service for its current session. A 404 is the
// routine "none set yet" answer and is reported as found == false.
func (c *Client) CurrentSession(ctx context.Context) (id string, found bool, err error) {
	var resp SessionResponse
	err = c.call(ctx, http.MethodGet, "/current-session", nil, &resp)
	if IsStatus(err, http.StatusNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if resp.SessionID == "" {
		return "", false, nil
	}
	return resp.SessionID, true, nil
}

// CreateSession creates a named session and returns the id the service assigned.
func (c *Client) CreateSession(ctx context.Context, name string, makeCurrent bool) (string, error) {
	var resp SessionResponse
	req := CreateSessionRequest{Name: name, MakeCurrent: makeCurrent}
	if err := c.call(ctx, http.MethodPost, "/sessions", req, &resp); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if resp.SessionID == "" {
		return "", errors.New("create session: empty session id in response")
	}
	return resp.SessionID, nil
}

// SetCurrentSession makes id the service's current session.
func (c *Client) SetCurrentSession(ctx context.Context, id string) (StatusResponse, error) {
	var resp StatusResponse
	err := c.call(ctx, http.MethodPost, "/current-session", SessionIDRequest{SessionID: id}, &resp)
	return resp, notFound(err)
}

// ResetSession clears the conversation history of id.
func (c *Client) ResetSession(ctx context.Context, id string) (StatusResponse, error) {
	var resp StatusResponse
	err := c.call(ctx, http.MethodPost, "/reset-session", SessionIDRequest{SessionID: id}, &resp)
	return resp, notFound(err)
}

// ListSessions returns the sessions the service knows about, most recent first.
func (c *Client) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	var resp SessionsResponse
	if err := c.call(ctx, http.MethodGet, "/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// SessionHistory returns the stored messages of id.
func (c *Client) SessionHistory(ctx context.Context, id string) ([]ChatMessage, error) {
	var resp HistoryResponse
	if err := c.call(ctx, http.MethodGet, "/session/"+id, nil, &resp); err != nil {
		return nil, notFound(err)
	}
	return resp.Messages, nil
}

func notFound(err error) error {
	if IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	return err
}
