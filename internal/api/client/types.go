package client

import (
	"encoding/json"
	"fmt"
	"time"
)

// StreamCodeRequest is the body of POST /stream-code.
type StreamCodeRequest struct {
	Code        string `json:"code"`
	Instruction string `json:"instruction"`
	SessionID   string `json:"session_id"`
}

// SessionResponse carries a single session id.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Name        string `json:"name,omitempty"`
	MakeCurrent bool   `json:"make_current"`
}

// SessionIDRequest is the body of POST /reset-session and POST /current-session.
type SessionIDRequest struct {
	SessionID string `json:"session_id"`
}

// StatusResponse acknowledges a session operation.
type StatusResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// SessionInfo describes one entry of GET /sessions.
type SessionInfo struct {
	SessionID   string     `json:"session_id"`
	Name        string     `json:"name,omitempty"`
	LastUpdated *Timestamp `json:"last_updated,omitempty"`
}

// Timestamp decodes RFC 3339 times as well as the offset-less form a
// naive UTC datetime is serialized to. Offset-less values are taken as UTC.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse is the body of GET /session/{id}.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}

// AutocompleteRequest is the body of POST /autocomplete.
type AutocompleteRequest struct {
	Before    string `json:"before"`
	After     string `json:"after"`
	Language  string `json:"language"`
	MaxTokens int    `json:"max_tokens"`
	TopK      int    `json:"top_k"`
}

type AutocompleteResponse struct {
	Completions []string `json:"completions"`
}

// ManageModelRequest is the body of POST /manage-model.
type ManageModelRequest struct {
	Feature string `json:"feature"`
	Enable  bool   `json:"enable"`
}

// ManageModelResponse keeps whatever acknowledgement the service sent.
type ManageModelResponse = json.RawMessage
