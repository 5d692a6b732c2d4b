package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bz888/codeagent/internal/api/client"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response: "+err.Error(), http.StatusInternalServerError)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		PortWorking   bool `json:"port_working"`
		ServerWorking bool `json:"server_working"`
	}{
		PortWorking:   true,
		ServerWorking: true,
	})
}

func (s *Server) streamCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req client.StreamCodeRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	enabled := s.chatEnabled
	_, exists := s.sessions[req.SessionID]
	s.mu.Unlock()

	switch {
	case req.SessionID == "":
		writeDetail(w, http.StatusBadRequest, "session_id is required.")
		return
	case !exists:
		writeDetail(w, http.StatusNotFound, "session not found")
		return
	case !enabled:
		writeDetail(w, http.StatusServiceUnavailable, "chat model is disabled")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	prompt := req.Instruction
	if req.Code != "" {
		prompt = fmt.Sprintf("%s\n\n%s", req.Instruction, req.Code)
	}
	s.appendMessage(req.SessionID, client.RoleUser, prompt)

	reply := echoReply(req)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	data := []byte(reply)
	for len(data) > 0 {
		n := min(s.chunkSize, len(data))
		if _, err := w.Write(data[:n]); err != nil {
			s.LocalLogger.Warn("Client went away mid-stream:", err)
			return
		}
		flusher.Flush()
		data = data[n:]

		if s.chunkDelay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(s.chunkDelay):
			}
		}
	}
	s.appendMessage(req.SessionID, client.RoleAssistant, reply)
}

func echoReply(req client.StreamCodeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧠 Task: %s\n", req.Instruction)
	if req.Code != "" {
		fmt.Fprintf(&b, "```text\n%s\n```\n", req.Code)
	}
	return b.String()
}

func (s *Server) currentSessionHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == "" {
		writeDetail(w, http.StatusNotFound, "no current session set")
		return
	}
	writeJSON(w, http.StatusOK, client.SessionResponse{SessionID: current})
}

func (s *Server) setCurrentSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req client.SessionIDRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	_, exists := s.sessions[req.SessionID]
	if exists {
		s.current = req.SessionID
	}
	s.mu.Unlock()

	if !exists {
		writeDetail(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, client.StatusResponse{Status: "ok", SessionID: req.SessionID})
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req client.CreateSessionRequest
	if !decode(w, r, &req) {
		return
	}
	id := s.createSession(req.Name, req.MakeCurrent)
	s.LocalLogger.Info("Created session", id, req.Name)
	writeJSON(w, http.StatusOK, client.SessionResponse{SessionID: id})
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	infos := make([]client.SessionInfo, 0, len(s.sessions))
	for id, st := range s.sessions {
		updated := st.lastUpdated
		infos = append(infos, client.SessionInfo{SessionID: id, Name: st.name, LastUpdated: &client.Timestamp{Time: updated}})
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastUpdated.After(infos[j].LastUpdated.Time)
	})
	writeJSON(w, http.StatusOK, client.SessionsResponse{Sessions: infos})
}

func (s *Server) resetSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req client.SessionIDRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := req.SessionID
	if id == "" {
		id = s.current
	}
	if id == "" {
		writeDetail(w, http.StatusNotFound, "no session to reset")
		return
	}
	st, ok := s.sessions[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "session not found")
		return
	}
	st.messages = nil
	st.lastUpdated = time.Now()
	writeJSON(w, http.StatusOK, client.StatusResponse{Status: "cleared", SessionID: id})
}

func (s *Server) sessionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	st, ok := s.sessions[id]
	var messages []client.ChatMessage
	if ok {
		messages = append(messages, st.messages...)
	}
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, client.HistoryResponse{SessionID: id, Messages: messages})
}

func (s *Server) autocompleteHandler(w http.ResponseWriter, r *http.Request) {
	var req client.AutocompleteRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	enabled := s.autoEnabled
	s.mu.Unlock()

	if !enabled {
		writeJSON(w, http.StatusOK, client.AutocompleteResponse{Completions: []string{}})
		return
	}

	// Echo the current line back, the way chat models tend to repeat what
	// was already typed, and wrap it in a fence.
	line := req.Before[strings.LastIndexByte(req.Before, '\n')+1:]
	completion := fmt.Sprintf("```%s\n%s()\n```", req.Language, strings.TrimSpace(line))
	writeJSON(w, http.StatusOK, client.AutocompleteResponse{Completions: []string{completion}})
}

func (s *Server) manageModelHandler(w http.ResponseWriter, r *http.Request) {
	var req client.ManageModelRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	switch req.Feature {
	case "chat":
		s.chatEnabled = req.Enable
	case "autocomplete":
		s.autoEnabled = req.Enable
	default:
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "unknown feature: "+req.Feature)
		return
	}
	s.mu.Unlock()

	s.LocalLogger.Info("Feature", req.Feature, "enabled:", req.Enable)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "feature": req.Feature, "enabled": req.Enable})
}

// FeatureState reports the current toggles.
func (s *Server) FeatureState() (chat, autocomplete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatEnabled, s.autoEnabled
}
