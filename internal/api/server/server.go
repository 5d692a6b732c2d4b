package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/bz888/codeagent/internal/logger"
	"github.com/google/uuid"
)

// Server is an in-memory stand-in for the generation service. It keeps
// sessions and feature toggles and echoes requests instead of running a
// model.
type Server struct {
	mu          sync.Mutex
	sessions    map[string]*sessionState
	current     string
	chatEnabled bool
	autoEnabled bool
	chunkSize   int
	chunkDelay  time.Duration
	LocalLogger *logger.Logger
}

type sessionState struct {
	name        string
	messages    []client.ChatMessage
	lastUpdated time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithChunking sets how many bytes each streamed chunk carries and the
// pause between chunks.
func WithChunking(size int, delay time.Duration) Option {
	return func(s *Server) {
		if size > 0 {
			s.chunkSize = size
		}
		s.chunkDelay = delay
	}
}

// WithFeatures sets the initial state of the chat and autocomplete models.
func WithFeatures(chat, autocomplete bool) Option {
	return func(s *Server) {
		s.chatEnabled = chat
		s.autoEnabled = autocomplete
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		sessions:    make(map[string]*sessionState),
		chatEnabled: true,
		autoEnabled: true,
		chunkSize:   8,
		LocalLogger: logger.NewLogger("dev server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

// Run serves on address until the listener fails.
func (s *Server) Run(address string) error {
	s.LocalLogger.Info("Server started on http://" + address + "/")
	return http.ListenAndServe(address, s.Handler())
}

func (s *Server) createSession(name string, makeCurrent bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	s.sessions[id] = &sessionState{name: name, lastUpdated: time.Now()}
	if makeCurrent {
		s.current = id
	}
	return id
}

func (s *Server) appendMessage(id, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[id]; ok {
		st.messages = append(st.messages, client.ChatMessage{Role: role, Content: content})
		st.lastUpdated = time.Now()
	}
}
