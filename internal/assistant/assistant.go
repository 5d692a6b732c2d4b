package assistant

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/bz888/codeagent/internal/completion"
	"github.com/bz888/codeagent/internal/config"
	"github.com/bz888/codeagent/internal/logger"
	"github.com/bz888/codeagent/internal/models"
	"github.com/bz888/codeagent/internal/session"
	"github.com/bz888/codeagent/internal/stream"
)

// Backend is everything the assistant needs from the generation service.
// *client.Client satisfies it.
type Backend interface {
	stream.Opener
	session.API
	models.Toggler
	completion.API
}

type ResetOutcome int

const (
	Cleared ResetOutcome = iota
	NothingToReset
)

func (o ResetOutcome) String() string {
	if o == NothingToReset {
		return "nothing to reset"
	}
	return "conversation cleared"
}

// Assistant owns the client-side state of one editor host: the cached
// session, the applied feature flags and the completion cache.
type Assistant struct {
	sessions  *session.Manager
	decoder   *stream.Decoder
	models    *models.Synchronizer
	completer *completion.Completer

	mu       sync.Mutex
	settings config.Settings

	localLogger *logger.Logger
}

func New(api Backend, sessionName string) *Assistant {
	return &Assistant{
		sessions:    session.NewManager(api, sessionName),
		decoder:     stream.NewDecoder(api),
		models:      models.NewSynchronizer(api),
		completer:   completion.NewCompleter(api),
		settings:    config.DefaultSettings(),
		localLogger: logger.NewLogger("assistant"),
	}
}

// Sessions exposes the session manager for listing and switching.
func (a *Assistant) Sessions() *session.Manager {
	return a.sessions
}

// Chat sends one turn on the current session and hands every decoded
// fragment to onFragment in order. When the service no longer knows the
// cached session the cache is dropped, so the next turn rediscovers.
func (a *Assistant) Chat(ctx context.Context, code, instruction string, onFragment func(string) error) error {
	id, err := a.sessions.Resolve(ctx)
	if err != nil {
		return err
	}

	err = a.decoder.Chat(ctx, stream.ChatRequest{Code: code, Instruction: instruction, SessionID: id}, onFragment)
	if client.IsStatus(err, http.StatusNotFound) {
		a.localLogger.Warn("Session", id, "is gone, rediscovering on next turn")
		a.sessions.Invalidate()
	}
	return err
}

// ResetSession clears the history of the current session. It never
// creates one: with no current session, or one the service has forgotten,
// there is nothing to reset.
func (a *Assistant) ResetSession(ctx context.Context) (ResetOutcome, error) {
	id, found, err := a.sessions.Discover(ctx)
	if err != nil {
		return NothingToReset, err
	}
	if !found {
		return NothingToReset, nil
	}
	if _, err := a.sessions.Reset(ctx, id); err != nil {
		if errors.Is(err, client.ErrSessionNotFound) {
			a.sessions.Invalidate()
			return NothingToReset, nil
		}
		return Cleared, err
	}
	return Cleared, nil
}

// ApplySettings pushes the feature toggles of s and adopts its completion
// options. Toggle failures are logged and retried on the next change.
func (a *Assistant) ApplySettings(ctx context.Context, s config.Settings) models.DisplayState {
	a.mu.Lock()
	a.settings = s
	a.mu.Unlock()

	if err := a.models.Sync(ctx, s.Chat.Enabled, s.Autocomplete.Enabled); err != nil {
		a.localLogger.Error("Failed to apply model settings:", err)
	}
	return a.models.Status()
}

// Toggle flips one feature explicitly.
func (a *Assistant) Toggle(ctx context.Context, feature models.Feature, enabled bool) (models.DisplayState, error) {
	err := a.models.Toggle(ctx, feature, enabled)
	if err == nil {
		a.mu.Lock()
		switch feature {
		case models.Chat:
			a.settings.Chat.Enabled = enabled
		case models.Autocomplete:
			a.settings.Autocomplete.Enabled = enabled
		}
		a.mu.Unlock()
	}
	return a.models.Status(), err
}

// Complete returns the inline suggestion for the cursor context, filling
// unset options from the current settings. Nothing is requested while
// autocomplete is switched off.
func (a *Assistant) Complete(ctx context.Context, req completion.Request) (completion.Suggestion, bool) {
	a.mu.Lock()
	opts := a.settings.Autocomplete
	a.mu.Unlock()

	if !opts.Enabled {
		return completion.Suggestion{}, false
	}
	if req.Language == "" {
		req.Language = opts.Language
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if req.TopK <= 0 {
		req.TopK = opts.TopK
	}
	return a.completer.Complete(ctx, req)
}

// Status is the label for the applied feature state.
func (a *Assistant) Status() models.DisplayState {
	return a.models.Status()
}

func (a *Assistant) Close() {
	a.completer.Close()
}
