package models

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/bz888/codeagent/internal/logger"
)

type Feature string

const (
	Chat         Feature = "chat"
	Autocomplete Feature = "autocomplete"
)

// Features lists the toggles in the order they are pushed.
var Features = []Feature{Chat, Autocomplete}

// Toggler loads or unloads the backend model behind a feature.
type Toggler interface {
	ManageModel(ctx context.Context, feature string, enable bool) (client.ManageModelResponse, error)
}

// Synchronizer pushes feature toggles to the backend, but only when the
// desired value differs from the last value the backend accepted.
type Synchronizer struct {
	api         Toggler
	localLogger *logger.Logger

	mu      sync.Mutex
	applied map[Feature]bool
}

func NewSynchronizer(api Toggler) *Synchronizer {
	return &Synchronizer{
		api:         api,
		localLogger: logger.NewLogger("models"),
		applied:     make(map[Feature]bool),
	}
}

// Sync brings both features to the desired state. The first call has no
// baseline and pushes both. A failed toggle keeps its old baseline so the
// next Sync retries it; failures are returned joined.
func (s *Synchronizer) Sync(ctx context.Context, chat, autocomplete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return errors.Join(
		s.apply(ctx, Chat, chat),
		s.apply(ctx, Autocomplete, autocomplete),
	)
}

// Toggle sets a single feature, with the same suppression as Sync.
func (s *Synchronizer) Toggle(ctx context.Context, feature Feature, enabled bool) error {
	if feature != Chat && feature != Autocomplete {
		return fmt.Errorf("unknown feature %q", feature)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, feature, enabled)
}

func (s *Synchronizer) apply(ctx context.Context, feature Feature, enabled bool) error {
	if last, ok := s.applied[feature]; ok && last == enabled {
		return nil
	}
	if _, err := s.api.ManageModel(ctx, string(feature), enabled); err != nil {
		s.localLogger.Error("Failed to toggle", feature, "to", enabled, err)
		return err
	}
	s.applied[feature] = enabled
	s.localLogger.Info("Toggled", feature, "to", enabled)
	return nil
}

// Applied returns the last value the backend accepted for feature, and
// whether there is one yet.
func (s *Synchronizer) Applied(feature Feature) (enabled, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enabled, ok = s.applied[feature]
	return enabled, ok
}

// Status summarizes the applied state. Features without a baseline count as off.
func (s *Synchronizer) Status() DisplayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.applied[Chat], s.applied[Autocomplete])
}
