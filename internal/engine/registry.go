package engine

import (
	"fmt"
	"sync"

	"curve-engine/internal/model"
)

// Registry owns every launched curve. It replaces process-wide mutable
// state: callers hold a registry handle, nothing is package-level.
type Registry struct {
	mu     sync.RWMutex
	curves map[string]*CurveState
}

func NewRegistry() *Registry {
	return &Registry{curves: make(map[string]*CurveState)}
}

// Create validates the config and launches a curve for the token. Launching
// the same token twice is rejected.
func (r *Registry) Create(tokenID string, cfg model.CurveConfig) (*CurveState, error) {
	if tokenID == "" {
		return nil, fmt.Errorf("token id must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid curve config for %s: %w", tokenID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.curves[tokenID]; exists {
		return nil, fmt.Errorf("curve for token %s already exists", tokenID)
	}
	state := NewCurveState(tokenID, cfg)
	r.curves[tokenID] = state
	return state, nil
}

func (r *Registry) Get(tokenID string) (*CurveState, error) {
	r.mu.RLock()
	state, ok := r.curves[tokenID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no curve for token %s", tokenID)
	}
	return state, nil
}

// Tokens lists launched token ids.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.curves))
	for id := range r.curves {
		out = append(out, id)
	}
	return out
}
