// Package transform provides state management for preprocessing transforms.
package transform

import (
	"fmt"
	"sync"
)

// StateManager manages the adapted state of a transform in a thread-safe manner.
// It replaces the BaseTransform embedding pattern with composition.
type StateManager struct {
	Adapted bool // Public for gob encoding
	mu      sync.RWMutex

	// Optional metadata - Public for gob encoding
	NFeatures int
	NSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{
		Adapted: false,
	}
}

// IsAdapted returns whether the transform has been adapted.
func (s *StateManager) IsAdapted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Adapted
}

// SetAdapted marks the transform as adapted.
func (s *StateManager) SetAdapted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Adapted = true
}

// Reset resets the adapted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Adapted = false
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions sets the number of features and samples seen during adapt.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// GetDimensions returns the number of features and samples seen during adapt.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// RequireAdapted returns an error if the transform has not been adapted.
func (s *StateManager) RequireAdapted() error {
	if !s.IsAdapted() {
		return fmt.Errorf("transform has not been adapted yet. Call Adapt() first")
	}
	return nil
}

// State represents the complete lifecycle state of a transform.
// This can be used for serialization and debugging.
type State struct {
	Adapted   bool                   `json:"adapted"`
	NFeatures int                    `json:"n_features,omitempty"`
	NSamples  int                    `json:"n_samples,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// GetState returns the current state as a State struct.
func (s *StateManager) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		Adapted:   s.Adapted,
		NFeatures: s.NFeatures,
		NSamples:  s.NSamples,
	}
}

// SetState sets the state from a State struct.
func (s *StateManager) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Adapted = state.Adapted
	s.NFeatures = state.NFeatures
	s.NSamples = state.NSamples
}

// WithState is a helper function that executes a function with the state locked for reading.
func (s *StateManager) WithState(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// WithStateMut is a helper function that executes a function with the state locked for writing.
func (s *StateManager) WithStateMut(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}
