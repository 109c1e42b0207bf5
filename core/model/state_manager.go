// Package model provides the transformer contract, fitted-state tracking and
// snapshot persistence shared by the preprocessing components.
package model

import (
	"sync"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// StateManager tracks whether a component has been fitted, in a thread-safe
// manner, together with the shape of the data it was fitted on.
type StateManager struct {
	Fitted bool // Public for gob encoding
	mu     sync.RWMutex

	// Optional metadata - Public for gob encoding
	NVariables int
	NSamples   int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the component has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the component as fitted on nVariables variables of a
// dataset with nSamples rows.
func (s *StateManager) SetFitted(nVariables, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
	s.NVariables = nVariables
	s.NSamples = nSamples
}

// GetDimensions returns the number of variables and samples seen during fitting.
func (s *StateManager) GetDimensions() (nVariables, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NVariables, s.NSamples
}

// RequireFitted returns an error if the component has not been fitted.
func (s *StateManager) RequireFitted(op string) error {
	if !s.IsFitted() {
		return errors.NewModelError(op, "not fitted", errors.New("call Fit() first"))
	}
	return nil
}
