package resume

import (
	"errors"
	"fmt"
	"os"

	"github.com/maxvaer/intervention/internal/jsonutil"
)

// State tracks which targets of a multi-target run have been reported so
// an interrupted run can be restarted without redoing them.
type State struct {
	Completed []string `json:"completed_targets"`

	path string
	done map[string]struct{}
}

// New creates an empty state that will be saved to path.
func New(path string) *State {
	return &State{
		Completed: []string{},
		path:      path,
		done:      make(map[string]struct{}),
	}
}

// Load reads a state file. A missing file yields an empty state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(path), nil
		}
		return nil, fmt.Errorf("reading resume file: %w", err)
	}

	var s State
	if err := jsonutil.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing resume file: %w", err)
	}

	s.path = path
	s.done = make(map[string]struct{}, len(s.Completed))
	for _, t := range s.Completed {
		s.done[t] = struct{}{}
	}
	return &s, nil
}

// IsCompleted reports whether target was already processed.
func (s *State) IsCompleted(target string) bool {
	_, ok := s.done[target]
	return ok
}

// MarkCompleted records target as done.
func (s *State) MarkCompleted(target string) {
	if _, ok := s.done[target]; !ok {
		s.done[target] = struct{}{}
		s.Completed = append(s.Completed, target)
	}
}

// Save writes the state to disk.
func (s *State) Save() error {

	data, err := jsonutil.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializing resume state: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// Remove deletes the state file once every target has completed.
func (s *State) Remove() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
