package execution

import (
	"sync"
	"time"

	"github.com/samrum/doorflow/internal/clock"
	"github.com/samrum/doorflow/model/state"
)

// Write is one journal entry of the session; the journal is append-only and
// survives into the history record when the instance completes.
type Write struct {
	Name  string      `json:"name"`
	Value state.Value `json:"value"`
	At    time.Time   `json:"at"`
}

// Session is the variable store of a single instance. It is exclusively
// owned by the instance while the instance is active.
type Session struct {
	ID      string
	vars    state.Variables
	journal []Write
	mu      sync.RWMutex
}

// NewSession creates a session seeded with the supplied variables.
func NewSession(id string, initial state.Variables) *Session {
	ret := &Session{ID: id, vars: state.Variables{}}
	for _, name := range initial.Names() {
		ret.Set(name, initial[name])
	}
	return ret
}

// Set adds or overwrites a variable; later writes win.
func (s *Session) Set(name string, value state.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
	s.journal = append(s.journal, Write{Name: name, Value: value, At: clock.Now()})
}

// Apply coerces and sets every entry of the supplied map.
func (s *Session) Apply(values map[string]interface{}) error {
	vars, err := state.NewVariables(values)
	if err != nil {
		return err
	}
	s.Merge(vars)
	return nil
}

// Merge sets every supplied variable, in lexical name order for a
// deterministic journal.
func (s *Session) Merge(vars state.Variables) {
	for _, name := range vars.Names() {
		s.Set(name, vars[name])
	}
}

// Get retrieves a variable.
func (s *Session) Get(name string) (state.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.vars[name]
	return value, ok
}

// GetString retrieves a variable as a string; absent or non-string yields "".
func (s *Session) GetString(name string) (string, bool) {
	value, ok := s.Get(name)
	if !ok {
		return "", false
	}
	text, err := value.Text()
	return text, err == nil
}

// Snapshot returns an independent copy of the current variables.
func (s *Session) Snapshot() state.Variables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vars.Clone()
}

// Journal returns a copy of the write history.
func (s *Session) Journal() []Write {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Write(nil), s.journal...)
}
