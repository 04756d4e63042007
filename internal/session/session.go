// internal/session/session.go
// Package session holds per-user state that survives page re-runs.
package session

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/llamagallery/internal/ollama"
)

// State is one session's key/value store. Values are read and written from the page run
// that holds the session; Run serializes those runs.
type State struct {
	id      string
	run     sync.Mutex
	mu      sync.Mutex
	values  map[string]any
	touched time.Time
	running int
}

// NewState creates a detached session, as used by the terminal surface.
func NewState(id string) *State {
	return &State{id: id, values: make(map[string]any), touched: time.Now()}
}

// ID returns the session identifier.
func (s *State) ID() string {
	return s.id
}

// Run executes fn while holding the session's run lock, so re-runs of the same session
// never overlap.
// The session counts as touched for the whole run.
func (s *State) Run(fn func()) {
	s.run.Lock()
	defer s.run.Unlock()
	s.mark(1)
	defer s.mark(-1)
	fn()
}

func (s *State) mark(delta int) {
	s.mu.Lock()
	s.running += delta
	s.touched = time.Now()
	s.mu.Unlock()
}

// idleSince reports whether the session has no run in progress and was last touched
// before cutoff.
func (s *State) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running == 0 && s.touched.Before(cutoff)
}

func (s *State) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *State) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Keys returns the stored keys in sorted order.
func (s *State) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value under key formatted as a string, or "" when absent.
func (s *State) String(key string) string {
	v, ok := s.Get(key)
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// Messages returns a copy of the message sequence stored under key.
func (s *State) Messages(key string) []ollama.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, _ := s.values[key].([]ollama.Message)
	return slices.Clone(msgs)
}

// SetMessages stores a copy of msgs under key.
func (s *State) SetMessages(key string, msgs []ollama.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]ollama.Message, len(msgs))
	copy(cp, msgs)
	s.values[key] = cp
}

// AppendMessage adds msg to the end of the sequence under key.
func (s *State) AppendMessage(key string, msg ollama.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, _ := s.values[key].([]ollama.Message)
	s.values[key] = append(msgs, msg)
}

// Store holds the live sessions of a server.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*State)}
}

// New creates and registers a session with a fresh id.
func (st *Store) New() *State {
	s := NewState(uuid.NewString())
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// Get returns the session registered under id.
func (st *Store) Get(id string) (*State, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate returns the session under id, or a new session when id is unknown.
// created reports which happened.
func (st *Store) GetOrCreate(id string) (s *State, created bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}
	return st.New(), true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Expire drops sessions idle for longer than maxIdle and returns how many were dropped.
func (st *Store) Expire(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()
	dropped := 0
	for id, s := range st.sessions {
		if s.idleSince(cutoff) {
			delete(st.sessions, id)
			dropped++
		}
	}
	return dropped
}
