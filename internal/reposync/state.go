package reposync

import (
	"sync"
	"time"
)

// Status is the live view of a sync run.
type Status struct {
	InProgress   bool       `json:"isInProgress"`
	Current      string     `json:"currentRepository,omitempty"`
	Total        int        `json:"totalRepositories"`
	Completed    int        `json:"completedRepositories"`
	Errors       []string   `json:"errors"`
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`
}

// State guards the Status shared between a running sync and its readers.
type State struct {
	mu     sync.Mutex
	status Status
}

// NewState returns an idle State.
func NewState() *State {
	return &State{status: Status{Errors: []string{}}}
}

// Status returns a copy of the current status.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Errors = append([]string{}, s.status.Errors...)
	if s.status.LastSyncTime != nil {
		t := *s.status.LastSyncTime
		st.LastSyncTime = &t
	}
	return st
}

// begin marks a run as started. It reports false when one is already running.
func (s *State) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.InProgress {
		return false
	}
	s.status = Status{
		InProgress:   true,
		Errors:       []string{},
		LastSyncTime: s.status.LastSyncTime,
	}
	return true
}

func (s *State) setTotal(n int) {
	s.mu.Lock()
	s.status.Total = n
	s.mu.Unlock()
}

func (s *State) setCurrent(name string) {
	s.mu.Lock()
	s.status.Current = name
	s.mu.Unlock()
}

func (s *State) completed() {
	s.mu.Lock()
	s.status.Completed++
	s.mu.Unlock()
}

func (s *State) addError(msg string) {
	s.mu.Lock()
	s.status.Errors = append(s.status.Errors, msg)
	s.mu.Unlock()
}

func (s *State) finish(at time.Time) {
	s.mu.Lock()
	s.status.InProgress = false
	s.status.Current = ""
	s.status.LastSyncTime = &at
	s.mu.Unlock()
}
