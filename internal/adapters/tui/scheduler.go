package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"notedeck/internal/ports"
)

// engineFnMsg carries an engine callback onto the update loop.
type engineFnMsg struct {
	fn func()
}

// Scheduler implements ports.Scheduler on top of a bubbletea program: every
// callback becomes a message, so engine commits always run on the update
// loop, never on a loader goroutine. Callbacks arriving before the program
// starts are queued and flushed on SetProgram.
type Scheduler struct {
	mu      sync.Mutex
	program *tea.Program
	pending []func()
}

var _ ports.Scheduler = (*Scheduler)(nil)

// NewScheduler creates a scheduler with no program attached yet.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// SetProgram attaches the running program and flushes queued callbacks.
func (s *Scheduler) SetProgram(p *tea.Program) {
	s.mu.Lock()
	s.program = p
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range pending {
		p.Send(engineFnMsg{fn: fn})
	}
}

// Dispatch runs fn on the update loop as soon as possible.
func (s *Scheduler) Dispatch(fn func()) {
	s.send(fn)
}

// Frame runs fn after the next update/render pass. Layout here is
// synchronous with renderer mutations, so one trip through the message
// queue is a frame boundary.
func (s *Scheduler) Frame(fn func()) {
	s.send(fn)
}

func (s *Scheduler) send(fn func()) {
	s.mu.Lock()
	if s.program == nil {
		s.pending = append(s.pending, fn)
		s.mu.Unlock()
		return
	}
	p := s.program
	s.mu.Unlock()
	p.Send(engineFnMsg{fn: fn})
}
