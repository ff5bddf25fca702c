package session

import (
	"errors"
	"fmt"
)

// ErrStartFailed indicates the audio collaborator refused to open or start
// the asset; the session is left empty.
var ErrStartFailed = errors.New("playback start failed")

// Handle is a live, pausable audio stream obtained from the audio
// collaborator.
type Handle interface {
	Drained() bool
	SetPaused(paused bool)
	Paused() bool
	Stop()
}

// OpenFunc opens an asset for playback and returns its handle.
type OpenFunc func(path string) (Handle, error)

// Session wraps at most one live audio handle. Starting a new item always
// first discards the previous handle, so two assets are never audible at
// the same time.
type Session struct {
	open   OpenFunc
	handle Handle
	path   string
}

// New returns an idle session that opens assets through open.
func New(open OpenFunc) *Session {
	return &Session{open: open}
}

// Start begins playback of the asset at path, superseding any handle the
// session still holds. On failure the session is left empty.
func (s *Session) Start(path string) error {
	s.StopAndDiscard()

	handle, err := s.open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	s.handle = handle
	s.path = path
	return nil
}

// Active reports whether the session holds a handle.
func (s *Session) Active() bool {
	return s.handle != nil
}

// Path returns the asset path of the held handle, or "" when idle.
func (s *Session) Path() string {
	return s.path
}

// Finished reports whether the session has nothing left to play: either no
// handle is held, or the held handle has drained.
func (s *Session) Finished() bool {
	return s.handle == nil || s.handle.Drained()
}

// Pause pauses the held handle. No-op when idle.
func (s *Session) Pause() {
	if s.handle != nil {
		s.handle.SetPaused(true)
	}
}

// Resume resumes the held handle. No-op when idle.
func (s *Session) Resume() {
	if s.handle != nil {
		s.handle.SetPaused(false)
	}
}

// TogglePause flips the pause state of the held handle and returns the new
// state. No-op returning false when idle.
func (s *Session) TogglePause() bool {
	if s.handle == nil {
		return false
	}
	paused := !s.handle.Paused()
	s.handle.SetPaused(paused)
	return paused
}

// Paused reports whether the held handle is paused.
func (s *Session) Paused() bool {
	return s.handle != nil && s.handle.Paused()
}

// StopAndDiscard unconditionally releases the held handle, if any.
func (s *Session) StopAndDiscard() {
	if s.handle != nil {
		s.handle.Stop()
		s.handle = nil
		s.path = ""
	}
}
