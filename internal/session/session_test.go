package session

import (
	"errors"
	"testing"
)

type fakeHandle struct {
	path    string
	drained bool
	paused  bool
	stopped bool
}

func (h *fakeHandle) Drained() bool { return h.drained }

func (h *fakeHandle) SetPaused(paused bool) { h.paused = paused }

func (h *fakeHandle) Paused() bool { return h.paused }

func (h *fakeHandle) Stop() { h.stopped = true }

type fakeOpener struct {
	handles []*fakeHandle
	failOn  map[string]error
}

func (o *fakeOpener) open(path string) (Handle, error) {
	if err, ok := o.failOn[path]; ok {
		return nil, err
	}
	h := &fakeHandle{path: path}
	o.handles = append(o.handles, h)
	return h, nil
}

func newTestSession(opener *fakeOpener) *Session {
	return New(opener.open)
}

func TestStartSupersedesPreviousHandle(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestSession(opener)

	if err := s.Start("a.mp3"); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := s.Start("b.mp3"); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	if len(opener.handles) != 2 {
		t.Fatalf("expected 2 handles opened, got %d", len(opener.handles))
	}
	if !opener.handles[0].stopped {
		t.Fatalf("first handle must be stopped before the second starts")
	}
	if opener.handles[1].stopped {
		t.Fatalf("second handle should still be live")
	}
	if s.Path() != "b.mp3" {
		t.Fatalf("expected path b.mp3, got %s", s.Path())
	}
}

func TestStartFailureLeavesSessionEmpty(t *testing.T) {
	opener := &fakeOpener{failOn: map[string]error{"bad.mp3": errors.New("no such codec")}}
	s := newTestSession(opener)

	err := s.Start("bad.mp3")
	if !errors.Is(err, ErrStartFailed) {
		t.Fatalf("expected ErrStartFailed, got %v", err)
	}
	if s.Active() {
		t.Fatalf("session must be empty after a failed start")
	}
	if !s.Finished() {
		t.Fatalf("empty session must report finished")
	}
}

func TestFinished(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestSession(opener)

	if !s.Finished() {
		t.Fatalf("idle session should be finished")
	}

	if err := s.Start("a.mp3"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Finished() {
		t.Fatalf("live handle should not be finished")
	}

	opener.handles[0].drained = true
	if !s.Finished() {
		t.Fatalf("drained handle should be finished")
	}
}

func TestTogglePause(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestSession(opener)

	// No-op while idle.
	if s.TogglePause() {
		t.Fatalf("toggle on idle session should report unpaused")
	}

	if err := s.Start("a.mp3"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if paused := s.TogglePause(); !paused || !s.Paused() {
		t.Fatalf("first toggle should pause")
	}
	if paused := s.TogglePause(); paused || s.Paused() {
		t.Fatalf("second toggle should resume")
	}
}

func TestPauseResumeIdleNoOp(t *testing.T) {
	s := newTestSession(&fakeOpener{})
	s.Pause()
	s.Resume()
	if s.Active() || s.Paused() {
		t.Fatalf("pause/resume on idle session must not change state")
	}
}

func TestStopAndDiscard(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestSession(opener)

	if err := s.Start("a.mp3"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.StopAndDiscard()

	if s.Active() {
		t.Fatalf("session should be idle after discard")
	}
	if !opener.handles[0].stopped {
		t.Fatalf("discard must stop the handle")
	}
	if s.Path() != "" {
		t.Fatalf("discard must clear the path")
	}

	// Discarding again is harmless.
	s.StopAndDiscard()
}
