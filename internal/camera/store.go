package camera

import (
	"rpsvision/internal/vision"
	"sync"
	"time"
)

// FrameStore keeps the latest decoded frame. A frame older than the timeout
// counts as missing, which is how a disconnected camera becomes visible to
// the live detection loop.
type FrameStore struct {
	timeout time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	frame   vision.Frame
	camera  string
	updated time.Time
}

// NewFrameStore creates an empty store. A timeout <= 0 never expires frames.
func NewFrameStore(timeout time.Duration) *FrameStore {
	return &FrameStore{timeout: timeout, now: time.Now}
}

// Update replaces the latest frame.
func (s *FrameStore) Update(frame vision.Frame, camera string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
	s.camera = camera
	s.updated = s.now()
}

// Current returns the latest frame, or false when none is fresh enough.
func (s *FrameStore) Current() (vision.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame.Empty() {
		return vision.Frame{}, false
	}
	if s.timeout > 0 && s.now().Sub(s.updated) > s.timeout {
		return vision.Frame{}, false
	}
	return s.frame, true
}

// Camera names the source of the latest frame.
func (s *FrameStore) Camera() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// Clear forgets the latest frame.
func (s *FrameStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = vision.Frame{}
	s.camera = ""
}
