package camera

import (
	"rpsvision/internal/vision"
	"testing"
	"time"
)

func TestFrameStoreExpiresStaleFrames(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewFrameStore(3 * time.Second)
	store.now = func() time.Time { return clock }

	if _, ok := store.Current(); ok {
		t.Fatal("empty store reported a frame")
	}

	store.Update(vision.NewFrame(4, 4), "desk")
	if frame, ok := store.Current(); !ok || frame.Width != 4 {
		t.Fatalf("expected fresh frame, got ok=%v frame=%+v", ok, frame)
	}
	if store.Camera() != "desk" {
		t.Fatalf("expected camera desk, got %q", store.Camera())
	}

	clock = clock.Add(4 * time.Second)
	if _, ok := store.Current(); ok {
		t.Fatal("stale frame should be reported missing")
	}

	store.Update(vision.NewFrame(4, 4), "desk")
	store.Clear()
	if _, ok := store.Current(); ok {
		t.Fatal("cleared store reported a frame")
	}
}

func TestReassemblerJoinsFragments(t *testing.T) {
	r := NewReassembler(map[string]string{"10.0.0.5": "desk"})

	if got := r.CameraName("10.0.0.5"); got != "desk" {
		t.Fatalf("expected desk, got %q", got)
	}
	if got := r.CameraName("10.0.0.9"); got != "unknown_10.0.0.9" {
		t.Fatalf("unexpected fallback name %q", got)
	}

	packets := [][]byte{
		{0xFF, 0xD8, 0x01},
		{0x02, 0x03},
		{0x04, 0xFF, 0xD9},
	}
	var image []byte
	for i, p := range packets {
		out, ok := r.Push("desk", p)
		if ok != (i == len(packets)-1) {
			t.Fatalf("packet %d: unexpected completion %v", i, ok)
		}
		image = out
	}
	want := []byte{0xFF, 0xD8, 0x01, 0x02, 0x03, 0x04, 0xFF, 0xD9}
	if string(image) != string(want) {
		t.Fatalf("expected %x, got %x", want, image)
	}
}

func TestReassemblerRestartsOnHeader(t *testing.T) {
	r := NewReassembler(nil)
	r.Push("a", []byte{0xFF, 0xD8, 0xAA})
	r.Push("b", []byte{0xFF, 0xD8, 0xBB})

	// A new header drops the unfinished image from camera a.
	r.Push("a", []byte{0xFF, 0xD8, 0xCC})
	image, ok := r.Push("a", []byte{0xFF, 0xD9})
	if !ok {
		t.Fatal("expected a complete image")
	}
	if want := []byte{0xFF, 0xD8, 0xCC, 0xFF, 0xD9}; string(image) != string(want) {
		t.Fatalf("expected %x, got %x", want, image)
	}

	image, ok = r.Push("b", []byte{0xFF, 0xD9})
	if !ok || len(image) != 5 || image[2] != 0xBB {
		t.Fatalf("camera b image corrupted: %x", image)
	}
}
