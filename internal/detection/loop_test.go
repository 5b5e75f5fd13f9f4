package detection

import (
	"context"
	"errors"
	"rpsvision/internal/config"
	"rpsvision/internal/logger"
	"rpsvision/internal/predictor"
	"rpsvision/internal/vision"
	"sync"
	"testing"
	"time"
)

type fakeTask struct {
	delay   time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *fakeTask) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler only runs callbacks when the test fires them.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &fakeTask{delay: d, f: f}
	s.tasks = append(s.tasks, task)
	return task
}

func (s *fakeScheduler) pending() []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTask
	for _, task := range s.tasks {
		if !task.fired && !task.stopped {
			out = append(out, task)
		}
	}
	return out
}

// fireNext runs the oldest pending callback and returns its delay.
func (s *fakeScheduler) fireNext(t *testing.T) time.Duration {
	t.Helper()
	pending := s.pending()
	if len(pending) == 0 {
		t.Fatal("no pending task to fire")
	}
	task := pending[0]
	task.fired = true
	task.f()
	return task.delay
}

type fakeSource struct {
	mu      sync.Mutex
	present bool
}

func (s *fakeSource) Current() (vision.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return vision.Frame{}, false
	}
	return vision.NewFrame(8, 8), true
}

func (s *fakeSource) set(present bool) {
	s.mu.Lock()
	s.present = present
	s.mu.Unlock()
}

type fakePredictor struct {
	ready  bool
	calls  int
	err    error
	during func()
}

func (p *fakePredictor) Ready() bool { return p.ready }

func (p *fakePredictor) Predict(ctx context.Context, frame vision.Frame) (predictor.Result, error) {
	p.calls++
	if p.during != nil {
		p.during()
	}
	if p.err != nil {
		return nil, p.err
	}
	return predictor.Result{
		{ClassName: "Rock", Probability: 0.5},
		{ClassName: "Paper", Probability: 0.25},
		{ClassName: "Scissors", Probability: 0.25},
	}, nil
}

type recordingPublisher struct {
	messages []string
}

func (p *recordingPublisher) PublishStatus(message string, result predictor.Result) {
	p.messages = append(p.messages, message)
}

type harness struct {
	loop      *Loop
	scheduler *fakeScheduler
	source    *fakeSource
	predictor *fakePredictor
	publisher *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log, err := logger.NewLogger(&config.Config{LogDirectory: t.TempDir(), Quiet: true})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	h := &harness{
		scheduler: &fakeScheduler{},
		source:    &fakeSource{present: true},
		predictor: &fakePredictor{ready: true},
		publisher: &recordingPublisher{},
	}
	h.loop = NewLoop(Options{
		Source:      h.source,
		Predictor:   h.predictor,
		Publisher:   h.publisher,
		Scheduler:   h.scheduler,
		Logger:      log,
		SettleDelay: 100 * time.Millisecond,
		Period:      2000 * time.Millisecond,
	})
	return h
}

func TestLoopCyclesAndPublishes(t *testing.T) {
	h := newHarness(t)

	if !h.loop.Start() {
		t.Fatal("Start returned false")
	}
	if h.loop.State() != Armed {
		t.Fatalf("expected armed, got %s", h.loop.State())
	}
	if len(h.publisher.messages) != 1 || h.publisher.messages[0] != "" {
		t.Fatalf("expected Start to clear the status, got %q", h.publisher.messages)
	}

	if d := h.scheduler.fireNext(t); d != 100*time.Millisecond {
		t.Fatalf("expected first cycle after settle delay, got %s", d)
	}
	if h.predictor.calls != 1 {
		t.Fatalf("expected 1 prediction, got %d", h.predictor.calls)
	}
	want := " Rock: %50.00, Paper: %25.00, Scissors: %25.00"
	if last := h.publisher.messages[len(h.publisher.messages)-1]; last != want {
		t.Fatalf("expected %q, got %q", want, last)
	}
	if h.loop.State() != Armed {
		t.Fatalf("expected re-armed loop, got %s", h.loop.State())
	}

	pending := h.scheduler.pending()
	if len(pending) != 1 {
		t.Fatalf("expected exactly one pending cycle, got %d", len(pending))
	}
	if pending[0].delay != 2100*time.Millisecond {
		t.Fatalf("expected period plus settle, got %s", pending[0].delay)
	}

	h.scheduler.fireNext(t)
	if status := h.loop.Status(); status.Cycles != 2 || status.Message != want {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestLoopHaltsWhenSourceDisappears(t *testing.T) {
	h := newHarness(t)
	h.loop.Start()
	h.scheduler.fireNext(t)

	h.source.set(false)
	h.scheduler.fireNext(t)

	if h.loop.State() != Stopped {
		t.Fatalf("expected stopped, got %s", h.loop.State())
	}
	if n := len(h.scheduler.pending()); n != 0 {
		t.Fatalf("expected no further cycles, got %d pending", n)
	}
	if h.predictor.calls != 1 {
		t.Fatalf("expected no prediction without a source, got %d calls", h.predictor.calls)
	}

	// The camera coming back does not restart the loop by itself.
	h.source.set(true)
	if n := len(h.scheduler.pending()); n != 0 || h.loop.State() != Stopped {
		t.Fatalf("loop restarted on its own")
	}
}

func TestLoopStopWhileArmedCancelsCycle(t *testing.T) {
	h := newHarness(t)
	h.loop.Start()
	h.loop.Stop()

	if h.loop.State() != Stopped {
		t.Fatalf("expected stopped, got %s", h.loop.State())
	}
	if n := len(h.scheduler.pending()); n != 0 {
		t.Fatalf("expected pending cycle to be cancelled, got %d", n)
	}

	// A stale callback that slipped past Stop must not predict.
	h.scheduler.tasks[0].f()
	if h.predictor.calls != 0 {
		t.Fatalf("stale callback ran a prediction")
	}
}

func TestLoopStopDuringPredictionPublishesThenStops(t *testing.T) {
	h := newHarness(t)
	h.predictor.during = func() { h.loop.Stop() }
	h.loop.Start()
	h.scheduler.fireNext(t)

	if h.predictor.calls != 1 {
		t.Fatalf("expected the in-flight prediction to complete")
	}
	if last := h.publisher.messages[len(h.publisher.messages)-1]; last == "" {
		t.Fatal("expected the in-flight result to be published")
	}
	if h.loop.State() != Stopped {
		t.Fatalf("expected stopped, got %s", h.loop.State())
	}
	if n := len(h.scheduler.pending()); n != 0 {
		t.Fatalf("expected no further cycles, got %d pending", n)
	}
}

func TestLoopRestartDuringPredictionKeepsSingleCycle(t *testing.T) {
	h := newHarness(t)
	h.predictor.during = func() {
		h.loop.Stop()
		h.loop.Start()
		if n := len(h.scheduler.pending()); n != 0 {
			t.Errorf("restart while predicting scheduled %d extra cycles", n)
		}
	}
	h.loop.Start()
	h.scheduler.fireNext(t)

	if h.loop.State() != Armed {
		t.Fatalf("expected armed after restart, got %s", h.loop.State())
	}
	if n := len(h.scheduler.pending()); n != 1 {
		t.Fatalf("expected one pending cycle, got %d", n)
	}
}

func TestLoopRequiresClassifier(t *testing.T) {
	h := newHarness(t)
	h.predictor.ready = false

	if h.loop.Start() {
		t.Fatal("Start should refuse without a classifier")
	}
	if h.loop.State() != Stopped || len(h.scheduler.pending()) != 0 {
		t.Fatal("loop must stay stopped")
	}
}

func TestLoopKeepsCyclingAfterPredictionError(t *testing.T) {
	h := newHarness(t)
	h.predictor.err = errors.New("inference failed")
	h.loop.Start()
	h.scheduler.fireNext(t)

	if h.loop.State() != Armed {
		t.Fatalf("expected armed, got %s", h.loop.State())
	}
	if status := h.loop.Status(); status.Cycles != 0 {
		t.Fatalf("failed cycle should not count, got %d", status.Cycles)
	}
}
