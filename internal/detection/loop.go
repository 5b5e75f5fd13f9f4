package detection

import (
	"context"
	"errors"
	"rpsvision/internal/logger"
	"rpsvision/internal/predictor"
	"rpsvision/internal/vision"
	"sync"
	"time"
)

const (
	// DefaultSettleDelay lets the latest UI/camera state land before a cycle checks the source.
	DefaultSettleDelay = 100 * time.Millisecond
	// DefaultPeriod separates the end of one prediction from the next cycle.
	DefaultPeriod = 2000 * time.Millisecond
)

// State is the loop's position in its Arm/Predict cycle.
type State int

const (
	Stopped State = iota
	Armed
	Predicting
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Armed:
		return "armed"
	case Predicting:
		return "predicting"
	default:
		return "unknown"
	}
}

// FrameSource yields the live frame, or false when the camera is gone.
type FrameSource interface {
	Current() (vision.Frame, bool)
}

// Predictor classifies one frame. Ready reports whether a classifier is loaded.
type Predictor interface {
	Ready() bool
	Predict(ctx context.Context, frame vision.Frame) (predictor.Result, error)
}

// Publisher receives the status line after every cycle. An empty message
// with a nil result clears the status.
type Publisher interface {
	PublishStatus(message string, result predictor.Result)
}

// Options wires a Loop to its collaborators.
type Options struct {
	Source      FrameSource
	Predictor   Predictor
	Publisher   Publisher
	Scheduler   Scheduler
	Logger      *logger.Logger
	SettleDelay time.Duration
	Period      time.Duration
}

// Status is a point-in-time view of the loop.
type Status struct {
	State   string `json:"state"`
	Enabled bool   `json:"enabled"`
	Cycles  uint64 `json:"cycles"`
	Message string `json:"message"`
}

// Loop repeatedly classifies the live frame while detection is switched on.
// At most one prediction is in flight; the loop stops by itself when the
// frame source disappears.
type Loop struct {
	source    FrameSource
	predictor Predictor
	publisher Publisher
	scheduler Scheduler
	logger    *logger.Logger
	settle    time.Duration
	period    time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	enabled    bool
	generation uint64
	timer      Timer
	cycles     uint64
	message    string
}

// NewLoop builds a stopped loop.
func NewLoop(opts Options) *Loop {
	if opts.Scheduler == nil {
		opts.Scheduler = WallClock
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		source:    opts.Source,
		predictor: opts.Predictor,
		publisher: opts.Publisher,
		scheduler: opts.Scheduler,
		logger:    opts.Logger,
		settle:    opts.SettleDelay,
		period:    opts.Period,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start switches detection on. It returns false, and does nothing, when no
// classifier is available. Starting a running loop only re-enables it.
func (l *Loop) Start() bool {
	if !l.predictor.Ready() {
		return false
	}

	l.mu.Lock()
	l.enabled = true
	l.message = ""
	if l.state == Stopped {
		l.arm(l.settle)
	}
	l.mu.Unlock()

	l.publish("", nil)
	l.logger.Info("Live detection started")
	return true
}

// Stop switches detection off. A pending cycle is cancelled; a prediction
// already running finishes and publishes, then the loop stops.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.enabled = false
	if l.state == Armed {
		l.disarm()
		l.state = Stopped
	}
	l.logger.Info("Live detection stopped")
}

// Close stops the loop for good and cancels an in-flight prediction.
func (l *Loop) Close() {
	l.Stop()
	l.cancel()
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Status returns a snapshot for the UI.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		State:   l.state.String(),
		Enabled: l.enabled,
		Cycles:  l.cycles,
		Message: l.message,
	}
}

// arm schedules the next cycle. Callers hold l.mu.
func (l *Loop) arm(delay time.Duration) {
	l.generation++
	generation := l.generation
	l.state = Armed
	l.timer = l.scheduler.AfterFunc(delay, func() { l.cycle(generation) })
}

// disarm cancels the pending cycle. Callers hold l.mu.
func (l *Loop) disarm() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.generation++
}

func (l *Loop) cycle(generation uint64) {
	l.mu.Lock()
	if generation != l.generation || l.state != Armed || !l.enabled {
		l.mu.Unlock()
		return
	}
	l.timer = nil

	frame, ok := l.source.Current()
	if !ok {
		l.state = Stopped
		l.enabled = false
		l.mu.Unlock()
		l.logger.Warning("Capture source disappeared, live detection halted")
		return
	}
	l.state = Predicting
	l.mu.Unlock()

	result, err := l.predictor.Predict(l.ctx, frame)
	var renderErr *predictor.RenderError
	if errors.As(err, &renderErr) {
		l.logger.Warning("Feedback rendering failed: %v", renderErr.Err)
		err = nil
	}

	l.mu.Lock()
	var message string
	if err == nil {
		message = predictor.Message(result)
		l.message = message
		l.cycles++
	}
	if l.enabled && l.ctx.Err() == nil {
		l.arm(l.period + l.settle)
	} else {
		l.state = Stopped
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.Error("Live prediction failed: %v", err)
		return
	}
	l.publish(message, result)
}

func (l *Loop) publish(message string, result predictor.Result) {
	if l.publisher != nil {
		l.publisher.PublishStatus(message, result)
	}
}
