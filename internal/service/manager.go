package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"rpsvision/internal/camera"
	"rpsvision/internal/classifier"
	"rpsvision/internal/config"
	"rpsvision/internal/evaluation"
	"rpsvision/internal/logger"
	"rpsvision/internal/models"
	"rpsvision/internal/predictor"
	"rpsvision/internal/repository"
	"rpsvision/internal/samples"
	"rpsvision/internal/service/storage"
	"rpsvision/internal/service/websocket"
	"rpsvision/internal/vision"
	"sync"
	"time"
)

// Manager connects camera input, the session, viewers and persistence.
// It is the Predictor and Publisher of the live detection loop.
type Manager struct {
	session     *Session
	frames      *camera.FrameStore
	collector   *samples.Collector
	buffer      *storage.BufferService
	hub         Broadcaster
	evaluations repository.EvaluationRepository
	codec       Codec
	feedback    *FeedbackRenderer
	logger      *logger.Logger

	processingQueue chan ImageProcessingTask
	frameCounters   map[string]int // Licznik klatek dla każdej kamery
	processEveryNth int            // Dekoduj co N-tą klatkę

	frameCounterMu sync.Mutex
	stopped        bool
	wg             sync.WaitGroup
}

type ImageProcessingTask struct {
	Image  []byte
	Camera string
}

func NewManager(session *Session, frames *camera.FrameStore, collector *samples.Collector, buffer *storage.BufferService,
	hub Broadcaster, evaluations repository.EvaluationRepository, codec Codec, config *config.Config, logger *logger.Logger) *Manager {
	every := config.ProcessingInterval
	if every <= 0 {
		every = 1
	}
	manager := &Manager{
		session:         session,
		frames:          frames,
		collector:       collector,
		buffer:          buffer,
		hub:             hub,
		evaluations:     evaluations,
		codec:           codec,
		feedback:        NewFeedbackRenderer(hub, codec),
		logger:          logger,
		processingQueue: make(chan ImageProcessingTask, 16),
		frameCounters:   make(map[string]int),
		processEveryNth: every,
	}

	manager.wg.Add(1)
	go manager.processingWorker()

	manager.logger.Info("🎬 Manager started - decoding every %d frame(s)", manager.processEveryNth)
	return manager
}

// HandleCameraImage forwards an encoded camera image to viewers and queues
// every Nth one for decoding into the frame store.
func (m *Manager) HandleCameraImage(image []byte, camera string) {
	m.SendToViewers(image, camera)

	m.frameCounterMu.Lock()
	defer m.frameCounterMu.Unlock()
	if m.stopped {
		return
	}
	m.frameCounters[camera]++
	if m.frameCounters[camera] < m.processEveryNth {
		return
	}
	m.frameCounters[camera] = 0

	// The send never blocks, so holding the lock keeps Stop from closing the queue under us.
	select {
	case m.processingQueue <- ImageProcessingTask{Image: image, Camera: camera}:
	default:
		m.logger.Warning("⚠️  Decode queue full for camera %s - skipping frame", camera)
	}
}

func (m *Manager) SendToViewers(image []byte, camera string) {
	m.hub.Publish(websocket.Message{
		Type:   websocket.TypeFrame,
		Camera: camera,
		Image:  base64.StdEncoding.EncodeToString(image),
	})
}

// processingWorker decodes queued images until Stop closes the queue.
func (m *Manager) processingWorker() {
	defer m.wg.Done()

	for task := range m.processingQueue {
		frame, err := m.codec.Decode(task.Image)
		if err != nil {
			m.logger.Error("Failed to decode frame from camera %s: %v", task.Camera, err)
			continue
		}
		m.frames.Update(frame, task.Camera)
	}
}

// Stop drains the decode queue. Images arriving afterwards are still sent
// to viewers but no longer decoded.
func (m *Manager) Stop() {
	m.frameCounterMu.Lock()
	if m.stopped {
		m.frameCounterMu.Unlock()
		return
	}
	m.stopped = true
	close(m.processingQueue)
	m.frameCounterMu.Unlock()

	m.wg.Wait()
	m.logger.Info("🛑 Frame decoding stopped")
}

// Ready reports whether a classifier is loaded.
func (m *Manager) Ready() bool {
	return m.session.Ready()
}

// Predict classifies a live frame and renders the feedback view.
func (m *Manager) Predict(ctx context.Context, frame vision.Frame) (predictor.Result, error) {
	return m.session.Predict(ctx, frame, predictor.Options{Feedback: m.feedback})
}

// PublishStatus sends the live status line to viewers and records the result.
func (m *Manager) PublishStatus(message string, result predictor.Result) {
	m.hub.Publish(websocket.Message{Type: websocket.TypeStatus, Message: message, Result: result})
	if result != nil {
		m.buffer.AddPrediction(m.frames.Camera(), result, message)
	}
}

// PredictImage classifies an uploaded image, or the latest camera frame when
// data is empty.
func (m *Manager) PredictImage(ctx context.Context, data []byte) (predictor.Result, error) {
	if !m.session.Ready() {
		return nil, ErrNoClassifier
	}

	var frame vision.Frame
	if len(data) == 0 {
		current, ok := m.frames.Current()
		if !ok {
			return nil, ErrNoFrame
		}
		frame = current
	} else {
		decoded, err := m.codec.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		frame = decoded
	}

	return m.session.Predict(ctx, frame, predictor.Options{Feedback: m.feedback})
}

// Evaluate scores the classifier on the held-out split and stores the report.
func (m *Manager) Evaluate(ctx context.Context, testSize int, title string) (evaluation.Report, error) {
	if title == "" {
		title = fmt.Sprintf("Evaluation %s", time.Now().Format("2006-01-02 15:04:05"))
	}
	report, err := m.session.Evaluate(ctx, testSize, title)
	if err != nil {
		return evaluation.Report{}, err
	}
	m.logger.Info("📊 %s: overall accuracy %.2f%% on %d examples", report.Title, report.Overall*100, report.TestSize)

	run := NewEvaluationRun(report, time.Now())
	if _, err := m.evaluations.Insert(run); err != nil {
		m.logger.Error("Error saving evaluation to database: %v", err)
	}
	return report, nil
}

// Train fits the classifier on the dataset for the given number of epochs.
func (m *Manager) Train(ctx context.Context, epochs int) error {
	start := time.Now()
	if err := m.session.Train(ctx, epochs); err != nil {
		return err
	}
	m.logger.Info("🧠 Trained for %d epoch(s) in %s", epochs, time.Since(start).Round(time.Millisecond))
	return nil
}

// AddSample stores the latest frame with label. It reports false when no
// frame is available.
func (m *Manager) AddSample(label classifier.Class) bool {
	return m.collector.AddSample(label)
}

// TrainSamples fine-tunes the classifier on collected samples and clears them.
func (m *Manager) TrainSamples(ctx context.Context) (int, error) {
	n, err := m.session.TrainSamples(ctx, m.collector)
	if err != nil {
		return 0, err
	}
	m.logger.Info("🧠 Fine-tuned on %d collected sample(s)", n)
	return n, nil
}

// NewEvaluationRun converts a report into its stored form.
func NewEvaluationRun(report evaluation.Report, at time.Time) *models.EvaluationRun {
	run := &models.EvaluationRun{
		Title:     report.Title,
		TestSize:  report.TestSize,
		Overall:   report.Overall,
		Confusion: report.Confusion,
		CreatedAt: at,
	}
	if len(report.Accuracy) == classifier.NumClasses {
		run.RockAccuracy = report.Accuracy[classifier.Rock].Accuracy
		run.PaperAccuracy = report.Accuracy[classifier.Paper].Accuracy
		run.ScissorsAccuracy = report.Accuracy[classifier.Scissors].Accuracy
	}
	return run
}

func (m *Manager) GetSession() *Session {
	return m.session
}

func (m *Manager) GetCollector() *samples.Collector {
	return m.collector
}

func (m *Manager) GetFrameStore() *camera.FrameStore {
	return m.frames
}
