package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"rpsvision/internal/camera"
	"rpsvision/internal/classifier"
	"rpsvision/internal/config"
	"rpsvision/internal/dataset"
	"rpsvision/internal/logger"
	"rpsvision/internal/models"
	"rpsvision/internal/predictor"
	"rpsvision/internal/samples"
	"rpsvision/internal/service/storage"
	"rpsvision/internal/service/websocket"
	"rpsvision/internal/tensor"
	"rpsvision/internal/vision"
	"sync"
	"testing"
	"time"
)

type fakeCodec struct {
	frame   vision.Frame
	decoded int
	mu      sync.Mutex
}

func (c *fakeCodec) Decode(data []byte) (vision.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(data) == 0 || data[0] != 0xFF {
		return vision.Frame{}, errors.New("not an image")
	}
	c.decoded++
	return c.frame, nil
}

func (c *fakeCodec) EncodePNG(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type fakeHub struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (h *fakeHub) Publish(msg websocket.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *fakeHub) count(msgType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.messages {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

type fakeEvaluations struct {
	runs []models.EvaluationRun
}

func (r *fakeEvaluations) Insert(run *models.EvaluationRun) (int64, error) {
	r.runs = append(r.runs, *run)
	return int64(len(r.runs)), nil
}

func (r *fakeEvaluations) GetByID(id int64) (*models.EvaluationRun, error) { return nil, nil }

func (r *fakeEvaluations) GetAll(limit int) ([]models.EvaluationRun, error) { return r.runs, nil }

func (r *fakeEvaluations) DeleteAll() error { return nil }

type fakePredictions struct {
	saved []models.Prediction
}

func (r *fakePredictions) InsertBatch(p []models.Prediction) error {
	r.saved = append(r.saved, p...)
	return nil
}

func (r *fakePredictions) GetAll(filter *models.PredictionFilter) ([]models.Prediction, error) {
	return r.saved, nil
}

func (r *fakePredictions) CountByLabel() ([]models.LabelCount, error) { return nil, nil }

func (r *fakePredictions) DeleteAll() error { return nil }

type fixture struct {
	manager     *Manager
	session     *Session
	frames      *camera.FrameStore
	hub         *fakeHub
	codec       *fakeCodec
	evaluations *fakeEvaluations
	buffer      *storage.BufferService
}

func newFixture(t *testing.T, processEveryNth int) *fixture {
	t.Helper()
	cfg := &config.Config{
		LogDirectory:       t.TempDir(),
		Quiet:              true,
		ProcessingInterval: processEveryNth,
		ResultBufferLimit:  10,
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	f := &fixture{
		session:     NewSession(8),
		frames:      camera.NewFrameStore(time.Minute),
		hub:         &fakeHub{},
		codec:       &fakeCodec{frame: grayFrame(40)},
		evaluations: &fakeEvaluations{},
	}
	f.buffer = storage.NewBufferService(cfg, log, &fakePredictions{})
	collector := samples.NewCollector(f.frames)
	f.manager = NewManager(f.session, f.frames, collector, f.buffer, f.hub, f.evaluations, f.codec, cfg, log)
	return f
}

func grayFrame(gray uint8) vision.Frame {
	frame := vision.NewFrame(20, 20)
	for i := range frame.Pix {
		frame.Pix[i] = gray
	}
	return frame
}

func newMemoryDataset(t *testing.T) *dataset.Memory {
	t.Helper()
	var examples []dataset.Example
	for i := 0; i < 30; i++ {
		class := classifier.Class(i % classifier.NumClasses)
		pixels := make([]float64, vision.ImageSize)
		for j := range pixels {
			pixels[j] = float64(int(class) * 100)
		}
		examples = append(examples, dataset.Example{Pixels: pixels, Class: class})
	}
	ds, err := dataset.NewMemory(examples, 0.5, 7)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return ds
}

// ========================================
// Session Tests
// ========================================

type predictOnly struct{}

func (predictOnly) Predict(ctx context.Context, batch *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zeros(batch.Dim(0), classifier.NumClasses), nil
}

func TestSession_Preconditions(t *testing.T) {
	ctx := context.Background()
	s := NewSession(4)

	if _, err := s.Predict(ctx, grayFrame(1), predictor.Options{}); !errors.Is(err, ErrNoClassifier) {
		t.Errorf("Predict without classifier: expected ErrNoClassifier, got %v", err)
	}
	if _, err := s.Evaluate(ctx, 10, "x"); !errors.Is(err, ErrNoClassifier) {
		t.Errorf("Evaluate without classifier: expected ErrNoClassifier, got %v", err)
	}
	if err := s.Train(ctx, 1); !errors.Is(err, ErrNoClassifier) {
		t.Errorf("Train without classifier: expected ErrNoClassifier, got %v", err)
	}

	s.SetClassifier(predictOnly{})
	if _, err := s.Evaluate(ctx, 10, "x"); !errors.Is(err, ErrNoDataset) {
		t.Errorf("Evaluate without dataset: expected ErrNoDataset, got %v", err)
	}
	if err := s.Train(ctx, 1); !errors.Is(err, ErrNotTrainable) {
		t.Errorf("Train with predict-only classifier: expected ErrNotTrainable, got %v", err)
	}
	if _, err := s.Predict(ctx, vision.Frame{}, predictor.Options{}); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Predict on empty frame: expected ErrNoFrame, got %v", err)
	}
}

func TestSession_TrainThenEvaluate(t *testing.T) {
	ctx := context.Background()
	s := NewSession(15)
	s.SetClassifier(classifier.NewSoftmax(vision.ImageSize, 0.05, 3, 1))
	s.SetDataset(newMemoryDataset(t))

	before := tensor.Live()
	if err := s.Train(ctx, 4); err != nil {
		t.Fatalf("Train: %v", err)
	}
	report, err := s.Evaluate(ctx, 15, "trained")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.TestSize != 15 || report.Confusion.Total() != 15 {
		t.Fatalf("unexpected report size %d / %d", report.TestSize, report.Confusion.Total())
	}
	if report.Title != "trained" || report.Overall < 0 || report.Overall > 1 {
		t.Errorf("unexpected report %+v", report)
	}
	if after := tensor.Live(); after != before {
		t.Fatalf("leaked %d tensors", after-before)
	}
}

// ========================================
// Manager Tests
// ========================================

func TestManager_HandleCameraImageDecodesEveryNth(t *testing.T) {
	f := newFixture(t, 2)

	for i := 0; i < 5; i++ {
		f.manager.HandleCameraImage([]byte{0xFF, 0xD8, byte(i), 0xFF, 0xD9}, "desk")
	}
	f.manager.Stop()

	if got := f.hub.count(websocket.TypeFrame); got != 5 {
		t.Errorf("expected 5 frames sent to viewers, got %d", got)
	}
	if f.codec.decoded != 2 {
		t.Errorf("expected every 2nd image decoded, got %d", f.codec.decoded)
	}
	if _, ok := f.frames.Current(); !ok {
		t.Fatal("expected decoded frame in store")
	}
	if f.frames.Camera() != "desk" {
		t.Errorf("expected camera desk, got %q", f.frames.Camera())
	}
}

func TestManager_HandleCameraImageAfterStop(t *testing.T) {
	f := newFixture(t, 1)
	f.manager.Stop()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("late camera image panicked: %v", r)
		}
	}()
	f.manager.HandleCameraImage([]byte{0xFF, 0xD8, 0xFF, 0xD9}, "desk")
	f.manager.Stop()

	if f.codec.decoded != 0 {
		t.Errorf("expected no decoding after Stop, got %d", f.codec.decoded)
	}
	if got := f.hub.count(websocket.TypeFrame); got != 1 {
		t.Errorf("expected the image still sent to viewers, got %d", got)
	}
}

func TestManager_ExamplesMatchLabels(t *testing.T) {
	f := newFixture(t, 1)
	defer f.manager.Stop()

	if _, err := f.manager.Examples(3); !errors.Is(err, ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}

	f.session.SetDataset(newMemoryDataset(t))
	live := tensor.Live()
	examples, err := f.manager.Examples(6)
	if err != nil {
		t.Fatalf("Examples: %v", err)
	}
	if got := tensor.Live(); got != live {
		t.Errorf("leaked %d tensors", got-live)
	}
	if len(examples) != 6 {
		t.Fatalf("expected 6 examples, got %d", len(examples))
	}

	// Every example of class c is a flat image of gray level c*100.
	for i, ex := range examples {
		class, err := classifier.ParseClass(ex.Label)
		if err != nil {
			t.Fatalf("example %d: %v", i, err)
		}
		data, err := base64.StdEncoding.DecodeString(ex.Image)
		if err != nil {
			t.Fatalf("example %d: %v", i, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("example %d: %v", i, err)
		}
		gray, ok := img.(*image.Gray)
		if !ok {
			t.Fatalf("example %d: expected grayscale PNG, got %T", i, img)
		}
		if want := uint8(int(class) * 100); gray.Pix[0] != want {
			t.Errorf("example %d labelled %s has gray %d, want %d", i, ex.Label, gray.Pix[0], want)
		}
	}
}

func TestManager_PredictImage(t *testing.T) {
	f := newFixture(t, 1)
	defer f.manager.Stop()
	ctx := context.Background()

	if _, err := f.manager.PredictImage(ctx, nil); !errors.Is(err, ErrNoClassifier) {
		t.Fatalf("expected ErrNoClassifier, got %v", err)
	}

	f.session.SetClassifier(classifier.NewSoftmax(vision.ImageSize, 0.05, 1, 1))
	if _, err := f.manager.PredictImage(ctx, nil); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}

	f.frames.Update(grayFrame(90), "desk")
	result, err := f.manager.PredictImage(ctx, nil)
	if err != nil {
		t.Fatalf("PredictImage: %v", err)
	}
	if len(result) != classifier.NumClasses || result[0].ClassName != "Rock" {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.hub.count(websocket.TypeFeedback) != 1 {
		t.Errorf("expected one feedback image")
	}

	if _, err := f.manager.PredictImage(ctx, []byte{0x00}); err == nil {
		t.Error("expected decode error for garbage upload")
	}
}

func TestManager_EvaluatePersistsRun(t *testing.T) {
	f := newFixture(t, 1)
	defer f.manager.Stop()

	f.session.SetClassifier(classifier.NewSoftmax(vision.ImageSize, 0.05, 1, 1))
	f.session.SetDataset(newMemoryDataset(t))

	report, err := f.manager.Evaluate(context.Background(), 12, "")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(f.evaluations.runs) != 1 {
		t.Fatalf("expected one stored run, got %d", len(f.evaluations.runs))
	}
	run := f.evaluations.runs[0]
	if run.Title != report.Title || run.Title == "" {
		t.Errorf("expected generated title to be stored, got %q", run.Title)
	}
	if run.TestSize != 12 || run.Confusion != [3][3]int(report.Confusion) {
		t.Errorf("stored run does not match report: %+v", run)
	}
	if run.RockAccuracy != report.Accuracy[0].Accuracy || run.ScissorsAccuracy != report.Accuracy[2].Accuracy {
		t.Errorf("per-class accuracy not stored: %+v", run)
	}
}

func TestManager_PublishStatusBuffersResults(t *testing.T) {
	f := newFixture(t, 1)
	defer f.manager.Stop()

	f.manager.PublishStatus("", nil)
	if f.buffer.Pending() != 0 {
		t.Fatal("clearing the status must not record a prediction")
	}

	result := predictor.Result{
		{ClassName: "Rock", Probability: 0.2},
		{ClassName: "Paper", Probability: 0.3},
		{ClassName: "Scissors", Probability: 0.5},
	}
	f.frames.Update(grayFrame(1), "door")
	f.manager.PublishStatus(predictor.Message(result), result)
	if f.buffer.Pending() != 1 {
		t.Fatalf("expected one buffered prediction, got %d", f.buffer.Pending())
	}
	if f.hub.count(websocket.TypeStatus) != 2 {
		t.Errorf("expected two status messages, got %d", f.hub.count(websocket.TypeStatus))
	}
}

func TestManager_TrainSamples(t *testing.T) {
	f := newFixture(t, 1)
	defer f.manager.Stop()
	ctx := context.Background()

	if f.manager.AddSample(classifier.Rock) {
		t.Fatal("AddSample without a frame should be a no-op")
	}

	f.session.SetClassifier(classifier.NewSoftmax(vision.ImageSize, 0.05, 1, 1))
	f.frames.Update(grayFrame(10), "desk")
	f.manager.AddSample(classifier.Rock)
	f.manager.AddSample(classifier.Paper)

	n, err := f.manager.TrainSamples(ctx)
	if err != nil {
		t.Fatalf("TrainSamples: %v", err)
	}
	if n != 2 || f.manager.GetCollector().Len() != 0 {
		t.Fatalf("expected 2 samples trained and empty buffer, got n=%d len=%d", n, f.manager.GetCollector().Len())
	}
}
