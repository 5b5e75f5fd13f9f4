package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"rpsvision/internal/camera"
	"rpsvision/internal/camera/opencv"
	"rpsvision/internal/classifier"
	"rpsvision/internal/config"
	"rpsvision/internal/dataset"
	"rpsvision/internal/detection"
	"rpsvision/internal/logger"
	"rpsvision/internal/repository/sqlite"
	"rpsvision/internal/routes"
	"rpsvision/internal/samples"
	"rpsvision/internal/service"
	"rpsvision/internal/service/ai"
	"rpsvision/internal/service/storage"
	"rpsvision/internal/service/websocket"
	"rpsvision/internal/vision"
	"sync"
	"time"
)

type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	session       *service.Session
	frames        *camera.FrameStore
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	manager       *service.Manager
	loop          *detection.Loop
	evaluations   *sqlite.EvaluationRepository
	predictions   *sqlite.PredictionRepository
	closers       []func() error
}

func NewApp(cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, err
	}
	evaluations := sqlite.NewEvaluationRepository(db)
	predictions := sqlite.NewPredictionRepository(db)

	a := &App{
		config:      cfg,
		logger:      log,
		db:          db,
		session:     service.NewSession(cfg.TrainBatchSize),
		frames:      camera.NewFrameStore(cfg.FrameTimeout),
		evaluations: evaluations,
		predictions: predictions,
	}

	if err := a.loadClassifier(); err != nil {
		db.Close()
		log.Close()
		return nil, err
	}
	a.loadDataset()

	a.hubService = websocket.NewHubService(log)
	a.bufferService = storage.NewBufferService(cfg, log, predictions)
	a.manager = service.NewManager(a.session, a.frames, samples.NewCollector(a.frames), a.bufferService,
		a.hubService, evaluations, opencv.Codec{}, cfg, log)
	a.loop = detection.NewLoop(detection.Options{
		Source:      a.frames,
		Predictor:   a.manager,
		Publisher:   a.manager,
		Logger:      log,
		SettleDelay: cfg.SettleDelay,
		Period:      cfg.DetectionPeriod,
	})

	return a, nil
}

// loadClassifier picks the OpenCV network when MODEL_PATH is set and the
// trainable softmax model otherwise.
func (a *App) loadClassifier() error {
	if a.config.ModelPath == "" {
		model := classifier.NewSoftmax(vision.ImageSize, a.config.LearningRate, a.config.FitEpochs, a.config.Seed)
		a.session.SetClassifier(model)
		a.logger.Info("🤖 Using built-in softmax classifier")
		return nil
	}

	net, err := ai.NewDNN(a.config.ModelPath, a.config.ModelConfigPath, a.config.ModelInputScale)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	a.closers = append(a.closers, net.Close)
	a.session.SetClassifier(net)
	a.logger.Info("🤖 Loaded network %s", a.config.ModelPath)
	return nil
}

// loadDataset is best effort: without a dataset only evaluation and
// training are unavailable.
func (a *App) loadDataset() {
	ds, err := dataset.LoadFolder(a.config.DatasetDirectory, a.config.TestFraction, a.config.Seed)
	if err != nil {
		a.logger.Warning("Dataset not loaded from %s: %v", a.config.DatasetDirectory, err)
		return
	}
	a.session.SetDataset(ds)
	train, test := ds.Counts()
	a.logger.Info("📁 Dataset loaded: %d train / %d test examples", train, test)
}

// Run serves HTTP until ctx is done, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start background services
	go a.bufferService.Run(ctx)
	go a.hubService.Run(ctx)

	var ingest sync.WaitGroup
	ingest.Add(1)
	go func() {
		defer ingest.Done()
		if err := camera.ListenUDP(ctx, a.config, a.logger, a.manager.HandleCameraImage); err != nil {
			a.logger.Error("UDP camera listener failed: %v", err)
		}
	}()
	if a.config.CameraDevice >= 0 {
		ingest.Add(1)
		go func() {
			defer ingest.Done()
			if err := opencv.ReadDevice(ctx, a.config.CameraDevice, a.logger, a.manager.HandleCameraImage); err != nil {
				a.logger.Error("Video device failed: %v", err)
			}
		}()
	}

	router := routes.SetupRoutes(routes.Dependencies{
		Manager:     a.manager,
		Loop:        a.loop,
		Hub:         a.hubService,
		Evaluations: a.evaluations,
		Predictions: a.predictions,
	}, a.config, a.logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("🚀 Rock Paper Scissors Vision\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📷 Cameras: UDP port %d\n", a.config.CamerasPort)
	fmt.Printf("📁 Dataset: %s\n", a.config.DatasetDirectory)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		err = server.Shutdown(shutdownCtx)
		cancelShutdown()
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	cancel()
	ingest.Wait()
	a.close()
	return err
}

func (a *App) close() {
	a.loop.Close()
	a.manager.Stop()
	a.bufferService.Flush()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Error("Error during shutdown: %v", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database: %v", err)
	}
	a.logger.Info("🛑 Server stopped")
	a.logger.Close()
}
