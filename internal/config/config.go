package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	Password         string
	ModelPath        string // Plik sieci dla gocv (ONNX/TF); pusty = wbudowany klasyfikator softmax
	ModelConfigPath  string
	ModelInputScale  float64
	DatasetDirectory string
	DatabasePath     string
	LogDirectory     string
	Quiet            bool

	CamerasPort  int
	CameraNames  map[string]string // IP kamery -> nazwa
	CameraDevice int               // Lokalna kamera gocv; -1 = wyłączona
	FrameTimeout time.Duration     // Po tym czasie bez klatki kamera uznawana jest za niedostępną

	ProcessingInterval int // Dekoduj co N-tą klatkę

	SettleDelay     time.Duration
	DetectionPeriod time.Duration

	TestBatchSize     int
	MaxEvaluationSize int // Górny limit ?size= dla /api/evaluate
	MaxTrainEpochs    int // Górny limit ?epochs= dla /api/train
	TrainBatchSize    int
	TestFraction      float64
	LearningRate      float64
	FitEpochs         int
	Seed              int64

	ResultBufferLimit   int
	ResultFlushInterval time.Duration
}

// Load reads an optional .env file and builds the Config from the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8080),
		Password:         getEnv("PASSWORD", "rockpaperscissors"),
		ModelPath:        getEnv("MODEL_PATH", ""),
		ModelConfigPath:  getEnv("MODEL_CONFIG_PATH", ""),
		ModelInputScale:  getEnvAsFloat("MODEL_INPUT_SCALE", 1.0/255),
		DatasetDirectory: getEnv("DATASET_DIR", filepath.Join(".", "data", "rps")),
		DatabasePath:     getEnv("DATABASE_PATH", filepath.Join(".", "data", "rpsvision.db")),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
		Quiet:            getEnvAsBool("QUIET", false),

		CamerasPort:  getEnvAsInt("CAMERAS_PORT", 9000),
		CameraNames:  parseCameraNames(getEnv("CAMERA_NAMES", "")),
		CameraDevice: getEnvAsInt("CAMERA_DEVICE", -1),
		FrameTimeout: getEnvAsMillis("FRAME_TIMEOUT_MS", 3000),

		ProcessingInterval: getEnvAsInt("PROCESSING_INTERVAL", 1),

		SettleDelay:     getEnvAsMillis("SETTLE_DELAY_MS", 100),
		DetectionPeriod: getEnvAsMillis("DETECTION_PERIOD_MS", 2000),

		TestBatchSize:     getEnvAsInt("TEST_BATCH_SIZE", 420),
		MaxEvaluationSize: getEnvAsInt("MAX_EVALUATION_SIZE", 4200),
		MaxTrainEpochs:    getEnvAsInt("MAX_TRAIN_EPOCHS", 50),
		TrainBatchSize:    getEnvAsInt("TRAIN_BATCH_SIZE", 512),
		TestFraction:      getEnvAsFloat("TEST_FRACTION", 0.2),
		LearningRate:      getEnvAsFloat("LEARNING_RATE", 0.05),
		FitEpochs:         getEnvAsInt("FIT_EPOCHS", 5),
		Seed:              getEnvAsInt64("SEED", 42),

		ResultBufferLimit:   getEnvAsInt("RESULT_BUFFER_LIMIT", 50),
		ResultFlushInterval: time.Duration(getEnvAsInt("RESULT_FLUSH_INTERVAL", 30)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be within 1-65535 (got %d)", c.Port)
	}
	if c.TestBatchSize <= 0 {
		return fmt.Errorf("test batch size must be > 0 (got %d)", c.TestBatchSize)
	}
	if c.MaxEvaluationSize < c.TestBatchSize {
		return fmt.Errorf("max evaluation size must be >= test batch size (got %d < %d)", c.MaxEvaluationSize, c.TestBatchSize)
	}
	if c.MaxTrainEpochs <= 0 {
		return fmt.Errorf("max train epochs must be > 0 (got %d)", c.MaxTrainEpochs)
	}
	if c.TrainBatchSize <= 0 {
		return fmt.Errorf("train batch size must be > 0 (got %d)", c.TrainBatchSize)
	}
	if c.TestFraction < 0 || c.TestFraction > 1 {
		return fmt.Errorf("test fraction must be within [0,1] (got %f)", c.TestFraction)
	}
	if c.ProcessingInterval <= 0 {
		return fmt.Errorf("processing interval must be > 0 (got %d)", c.ProcessingInterval)
	}
	if c.DetectionPeriod <= 0 || c.SettleDelay < 0 {
		return fmt.Errorf("invalid detection timing: period=%s settle=%s", c.DetectionPeriod, c.SettleDelay)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}

// parseCameraNames reads "ip=name,ip=name" pairs.
func parseCameraNames(value string) map[string]string {
	names := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		ip, name, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || ip == "" || name == "" {
			continue
		}
		names[strings.TrimSpace(ip)] = strings.TrimSpace(name)
	}
	return names
}
