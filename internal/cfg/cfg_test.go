package cfg

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, key := range []string{
		"EUCLIDES_HOST", "EUCLIDES_PORT", "EUCLIDES_USE_TLS", "CALL_TIMEOUT", "MAX_ATTEMPTS",
		"IMAGE_WIDTH", "IMAGE_HEIGHT", "RESIZE_WIDTH", "RESAMPLE", "WIRE_FORMAT", "JPEG_QUALITY", "RESOURCES_DIR",
		"MODELS", "TOP_K", "BATCH", "BATCH_DIR", "BATCH_PATTERN", "BATCH_ID_START", "REMOVE_ID", "QUERY_IMAGE",
		"QUERY_ID", "SHUTDOWN_ENABLED", "SHUTDOWN_TYPE", "MAX_CONCURRENT", "RUN_FILE",
		"MINIO_ENDPOINT", "REDIS_ADDR", "KAFKA_BROKERS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "localhost:50000", cfg.Similar.Addr())
	assert.Equal(t, 30*time.Second, cfg.Similar.CallTimeout)
	assert.Equal(t, 1, cfg.Similar.MaxAttempts)
	assert.Equal(t, 224, cfg.Image.Width)
	assert.Equal(t, 300, cfg.Image.ResizeWidth)
	assert.Equal(t, "jpeg", cfg.Image.WireFormat)
	assert.Equal(t, []string{"resnet18"}, cfg.Run.Models)
	assert.Equal(t, 10, cfg.Run.TopK)
	assert.True(t, cfg.Run.Shutdown)
	assert.Equal(t, int32(1), cfg.Run.ShutdownType)
	assert.Nil(t, cfg.Run.RemoveID)
	assert.Nil(t, cfg.Minio)
	assert.Nil(t, cfg.Redis)
	assert.Nil(t, cfg.Kafka)
}

func TestLoad_FromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("EUCLIDES_HOST", "euclides")
	t.Setenv("EUCLIDES_PORT", "50051")
	t.Setenv("MODELS", "resnet18, vgg16")
	t.Setenv("BATCH", "cat.jpg=42, dog.jpg=43")
	t.Setenv("REMOVE_ID", "42")
	t.Setenv("QUERY_ID", "43")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "euclides:50051", cfg.Similar.Addr())
	assert.Equal(t, []string{"resnet18", "vgg16"}, cfg.Run.Models)
	assert.Equal(t, []BatchEntry{{Path: "cat.jpg", ID: 42}, {Path: "dog.jpg", ID: 43}}, cfg.Run.Batch)
	require.NotNil(t, cfg.Run.RemoveID)
	assert.Equal(t, int32(42), *cfg.Run.RemoveID)
	require.NotNil(t, cfg.Run.QueryID)
	assert.Equal(t, int32(43), *cfg.Run.QueryID)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, 24*time.Hour, cfg.Redis.ReportTTL)
	require.NotNil(t, cfg.Kafka)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"empty models", "MODELS", " , "},
		{"zero top k", "TOP_K", "0"},
		{"top k above int32", "TOP_K", "4294967297"},
		{"port out of range", "EUCLIDES_PORT", "70000"},
		{"unknown wire format", "WIRE_FORMAT", "gif"},
		{"resize narrower than crop", "RESIZE_WIDTH", "100"},
		{"zero attempts", "MAX_ATTEMPTS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(logger.NewNop())
			require.Error(t, err)
			assert.ErrorIs(t, err, e.ErrInvalidConfig)
		})
	}

	for _, key := range []string{"SHUTDOWN_TYPE", "BATCH_ID_START"} {
		t.Run(key+" above int32", func(t *testing.T) {
			isolateEnv(t)
			t.Setenv("BATCH_DIR", t.TempDir())
			t.Setenv(key, "4294967297")

			_, err := Load(logger.NewNop())
			assert.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
		})
	}

	t.Run("run file top k above int32", func(t *testing.T) {
		isolateEnv(t)
		path := filepath.Join(t.TempDir(), "run.yaml")
		require.NoError(t, os.WriteFile(path, []byte("top_k: 4294967297\n"), 0o600))
		t.Setenv("RUN_FILE", path)

		_, err := Load(logger.NewNop())
		assert.ErrorIs(t, err, e.ErrInvalidConfig)
	})

	t.Run("not a number", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("TOP_K", "ten")

		_, err := Load(logger.NewNop())
		assert.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
	})
}

func TestLoad_RunFile(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models: [resnet18, vgg16]
top_k: 5
batch:
  - path: cat.jpg
    id: 42
    metadata: tabby
  - path: elephant.jpg
    id: 43
remove_id: 42
query_image: elephant.jpg
shutdown: false
`), 0o600))
	t.Setenv("RUN_FILE", path)
	t.Setenv("BATCH", "keyboard.jpg=44")

	cfg, err := Load(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"resnet18", "vgg16"}, cfg.Run.Models)
	assert.Equal(t, 5, cfg.Run.TopK)
	require.Len(t, cfg.Run.Batch, 3)
	assert.Equal(t, "keyboard.jpg", cfg.Run.Batch[0].Path)
	assert.Equal(t, "tabby", cfg.Run.Batch[1].Metadata)
	assert.Equal(t, "elephant.jpg", cfg.Run.QueryImage)
	assert.False(t, cfg.Run.Shutdown)
}

func TestParseBatch(t *testing.T) {
	entries, err := ParseBatch("")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = ParseBatch("cat.jpg")
	assert.Error(t, err)

	_, err = ParseBatch("cat.jpg=x")
	assert.Error(t, err)
}

func TestEnumerateDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "images")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.jpg"), 0o755))
	for _, name := range []string{"b.jpg", "a.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	entries, err := EnumerateDir(root, "images", "*.jpg", 10)
	require.NoError(t, err)
	assert.Equal(t, []BatchEntry{
		{Path: filepath.Join("images", "a.jpg"), ID: 10},
		{Path: filepath.Join("images", "b.jpg"), ID: 11},
	}, entries)
}

func TestEnumerateDir_IDOverflow(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o600))
	}

	_, err := EnumerateDir(root, ".", "*.jpg", math.MaxInt32)
	assert.ErrorIs(t, err, e.ErrInvalidConfig)

	entries, err := EnumerateDir(root, ".", "a.jpg", math.MaxInt32)
	require.NoError(t, err)
	assert.Equal(t, []BatchEntry{{Path: "a.jpg", ID: math.MaxInt32}}, entries)
}
