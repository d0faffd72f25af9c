package cfg

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
)

type Config struct {
	Similar *SimilarCfg
	Image   *ImageCfg
	Run     *RunCfg
	Minio   *MinIOCfg // nil, если MINIO_ENDPOINT не задан
	Redis   *RedisCfg // nil, если REDIS_ADDR не задан
	Kafka   *KafkaCfg // nil, если KAFKA_BROKERS не задан
}

// SimilarCfg — подключение к сервису EuclidesDB
type SimilarCfg struct {
	Host           string
	Port           int
	UseTLS         bool
	TLSServerName  string
	CallTimeout    time.Duration // таймаут одного удалённого вызова
	MaxAttempts    int           // 1 = без повторов
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// Addr возвращает host:port
func (c *SimilarCfg) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ImageCfg — параметры подготовки изображений
type ImageCfg struct {
	Width        int
	Height       int
	ResizeWidth  int    // ширина после fit-to-width, до обрезки
	Resample     string // speed | balanced | quality
	WireFormat   string // jpeg | png
	JPEGQuality  int
	ResourcesDir string // каталог, относительно которого ищутся локальные пути
}

// RunCfg — план прогона оркестратора
type RunCfg struct {
	Models        []string
	TopK          int
	Batch         []BatchEntry
	RemoveID      *int32
	QueryImage    string
	QueryID       *int32
	Shutdown      bool
	ShutdownType  int32
	MaxConcurrent int
}

type MinIOCfg struct {
	Endpoint string
	User     string
	Password string
	UseSSL   bool
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ReportTTL   time.Duration
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	EnsureTopic       bool
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	envFile := getEnvOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		log.Debugf("env file %s not found, using process environment", envFile)
	}

	similar, err := loadSimilarCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	image, err := loadImageCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	run, err := loadRunCfg(log, image.ResourcesDir)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cfg := &Config{
		Similar: similar,
		Image:   image,
		Run:     run,
		Minio:   minio,
		Redis:   redis,
		Kafka:   kafka,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет конфигурацию при старте.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Similar == nil || c.Image == nil || c.Run == nil {
		return e.Wrap("config", fmt.Errorf("%w: missing section", e.ErrInvalidConfig))
	}

	if strings.TrimSpace(c.Similar.Host) == "" {
		add("host is required")
	}
	if c.Similar.Port < 1 || c.Similar.Port > 65535 {
		add("port %d out of range", c.Similar.Port)
	}
	if c.Similar.CallTimeout <= 0 {
		add("call timeout must be positive")
	}
	if c.Similar.MaxAttempts < 1 {
		add("max attempts must be at least 1")
	}

	if c.Image.Width <= 0 || c.Image.Height <= 0 {
		add("target size %dx%d must be positive", c.Image.Width, c.Image.Height)
	}
	if c.Image.ResizeWidth < c.Image.Width {
		add("resize width %d is smaller than target width %d", c.Image.ResizeWidth, c.Image.Width)
	}
	switch c.Image.WireFormat {
	case "jpeg", "png":
	default:
		add("unsupported wire format %q", c.Image.WireFormat)
	}
	switch c.Image.Resample {
	case "speed", "balanced", "quality":
	default:
		add("unsupported resample %q", c.Image.Resample)
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		add("jpeg quality %d out of range", c.Image.JPEGQuality)
	}

	if len(c.Run.Models) == 0 {
		add("model set must not be empty")
	}
	if c.Run.TopK < 1 || c.Run.TopK > math.MaxInt32 {
		add("top k %d out of range [1, %d]", c.Run.TopK, math.MaxInt32)
	}
	if c.Run.MaxConcurrent < 1 {
		add("max concurrent must be at least 1")
	}
	for i, entry := range c.Run.Batch {
		if strings.TrimSpace(entry.Path) == "" {
			add("batch entry %d has empty path", i)
		}
	}

	if len(errs) > 0 {
		return e.Wrap("config", fmt.Errorf("%w: %w", e.ErrInvalidConfig, errors.Join(errs...)))
	}

	return nil
}

func loadSimilarCfg(log logger.Logger) (*SimilarCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultPort           = 50000
		defaultCallTimeout    = 30 * time.Second
		defaultMaxAttempts    = 1
		defaultRetryBaseDelay = 500 * time.Millisecond
		defaultRetryMaxDelay  = 10 * time.Second
	)

	port, err := parseIntEnv("EUCLIDES_PORT", defaultPort)
	if err != nil {
		log.Errorf(err, "invalid EUCLIDES_PORT")
		return nil, e.Wrap("EUCLIDES_PORT", err)
	}

	useTLS, err := parseBoolEnv("EUCLIDES_USE_TLS", false)
	if err != nil {
		log.Errorf(err, "invalid EUCLIDES_USE_TLS")
		return nil, e.Wrap("EUCLIDES_USE_TLS", err)
	}

	callTimeout, err := parseDurationEnv("CALL_TIMEOUT", defaultCallTimeout)
	if err != nil {
		log.Errorf(err, "invalid CALL_TIMEOUT")
		return nil, e.Wrap("CALL_TIMEOUT", err)
	}

	maxAttempts, err := parseIntEnv("MAX_ATTEMPTS", defaultMaxAttempts)
	if err != nil {
		log.Errorf(err, "invalid MAX_ATTEMPTS")
		return nil, e.Wrap("MAX_ATTEMPTS", err)
	}

	baseDelay, err := parseDurationEnv("RETRY_BASE_DELAY", defaultRetryBaseDelay)
	if err != nil {
		log.Errorf(err, "invalid RETRY_BASE_DELAY")
		return nil, e.Wrap("RETRY_BASE_DELAY", err)
	}

	maxDelay, err := parseDurationEnv("RETRY_MAX_DELAY", defaultRetryMaxDelay)
	if err != nil {
		log.Errorf(err, "invalid RETRY_MAX_DELAY")
		return nil, e.Wrap("RETRY_MAX_DELAY", err)
	}

	return &SimilarCfg{
		Host:           getEnvOrDefault("EUCLIDES_HOST", defaultHost),
		Port:           port,
		UseTLS:         useTLS,
		TLSServerName:  getEnv("EUCLIDES_TLS_SERVER_NAME"),
		CallTimeout:    callTimeout,
		MaxAttempts:    maxAttempts,
		RetryBaseDelay: baseDelay,
		RetryMaxDelay:  maxDelay,
	}, nil
}

func loadImageCfg(log logger.Logger) (*ImageCfg, error) {
	const (
		defaultSize        = 224
		defaultResizeWidth = 300
		defaultQuality     = 90
	)

	width, err := parseIntEnv("IMAGE_WIDTH", defaultSize)
	if err != nil {
		log.Errorf(err, "invalid IMAGE_WIDTH")
		return nil, e.Wrap("IMAGE_WIDTH", err)
	}

	height, err := parseIntEnv("IMAGE_HEIGHT", defaultSize)
	if err != nil {
		log.Errorf(err, "invalid IMAGE_HEIGHT")
		return nil, e.Wrap("IMAGE_HEIGHT", err)
	}

	resizeWidth, err := parseIntEnv("RESIZE_WIDTH", defaultResizeWidth)
	if err != nil {
		log.Errorf(err, "invalid RESIZE_WIDTH")
		return nil, e.Wrap("RESIZE_WIDTH", err)
	}

	quality, err := parseIntEnv("JPEG_QUALITY", defaultQuality)
	if err != nil {
		log.Errorf(err, "invalid JPEG_QUALITY")
		return nil, e.Wrap("JPEG_QUALITY", err)
	}

	return &ImageCfg{
		Width:        width,
		Height:       height,
		ResizeWidth:  resizeWidth,
		Resample:     strings.ToLower(getEnvOrDefault("RESAMPLE", "balanced")),
		WireFormat:   strings.ToLower(getEnvOrDefault("WIRE_FORMAT", "jpeg")),
		JPEGQuality:  quality,
		ResourcesDir: getEnvOrDefault("RESOURCES_DIR", "."),
	}, nil
}

func loadRunCfg(log logger.Logger, resourcesDir string) (*RunCfg, error) {
	const (
		defaultModels        = "resnet18"
		defaultTopK          = 10
		defaultMaxConcurrent = 1
	)

	topK, err := parseIntEnv("TOP_K", defaultTopK)
	if err != nil {
		log.Errorf(err, "invalid TOP_K")
		return nil, e.Wrap("TOP_K", err)
	}

	maxConcurrent, err := parseIntEnv("MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil {
		log.Errorf(err, "invalid MAX_CONCURRENT")
		return nil, e.Wrap("MAX_CONCURRENT", err)
	}

	shutdown, err := parseBoolEnv("SHUTDOWN_ENABLED", true)
	if err != nil {
		log.Errorf(err, "invalid SHUTDOWN_ENABLED")
		return nil, e.Wrap("SHUTDOWN_ENABLED", err)
	}

	shutdownType, err := parseInt32Env("SHUTDOWN_TYPE", 1)
	if err != nil {
		log.Errorf(err, "invalid SHUTDOWN_TYPE")
		return nil, e.Wrap("SHUTDOWN_TYPE", err)
	}

	removeID, err := parseOptionalInt32Env("REMOVE_ID")
	if err != nil {
		log.Errorf(err, "invalid REMOVE_ID")
		return nil, e.Wrap("REMOVE_ID", err)
	}

	queryID, err := parseOptionalInt32Env("QUERY_ID")
	if err != nil {
		log.Errorf(err, "invalid QUERY_ID")
		return nil, e.Wrap("QUERY_ID", err)
	}

	batch, err := ParseBatch(getEnv("BATCH"))
	if err != nil {
		log.Errorf(err, "invalid BATCH")
		return nil, e.Wrap("BATCH", err)
	}

	if dir := getEnv("BATCH_DIR"); dir != "" {
		start, err := parseInt32Env("BATCH_ID_START", 0)
		if err != nil {
			log.Errorf(err, "invalid BATCH_ID_START")
			return nil, e.Wrap("BATCH_ID_START", err)
		}

		entries, err := EnumerateDir(resourcesDir, dir, getEnvOrDefault("BATCH_PATTERN", "*.jpg"), start)
		if err != nil {
			log.Errorf(err, "failed to enumerate BATCH_DIR")
			return nil, e.Wrap("BATCH_DIR", err)
		}
		batch = append(batch, entries...)
	}

	run := &RunCfg{
		Models:        splitList(getEnvOrDefault("MODELS", defaultModels)),
		TopK:          topK,
		Batch:         batch,
		RemoveID:      removeID,
		QueryImage:    getEnv("QUERY_IMAGE"),
		QueryID:       queryID,
		Shutdown:      shutdown,
		ShutdownType:  shutdownType,
		MaxConcurrent: maxConcurrent,
	}

	if path := getEnv("RUN_FILE"); path != "" {
		file, err := LoadRunFile(path)
		if err != nil {
			log.Errorf(err, "failed to load RUN_FILE")
			return nil, e.Wrap("RUN_FILE", err)
		}
		file.applyTo(run)
	}

	return run, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	endpoint := getEnv("MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}

	useSSL, err := parseBoolEnv("MINIO_USE_SSL", false)
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, e.Wrap("MINIO_USE_SSL", err)
	}

	return &MinIOCfg{
		Endpoint: endpoint,
		User:     getEnv("MINIO_ROOT_USER"),
		Password: getEnv("MINIO_ROOT_PASSWORD"),
		UseSSL:   useSSL,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB          = 0
		defaultMaxRetries  = 3
		defaultDialTimeout = 5 * time.Second
		defaultTimeout     = 3 * time.Second
		defaultReportTTL   = 24 * time.Hour
	)

	addr := getEnv("REDIS_ADDR")
	if addr == "" {
		return nil, nil
	}

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, e.Wrap("REDIS_DB_ID", err)
	}

	maxRetries, err := parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, e.Wrap("REDIS_MAX_RETRIES", err)
	}

	dialTimeout, err := parseDurationEnv("REDIS_DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DIAL_TIMEOUT")
		return nil, e.Wrap("REDIS_DIAL_TIMEOUT", err)
	}

	timeout, err := parseDurationEnv("REDIS_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_TIMEOUT")
		return nil, e.Wrap("REDIS_TIMEOUT", err)
	}

	reportTTL, err := parseDurationEnv("REPORT_TTL", defaultReportTTL)
	if err != nil {
		log.Errorf(err, "invalid REPORT_TTL")
		return nil, e.Wrap("REPORT_TTL", err)
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ReportTTL:   reportTTL,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "euclides.call-results"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, nil
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	ensureTopic, err := parseBoolEnv("KAFKA_ENSURE_TOPIC", false)
	if err != nil {
		return nil, e.Wrap("KAFKA_ENSURE_TOPIC", err)
	}

	return &KafkaCfg{
		Brokers:           splitList(brokerStr),
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		EnsureTopic:       ensureTopic,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return b, nil
}

// parseInt32Env считывает значение в диапазоне int32.
func parseInt32Env(key string, defaultValue int32) (int32, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return int32(n), nil
}

// parseOptionalInt32Env возвращает nil, если переменная не задана.
func parseOptionalInt32Env(key string) (*int32, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return nil, e.ErrIncorrectEnvVariable
	}

	id := int32(n)
	return &id, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
