package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/image-search/pkg/e"
	"github.com/DRSN-tech/image-search/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

type Config struct {
	Mongo  *MongoCfg
	Http   *HTTPConfig
	Ml     *MLServiceCfg
	Search *SearchCfg
	Fetch  *FetchCfg
	Minio  *MinIOCfg // nil, если объектное хранилище изображений не сконфигурировано
	Redis  *RedisCfg // nil, если кэш изображений отключен
	Kafka  *KafkaCfg // nil, если события обновления индекса отключены
}

type MongoCfg struct {
	URI            string
	DBName         string
	Collection     string
	ConnectTimeout time.Duration
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type MLServiceCfg struct {
	Addr          string
	ModelName     string
	Device        string
	MaxConcurrent int
	MaxRetries    int
	LazyLoad      bool // загружать модель при первом запросе, а не при старте
}

type SearchCfg struct {
	TopK            int     // количество результатов по умолчанию
	Threshold       float64 // порог близости по умолчанию
	CacheEmbeddings bool    // eager-режим: считать эмбеддинги каталога при инициализации
	MaxItems        int     // лимит товаров каталога, 0 — без лимита
}

type FetchCfg struct {
	Timeout    time.Duration
	MaxRetries int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	MinioRootUser     string // Имя пользователя для доступа к Minio
	MinioRootPassword string // Пароль для доступа к Minio
	MinioUseSSL       bool
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ImageTTL    time.Duration // TTL подготовленных байтов изображений
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
// Переменные из файла .env подхватываются, если файл существует.
func Load(log logger.Logger) (*Config, error) {
	_ = godotenv.Load()

	mongo, err := loadMongoCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	search, err := loadSearchCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ml, err := loadMLServiceCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	fetch, err := loadFetchCfg(log)
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

	return &Config{
		Mongo:  mongo,
		Http:   http,
		Ml:     ml,
		Search: search,
		Fetch:  fetch,
		Minio:  minio,
		Redis:  redis,
		Kafka:  kafka,
	}, nil
}

func loadMongoCfg(log logger.Logger) (*MongoCfg, error) {
	const (
		defaultDBName         = "test"
		defaultCollection     = "products"
		defaultConnectTimeout = 10 * time.Second
	)

	uri := getEnv("MONGO_URI")
	if uri == "" {
		err := fmt.Errorf("MONGO_URI is required")
		log.Errorf(err, "missing MONGO_URI")
		return nil, err
	}

	connectTimeout, err := parseDurationEnv("MONGO_CONNECT_TIMEOUT", defaultConnectTimeout)
	if err != nil {
		log.Errorf(err, "invalid MONGO_CONNECT_TIMEOUT")
		return nil, err
	}

	return &MongoCfg{
		URI:            uri,
		DBName:         getEnvOrDefault("MONGO_DB_NAME", defaultDBName),
		Collection:     getEnvOrDefault("MONGO_COLLECTION", defaultCollection),
		ConnectTimeout: connectTimeout,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultHost         = "0.0.0.0"
		defaultPort         = "8001"
		defaultReadTimeout  = 30 * time.Second
		defaultWriteTimeout = 60 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Host:         getEnvOrDefault("HOST", defaultHost),
		Port:         getEnvOrDefault("PORT", defaultPort),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadMLServiceCfg(log logger.Logger) (*MLServiceCfg, error) {
	const (
		defaultHost          = "ml-service"
		defaultPort          = "50051"
		defaultModelName     = "openai/clip-vit-base-patch32"
		defaultDevice        = "cpu"
		defaultMaxConcurrent = 8
		defaultMaxRetries    = 3
		defaultLazyLoad      = true
	)

	host := getEnvOrDefault("ML_HOST", defaultHost)
	port := getEnvOrDefault("ML_PORT", defaultPort)

	maxConcurrent, err := parseIntEnv("ML_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil {
		log.Errorf(err, "invalid ML_MAX_CONCURRENT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("ML_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid ML_MAX_RETRIES")
		return nil, err
	}
	if maxRetries < 1 {
		err := fmt.Errorf("ML_MAX_RETRIES must be at least 1, got %d", maxRetries)
		log.Errorf(err, "invalid ML_MAX_RETRIES")
		return nil, err
	}

	lazyLoad, err := parseBoolEnv("LAZY_LOAD_MODEL", defaultLazyLoad)
	if err != nil {
		log.Errorf(err, "invalid LAZY_LOAD_MODEL")
		return nil, err
	}

	return &MLServiceCfg{
		Addr:          host + ":" + port,
		ModelName:     getEnvOrDefault("MODEL_NAME", defaultModelName),
		Device:        getEnvOrDefault("DEVICE", defaultDevice),
		MaxConcurrent: maxConcurrent,
		MaxRetries:    maxRetries,
		LazyLoad:      lazyLoad,
	}, nil
}

func loadSearchCfg(log logger.Logger) (*SearchCfg, error) {
	const (
		defaultTopK      = 10
		defaultThreshold = 0.5
		defaultCache     = false
		defaultMaxItems  = 0
	)

	topK, err := parseIntEnv("TOP_K", defaultTopK)
	if err != nil {
		log.Errorf(err, "invalid TOP_K")
		return nil, err
	}
	if topK < 1 || topK > 50 {
		err := fmt.Errorf("TOP_K must be between 1 and 50, got %d", topK)
		log.Errorf(err, "invalid TOP_K")
		return nil, err
	}

	threshold, err := parseFloatEnv("SIMILARITY_THRESHOLD", defaultThreshold)
	if err != nil {
		log.Errorf(err, "invalid SIMILARITY_THRESHOLD")
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		err := fmt.Errorf("SIMILARITY_THRESHOLD must be between 0.0 and 1.0, got %g", threshold)
		log.Errorf(err, "invalid SIMILARITY_THRESHOLD")
		return nil, err
	}

	cacheEmbeddings, err := parseBoolEnv("CACHE_PRODUCTS", defaultCache)
	if err != nil {
		log.Errorf(err, "invalid CACHE_PRODUCTS")
		return nil, err
	}

	maxItems, err := parseIntEnv("MAX_PRODUCTS", defaultMaxItems)
	if err != nil {
		log.Errorf(err, "invalid MAX_PRODUCTS")
		return nil, err
	}

	return &SearchCfg{
		TopK:            topK,
		Threshold:       threshold,
		CacheEmbeddings: cacheEmbeddings,
		MaxItems:        maxItems,
	}, nil
}

func loadFetchCfg(log logger.Logger) (*FetchCfg, error) {
	const (
		defaultTimeout    = 10 * time.Second
		defaultMaxRetries = 3
	)

	timeout, err := parseDurationEnv("FETCH_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid FETCH_TIMEOUT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("FETCH_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid FETCH_MAX_RETRIES")
		return nil, err
	}
	if maxRetries < 1 {
		err := fmt.Errorf("FETCH_MAX_RETRIES must be at least 1, got %d", maxRetries)
		log.Errorf(err, "invalid FETCH_MAX_RETRIES")
		return nil, err
	}

	return &FetchCfg{
		Timeout:    timeout,
		MaxRetries: maxRetries,
	}, nil
}

// loadMinIOCfg возвращает nil без ошибки, если MINIO_ENDPOINT не задан:
// источник s3:// для изображений каталога опционален.
func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const defaultUseSSL = false

	endpoint := getEnv("MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}

	useSSL, err := parseBoolEnv("MINIO_USE_SSL", defaultUseSSL)
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     endpoint,
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

// loadRedisCfg возвращает nil без ошибки, если REDIS_ADDR не задан:
// кэш подготовленных изображений опционален.
func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultImageTTL     = 30 * time.Minute
	)

	addr := getEnv("REDIS_ADDR")
	if addr == "" {
		return nil, nil
	}

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("REDIS_DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("REDIS_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("REDIS_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_WRITE_TIMEOUT")
		return nil, err
	}

	imageTTL, err := parseDurationEnv("IMAGE_CACHE_TTL", defaultImageTTL)
	if err != nil {
		log.Errorf(err, "invalid IMAGE_CACHE_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ImageTTL:    imageTTL,
	}, nil
}

// loadKafkaCfg возвращает nil без ошибки, если KAFKA_BROKERS не задан:
// события обновления индекса опциональны.
func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "image-search.index-events"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, nil
	}
	brokers := strings.Split(brokerStr, ",")

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("KAFKA_REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("KAFKA_REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
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

	return strconv.Atoi(v)
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	return strconv.ParseFloat(v, 64)
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	return strconv.ParseBool(v)
}
