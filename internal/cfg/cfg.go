package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

type Config struct {
	Minio   *MinIOCfg
	Http    *HTTPConfig
	Grpc    *GRPCConfig
	Db      *PGDBCfg
	Redis   *RedisCfg
	Catalog *CatalogCfg
	Kafka   *KafkaCfg
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Название бакета для фотографий товаров
	MinioRootUser     string // Имя пользователя для доступа к Minio
	MinioRootPassword string // Пароль для доступа к Minio
	MinioUseSSL       bool
	PublicURL         string // Базовый URL, по которому фото отдаются клиентам
	UploadImagesLimit int    // Лимит на кол-во одновременных загрузок в S3
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	DefaultTTL  time.Duration // TTL фиксированных ключей кэша
}

type CatalogCfg struct {
	ProductPerPage int // Размер страницы поисковой выдачи
}

// Load читает конфигурацию из окружения. Если рядом лежит .env, переменные из него
// подхватываются без перезаписи окружения. Возвращается первая найденная ошибка.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	r := &envReader{}
	c := &Config{
		Db:      r.postgres(),
		Redis:   r.redis(),
		Catalog: r.catalog(),
		Minio:   r.minio(),
		Kafka:   r.kafka(),
		Http:    r.http(),
		Grpc:    r.grpc(),
	}
	if r.err != nil {
		log.Errorf(r.err, "invalid configuration")
		return nil, e.Wrap(whereami.WhereAmI(), r.err)
	}

	return c, nil
}

func (r *envReader) postgres() *PGDBCfg {
	return &PGDBCfg{
		Host:     r.str("POSTGRES_HOST", "localhost"),
		Port:     r.str("POSTGRES_PORT", "5432"),
		User:     r.required("POSTGRES_USER"),
		Password: r.required("POSTGRES_PASSWORD"),
		DBName:   r.required("POSTGRES_DB"),
		SSLMode:  r.str("SSL_MODE", "disable"),
	}
}

func (r *envReader) redis() *RedisCfg {
	const defaultTTLSeconds = 60 * 60 * 4

	readTimeout := r.duration("READ_TIMEOUT", 3*time.Second)
	writeTimeout := r.duration("WRITE_TIMEOUT", 3*time.Second)

	return &RedisCfg{
		Addr:        r.str("REDIS_ADDR", "localhost:6379"),
		Password:    os.Getenv("REDIS_PASSWORD"),
		User:        os.Getenv("REDIS_USER"),
		DB:          r.integer("REDIS_DB_ID", 0),
		MaxRetries:  r.integer("MAX_RETRIES", 3),
		DialTimeout: r.duration("DIAL_TIMEOUT", 5*time.Second),
		Timeout:     max(readTimeout, writeTimeout),
		// REDIS_TTL задаётся в секундах
		DefaultTTL: time.Duration(r.positiveInt("REDIS_TTL", defaultTTLSeconds)) * time.Second,
	}
}

func (r *envReader) catalog() *CatalogCfg {
	return &CatalogCfg{ProductPerPage: r.positiveInt("PRODUCT_PER_PAGE", 8)}
}

func (r *envReader) minio() *MinIOCfg {
	useSSL := r.boolean("MINIO_USE_SSL", false)
	endpoint := r.str("MINIO_ENDPOINT", "minio:9000")
	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return &MinIOCfg{
		MinioEndpoint:     endpoint,
		BucketName:        r.str("BUCKET_NAME", "product-photos"),
		MinioRootUser:     os.Getenv("MINIO_ROOT_USER"),
		MinioRootPassword: os.Getenv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		PublicURL:         strings.TrimRight(r.str("MINIO_PUBLIC_URL", scheme+"://"+endpoint), "/"),
		UploadImagesLimit: r.positiveInt("UPLOAD_IMAGES_LIMIT", 5),
	}
}

func (r *envReader) kafka() *KafkaCfg {
	return &KafkaCfg{
		Brokers:           r.list("KAFKA_BROKERS", "localhost:9092"),
		Topic:             r.str("KAFKA_TOPIC", "order-events"),
		NetworkMode:       r.str("KAFKA_NETWORK_MODE", "tcp"),
		Partitions:        r.positiveInt("KAFKA_PARTITIONS", 3),
		ReplicationFactor: r.positiveInt("REPLICATION_FACTOR", 1),
	}
}

func (r *envReader) http() *HTTPConfig {
	return &HTTPConfig{
		Port:         r.str("HTTP_PORT", "8080"),
		ReadTimeout:  r.duration("HTTP_READ_TIMEOUT", 5*time.Second),
		WriteTimeout: r.duration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:  r.duration("KEEP_ALIVE", 60*time.Second),
	}
}

func (r *envReader) grpc() *GRPCConfig {
	return &GRPCConfig{
		Port:        r.str("GRPC_PORT", "8091"),
		NetworkMode: r.str("GRPC_NETWORK_MODE", "tcp"),
	}
}

// envReader читает переменные окружения и запоминает первую ошибку разбора,
// чтобы загрузчики секций оставались линейными.
type envReader struct {
	err error
}

func (r *envReader) fail(key string, err error) {
	if r.err == nil {
		r.err = e.Wrap(key, err)
	}
}

func (r *envReader) str(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}

func (r *envReader) required(key string) string {
	v := os.Getenv(key)
	if v == "" {
		r.fail(key, fmt.Errorf("%w: variable is required", e.ErrIncorrectEnvVariable))
	}

	return v
}

func (r *envReader) integer(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, e.ErrIncorrectEnvVariable)
		return defaultValue
	}

	return n
}

func (r *envReader) positiveInt(key string, defaultValue int) int {
	n := r.integer(key, defaultValue)
	if n <= 0 {
		r.fail(key, e.ErrIncorrectEnvVariable)
		return defaultValue
	}

	return n
}

func (r *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, fmt.Errorf("%w: %v", e.ErrIncorrectEnvVariable, err))
		return defaultValue
	}

	return d
}

func (r *envReader) boolean(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, e.ErrIncorrectEnvVariable)
		return defaultValue
	}

	return b
}

func (r *envReader) list(key, defaultValue string) []string {
	out := splitCSV(r.str(key, defaultValue))
	if len(out) == 0 {
		r.fail(key, fmt.Errorf("%w: empty list", e.ErrIncorrectEnvVariable))
	}

	return out
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}

	return out
}
