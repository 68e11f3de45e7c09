package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Catalog  CatalogConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
	HTTPPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	// StatementTimeout is applied per session, in milliseconds. Zero disables it.
	StatementTimeout int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	StockTopic string
	GroupID    string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// CatalogConfig holds the limits and cache lifetimes of the catalog engine.
type CatalogConfig struct {
	// MaxTaxonomyDepth is the number of levels CreateGroup/UpdateGroup allow (section → group = 2).
	MaxTaxonomyDepth int
	// TreeGuardDepth bounds traversal of persisted data, which may be deeper than MaxTaxonomyDepth.
	TreeGuardDepth   int
	ImpactSampleSize int
	TreeCacheTTL     time.Duration
	FacetCacheTTL    time.Duration
	ListCacheTTL     time.Duration
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			GRPCPort: getEnv("GRPC_PORT", ":8082"),
			HTTPPort: getEnv("HTTP_PORT", ":8080"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:             getEnv("POSTGRES_HOST", "localhost"),
			Port:             getEnv("POSTGRES_PORT", "5432"),
			User:             getEnv("POSTGRES_USER", "catalog"),
			Password:         getEnv("POSTGRES_PASSWORD", "catalog"),
			DBName:           getEnv("POSTGRES_DB", "medequip_catalog"),
			SSLMode:          getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:     getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:     getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime:  getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
			StatementTimeout: getEnvInt("POSTGRES_STATEMENT_TIMEOUT_MS", 15000),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			AuditTopic: getEnv("KAFKA_TOPIC_AUDIT", "catalog.taxonomy.audit"),
			StockTopic: getEnv("KAFKA_TOPIC_STOCK", "inventory.stock"),
			GroupID:    getEnv("KAFKA_GROUP_CATALOG", "catalog"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:     getEnv("ELASTICSEARCH_INDEX", "catalog-products"),
		},
		Catalog: CatalogConfig{
			MaxTaxonomyDepth: getEnvInt("TAXONOMY_MAX_DEPTH", 2),
			TreeGuardDepth:   getEnvInt("TREE_GUARD_DEPTH", 32),
			ImpactSampleSize: getEnvInt("IMPACT_SAMPLE_SIZE", 10),
			TreeCacheTTL:     getEnvDuration("TREE_CACHE_TTL", 10*time.Minute),
			FacetCacheTTL:    getEnvDuration("FACET_CACHE_TTL", 2*time.Minute),
			ListCacheTTL:     getEnvDuration("PRODUCT_LIST_CACHE_TTL", 5*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
