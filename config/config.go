package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"banyan-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`
	TracingEnabled                bool     `env:"TRACING_ENABLED" env-default:"false"`

	// PostgreSQL
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"banyan"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Graph Database (Memgraph), optional org-chart projection
	GraphDBEnabled  bool   `env:"GRAPH_DB_ENABLED" env-default:"false"`
	GraphDBHost     string `env:"GRAPH_DB_HOST" env-default:"localhost"`
	GraphDBPort     int    `env:"GRAPH_DB_PORT" env-default:"7687"`
	GraphDBUser     string `env:"GRAPH_DB_USER" env-default:""`
	GraphDBPassword string `env:"GRAPH_DB_PASSWORD" env-default:""`

	// Kafka Producer (change/snapshot events)
	KafkaEnabled       bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers       []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaChangeTopic   string   `env:"KAFKA_CHANGE_TOPIC" env-default:"leadership-changes"`
	KafkaSnapshotTopic string   `env:"KAFKA_SNAPSHOT_TOPIC" env-default:"orgchart-snapshots"`
	KafkaBatchSize     int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout  int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks  int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression   string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Registry (filings) lookups
	RegistryBaseURL   string `env:"REGISTRY_BASE_URL" env-default:"https://data.sec.gov"`
	RegistryUserAgent string `env:"REGISTRY_USER_AGENT" env-default:"banyan-collector admin@example.com"`

	// News search (RSS, Google News compatible)
	NewsBaseURL string `env:"NEWS_BASE_URL" env-default:"https://news.google.com"`

	// Classification service (LLM-backed)
	ClassifierBaseURL        string `env:"CLASSIFIER_BASE_URL" env-default:""`
	ClassifierAPIKey         string `env:"CLASSIFIER_API_KEY" env-default:""`
	ClassifierModel          string `env:"CLASSIFIER_MODEL" env-default:""`
	ClassifierTimeoutSeconds int    `env:"CLASSIFIER_TIMEOUT_SECONDS" env-default:"60"`

	// Collection defaults
	MaxConcurrentUnits      int           `env:"MAX_CONCURRENT_UNITS" env-default:"4"`
	MaxUnits                int           `env:"MAX_UNITS" env-default:"25"`
	MaxPagesPerUnit         int           `env:"MAX_PAGES_PER_UNIT" env-default:"10"`
	MaxCrawlDepth           int           `env:"MAX_CRAWL_DEPTH" env-default:"2"`
	MaxSearches             int           `env:"MAX_SEARCHES" env-default:"5"`
	MinSignificance         int           `env:"MIN_SIGNIFICANCE" env-default:"1"`
	NameSimilarityThreshold float64       `env:"NAME_SIMILARITY_THRESHOLD" env-default:"0.85"`
	DepartureConfidence     string        `env:"DEPARTURE_CONFIDENCE" env-default:"low"`
	HTTPMinIntervalMs       int           `env:"HTTP_MIN_INTERVAL_MS" env-default:"500"`
	HTTPCacheTTL            time.Duration `env:"HTTP_CACHE_TTL" env-default:"15m"`
	HTTPMaxRetries          int           `env:"HTTP_MAX_RETRIES" env-default:"3"`
}
