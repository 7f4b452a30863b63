package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"postgres"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"collector"`
	DBPass      string `envconfig:"DB_PASS" default:"password"`
	DBName      string `envconfig:"DB_NAME" default:"misinformation"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	EnableAPI           bool   `envconfig:"ENABLE_API" default:"true"`
	EnableCheckerWorker bool   `envconfig:"ENABLE_CHECKER_WORKER" default:"false"`
	CheckerMaxAttempts  uint16 `envconfig:"CHECKER_MAX_ATTEMPTS" default:"5"`
	MigrationPath       string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Object storage. An empty bucket selects the local filesystem store.
	GCSBucketName    string `envconfig:"GCS_BUCKET_NAME"`
	GCSPublicUploads bool   `envconfig:"GCS_PUBLIC_UPLOADS" default:"true"`
	UploadDir        string `envconfig:"UPLOAD_DIR" default:"./uploads"`

	// Collectors
	APIBaseURL         string `envconfig:"API_BASE_URL" default:"http://localhost:8081"`
	TwitterBearerToken string `envconfig:"TWITTER_BEARER_TOKEN"`
	TwitterAPIURL      string `envconfig:"TWITTER_API_URL" default:"https://api.twitter.com"`
	YouTubeAPIKey      string `envconfig:"YOUTUBE_API_KEY"`
	UnidocLicenseKey   string `envconfig:"UNIDOC_LICENSE_API_KEY"`
	FirebaseDBURL      string `envconfig:"FIREBASE_DATABASE_URL"` // accepted for compatibility, unused

	// Models
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	CheckerModel   string `envconfig:"CHECKER_MODEL" default:"gemini-2.5-flash"`

	// Embedding pipeline
	ProjectID string `envconfig:"PROJECT_ID"`
	Location  string `envconfig:"LOCATION" default:"us-central1"`
	Index     string `envconfig:"INDEX" default:"Evidence"`
	BucketURI string `envconfig:"BUCKET_URI"`

	// Server
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8081"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	ReportDir       string `envconfig:"REPORT_DIR" default:"reports"`
	ClaimLogPath    string `envconfig:"CLAIM_LOG_PATH" default:"data/logs/claims.jsonl"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Missing .env files are fine, the shell may already carry the variables.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		if c.DBHost == "" {
			return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
		}
		if c.DBUser == "" {
			return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
		}
		if c.DBName == "" {
			return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
		}
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("%w: MAX_UPLOAD_SIZE_MB must be positive", ErrInvalidValue)
	}
	if c.EnableCheckerWorker && c.CheckerMaxAttempts == 0 {
		return fmt.Errorf("%w: CHECKER_MAX_ATTEMPTS must be at least 1", ErrInvalidValue)
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a lib/pq keyword string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}
