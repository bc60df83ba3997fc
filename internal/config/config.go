package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	JWTSecret string           `json:"jwt_secret"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	Vector    VectorConfig     `json:"vector_store"`
	FileStore FileStoreConfig  `json:"file_store"`
	AI        AIConfig         `json:"ai"`
	Usage     UsageConfig      `json:"usage"`
	Ingest    IngestConfig     `json:"ingest"`

	// CORSAllowlist empty means allow any origin. RateLimitMS zero
	// disables per-user request throttling.
	CORSAllowlist []string `json:"cors_allowlist"`
	RateLimitMS   int      `json:"rate_limit_ms"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type VectorConfig struct {
	Endpoint   string `json:"endpoint"`
	APIKey     string `json:"api_key"`
	Collection string `json:"collection"`
	Dimension  int    `json:"dimension"`
}

type FileStoreConfig struct {
	Type string   `json:"type"`
	Dir  string   `json:"dir"`
	S3   S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
}

// AIConfig selects and configures the chat and embedding providers.
// Data is an opaque blob decoded by the chosen provider.
type AIConfig struct {
	ChatProvider   string          `json:"chat_provider"`
	EmbedProvider  string          `json:"embed_provider"`
	ChatModel      string          `json:"chat_model"`
	ClassifyModel  string          `json:"classify_model"`
	EmbeddingModel string          `json:"embedding_model"`
	Data           json.RawMessage `json:"data"`
}

type UsageConfig struct {
	SessionAlertUSD float64 `json:"session_alert_usd"`
	DailyAlertUSD   float64 `json:"daily_alert_usd"`
	ReportCron      string  `json:"report_cron"`
}

type IngestConfig struct {
	WindowSize int `json:"window_size"`
	Overlap    int `json:"overlap"`
	BatchSize  int `json:"batch_size"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		return nil, fmt.Errorf("database host/db_name are required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Vector.Endpoint == "" || cfg.Vector.Collection == "" {
		return nil, fmt.Errorf("vector_store endpoint/collection are required")
	}
	if cfg.Vector.Dimension == 0 {
		cfg.Vector.Dimension = 1536
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local":
		if cfg.FileStore.Dir == "" {
			return nil, fmt.Errorf("file_store.dir is required for local store")
		}
	case "s3":
		if cfg.FileStore.S3.Endpoint == "" || cfg.FileStore.S3.Bucket == "" || cfg.FileStore.S3.SecretID == "" || cfg.FileStore.S3.SecretKey == "" {
			return nil, fmt.Errorf("file_store.s3 endpoint/bucket/secret_id/secret_key are required for s3 store")
		}
	default:
		return nil, fmt.Errorf("file_store.type must be local or s3")
	}
	if cfg.AI.ChatProvider == "" {
		cfg.AI.ChatProvider = "openai"
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.ChatProvider
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = "gpt-4o-mini"
	}
	if cfg.AI.ClassifyModel == "" {
		cfg.AI.ClassifyModel = cfg.AI.ChatModel
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.Usage.SessionAlertUSD == 0 {
		cfg.Usage.SessionAlertUSD = 1.0
	}
	if cfg.Usage.DailyAlertUSD == 0 {
		cfg.Usage.DailyAlertUSD = 10.0
	}
	if cfg.Usage.ReportCron == "" {
		cfg.Usage.ReportCron = "0 0 * * *"
	}
	if cfg.Ingest.WindowSize == 0 {
		cfg.Ingest.WindowSize = 512
	}
	if cfg.Ingest.Overlap == 0 {
		cfg.Ingest.Overlap = 50
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 32
	}
	if cfg.Ingest.Overlap >= cfg.Ingest.WindowSize {
		return nil, fmt.Errorf("ingest.overlap must be smaller than ingest.window_size")
	}
	return &cfg, nil
}
