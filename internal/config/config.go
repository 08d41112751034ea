// Package config 负责加载和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
	Search        SearchConfig        `mapstructure:"search"`
	Resume        ResumeConfig        `mapstructure:"resume"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。Brokers 为空时异步入库功能关闭。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// TikaConfig 存储 Tika 服务器相关的配置。ServerURL 为空时不启用 Tika 兜底解析。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// IngestConfig 控制文档入库流程：切块参数、允许的扩展名与分类并发度。
type IngestConfig struct {
	ChunkSize         int      `mapstructure:"chunk_size"`
	ChunkOverlap      int      `mapstructure:"chunk_overlap"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxFileSizeMB     int      `mapstructure:"max_file_size_mb"`
	CategorizeWorkers int      `mapstructure:"categorize_workers"`
}

// SearchConfig 存储检索相关的配置。
type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

// ResumeConfig 存储简历生成相关的配置。生成参数在进程生命周期内固定。
type ResumeConfig struct {
	RelevanceThreshold float64 `mapstructure:"relevance_threshold"`
	ContextLimit       int     `mapstructure:"context_limit"`
	MaxTokens          int     `mapstructure:"max_tokens"`
	Temperature        float64 `mapstructure:"temperature"`
}

var defaults = map[string]interface{}{
	"server.port":                   "5009",
	"server.mode":                   "release",
	"database.mysql.dsn":            "",
	"database.redis.addr":           "localhost:6379",
	"database.redis.password":       "",
	"database.redis.db":             0,
	"jwt.secret":                    "",
	"jwt.access_token_expire_hours": 24,
	"jwt.refresh_token_expire_days": 7,
	"log.level":                     "info",
	"log.format":                    "json",
	"log.output_path":               "",
	"kafka.brokers":                 "",
	"kafka.topic":                   "resume-ingest",
	"kafka.group_id":                "resume-smart-go-consumer",
	"tika.server_url":               "",
	"elasticsearch.addresses":       "http://localhost:9200",
	"elasticsearch.username":        "",
	"elasticsearch.password":        "",
	"elasticsearch.index_name":      "user_documents",
	"minio.endpoint":                "",
	"minio.access_key_id":           "",
	"minio.secret_access_key":       "",
	"minio.use_ssl":                 false,
	"minio.bucket_name":             "resume-uploads",
	"embedding.api_key":             "",
	"embedding.base_url":            "https://api.openai.com/v1",
	"embedding.model":               "text-embedding-3-small",
	"embedding.dimensions":          1536,
	"llm.api_key":                   "",
	"llm.base_url":                  "https://api.groq.com/openai/v1",
	"llm.model":                     "openai/gpt-oss-20b",
	"ingest.chunk_size":             500,
	"ingest.chunk_overlap":          100,
	"ingest.allowed_extensions":     []string{"pdf", "docx", "txt", "json"},
	"ingest.max_file_size_mb":       16,
	"ingest.categorize_workers":     4,
	"search.default_limit":          20,
	"resume.relevance_threshold":    0.5,
	"resume.context_limit":          30,
	"resume.max_tokens":             4096,
	"resume.temperature":            0.5,
}

// Load 从指定路径读取 YAML 配置，并允许环境变量覆盖（如 llm.api_key -> LLM_API_KEY）。
// 当前目录下存在 .env 文件时会先加载它。
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 文件失败: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容旧部署中使用的 GROQ_API_KEY
	if err := v.BindEnv("llm.api_key", "LLM_API_KEY", "GROQ_API_KEY"); err != nil {
		return nil, fmt.Errorf("绑定环境变量失败: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size 必须大于 0, 当前为 %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap 必须满足 0 <= overlap < chunk_size, 当前为 %d", c.Ingest.ChunkOverlap)
	}
	return nil
}

// AsyncIngestEnabled 表示 Kafka 与 MinIO 是否都已配置，二者齐备时才允许异步上传。
func (c *Config) AsyncIngestEnabled() bool {
	return c.Kafka.Brokers != "" && c.MinIO.Endpoint != ""
}
