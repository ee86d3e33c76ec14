// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	LLM           LLMConfig               `mapstructure:"llm"`
	Embedding     EmbeddingConfig         `mapstructure:"embedding"`
	Retrieval     RetrievalConfig         `mapstructure:"retrieval"`
	Store         StoreConfig             `mapstructure:"store"`
	Redis         RedisConfig             `mapstructure:"redis"`
	Audit         AuditConfig             `mapstructure:"audit"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Server        ServerConfig            `mapstructure:"server"`
	Router        RouterConfig            `mapstructure:"router"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LLMConfig selects and parameterizes the text generation provider.
// Provider is one of openai, anthropic, bedrock, gemini.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Region      string  `mapstructure:"region"`
	Profile     string  `mapstructure:"profile"`
	AccessKeyID string  `mapstructure:"access_key_id"`
	SecretKey   string  `mapstructure:"secret_access_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
}

// EmbeddingConfig configures query embedding for vector retrieval.
// An empty Provider disables embeddings and retrieval falls back to text match.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

type RetrievalConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	Index         string   `mapstructure:"index"`
	Namespace     string   `mapstructure:"namespace"`
	Mode          string   `mapstructure:"mode"` // knn or text
	NumCandidates int      `mapstructure:"num_candidates"`
}

// StoreConfig describes the read-only tabular store. Driver is one of
// sqlite, postgres, mysql.
type StoreConfig struct {
	Driver         string `mapstructure:"driver"`
	DSN            string `mapstructure:"dsn"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	QueryTimeout   int    `mapstructure:"query_timeout"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuditConfig controls where finalized responses are recorded.
// Sink is one of none, redis, sns.
type AuditConfig struct {
	Sink      string `mapstructure:"sink"`
	Stream    string `mapstructure:"stream"`
	MaxLen    int64  `mapstructure:"max_len"`
	TopicARN  string `mapstructure:"topic_arn"`
	AWSRegion string `mapstructure:"aws_region"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// RouterConfig carries the vocabulary used by the deterministic intent overrides.
type RouterConfig struct {
	SupplierNames   []string `mapstructure:"supplier_names"`
	FallbackCountry string   `mapstructure:"fallback_country"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMTimeout returns the configured generation timeout.
func (c LLMConfig) LLMTimeout() time.Duration {
	return GetDuration(c.Timeout)
}

// Describe renders a credential-free summary for startup logs.
func (c StoreConfig) Describe() string {
	return fmt.Sprintf("driver=%s maxConns=%d maxIdle=%d", c.Driver, c.MaxConnections, c.MaxIdle)
}
