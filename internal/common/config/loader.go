// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	supportedProviders  = []string{"openai", "anthropic", "bedrock", "gemini"}
	supportedEmbedders  = []string{"", "openai", "gemini"}
	supportedDrivers    = []string{"sqlite", "postgres", "mysql"}
	supportedAuditSinks = []string{"none", "redis", "sns"}
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// expands ${VAR} placeholders and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// overrideFromEnv fills credentials and a few well-known knobs from the
// conventional provider environment variables when the file left them empty.
func overrideFromEnv(cfg *Config) {
	setIfEmpty(&cfg.LLM.Model, "LLM_MODEL")
	setIfEmpty(&cfg.Store.DSN, "DB_URL")
	setIfEmpty(&cfg.Embedding.Model, "EMBEDDING_MODEL")

	switch cfg.LLM.Provider {
	case "anthropic":
		setIfEmpty(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
	case "gemini":
		setIfEmpty(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	case "bedrock":
		setIfEmpty(&cfg.LLM.Region, "AWS_REGION")
	default:
		setIfEmpty(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	}

	switch cfg.Embedding.Provider {
	case "openai":
		setIfEmpty(&cfg.Embedding.APIKey, "OPENAI_API_KEY")
	case "gemini":
		setIfEmpty(&cfg.Embedding.APIKey, "GEMINI_API_KEY")
	}
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "supplychain-copilot"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel(cfg.LLM.Provider)
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60000
	}
	if cfg.LLM.Provider == "bedrock" && cfg.LLM.Region == "" {
		cfg.LLM.Region = "us-east-1"
	}

	if cfg.Embedding.Provider == "openai" && cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Provider == "gemini" && cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "gemini-embedding-001"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 15000
	}

	if len(cfg.Retrieval.Addresses) == 0 {
		cfg.Retrieval.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Retrieval.Index == "" {
		cfg.Retrieval.Index = "supplychain-docs"
	}
	if cfg.Retrieval.Namespace == "" {
		cfg.Retrieval.Namespace = "supplychain"
	}
	if cfg.Retrieval.Mode == "" {
		if cfg.Embedding.Provider != "" {
			cfg.Retrieval.Mode = "knn"
		} else {
			cfg.Retrieval.Mode = "text"
		}
	}
	if cfg.Retrieval.NumCandidates == 0 {
		cfg.Retrieval.NumCandidates = 50
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.DSN == "" && cfg.Store.Driver == "sqlite" {
		cfg.Store.DSN = "file:supply_chain.db?mode=ro"
	}
	if cfg.Store.MaxConnections == 0 {
		cfg.Store.MaxConnections = 10
	}
	if cfg.Store.MaxIdle == 0 {
		cfg.Store.MaxIdle = 2
	}

	if cfg.Audit.Sink == "" {
		cfg.Audit.Sink = "none"
	}
	if cfg.Audit.Stream == "" {
		cfg.Audit.Stream = "copilot:responses"
	}
	if cfg.Audit.MaxLen == 0 {
		cfg.Audit.MaxLen = 10000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 120000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	for key, w := range cfg.Workers {
		if w.MaxJobsActive == 0 {
			w.MaxJobsActive = cfg.Camunda.MaxJobsActive
		}
		if w.Timeout == 0 {
			w.Timeout = cfg.Camunda.Timeout
		}
		cfg.Workers[key] = w
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 180000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if len(cfg.Router.SupplierNames) == 0 {
		cfg.Router.SupplierNames = []string{"Alpha", "Beta", "Gamma", "Delta"}
	}
	if cfg.Router.FallbackCountry == "" {
		cfg.Router.FallbackCountry = "VN"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "bedrock":
		return "anthropic.claude-3-5-haiku-20241022-v1:0"
	case "gemini":
		return "gemini-2.0-flash"
	default:
		return "gpt-4.1-mini"
	}
}

func validateConfig(cfg *Config) error {
	if !contains(supportedProviders, cfg.LLM.Provider) {
		return fmt.Errorf("llm.provider %q is not supported", cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2]")
	}
	if !contains(supportedEmbedders, cfg.Embedding.Provider) {
		return fmt.Errorf("embedding.provider %q is not supported", cfg.Embedding.Provider)
	}
	if cfg.Retrieval.Mode != "knn" && cfg.Retrieval.Mode != "text" {
		return fmt.Errorf("retrieval.mode must be knn or text")
	}
	if cfg.Retrieval.Mode == "knn" && cfg.Embedding.Provider == "" {
		return fmt.Errorf("retrieval.mode knn requires embedding.provider")
	}
	if !contains(supportedDrivers, cfg.Store.Driver) {
		return fmt.Errorf("store.driver %q is not supported", cfg.Store.Driver)
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	if !contains(supportedAuditSinks, cfg.Audit.Sink) {
		return fmt.Errorf("audit.sink %q is not supported", cfg.Audit.Sink)
	}
	if cfg.Audit.Sink == "redis" && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required for the redis audit sink")
	}
	if cfg.Audit.Sink == "sns" && cfg.Audit.TopicARN == "" {
		return fmt.Errorf("audit.topic_arn is required for the sns audit sink")
	}
	return nil
}

// ValidateForWorker checks the settings only the job worker mode needs.
func ValidateForWorker(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig returns the worker settings with camunda-wide fallbacks.
func GetWorkerConfig(cfg *Config, taskType string) WorkerConfig {
	if w, ok := cfg.Workers[taskType]; ok {
		return w
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: cfg.Camunda.MaxJobsActive,
		Timeout:       cfg.Camunda.Timeout,
	}
}
