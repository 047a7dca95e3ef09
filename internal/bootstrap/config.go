package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	LlmProvider       string `mapstructure:"LLM_PROVIDER"`
	LlmApiKey         string `mapstructure:"LLM_API_KEY"`
	LlmEndpoint       string `mapstructure:"LLM_ENDPOINT"`
	LlmModel          string `mapstructure:"LLM_MODEL"`
	LlmTimeoutSeconds int    `mapstructure:"LLM_TIMEOUT_SECONDS"`
	LlmMaxTokens      int    `mapstructure:"LLM_MAX_TOKENS"`

	EnginePath               string `mapstructure:"ENGINE_PATH"`
	EngineDepth              int    `mapstructure:"ENGINE_DEPTH"`
	EnginePoolSize           int    `mapstructure:"ENGINE_POOL_SIZE"`
	EngineMoveTimeoutSeconds int    `mapstructure:"ENGINE_MOVE_TIMEOUT_SECONDS"`

	RedisUrl        string `mapstructure:"REDIS_URL"`
	CacheTTLMinutes int    `mapstructure:"CACHE_TTL_MINUTES"`
	MongoUri        string `mapstructure:"MONGO_URI"`
	MongoDatabase   string `mapstructure:"MONGO_DATABASE"`

	IsLocalCors bool `mapstructure:"LOCAL_CORS"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.LlmProvider == "" {
		c.LlmProvider = "anthropic"
	}
	if c.LlmTimeoutSeconds <= 0 {
		c.LlmTimeoutSeconds = 120
	}
	if c.LlmMaxTokens <= 0 {
		c.LlmMaxTokens = 2048
	}
	if c.EngineDepth <= 0 {
		c.EngineDepth = 15
	}
	if c.EnginePoolSize <= 0 {
		c.EnginePoolSize = 2
	}
	if c.EngineMoveTimeoutSeconds <= 0 {
		c.EngineMoveTimeoutSeconds = 30
	}
	if c.CacheTTLMinutes <= 0 {
		c.CacheTTLMinutes = 60
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = "chesster"
	}
}
