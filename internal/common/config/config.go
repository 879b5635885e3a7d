// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sanctions SanctionsConfig `mapstructure:"sanctions"`
	Profiles  ProfilesConfig  `mapstructure:"profiles"`
	Loan      LoanConfig      `mapstructure:"loan"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Addr            string   `mapstructure:"addr"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // seconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // seconds
	IdleTimeout     int      `mapstructure:"idle_timeout"`     // seconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // seconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Requests int `mapstructure:"requests"`
	Window   int `mapstructure:"window"` // seconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the session store backend. An empty address selects
// the in-memory store.
type RedisConfig struct {
	Address    string `mapstructure:"address"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	SessionTTL int    `mapstructure:"session_ttl"` // seconds
}

type LLMConfig struct {
	BaseURL            string  `mapstructure:"base_url"`
	APIKey             string  `mapstructure:"api_key"`
	Model              string  `mapstructure:"model"`
	Temperature        float64 `mapstructure:"temperature"`
	MaxTokens          int     `mapstructure:"max_tokens"`
	MaxRetries         int     `mapstructure:"max_retries"`
	RetryBaseDelay     int     `mapstructure:"retry_base_delay"` // milliseconds
	Timeout            int     `mapstructure:"timeout"`          // milliseconds
	MaxHistoryMessages int     `mapstructure:"max_history_messages"` // 0 = unbounded replay
}

type SanctionsConfig struct {
	Timeout         int      `mapstructure:"timeout"`          // milliseconds
	SimulatedDelay  int      `mapstructure:"simulated_delay"`  // milliseconds
	SanctionedNames []string `mapstructure:"sanctioned_names"`
}

type ProfilesConfig struct {
	UsersFile string `mapstructure:"users_file"`
	LoansFile string `mapstructure:"loans_file"`
	CacheTTL  int    `mapstructure:"cache_ttl"` // seconds
}

// LoanConfig holds the eligibility policy knobs. Loan-type ceilings, base
// rates and default terms are product attributes and live on models.LoanType.
type LoanConfig struct {
	Multiplier float64 `mapstructure:"multiplier"`
	RiskCutoff int     `mapstructure:"risk_cutoff"`
	RateSpread float64 `mapstructure:"rate_spread"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if cfg.Loan.Multiplier <= 0 {
		return fmt.Errorf("loan.multiplier must be positive")
	}
	if cfg.Loan.RiskCutoff <= 0 || cfg.Loan.RiskCutoff > 100 {
		return fmt.Errorf("loan.risk_cutoff must be in (0,100]")
	}
	if cfg.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}
	return nil
}
