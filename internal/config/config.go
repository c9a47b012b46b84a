package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
	Quota    QuotaConfig    `mapstructure:"quota" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication settings. Tokens are issued by an
// external identity service; this API only validates them.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// StudyConfig tunes the study session selector and the attempt log.
// The suppression window and the retention horizon are two independent
// time horizons over the same log; do not merge them.
type StudyConfig struct {
	// SuppressionWindowMinutes is how long a just-answered card stays
	// excluded from session selection.
	SuppressionWindowMinutes int `mapstructure:"suppression_window_minutes" validate:"required,gt=0"`

	// RetentionDays is the long-term horizon past which the maintenance
	// sweep deletes attempt rows.
	RetentionDays int `mapstructure:"retention_days" validate:"required,gt=0"`

	// PurgeIntervalMinutes is how often the maintenance sweep runs.
	PurgeIntervalMinutes int `mapstructure:"purge_interval_minutes" validate:"required,gt=0"`

	// SessionLimit caps how many cards a single session request returns.
	SessionLimit int `mapstructure:"session_limit" validate:"required,gt=0"`
}

// QuotaConfig sets the monthly AI generation allotments per tier.
type QuotaConfig struct {
	FreeMonthlyLimit    int `mapstructure:"free_monthly_limit" validate:"required,gt=0"`
	PremiumMonthlyLimit int `mapstructure:"premium_monthly_limit" validate:"required,gt=0"`

	// PremiumUserIDs lists users on the premium tier. A stand-in until
	// the billing system exposes an entitlement API.
	PremiumUserIDs []string `mapstructure:"premium_user_ids" validate:"dive,uuid"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name" validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}
