package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full runtime configuration, populated from the
// environment with the APP_ prefix and validated on load.
type Config struct {
	// App
	Env           string        `split_words:"true" default:"prod" validate:"oneof=dev staging prod"`
	LogLevel      string        `split_words:"true" default:"info" validate:"oneof=debug info warn error"`
	ShutdownGrace time.Duration `split_words:"true" default:"15s" validate:"gt=0"`

	// Redis. RedisURL wins over the discrete fields when set.
	RedisURL         string        `split_words:"true"`
	RedisAddr        string        `split_words:"true" default:"localhost:6379"`
	RedisPassword    string        `split_words:"true"`
	RedisDB          int           `split_words:"true" default:"0" validate:"gte=0"`
	RedisConnTimeout time.Duration `split_words:"true" default:"3s" validate:"gt=0"`

	// Streams
	JobStream         string        `split_words:"true" default:"insights:jobs" validate:"required"`
	JobGroup          string        `split_words:"true" default:"insights-workers" validate:"required"`
	ResultStream      string        `split_words:"true" default:"insights:results" validate:"required"`
	RedisStreamMaxLen int64         `split_words:"true" default:"1000" validate:"gt=0"`
	RedisBlockTimeout time.Duration `split_words:"true" default:"1s" validate:"gt=0"`
	RedisBatchSize    int           `split_words:"true" default:"10" validate:"gt=0"`
	BackoffMin        time.Duration `split_words:"true" default:"100ms" validate:"gt=0"`
	BackoffMax        time.Duration `split_words:"true" default:"3s" validate:"gt=0"`

	// GitHub auth. Either a personal access token or the GitHub App
	// triple (client ID, private key, installation ID) must be set.
	GithubToken          string `split_words:"true" validate:"required_without=GithubClientID"`
	GithubClientID       string `split_words:"true" validate:"required_without=GithubToken"`
	GithubPrivateKey     string `envconfig:"APP_GITHUB_PRIVATE_KEY" validate:"required_with=GithubClientID"`
	GithubInstallationID int64  `split_words:"true" validate:"required_with=GithubClientID"`

	// Request engine
	MaxQueueSize      int           `split_words:"true" default:"100" validate:"gt=0"`
	MaxRetries        int           `split_words:"true" default:"3" validate:"gte=0"`
	RetryBaseDelay    time.Duration `split_words:"true" default:"1s" validate:"gt=0"`
	ThrottleRemaining int           `split_words:"true" default:"10" validate:"gte=0"`
	ThrottleDelay     time.Duration `split_words:"true" default:"100ms" validate:"gt=0"`
	GithubRateLimit   int           `split_words:"true" default:"80" validate:"gte=0"`
	HTTPClientTimeout time.Duration `split_words:"true" default:"30s" validate:"gt=0"`

	// Data client / pipeline
	GithubConcurrency  int           `split_words:"true" default:"10" validate:"gt=0"`
	PageSize           int           `split_words:"true" default:"100" validate:"gt=0,lte=100"`
	ContributionYears  int           `split_words:"true" default:"2" validate:"gt=0,lte=10"`
	FailureWindowDays  int           `split_words:"true" default:"30" validate:"gt=0"`
	CacheSize          int           `split_words:"true" default:"1000" validate:"gt=0"`
	CacheTTL           time.Duration `split_words:"true" default:"10m" validate:"gt=0"`
	CacheSweepInterval time.Duration `split_words:"true" default:"5m" validate:"gt=0"`

	// Streak risk
	StreakRiskThreshold time.Duration `split_words:"true" default:"20h" validate:"gt=0"`
	RiskSafeUnder       time.Duration `split_words:"true" default:"8h" validate:"gt=0"`
	RiskWarningUnder    time.Duration `split_words:"true" default:"16h" validate:"gt=0"`
	RiskDangerUnder     time.Duration `split_words:"true" default:"20h" validate:"gt=0"`
	WeekendGrace        time.Duration `split_words:"true" default:"2h" validate:"gte=0"`

	// Security scanning
	ScanMaxFiles    int      `split_words:"true" default:"500" validate:"gt=0"`
	ScanMaxFileSize int64    `split_words:"true" default:"102400" validate:"gt=0"`
	ScanInclude     []string `split_words:"true" default:"**"`
	ScanExclude     []string `split_words:"true" default:"**/node_modules/**,**/vendor/**,**/dist/**,**/.git/**,**/*.min.js,**/package-lock.json,**/yarn.lock"`
}

// Loader reads and validates a Config from the environment.
type Loader struct {
	Prefix   string
	Validate *validator.Validate
}
