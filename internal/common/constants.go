package common

import "time"

// Service identity
const (
	ServiceName    = "Fraud Detection API"
	ServiceVersion = "1.0.0"
)

// Environment variable keys
const (
	EnvConfigFile            = "CONFIG_FILE"
	EnvListenAddr            = "LISTEN_ADDR"
	EnvModelPath             = "MODEL_PATH"
	EnvDataPath              = "DATA_PATH"
	EnvExplanationServiceURL = "EXPLANATION_SERVICE_URL"
	EnvExplanationTimeout    = "EXPLANATION_TIMEOUT"
	EnvLogLevel              = "LOG_LEVEL"
	EnvLogFormat             = "LOG_FORMAT"
	EnvRateLimitRPS          = "RATE_LIMIT_RPS"
	EnvRateLimitBurst        = "RATE_LIMIT_BURST"
	EnvShutdownTimeout       = "SHUTDOWN_TIMEOUT"
)

// Configuration defaults
const (
	DefaultListenAddr            = ":8000"
	DefaultModelPath             = "ml/model.json"
	DefaultExplanationServiceURL = "http://localhost:8081"
	DefaultExplanationTimeout    = 30 * time.Second
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "json"
	DefaultRateLimitBurst        = 20
	DefaultShutdownTimeout       = 10 * time.Second
)

// HTTP
const (
	HeaderRequestID    = "X-Request-ID"
	MaxRequestBodySize = 1 << 20
)

// Validation constants
const (
	MinExplanationTimeout = 100 * time.Millisecond
	MaxExplanationTimeout = 5 * time.Minute
	MaxRateLimitRPS       = 100000
)
