package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRefreshInterval = 3 * time.Second
	DefaultProviderTimeout = 5 * time.Second
	DefaultCapTimeout      = 3 * time.Second
	DefaultMaxWorkers      = 30
	DefaultMaxMonitor      = 200
	DefaultRedisTTL        = 24 * time.Hour
	DefaultSinkBuffer      = 1024
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	DefaultNSQTopic        = "stock_quotes"
)
