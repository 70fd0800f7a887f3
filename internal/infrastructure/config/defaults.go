package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultWorkerPoll      = 250 * time.Millisecond
	DefaultWorkerBatch     = 10
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1

	// Upload job retry contract: three retries spaced a fixed minute apart.
	DefaultUploadMaxRetries = 3
	DefaultUploadRetryDelay = 60 * time.Second

	DefaultProviderTimeout    = 10 * time.Second
	DefaultProviderOutputSize = 250
)
