package shoplane

import "go.uber.org/zap"

// clientConfig collects option values before wiring.
type clientConfig struct {
	addrs    []string
	password string

	snapshotPath  string
	minDimensions int
	maxDimensions int

	maxCandidates int
	batchSize     int
	workers       int

	logger *zap.Logger
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRedis sets the Redis addresses to connect to.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) { c.addrs = addrs }
}

// WithPassword sets the database password.
func WithPassword(password string) Option {
	return func(c *clientConfig) { c.password = password }
}

// WithSnapshotPath sets where the vector index persists its snapshot.
func WithSnapshotPath(path string) Option {
	return func(c *clientConfig) { c.snapshotPath = path }
}

// WithVectorDimensions bounds the vector width derived from vocabulary size.
func WithVectorDimensions(minDim, maxDim int) Option {
	return func(c *clientConfig) {
		c.minDimensions = minDim
		c.maxDimensions = maxDim
	}
}

// WithMaxCandidates caps the fused candidate set handed to ranking.
func WithMaxCandidates(n int) Option {
	return func(c *clientConfig) { c.maxCandidates = n }
}

// WithBatching overrides the bulk-index batch size and worker count.
func WithBatching(batchSize, workers int) Option {
	return func(c *clientConfig) {
		c.batchSize = batchSize
		c.workers = workers
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
