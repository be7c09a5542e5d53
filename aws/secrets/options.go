package secrets

import (
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	region     string
	endpoint   string
	maxRetries int
	awsConfig  *aws.Config
	cache      Cache
	logger     *slog.Logger
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(c *clientConfig) {
		c.region = region
	}
}

// WithEndpoint sets a custom endpoint, e.g. LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) {
		c.endpoint = endpoint
	}
}

// WithMaxRetries sets the maximum number of attempts per request.
func WithMaxRetries(maxRetries int) Option {
	return func(c *clientConfig) {
		c.maxRetries = maxRetries
	}
}

// WithAWSConfig uses cfg instead of loading the default configuration.
func WithAWSConfig(cfg *aws.Config) Option {
	return func(c *clientConfig) {
		c.awsConfig = cfg
	}
}

// WithCache caches secret values. Without it every lookup calls the API.
func WithCache(cache Cache) Option {
	return func(c *clientConfig) {
		c.cache = cache
	}
}

// WithLogger sets the logger. Secret values are never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
