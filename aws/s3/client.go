package s3

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/logging"
)

const (
	// DefaultRegion is used when neither the options nor the credential chain
	// name a region.
	DefaultRegion = "us-east-1"

	// DefaultMaxRetries is the SDK retry budget per request.
	DefaultMaxRetries = 3

	// DefaultConcurrency bounds the folder-level copy, delete and transfer helpers.
	DefaultConcurrency = 5
)

// Client represents an S3 client with configurable options.
// It is safe for concurrent use; the folder helpers fan out to at most
// Concurrency requests at a time.
type Client struct {
	// s3Client is the underlying AWS SDK S3 client
	s3Client s3api.S3API

	// config holds the AWS configuration
	config aws.Config

	// fs is the local filesystem used by the transfer helpers
	fs billy.Filesystem

	logger      *slog.Logger
	concurrency int

	// absLocal resolves relative local paths against the working directory,
	// set when fs is the default OS filesystem rooted at "/"
	absLocal bool
}

// New creates a new S3 client with the provided options.
// It loads AWS credentials using the default credential chain
// unless WithAWSConfig supplies a configuration.
//
// Example:
//
//	client, err := s3.New(
//	    s3.WithRegion("eu-west-1"),
//	    s3.WithMaxRetries(5),
//	)
func New(opts ...s3types.Option) (*Client, error) {
	clientCfg := newClientConfig(opts)

	var cfg aws.Config
	if clientCfg.CustomAWSConfig != nil {
		cfg = clientCfg.CustomAWSConfig.Copy()
	} else {
		var err error
		cfg, err = config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, errors.NewError("client initialization", errors.ErrInvalidConfiguration).WithCause(err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if clientCfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(clientCfg.Endpoint)
		})
	}
	if clientCfg.Timeout > 0 {
		httpClient := &http.Client{
			Timeout: clientCfg.Timeout,
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	client := newClient(s3.NewFromConfig(cfg, s3Opts...), clientCfg)
	client.config = cfg
	return client, nil
}

// NewWithClient creates a new S3 client with a custom S3API implementation.
// This is primarily used for testing with mocked clients. Options that only
// affect the SDK client (region, endpoint, retries) are ignored.
func NewWithClient(s3Client s3api.S3API, opts ...s3types.Option) *Client {
	return newClient(s3Client, newClientConfig(opts))
}

func newClientConfig(opts []s3types.Option) *s3types.ClientConfig {
	clientCfg := &s3types.ClientConfig{
		MaxRetries:  DefaultMaxRetries,
		Concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}
	return clientCfg
}

func newClient(api s3api.S3API, clientCfg *s3types.ClientConfig) *Client {
	client := &Client{
		s3Client:    api,
		fs:          clientCfg.Filesystem,
		logger:      logging.OrDiscard(clientCfg.Logger),
		concurrency: clientCfg.Concurrency,
	}
	if client.fs == nil {
		client.fs = osfs.New("/")
		client.absLocal = true
	}
	return client
}

func (c *Client) localPath(p string) (string, error) {
	if !c.absLocal || filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Abs(p)
}

// Region returns the region the client was configured with. It is empty for
// clients built with NewWithClient.
func (c *Client) Region() string {
	return c.config.Region
}

// Filesystem returns the local filesystem used by the transfer helpers.
func (c *Client) Filesystem() billy.Filesystem {
	return c.fs
}
