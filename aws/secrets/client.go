// Package secrets reads values from AWS Secrets Manager, typically the
// database credentials an export job connects with.
//
//	client, err := secrets.New(ctx, secrets.WithCache(secrets.NewMemoryCache(5*time.Minute, 0)))
//	creds, err := client.DBCredentials(ctx, "prod/warehouse/reader")
//	connCfg, err := creds.PgxConfig()
//	conn, err := pgx.ConnectConfig(ctx, connCfg)
//	r, err := db.Open(ctx, db.NewPgxCursor(conn), query, 1000)
package secrets

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/logging"
)

// Client reads secrets. It is safe for concurrent use when its Cache is.
type Client struct {
	api    ManagerAPI
	cache  Cache
	logger *slog.Logger
}

// New creates a client from the default AWS configuration, or from the
// configuration given with WithAWSConfig.
//
// Errors:
//   - ErrInvalidConfiguration: If the AWS configuration cannot be loaded
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newClientConfig(opts)

	var awsCfg aws.Config
	if cfg.awsConfig != nil {
		awsCfg = cfg.awsConfig.Copy()
	} else {
		loaded, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.NewError("new", errors.ErrInvalidConfiguration).WithCause(err)
		}
		awsCfg = loaded
	}
	if cfg.region != "" {
		awsCfg.Region = cfg.region
	}
	if cfg.maxRetries > 0 {
		awsCfg.RetryMaxAttempts = cfg.maxRetries
	}

	var smOpts []func(*secretsmanager.Options)
	if cfg.endpoint != "" {
		smOpts = append(smOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.endpoint)
		})
	}
	return newClient(secretsmanager.NewFromConfig(awsCfg, smOpts...), cfg), nil
}

// NewWithClient creates a client over api. Options that only affect the SDK
// client are ignored.
func NewWithClient(api ManagerAPI, opts ...Option) *Client {
	return newClient(api, newClientConfig(opts))
}

func newClientConfig(opts []Option) *clientConfig {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func newClient(api ManagerAPI, cfg *clientConfig) *Client {
	return &Client{
		api:    api,
		cache:  cfg.cache,
		logger: logging.OrDiscard(cfg.logger),
	}
}

// GetString returns the current value of the secret name. Binary secrets are
// returned as their raw bytes.
//
// Errors:
//   - ErrInvalidInput: If name is empty or the secret has no value
//   - ErrSecretNotFound: If the secret does not exist
//   - ErrAccessDenied: If the caller may not read the secret
func (c *Client) GetString(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.NewError("getSecret", errors.ErrInvalidInput).WithMessage("secret name cannot be empty")
	}
	if c.cache != nil {
		if value, ok := c.cache.Get(name); ok {
			c.logger.DebugContext(ctx, "secret cache hit", "secret", name)
			return value, nil
		}
	}

	out, err := c.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to retrieve secret", "secret", name, "error", err)
		return "", errors.NewError("getSecret", convertAWSError(err)).WithKey(name)
	}

	var value string
	switch {
	case out.SecretString != nil:
		value = *out.SecretString
	case out.SecretBinary != nil:
		value = string(out.SecretBinary)
	default:
		return "", errors.NewError("getSecret", errors.ErrInvalidInput).
			WithKey(name).
			WithMessage("secret has no value")
	}

	if c.cache != nil {
		c.cache.Set(name, value)
	}
	c.logger.DebugContext(ctx, "retrieved secret", "secret", name)
	return value, nil
}

// GetJSON decodes the secret name into v.
//
// Errors:
//   - ErrInvalidInput: If the secret is not valid JSON for v
//   - any error returned by GetString
func (c *Client) GetJSON(ctx context.Context, name string, v any) error {
	value, err := c.GetString(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		// The decoder error can quote the secret, so it is not wrapped.
		return errors.NewError("getSecret", errors.ErrInvalidInput).
			WithKey(name).
			WithMessage(fmt.Sprintf("secret is not valid JSON for %T", v))
	}
	return nil
}

func convertAWSError(err error) error {
	var apiErr smithy.APIError
	if !stderrors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "ResourceNotFoundException":
		return fmt.Errorf("%w: %w", errors.ErrSecretNotFound, err)
	case "AccessDeniedException":
		return fmt.Errorf("%w: %w", errors.ErrAccessDenied, err)
	}
	return err
}
