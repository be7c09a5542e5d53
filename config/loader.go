package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/logging"
)

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	file      string
	envPrefix string
	values    map[string]any
}

// WithFile reads settings from path. The format follows the extension.
// A missing file is an error.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithEnvPrefix replaces the DATAENG environment prefix. An empty prefix
// disables environment lookups.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = strings.TrimSuffix(prefix, "_")
	}
}

// WithValue overrides a single dotted key, e.g. "writer.max_bytes". Overrides
// win over the file and the environment.
func WithValue(key string, value any) LoadOption {
	return func(o *loadOptions) {
		if o.values == nil {
			o.values = make(map[string]any)
		}
		o.values[key] = value
	}
}

// Load resolves and validates Settings.
//
// Errors:
//   - ErrInvalidConfiguration: If the file cannot be read or parsed, a value
//     has the wrong type, or Validate fails
func Load(opts ...LoadOption) (*Settings, error) {
	o := &loadOptions{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(o)
	}

	v := viper.New()
	setDefaults(v)

	if o.file != "" {
		v.SetConfigFile(o.file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewError("load", errors.ErrInvalidConfiguration).
				WithKey(o.file).
				WithCause(err)
		}
	}

	// AutomaticEnv only consults keys viper already knows, which setDefaults
	// guarantees for every field of Settings.
	if o.envPrefix != "" {
		v.SetEnvPrefix(o.envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	for key, value := range o.values {
		v.Set(key, value)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.NewError("load", errors.ErrInvalidConfiguration).WithCause(err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.force_path_style", false)
	v.SetDefault("aws.max_retries", 0)
	v.SetDefault("aws.timeout", "0s")
	v.SetDefault("aws.concurrency", 0)

	v.SetDefault("writer.max_bytes", DefaultMaxBytes)
	v.SetDefault("writer.record_threshold", DefaultRecordThreshold)
	v.SetDefault("writer.compress", true)
	v.SetDefault("writer.extension", DefaultExtension)
	v.SetDefault("writer.fail_if_exists", false)

	v.SetDefault("reader.batch_size", DefaultBatchSize)

	v.SetDefault("logging.format", string(logging.FormatHuman))
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.console_level", DefaultConsoleLevel)
}
