// Package tagging builds the mandatory tag set attached to cloud resources
// and objects produced by data pipelines.
package tagging

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
)

// Default tag values.
const (
	DefaultBusinessUnit = "Platforms"
	DefaultApplication  = "Data Engineering"
	DefaultOwner        = "Data Engineering:dataengineering@digital.justice.gov.uk"
)

// Raw tag keys. CreateTags normalises them to their hyphenated form.
const (
	KeyEnvironmentName = "environment_name"
	KeyBusinessUnit    = "business_unit"
	KeyApplication     = "application"
	KeyOwner           = "owner"
	KeyIsProduction    = "is_production"

	// KeyName is set verbatim from the resource name.
	KeyName = "Name"

	// KeyProduction is derived from the environment name and cannot be supplied.
	KeyProduction = "is-production"
)

// DefaultAllowedBusinessUnits lists the business units accepted by default.
var DefaultAllowedBusinessUnits = []string{"HQ", "HMPPS", "OPG", "LAA", "HMCTS", "CICA", "Platforms"}

// productionEnvironments are the environment names tagged as production.
var productionEnvironments = []string{"alpha", "prod"}

type options struct {
	businessUnit string
	allowed      []string
	application  string
	owner        string
	tags         map[string]string
}

// Option configures a Tagger.
type Option func(*options)

// WithBusinessUnit sets the owning business unit. It must be one of the
// allowed business units.
func WithBusinessUnit(unit string) Option {
	return func(o *options) {
		o.businessUnit = unit
	}
}

// WithAllowedBusinessUnits replaces the list of accepted business units.
func WithAllowedBusinessUnits(units ...string) Option {
	return func(o *options) {
		o.allowed = slices.Clone(units)
	}
}

// WithApplication sets the application tag.
func WithApplication(application string) Option {
	return func(o *options) {
		o.application = application
	}
}

// WithOwner sets the owner tag, of the form <team-name>:<team-email>.
func WithOwner(owner string) Option {
	return func(o *options) {
		o.owner = owner
	}
}

// WithTags adds extra global tags applied to every resource.
func WithTags(tags map[string]string) Option {
	return func(o *options) {
		if o.tags == nil {
			o.tags = make(map[string]string, len(tags))
		}
		maps.Copy(o.tags, tags)
	}
}

// Tagger produces tag sets for resources in a single environment.
// It is immutable after construction and safe for concurrent use.
type Tagger struct {
	allowed []string
	global  map[string]string
	base    map[string]string
}

// New creates a Tagger for the given environment (for example "alpha",
// "prod" or "dev").
//
// Errors:
//   - ErrInvalidInput if the business unit is not allowed or the global tags
//     contain an is_production key
func New(environment string, opts ...Option) (*Tagger, error) {
	o := &options{
		businessUnit: DefaultBusinessUnit,
		allowed:      DefaultAllowedBusinessUnits,
		application:  DefaultApplication,
		owner:        DefaultOwner,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := checkReserved("new", o.tags); err != nil {
		return nil, err
	}

	global := map[string]string{
		KeyEnvironmentName: environment,
		KeyBusinessUnit:    o.businessUnit,
		KeyApplication:     o.application,
		KeyOwner:           o.owner,
	}
	base := make(map[string]string, len(global)+len(o.tags))
	mergeNormalised(base, global)
	mergeNormalised(base, o.tags)
	maps.Copy(global, o.tags)

	if err := checkBusinessUnit("new", base[normaliseKey(KeyBusinessUnit)], o.allowed); err != nil {
		return nil, err
	}

	return &Tagger{allowed: o.allowed, global: global, base: base}, nil
}

// CreateTags returns the tag set for a resource. Extra tags override the
// global ones for this call only. Keys are lower-cased with underscores
// replaced by hyphens, and the derived "is-production" and "Name" tags are
// added. When several keys normalise to the same tag, extra tags win over
// global ones and, within one map, the key that sorts last wins.
//
// Example:
//
//	tags, err := tagger.CreateTags("raw-bucket", map[string]string{"business_unit": "HQ"})
//	// tags["business-unit"] == "HQ", tags["Name"] == "raw-bucket"
func (t *Tagger) CreateTags(resource string, extra map[string]string) (map[string]string, error) {
	if err := checkReserved("createTags", extra); err != nil {
		return nil, err
	}

	tags := make(map[string]string, len(t.base)+len(extra)+2)
	maps.Copy(tags, t.base)
	mergeNormalised(tags, extra)

	if err := checkBusinessUnit("createTags", tags[normaliseKey(KeyBusinessUnit)], t.allowed); err != nil {
		return nil, err
	}

	env := tags[normaliseKey(KeyEnvironmentName)]
	tags[KeyProduction] = strconv.FormatBool(slices.Contains(productionEnvironments, env))
	tags[KeyName] = resource
	return tags, nil
}

// ObjectTags is CreateTags without extra tags, for use with object uploads.
func (t *Tagger) ObjectTags(resource string) (map[string]string, error) {
	return t.CreateTags(resource, nil)
}

// Global returns a copy of the global tags before normalisation.
func (t *Tagger) Global() map[string]string {
	return maps.Clone(t.global)
}

// mergeNormalised copies src into dst under normalised keys, visiting src in
// sorted key order.
func mergeNormalised(dst, src map[string]string) {
	for _, key := range slices.Sorted(maps.Keys(src)) {
		dst[normaliseKey(key)] = src[key]
	}
}

func normaliseKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}

func checkBusinessUnit(op, unit string, allowed []string) error {
	if slices.Contains(allowed, unit) {
		return nil
	}
	return errors.NewError(op, errors.ErrInvalidInput).
		WithMessage("business_unit must be one of " + strings.Join(allowed, ", "))
}

func checkReserved(op string, tags map[string]string) error {
	for key := range tags {
		if key == KeyIsProduction || normaliseKey(key) == KeyProduction {
			return errors.NewError(op, errors.ErrInvalidInput).
				WithMessage(key + " is not an allowed tag")
		}
	}
	return nil
}
