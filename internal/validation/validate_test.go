package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name    string
		bucket  string
		wantErr bool
	}{
		{name: "simple", bucket: "test"},
		{name: "dashes", bucket: "bucket-name"},
		{name: "dots", bucket: "xds-fddf.e"},
		{name: "leading digit", bucket: "1bucket"},
		{name: "empty", bucket: "", wantErr: true},
		{name: "too short", bucket: "ab", wantErr: true},
		{name: "too long", bucket: strings.Repeat("a", 64), wantErr: true},
		{name: "uppercase", bucket: "Bucket", wantErr: true},
		{name: "underscore", bucket: "my_bucket", wantErr: true},
		{name: "leading dash", bucket: "-bucket", wantErr: true},
		{name: "trailing dot", bucket: "bucket.", wantErr: true},
		{name: "adjacent dots", bucket: "my..bucket", wantErr: true},
		{name: "ip address", bucket: "192.168.1.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidBucketName)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "simple", key: "file.json"},
		{name: "nested", key: "folder/sub/file.jsonl.gz"},
		{name: "dots in name", key: "a/..b/c..json"},
		{name: "unicode", key: "dossier/données.csv"},
		{name: "empty", key: "", wantErr: true},
		{name: "traversal", key: "a/../../etc/passwd", wantErr: true},
		{name: "leading traversal", key: "../x", wantErr: true},
		{name: "control character", key: "a\nb", wantErr: true},
		{name: "too long", key: strings.Repeat("k", MaxKeyLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	assert.NoError(t, ValidatePrefix(""))
	assert.NoError(t, ValidatePrefix("folder/"))
	assert.ErrorIs(t, ValidatePrefix("a\x00"), errors.ErrInvalidObjectKey)
}

func TestValidateTags(t *testing.T) {
	assert.NoError(t, ValidateTags(nil))
	assert.NoError(t, ValidateTags(map[string]string{"owner": "data"}))

	many := make(map[string]string)
	for i := range MaxTags + 1 {
		many[strings.Repeat("k", i+1)] = "v"
	}
	assert.ErrorIs(t, ValidateTags(many), errors.ErrInvalidInput)
	assert.ErrorIs(t, ValidateTags(map[string]string{"": "v"}), errors.ErrInvalidInput)
	assert.ErrorIs(t, ValidateTags(map[string]string{"k": strings.Repeat("v", 257)}), errors.ErrInvalidInput)
}
