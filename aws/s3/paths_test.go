package s3

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dataerrors "github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/testutil"
)

func newMemoryClient(t *testing.T, buckets ...string) (*Client, *testutil.MemoryS3) {
	t.Helper()
	mem := testutil.NewMemoryS3(buckets...)
	return NewWithClient(mem), mem
}

func TestClient_GzipWriteString(t *testing.T) {
	client, mem := newMemoryClient(t, "test-bucket")

	err := client.GzipWriteString(context.Background(), "hello gzip", "s3://test-bucket/out/hello.txt.gz")
	require.NoError(t, err)

	obj, ok := mem.Object("test-bucket", "out/hello.txt.gz")
	require.True(t, ok)
	assert.Equal(t, GzipContentType, obj.ContentType)

	zr, err := gzip.NewReader(bytes.NewReader(obj.Data))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "hello gzip", string(plain))
}

func TestClient_ReadWriteJSON(t *testing.T) {
	client, mem := newMemoryClient(t, "test-bucket")
	ctx := context.Background()

	type manifest struct {
		Name    string    `json:"name"`
		Created time.Time `json:"created"`
		Files   []string  `json:"files"`
	}
	in := manifest{
		Name:    "people",
		Created: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Files:   []string{"a.jsonl", "b.jsonl"},
	}

	require.NoError(t, client.WriteJSON(ctx, in, "s3://test-bucket/manifest.json"))

	obj, ok := mem.Object("test-bucket", "manifest.json")
	require.True(t, ok)
	assert.Equal(t, "application/json", obj.ContentType)
	assert.JSONEq(t, `{"name":"people","created":"2024-03-01T12:30:00","files":["a.jsonl","b.jsonl"]}`, string(obj.Data))

	var out map[string]any
	require.NoError(t, client.ReadJSON(ctx, "s3://test-bucket/manifest.json", &out))
	assert.Equal(t, "people", out["name"])
	assert.Equal(t, "2024-03-01T12:30:00", out["created"])

	require.NoError(t, client.WriteJSON(ctx, map[string]int{"a": 1}, "s3://test-bucket/pretty.json", WithIndent("  ")))
	pretty, err := client.ReadString(ctx, "s3://test-bucket/pretty.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", pretty)
}

func TestClient_ReadJSON_Invalid(t *testing.T) {
	client, mem := newMemoryClient(t, "test-bucket")
	mem.Seed("test-bucket", "bad.json", []byte("{not json"))

	var v any
	err := client.ReadJSON(context.Background(), "s3://test-bucket/bad.json", &v)
	assert.ErrorIs(t, err, dataerrors.ErrInvalidInput)
}

func TestClient_ReadYAML(t *testing.T) {
	client, mem := newMemoryClient(t, "test-bucket")
	mem.Seed("test-bucket", "config/db.yaml", []byte("database: people\ntables:\n  - person\n  - address\n"))

	var cfg struct {
		Database string   `yaml:"database"`
		Tables   []string `yaml:"tables"`
	}
	require.NoError(t, client.ReadYAML(context.Background(), "s3://test-bucket/config/db.yaml", &cfg))
	assert.Equal(t, "people", cfg.Database)
	assert.Equal(t, []string{"person", "address"}, cfg.Tables)
}

func TestClient_ReadObject_Errors(t *testing.T) {
	client, _ := newMemoryClient(t, "test-bucket")
	ctx := context.Background()

	_, err := client.ReadObject(ctx, "s3://test-bucket/missing.txt")
	assert.ErrorIs(t, err, dataerrors.ErrObjectNotFound)
	assert.True(t, dataerrors.IsObjectNotFound(err))

	_, err = client.ReadObject(ctx, "s3://other-bucket/file.txt")
	assert.ErrorIs(t, err, dataerrors.ErrBucketNotFound)

	_, err = client.ReadObject(ctx, "s3://test-bucket")
	assert.ErrorIs(t, err, dataerrors.ErrInvalidPath)
}

func TestClient_ListPaths(t *testing.T) {
	client, mem := newMemoryClient(t, "test-bucket")
	mem.Seed("test-bucket", "folder/", nil)
	mem.Seed("test-bucket", "folder/b.json", []byte("{}"))
	mem.Seed("test-bucket", "folder/a.json", []byte("{}"))
	mem.Seed("test-bucket", "folder/sub/c.csv", []byte("x"))
	mem.Seed("test-bucket", "folder/empty.json", nil)
	mem.Seed("test-bucket", "folder2/d.json", []byte("{}"))

	tests := []struct {
		name string
		list func() ([]string, error)
		want []string
	}{
		{
			name: "default excludes zero byte and siblings",
			list: func() ([]string, error) {
				return client.ListPaths(context.Background(), "s3://test-bucket/folder")
			},
			want: []string{
				"s3://test-bucket/folder/a.json",
				"s3://test-bucket/folder/b.json",
				"s3://test-bucket/folder/sub/c.csv",
			},
		},
		{
			name: "extension without dot",
			list: func() ([]string, error) {
				return client.ListPaths(context.Background(), "s3://test-bucket/folder/", WithExtension("json"))
			},
			want: []string{
				"s3://test-bucket/folder/a.json",
				"s3://test-bucket/folder/b.json",
			},
		},
		{
			name: "extension with dot and zero byte files",
			list: func() ([]string, error) {
				return client.ListPaths(context.Background(), "s3://test-bucket/folder/",
					WithExtension(".json"), WithZeroByteFiles(true))
			},
			want: []string{
				"s3://test-bucket/folder/a.json",
				"s3://test-bucket/folder/b.json",
				"s3://test-bucket/folder/empty.json",
			},
		},
		{
			name: "empty folder",
			list: func() ([]string, error) {
				return client.ListPaths(context.Background(), "s3://test-bucket/nothing")
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.list()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_CopyDeleteExists(t *testing.T) {
	client, mem := newMemoryClient(t, "src-bucket", "dst-bucket")
	ctx := context.Background()
	mem.Seed("src-bucket", "a.txt", []byte("a"))

	require.NoError(t, client.CopyObject(ctx, "s3://src-bucket/a.txt", "s3://dst-bucket/copy/a.txt"))

	exists, err := client.ObjectExists(ctx, "s3://dst-bucket/copy/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, client.DeleteObject(ctx, "s3://dst-bucket/copy/a.txt"))

	exists, err = client.ObjectExists(ctx, "s3://dst-bucket/copy/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	err = client.CopyObject(ctx, "s3://src-bucket/missing.txt", "s3://dst-bucket/x.txt")
	assert.ErrorIs(t, err, dataerrors.ErrObjectNotFound)
}

func TestClient_CopyFolder(t *testing.T) {
	client, mem := newMemoryClient(t, "src-bucket", "dst-bucket")
	mem.Seed("src-bucket", "in/", nil)
	mem.Seed("src-bucket", "in/a.json", []byte("a"))
	mem.Seed("src-bucket", "in/nested/b.json", []byte("b"))
	mem.Seed("src-bucket", "input/other.json", []byte("x"))

	require.NoError(t, client.CopyFolder(context.Background(), "s3://src-bucket/in", "s3://dst-bucket/out", true))
	assert.Equal(t, []string{"out/a.json", "out/nested/b.json"}, mem.Keys("dst-bucket"))

	require.NoError(t, client.CopyFolder(context.Background(), "s3://src-bucket/in/", "s3://dst-bucket/all/", false))
	assert.Contains(t, mem.Keys("dst-bucket"), "all/")

	obj, ok := mem.Object("dst-bucket", "out/nested/b.json")
	require.True(t, ok)
	assert.Equal(t, "b", string(obj.Data))
}

func TestClient_DeleteFolder(t *testing.T) {
	client, mem := newMemoryClient(t, "test-bucket")
	mem.Seed("test-bucket", "tmp/", nil)
	mem.Seed("test-bucket", "tmp/a.json", []byte("a"))
	mem.Seed("test-bucket", "tmp/b/c.json", []byte("c"))
	mem.Seed("test-bucket", "keep/d.json", []byte("d"))

	require.NoError(t, client.DeleteFolder(context.Background(), "s3://test-bucket/tmp", true))
	assert.Equal(t, []string{"keep/d.json", "tmp/"}, mem.Keys("test-bucket"))

	require.NoError(t, client.DeleteFolder(context.Background(), "s3://test-bucket/tmp", false))
	assert.Equal(t, []string{"keep/d.json"}, mem.Keys("test-bucket"))

	require.NoError(t, client.DeleteFolder(context.Background(), "s3://test-bucket/tmp", false))
}
