package s3

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dataerrors "github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/testutil"
)

func newLocalClient(t *testing.T, buckets ...string) (*Client, *testutil.MemoryS3, billy.Filesystem) {
	t.Helper()
	mem := testutil.NewMemoryS3(buckets...)
	fs := memfs.New()
	return NewWithClient(mem, WithFilesystem(fs), WithConcurrency(2)), mem, fs
}

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
}

func TestClient_WriteLocalFile(t *testing.T) {
	client, mem, fs := newLocalClient(t, "test-bucket")
	ctx := context.Background()
	writeFile(t, fs, "/data/people.csv", "id,name\n1,ada\n")

	require.NoError(t, client.WriteLocalFile(ctx, "/data/people.csv", "s3://test-bucket/raw/people.csv", false))

	obj, ok := mem.Object("test-bucket", "raw/people.csv")
	require.True(t, ok)
	assert.Equal(t, "id,name\n1,ada\n", string(obj.Data))
	assert.Equal(t, "text/csv; charset=utf-8", obj.ContentType)

	writeFile(t, fs, "/data/people.csv", "id,name\n2,grace\n")

	err := client.WriteLocalFile(ctx, "/data/people.csv", "s3://test-bucket/raw/people.csv", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataerrors.ErrAlreadyExists)
	assert.Equal(t, dataerrors.CodeAlreadyExists, dataerrors.CodeOf(err))

	obj, _ = mem.Object("test-bucket", "raw/people.csv")
	assert.Equal(t, "id,name\n1,ada\n", string(obj.Data))

	require.NoError(t, client.WriteLocalFile(ctx, "/data/people.csv", "s3://test-bucket/raw/people.csv", true))
	obj, _ = mem.Object("test-bucket", "raw/people.csv")
	assert.Equal(t, "id,name\n2,grace\n", string(obj.Data))
}

func TestClient_WriteLocalFile_MissingFile(t *testing.T) {
	client, mem, _ := newLocalClient(t, "test-bucket")

	err := client.WriteLocalFile(context.Background(), "/nope.txt", "s3://test-bucket/nope.txt", true)
	require.Error(t, err)
	assert.Equal(t, 0, mem.Puts())
}

func TestClient_WriteLocalFolder(t *testing.T) {
	tests := []struct {
		name          string
		includeHidden bool
		want          []string
	}{
		{
			name: "skips hidden files and folders",
			want: []string{"out/a.json", "out/nested/b.json"},
		},
		{
			name:          "includes hidden files",
			includeHidden: true,
			want:          []string{"out/.env", "out/.git/config", "out/a.json", "out/nested/b.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mem, fs := newLocalClient(t, "test-bucket")
			writeFile(t, fs, "/src/a.json", "{}")
			writeFile(t, fs, "/src/nested/b.json", "{}")
			writeFile(t, fs, "/src/.env", "SECRET=1")
			writeFile(t, fs, "/src/.git/config", "[core]")

			err := client.WriteLocalFolder(context.Background(), "/src", "s3://test-bucket/out", false, tt.includeHidden)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mem.Keys("test-bucket"))
		})
	}
}

func TestClient_WriteLocalFolder_Overwrite(t *testing.T) {
	client, mem, fs := newLocalClient(t, "test-bucket")
	writeFile(t, fs, "/src/a.json", "{}")
	mem.Seed("test-bucket", "out/a.json", []byte("old"))

	err := client.WriteLocalFolder(context.Background(), "/src", "s3://test-bucket/out/", false, false)
	assert.ErrorIs(t, err, dataerrors.ErrAlreadyExists)

	require.NoError(t, client.WriteLocalFolder(context.Background(), "/src", "s3://test-bucket/out/", true, false))
	obj, _ := mem.Object("test-bucket", "out/a.json")
	assert.Equal(t, "{}", string(obj.Data))
}

func TestClient_DownloadToLocal(t *testing.T) {
	client, mem, fs := newLocalClient(t, "test-bucket")
	ctx := context.Background()
	mem.Seed("test-bucket", "exports/people.jsonl", []byte("{\"id\":1}\n"))

	require.NoError(t, client.DownloadToLocal(ctx, "s3://test-bucket/exports/people.jsonl", "/dl/deep/people.jsonl", false))

	data, err := util.ReadFile(fs, "/dl/deep/people.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1}\n", string(data))

	entries, err := fs.ReadDir("/dl/deep")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")

	err = client.DownloadToLocal(ctx, "s3://test-bucket/exports/people.jsonl", "/dl/deep/people.jsonl", false)
	assert.ErrorIs(t, err, dataerrors.ErrAlreadyExists)

	mem.Seed("test-bucket", "exports/people.jsonl", []byte("{\"id\":2}\n"))
	require.NoError(t, client.DownloadToLocal(ctx, "s3://test-bucket/exports/people.jsonl", "/dl/deep/people.jsonl", true))
	data, err = util.ReadFile(fs, "/dl/deep/people.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":2}\n", string(data))
}

func TestClient_DownloadToLocal_Missing(t *testing.T) {
	client, _, fs := newLocalClient(t, "test-bucket")

	err := client.DownloadToLocal(context.Background(), "s3://test-bucket/missing.json", "/dl/missing.json", false)
	assert.ErrorIs(t, err, dataerrors.ErrObjectNotFound)

	entries, err := fs.ReadDir("/dl")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClient_DownloadFolderToLocal(t *testing.T) {
	client, mem, fs := newLocalClient(t, "test-bucket")
	mem.Seed("test-bucket", "exports/", nil)
	mem.Seed("test-bucket", "exports/a.json", []byte("a"))
	mem.Seed("test-bucket", "exports/nested/b.json", []byte("b"))
	mem.Seed("test-bucket", "exports/empty.txt", nil)
	mem.Seed("test-bucket", "other/c.json", []byte("c"))

	require.NoError(t, client.DownloadFolderToLocal(context.Background(), "s3://test-bucket/exports", "/local", false))

	data, err := util.ReadFile(fs, "/local/exports/a.json")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	data, err = util.ReadFile(fs, "/local/exports/nested/b.json")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))

	data, err = util.ReadFile(fs, "/local/exports/empty.txt")
	require.NoError(t, err)
	assert.Empty(t, data)

	info, err := fs.Stat("/local/exports")
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "folder marker must not become a file")

	_, err = fs.Stat("/local/other/c.json")
	assert.Error(t, err)
}

func TestClient_DownloadToLocal_ExistingDirectory(t *testing.T) {
	client, mem, fs := newLocalClient(t, "test-bucket")
	mem.Seed("test-bucket", "exports/people.jsonl", []byte("{}\n"))
	require.NoError(t, fs.MkdirAll("/dl/people.jsonl", 0o755))

	err := client.DownloadToLocal(context.Background(), "s3://test-bucket/exports/people.jsonl", "/dl/people.jsonl", false)
	assert.NotErrorIs(t, err, dataerrors.ErrAlreadyExists)
}
