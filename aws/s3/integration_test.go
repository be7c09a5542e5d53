//go:build integration

package s3_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3"
	dataerrors "github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/testutil"
)

func newIntegrationClient(t *testing.T) (*s3.Client, string) {
	t.Helper()
	ctx := context.Background()
	container := testutil.SetupLocalStack(t)

	bucket := "it-" + uuid.NewString()[:8]
	require.NoError(t, container.CreateBucket(ctx, bucket))

	awsCfg, err := container.AWSConfig(ctx)
	require.NoError(t, err)

	client, err := s3.New(
		s3.WithAWSConfig(&awsCfg),
		s3.WithEndpoint(container.Endpoint()),
		s3.WithForcePathStyle(true),
		s3.WithFilesystem(memfs.New()),
	)
	require.NoError(t, err)
	return client, bucket
}

// TestIntegrationPathOperations exercises the path helpers against LocalStack.
func TestIntegrationPathOperations(t *testing.T) {
	ctx := context.Background()
	client, bucket := newIntegrationClient(t)
	root := fmt.Sprintf("s3://%s/", bucket)

	t.Run("write and read JSON", func(t *testing.T) {
		in := map[string]any{"created": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "rows": 3}
		require.NoError(t, client.WriteJSON(ctx, in, root+"json/manifest.json"))

		var out map[string]any
		require.NoError(t, client.ReadJSON(ctx, root+"json/manifest.json", &out))
		assert.Equal(t, "2024-01-01T00:00:00", out["created"])
	})

	t.Run("list copy and delete folders", func(t *testing.T) {
		for i := range 3 {
			require.NoError(t, client.Put(ctx, bucket, fmt.Sprintf("src/%d.jsonl", i), []byte("{}\n")))
		}

		paths, err := client.ListPaths(ctx, root+"src", s3.WithExtension("jsonl"))
		require.NoError(t, err)
		assert.Len(t, paths, 3)

		require.NoError(t, client.CopyFolder(ctx, root+"src", root+"dst", true))
		copied, err := client.ListPaths(ctx, root+"dst")
		require.NoError(t, err)
		assert.Equal(t, []string{root + "dst/0.jsonl", root + "dst/1.jsonl", root + "dst/2.jsonl"}, copied)

		require.NoError(t, client.DeleteFolder(ctx, root+"dst", false))
		remaining, err := client.ListPaths(ctx, root+"dst", s3.WithZeroByteFiles(true))
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("local transfer with overwrite guard", func(t *testing.T) {
		fs := client.Filesystem()
		require.NoError(t, util.WriteFile(fs, "/in/report.csv", []byte("a,b\n1,2\n"), 0o644))

		require.NoError(t, client.WriteLocalFile(ctx, "/in/report.csv", root+"reports/report.csv", false))
		err := client.WriteLocalFile(ctx, "/in/report.csv", root+"reports/report.csv", false)
		assert.ErrorIs(t, err, dataerrors.ErrAlreadyExists)

		require.NoError(t, client.DownloadToLocal(ctx, root+"reports/report.csv", "/out/report.csv", false))
		data, err := util.ReadFile(fs, "/out/report.csv")
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(data))
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := client.ReadString(ctx, root+"does/not/exist.txt")
		assert.ErrorIs(t, err, dataerrors.ErrObjectNotFound)

		exists, err := client.ObjectExists(ctx, root+"does/not/exist.txt")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
