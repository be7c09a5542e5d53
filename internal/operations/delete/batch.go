// Package delete removes objects in batches of up to 1000 keys.
package delete

import (
	"context"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
)

// MaxBatchSize is the S3 limit on keys per DeleteObjects request.
const MaxBatchSize = 1000

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	DeleteObjects(
		ctx context.Context,
		input *s3.DeleteObjectsInput,
		opts ...func(*s3.Options),
	) (*s3.DeleteObjectsOutput, error)
}

// BatchDeleter handles batch deletion of S3 objects.
type BatchDeleter struct {
	client      S3Interface
	concurrency int
}

// New creates a BatchDeleter that runs at most concurrency requests at once.
func New(client S3Interface, concurrency int) *BatchDeleter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchDeleter{
		client:      client,
		concurrency: concurrency,
	}
}

// Delete removes keys from bucket. Keys S3 refuses to delete are reported in
// the result; a failed request aborts the remaining batches and is returned.
func (b *BatchDeleter) Delete(ctx context.Context, bucket string, keys []string) (*s3types.DeleteResult, error) {
	result := &s3types.DeleteResult{}
	if len(keys) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for batch := range slices.Chunk(keys, MaxBatchSize) {
		g.Go(func() error {
			out, err := b.deleteBatch(ctx, bucket, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			merge(result, out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	slices.Sort(result.Deleted)
	return result, nil
}

func (b *BatchDeleter) deleteBatch(ctx context.Context, bucket string, keys []string) (*s3.DeleteObjectsOutput, error) {
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	return b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(false),
		},
	})
}

func merge(result *s3types.DeleteResult, out *s3.DeleteObjectsOutput) {
	for _, deleted := range out.Deleted {
		result.Deleted = append(result.Deleted, aws.ToString(deleted.Key))
	}
	for _, e := range out.Errors {
		result.Errors = append(result.Errors, s3types.DeleteError{
			Key:     aws.ToString(e.Key),
			Code:    aws.ToString(e.Code),
			Message: aws.ToString(e.Message),
		})
	}
}
