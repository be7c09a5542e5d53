// Package copy performs server-side object copies.
package copy

import (
	"context"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"
)

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	CopyObject(
		ctx context.Context,
		input *s3.CopyObjectInput,
		opts ...func(*s3.Options),
	) (*s3.CopyObjectOutput, error)
}

// Pair names one source and destination object.
type Pair struct {
	SrcBucket, SrcKey string
	DstBucket, DstKey string
}

// Copier copies objects within S3.
type Copier struct {
	client      S3Interface
	concurrency int
}

// New creates a Copier that runs at most concurrency copies at once.
func New(client S3Interface, concurrency int) *Copier {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Copier{
		client:      client,
		concurrency: concurrency,
	}
}

// Copy copies one object, overwriting the destination if it exists.
func (c *Copier) Copy(ctx context.Context, p Pair) error {
	_, err := c.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(p.DstBucket),
		Key:        aws.String(p.DstKey),
		CopySource: aws.String(CopySource(p.SrcBucket, p.SrcKey)),
	})
	return err
}

// CopyMany copies every pair. The first failure cancels the copies not yet
// started and is returned.
func (c *Copier) CopyMany(ctx context.Context, pairs []Pair) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, p := range pairs {
		g.Go(func() error {
			return c.Copy(ctx, p)
		})
	}
	return g.Wait()
}

// CopySource builds the URL-encoded x-amz-copy-source value.
func CopySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return bucket + "/" + strings.Join(segments, "/")
}
