// Package list walks every page of an object listing.
package list

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
)

// PageSize is the maximum number of keys S3 returns per page.
const PageSize = 1000

// Lister handles paginated listing of S3 objects.
type Lister struct {
	client s3.ListObjectsV2APIClient
}

// New creates a new Lister.
func New(client s3.ListObjectsV2APIClient) *Lister {
	return &Lister{
		client: client,
	}
}

// Each calls fn for every object under prefix, in key order. It stops at the
// first error returned by S3 or by fn.
func (l *Lister) Each(ctx context.Context, bucket, prefix string, fn func(s3types.Object) error) error {
	paginator := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(PageSize),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			if err := fn(convert(obj)); err != nil {
				return err
			}
		}
	}
	return nil
}

// All returns every object under prefix.
func (l *Lister) All(ctx context.Context, bucket, prefix string) ([]s3types.Object, error) {
	var objects []s3types.Object
	err := l.Each(ctx, bucket, prefix, func(obj s3types.Object) error {
		objects = append(objects, obj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

func convert(obj awstypes.Object) s3types.Object {
	return s3types.Object{
		Key:          aws.ToString(obj.Key),
		Size:         aws.ToInt64(obj.Size),
		LastModified: aws.ToTime(obj.LastModified),
		ETag:         aws.ToString(obj.ETag),
	}
}
