// Package s3 wraps AWS SDK v2 with the object helpers a data pipeline needs.
//
// It offers two styles of call. Bucket/key methods (Put, Get, List, Copy,
// DeleteMany and friends) mirror the S3 API with validation and error
// classification on top. Path methods (ReadJSON, WriteJSON, ListPaths,
// CopyFolder, DeleteFolder, DownloadToLocal and friends) take "s3://bucket/key"
// strings as used in pipeline configuration.
//
// Failures are *errors.Error values from the dataeng errors package; missing
// objects match errors.ErrObjectNotFound and missing buckets
// errors.ErrBucketNotFound.
//
// Example usage:
//
//	client, err := s3.New(s3.WithRegion("eu-west-1"))
//	if err != nil {
//	    return err
//	}
//
//	var manifest Manifest
//	if err := client.ReadJSON(ctx, "s3://my-bucket/exports/manifest.json", &manifest); err != nil {
//	    return err
//	}
//
//	paths, err := client.ListPaths(ctx, "s3://my-bucket/exports", s3.WithExtension("jsonl.gz"))
package s3
