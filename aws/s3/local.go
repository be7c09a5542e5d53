package s3

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3path"
	dataerrors "github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/operations/download"
)

// WriteLocalFile uploads the local file at local to path. Unless overwrite
// is set, an existing object at path fails with ErrAlreadyExists and nothing
// is uploaded.
func (c *Client) WriteLocalFile(ctx context.Context, local, path string, overwrite bool) error {
	bucket, key, err := splitPath("writeLocalFile", path)
	if err != nil {
		return err
	}
	if !overwrite {
		exists, err := c.Exists(ctx, bucket, key)
		if err != nil {
			return err
		}
		if exists {
			return dataerrors.NewObjectError("writeLocalFile", bucket, key, dataerrors.ErrAlreadyExists).
				WithMessage("object exists and overwrite is not set")
		}
	}

	local, err = c.localPath(local)
	if err != nil {
		return dataerrors.NewError("writeLocalFile", err).WithKey(local)
	}
	data, err := util.ReadFile(c.fs, local)
	if err != nil {
		return dataerrors.NewError("writeLocalFile", err).WithKey(local)
	}

	if err := c.Put(ctx, bucket, key, data); err != nil {
		return err
	}
	c.logger.Debug("uploaded local file", "local", local, "path", path, "bytes", len(data))
	return nil
}

// WriteLocalFolder uploads every file under root to the same relative key
// under path. Files and directories whose names start with "." are skipped
// unless includeHidden is set. The overwrite guard of WriteLocalFile applies
// to each file.
func (c *Client) WriteLocalFolder(ctx context.Context, root, path string, overwrite, includeHidden bool) error {
	root, err := c.localPath(root)
	if err != nil {
		return dataerrors.NewError("writeLocalFolder", err).WithKey(root)
	}
	folder := s3path.EnsureTrailingSlash(path)

	var files []string
	err = util.Walk(c.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !includeHidden && p != root && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return dataerrors.NewError("writeLocalFolder", err).WithKey(root)
	}

	targets := make([]string, len(files))
	for i, file := range files {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return dataerrors.NewError("writeLocalFolder", err).WithKey(file)
		}
		targets[i] = folder + filepath.ToSlash(rel)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, file := range files {
		g.Go(func() error {
			return c.WriteLocalFile(ctx, file, targets[i], overwrite)
		})
	}
	return g.Wait()
}

// DownloadToLocal downloads the object at path to the local file local,
// creating parent directories as needed. Unless overwrite is set, an existing
// local file fails with ErrAlreadyExists. The file is written under a
// temporary name and renamed into place.
func (c *Client) DownloadToLocal(ctx context.Context, path, local string, overwrite bool) error {
	bucket, key, err := splitPath("downloadToLocal", path)
	if err != nil {
		return err
	}
	if err := validateObject("downloadToLocal", bucket, key); err != nil {
		return err
	}

	local, err = c.localPath(local)
	if err != nil {
		return dataerrors.NewError("downloadToLocal", err).WithKey(local)
	}
	if !overwrite {
		if info, err := c.fs.Stat(local); err == nil && !info.IsDir() {
			return dataerrors.NewError("downloadToLocal", dataerrors.ErrAlreadyExists).
				WithKey(local).
				WithMessage("local file exists and overwrite is not set")
		}
	}

	n, err := download.New(c.s3Client).ToFile(ctx, bucket, key, c.fs, local)
	if err != nil {
		return dataerrors.NewObjectError("downloadToLocal", bucket, key, convertAWSError(err))
	}
	c.logger.Debug("downloaded object", "path", path, "local", local, "bytes", n)
	return nil
}

// DownloadFolderToLocal downloads every object under path into localFolder,
// empty files included. Folder markers (keys ending in "/") are skipped. Each
// object lands at localFolder joined with its full key, so the bucket layout
// is reproduced locally.
func (c *Client) DownloadFolderToLocal(ctx context.Context, path, localFolder string, overwrite bool) error {
	bucket, _, objects, err := c.listFolder(ctx, "downloadFolderToLocal", path, false)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		local := filepath.Join(localFolder, filepath.FromSlash(obj.Key))
		g.Go(func() error {
			return c.DownloadToLocal(ctx, s3path.Join(bucket, obj.Key), local, overwrite)
		})
	}
	return g.Wait()
}
