// Package fetch downloads package files, including the auxiliary files of
// source packages, to a local directory.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/git-pkgs/packagecloud/client"
	"github.com/git-pkgs/packagecloud/internal/core"
	"go.uber.org/zap"
)

// partSuffix marks a file still being written.
const partSuffix = ".part"

// Artifact contains the response from fetching a package file.
type Artifact struct {
	Body        io.ReadCloser
	Size        int64 // -1 if unknown
	ContentType string
}

// Fetcher downloads package files through the retrying client.
type Fetcher struct {
	client *client.Client
	urls   *client.URLs
	logger *zap.Logger
}

// NewFetcher creates a new Fetcher.
func NewFetcher(c *client.Client, urls *client.URLs) *Fetcher {
	return &Fetcher{client: c, urls: urls, logger: c.Logger()}
}

// Fetch opens the file at rawURL. The caller must close the returned
// Artifact.Body when done.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Artifact, error) {
	resp, err := f.client.Do(ctx, &client.Request{
		Method: http.MethodGet,
		URL:    rawURL,
		Header: http.Header{"Accept": {"*/*"}},
	})
	if err != nil {
		return nil, err
	}

	size := int64(-1)
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			size = n
		}
	}

	return &Artifact{
		Body:        resp.Body,
		Size:        size,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Download writes pkg into dir and returns the paths written. A source
// package also has each of its auxiliary files fetched, one request per
// file. On failure the paths completed so far are returned with the error;
// they are left intact and no partial file remains for the failed one.
func (f *Fetcher) Download(ctx context.Context, pkg *core.Package, dir string) ([]string, error) {
	targets, err := Targets(pkg)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(targets))
	for _, t := range targets {
		dest := filepath.Join(dir, t.Filename)
		if err := f.save(ctx, f.urls.Domain(t.URL), dest); err != nil {
			return written, fmt.Errorf("downloading %s: %w", t.Filename, err)
		}
		written = append(written, dest)

		f.logger.Debug("downloaded file",
			zap.String("package", pkg.Filename),
			zap.String("path", dest))
	}

	f.logger.Info("package downloaded",
		zap.String("filename", pkg.Filename),
		zap.Int("files", len(written)))
	return written, nil
}

// save streams rawURL into dest through a temporary file renamed once the
// body has been fully written.
func (f *Fetcher) save(ctx context.Context, rawURL, dest string) (err error) {
	artifact, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = artifact.Body.Close() }()

	tmp := dest + partSuffix
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	n, err := io.Copy(out, artifact.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if artifact.Size >= 0 && n != artifact.Size {
		return &client.MalformedResponseError{
			URL:    rawURL,
			Reason: fmt.Sprintf("short body: got %d of %d bytes", n, artifact.Size),
		}
	}

	return os.Rename(tmp, dest)
}
