package packages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/git-pkgs/packagecloud/internal/core"
	"go.uber.org/zap"
)

// Multipart field names of the create and contents endpoints.
const (
	fieldDistroVersionID = "package[distro_version_id]"
	fieldPackageFile     = "package[package_file]"
	fieldSourceFiles     = "package[source_files][]"
)

// Create uploads the package file at path to owner/repo for the distro
// slug (e.g. "ubuntu/xenial") and returns the created package.
//
// A dsc upload is two calls: the dsc is registered with the contents
// endpoint, which lists its auxiliary files, then the dsc and every listed
// file (read from the dsc's directory) are sent in a single creation
// request. A failed creation request leaves nothing to roll back on the
// client side; the contents registration is not undone.
//
// POST /api/v1/repos/:user/:repo/packages.json
// POST /api/v1/repos/:user/:repo/packages/contents.json
func (s *Service) Create(ctx context.Context, owner, repo, path, slug string) (*core.Package, error) {
	pkgtype, err := core.TypeFromFilename(path)
	if err != nil {
		return nil, err
	}

	id, err := s.distros.ResolveID(ctx, string(pkgtype), slug)
	if err != nil {
		return nil, err
	}

	parts := []core.Part{
		core.Field(fieldDistroVersionID, strconv.Itoa(id)),
		core.File(fieldPackageFile, path, pkgtype.ContentType()),
	}

	if pkgtype.IsSource() {
		aux, err := s.sourceParts(ctx, owner, repo, path, parts)
		if err != nil {
			return nil, err
		}
		parts = append(parts, aux...)
	}

	var pkg core.Package
	if err := s.client.PostMultipartJSON(ctx, s.urls.Packages(owner, repo), parts, &pkg); err != nil {
		return nil, err
	}

	s.logger.Info("package created",
		zap.String("filename", filepath.Base(path)),
		zap.String("type", string(pkgtype)),
		zap.String("distro", slug),
		zap.Int("source_files", len(parts)-2))
	return &pkg, nil
}

// sourceParts registers the dsc and returns one part per auxiliary file it
// references. Every file is checked before anything is created.
func (s *Service) sourceParts(ctx context.Context, owner, repo, path string, dsc []core.Part) ([]core.Part, error) {
	var contents core.Contents
	if err := s.client.PostMultipartJSON(ctx, s.urls.Contents(owner, repo), dsc, &contents); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	parts := make([]core.Part, 0, len(contents.Files))
	for _, f := range contents.Files {
		if f.Filename == "" {
			return nil, &core.MalformedResponseError{URL: s.urls.Contents(owner, repo), Reason: "source file without filename"}
		}
		aux := filepath.Join(dir, filepath.Base(f.Filename))
		if _, err := os.Stat(aux); err != nil {
			return nil, fmt.Errorf("source file %s: %w", f.Filename, err)
		}
		parts = append(parts, core.File(fieldSourceFiles, aux, core.SourceFileContentType))
	}

	s.logger.Debug("registered source package",
		zap.String("filename", filepath.Base(path)),
		zap.Int("source_files", len(parts)))
	return parts, nil
}
