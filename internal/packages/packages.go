// Package packages lists, uploads, promotes and destroys packages.
package packages

import (
	"context"
	"net/http"
	"net/url"

	"github.com/git-pkgs/packagecloud/internal/core"
	"github.com/git-pkgs/packagecloud/internal/distro"
	"go.uber.org/zap"
)

// Service issues package API calls.
type Service struct {
	client  *core.Client
	urls    *core.URLs
	distros *distro.Resolver
	logger  *zap.Logger
}

// New creates a package Service. distros resolves the distribution ids
// required on upload.
func New(client *core.Client, urls *core.URLs, distros *distro.Resolver) *Service {
	return &Service{
		client:  client,
		urls:    urls,
		distros: distros,
		logger:  client.Logger(),
	}
}

// Destroy removes pkg from its repository using the destroy URL it carries.
//
// DELETE /api/v1/repos/:user/:repo/:distro/:version/:package.:ext
func (s *Service) Destroy(ctx context.Context, pkg *core.Package) error {
	status, err := s.client.Delete(ctx, s.urls.Domain(pkg.DestroyURL))
	if err != nil {
		return err
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		s.logger.Info("package destroyed", zap.String("filename", pkg.Filename))
		return nil
	default:
		s.logger.Warn("destroy did not complete",
			zap.String("filename", pkg.Filename),
			zap.Int("status", status))
		return &core.DestroyError{Kind: "package", Name: pkg.Filename, StatusCode: status}
	}
}

// Promote moves pkg to owner/repo and returns the package as it now exists
// in the destination.
//
// POST /api/v1/repos/:user/:repo/:distro/:version/:package/promote.json
func (s *Service) Promote(ctx context.Context, pkg *core.Package, owner, repo string) (*core.Package, error) {
	form := url.Values{"destination": {owner + "/" + repo}}

	rawURL := s.urls.Domain(pkg.PromoteURL)
	var promoted core.Package
	if err := s.client.PostFormJSON(ctx, rawURL, form, &promoted); err != nil {
		return nil, err
	}
	if promoted.Filename == "" {
		return nil, &core.MalformedResponseError{URL: rawURL, Reason: "promoted package filename missing"}
	}

	s.logger.Info("package promoted",
		zap.String("filename", pkg.Filename),
		zap.String("destination", owner+"/"+repo))
	return &promoted, nil
}
