// Package tokens manages master and read tokens.
//
// Tokens are snapshots of remote state; every call fetches what it needs
// again.
package tokens

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/git-pkgs/packagecloud/internal/core"
	"go.uber.org/zap"
)

// ErrNoSelfPath is returned for a nil master token or one without a self
// path, from which read token URLs are derived.
var ErrNoSelfPath = errors.New("master token has no self path")

// builtinTokens are created by the service for every repository and are
// skipped by MasterValues.
var builtinTokens = map[string]bool{
	"default":       true,
	"web-downloads": true,
}

// Service issues token API calls.
type Service struct {
	client *core.Client
	urls   *core.URLs
	logger *zap.Logger
}

// New creates a token Service.
func New(client *core.Client, urls *core.URLs) *Service {
	return &Service{client: client, urls: urls, logger: client.Logger()}
}

// ListMaster lists all master tokens of owner/repo.
//
// GET /api/v1/repos/:user/:repo/master_tokens
func (s *Service) ListMaster(ctx context.Context, owner, repo string) ([]core.MasterToken, error) {
	var tokens []core.MasterToken
	if err := s.client.GetJSON(ctx, s.urls.MasterTokens(owner, repo), &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// MasterValues returns name to value for every named master token except
// the service's built-in ones.
func (s *Service) MasterValues(ctx context.Context, owner, repo string) (map[string]string, error) {
	tokens, err := s.ListMaster(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		if tok.Name == "" || builtinTokens[tok.Name] {
			continue
		}
		values[tok.Name] = tok.Value
		s.logger.Debug("found master token", zap.String("name", tok.Name))
	}
	return values, nil
}

// MasterByName returns the master token called name.
func (s *Service) MasterByName(ctx context.Context, owner, repo, name string) (*core.MasterToken, error) {
	tokens, err := s.ListMaster(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	for i := range tokens {
		if tokens[i].Name == name {
			return &tokens[i], nil
		}
	}
	return nil, &core.NotFoundError{Kind: "master token", Name: name}
}

// CreateMaster creates a named master token.
//
// POST /api/v1/repos/:user/:repo/master_tokens
func (s *Service) CreateMaster(ctx context.Context, owner, repo, name string) (*core.MasterToken, error) {
	form := url.Values{"master_token[name]": {name}}

	var tok core.MasterToken
	if err := s.client.PostFormJSON(ctx, s.urls.MasterTokens(owner, repo), form, &tok); err != nil {
		return nil, err
	}
	if tok.Value == "" {
		return nil, &core.MalformedResponseError{URL: s.urls.MasterTokens(owner, repo), Reason: "token value missing"}
	}

	s.logger.Debug("created master token", zap.String("name", tok.Name))
	return &tok, nil
}

// DestroyMaster destroys every master token of owner/repo called name.
//
// DELETE /api/v1/repos/:user/:repo/master_tokens/:id
func (s *Service) DestroyMaster(ctx context.Context, owner, repo, name string) error {
	tokens, err := s.ListMaster(ctx, owner, repo)
	if err != nil {
		return err
	}

	found := false
	for _, tok := range tokens {
		if tok.Name != name {
			continue
		}
		found = true
		if tok.Paths.Self == "" {
			return &core.MalformedResponseError{URL: s.urls.MasterTokens(owner, repo), Reason: "token self path missing"}
		}
		if err := s.destroy(ctx, s.urls.Domain(tok.Paths.Self), "master token", name); err != nil {
			return err
		}
	}

	if !found {
		return &core.NotFoundError{Kind: "master token", Name: name}
	}
	return nil
}

func (s *Service) destroy(ctx context.Context, rawURL, kind, name string) error {
	status, err := s.client.Delete(ctx, rawURL)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent {
		s.logger.Warn("destroy did not complete",
			zap.String("kind", kind),
			zap.String("name", name),
			zap.Int("status", status))
		return &core.DestroyError{Kind: kind, Name: name, StatusCode: status}
	}
	s.logger.Info("token destroyed", zap.String("kind", kind), zap.String("name", name))
	return nil
}

func (s *Service) readTokensURL(master *core.MasterToken) (string, error) {
	if master == nil || master.Paths.Self == "" {
		return "", ErrNoSelfPath
	}
	return s.urls.Domain(master.Paths.Self) + "/read_tokens", nil
}
