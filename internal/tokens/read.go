package tokens

import (
	"context"
	"fmt"
	"net/url"

	"github.com/git-pkgs/packagecloud/internal/core"
	"go.uber.org/zap"
)

type readTokensResponse struct {
	ReadTokens []core.ReadToken `json:"read_tokens"`
}

// ListRead lists the read tokens minted by master.
//
// GET /api/v1/repos/:user/:repo/master_tokens/:master_token/read_tokens.json
func (s *Service) ListRead(ctx context.Context, master *core.MasterToken) ([]core.ReadToken, error) {
	base, err := s.readTokensURL(master)
	if err != nil {
		return nil, err
	}

	var resp readTokensResponse
	if err := s.client.GetJSON(ctx, base+".json", &resp); err != nil {
		return nil, err
	}
	return resp.ReadTokens, nil
}

// ReadValues returns name to value for every named read token of master.
func (s *Service) ReadValues(ctx context.Context, master *core.MasterToken) (map[string]string, error) {
	tokens, err := s.ListRead(ctx, master)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		if tok.Name == "" {
			continue
		}
		values[tok.Name] = tok.Value
	}
	return values, nil
}

// CreateRead mints a named read token from master.
//
// POST /api/v1/repos/:user/:repo/master_tokens/:master_token/read_tokens.json
func (s *Service) CreateRead(ctx context.Context, master *core.MasterToken, name string) (*core.ReadToken, error) {
	base, err := s.readTokensURL(master)
	if err != nil {
		return nil, err
	}

	form := url.Values{"read_token[name]": {name}}
	var tok core.ReadToken
	if err := s.client.PostFormJSON(ctx, base+".json", form, &tok); err != nil {
		return nil, err
	}
	if tok.Value == "" {
		return nil, &core.MalformedResponseError{URL: base + ".json", Reason: "token value missing"}
	}

	s.logger.Debug("created read token", zap.String("name", tok.Name))
	return &tok, nil
}

// DestroyRead destroys the read token of master called name and returns it.
//
// DELETE /api/v1/repos/:user/:repo/master_tokens/:master_token/read_tokens/:id
func (s *Service) DestroyRead(ctx context.Context, master *core.MasterToken, name string) (*core.ReadToken, error) {
	tokens, err := s.ListRead(ctx, master)
	if err != nil {
		return nil, err
	}
	base, err := s.readTokensURL(master)
	if err != nil {
		return nil, err
	}

	for i := range tokens {
		tok := &tokens[i]
		if tok.Name != name {
			continue
		}
		if err := s.destroy(ctx, fmt.Sprintf("%s/%d", base, tok.ID), "read token", name); err != nil {
			return nil, err
		}
		return tok, nil
	}

	return nil, &core.NotFoundError{Kind: "read token", Name: name}
}
