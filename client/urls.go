package client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/git-pkgs/packagecloud/config"
)

// URLs constructs packagecloud API endpoints.
type URLs struct {
	APIBase    string
	DomainBase string
}

// NewURLs returns the endpoint builder for cfg.
func NewURLs(cfg *config.Config) *URLs {
	return &URLs{
		APIBase:    strings.TrimSuffix(cfg.URLBase, "/"),
		DomainBase: strings.TrimSuffix(cfg.DomainBase, "/"),
	}
}

func (u *URLs) repo(owner, repo string) string {
	return fmt.Sprintf("%s/repos/%s/%s", u.APIBase, url.PathEscape(owner), url.PathEscape(repo))
}

// MasterTokens is GET/POST /repos/:user/:repo/master_tokens.
func (u *URLs) MasterTokens(owner, repo string) string {
	return u.repo(owner, repo) + "/master_tokens"
}

// Packages is POST /repos/:user/:repo/packages.json.
func (u *URLs) Packages(owner, repo string) string {
	return u.repo(owner, repo) + "/packages.json"
}

// PackagesPage is GET /repos/:user/:repo/packages.json?page=N.
func (u *URLs) PackagesPage(owner, repo string, page int) string {
	return fmt.Sprintf("%s?page=%d", u.Packages(owner, repo), page)
}

// Contents is POST /repos/:user/:repo/packages/contents.json.
func (u *URLs) Contents(owner, repo string) string {
	return u.repo(owner, repo) + "/packages/contents.json"
}

// Distributions is GET /distributions.json.
func (u *URLs) Distributions() string {
	return u.APIBase + "/distributions.json"
}

// Domain resolves a link returned by the API. Relative paths are prefixed
// with DomainBase; absolute URLs are returned unchanged.
func (u *URLs) Domain(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return u.DomainBase + path
}

// WithQuery appends q to rawURL, keeping any query it already has.
func WithQuery(rawURL string, q url.Values) string {
	if len(q) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + q.Encode()
}
