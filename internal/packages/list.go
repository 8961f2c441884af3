package packages

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/git-pkgs/packagecloud/internal/core"
	"go.uber.org/zap"
)

// Pagination headers sent with every page of a package listing.
const (
	HeaderTotal   = "Total"
	HeaderPerPage = "Per-Page"
)

// Page is one page of a package listing.
type Page struct {
	Packages []core.Package
	Total    int
	PerPage  int
}

// List fetches a single page, numbered from 1.
//
// GET /api/v1/repos/:user/:repo/packages.json?page=N
func (s *Service) List(ctx context.Context, owner, repo string, page int) (*Page, error) {
	rawURL := s.urls.PackagesPage(owner, repo, page)

	var pkgs []core.Package
	header, err := s.client.GetJSONHeader(ctx, rawURL, &pkgs)
	if err != nil {
		return nil, err
	}

	total, err := intHeader(header, HeaderTotal, rawURL, 0)
	if err != nil {
		return nil, err
	}
	perPage, err := intHeader(header, HeaderPerPage, rawURL, 1)
	if err != nil {
		return nil, err
	}

	return &Page{Packages: pkgs, Total: total, PerPage: perPage}, nil
}

// ListAll fetches every package of owner/repo. The total is taken from
// the first page; each page advances the count by its own Per-Page.
func (s *Service) ListAll(ctx context.Context, owner, repo string) ([]core.Package, error) {
	var (
		all     []core.Package
		total   = 1
		fetched int
	)

	for page := 1; fetched < total; page++ {
		p, err := s.List(ctx, owner, repo, page)
		if err != nil {
			return nil, err
		}
		if page == 1 {
			total = p.Total
		}
		all = append(all, p.Packages...)
		fetched += p.PerPage

		s.logger.Debug("fetched package page",
			zap.Int("page", page),
			zap.Int("fetched", fetched),
			zap.Int("total", total))
	}

	return all, nil
}

// intHeader parses a numeric header that must be at least floor. A zero
// Per-Page would never advance the listing.
func intHeader(h http.Header, name, rawURL string, floor int) (int, error) {
	raw := strings.TrimSpace(h.Get(name))
	if raw == "" {
		return 0, &core.MalformedResponseError{URL: rawURL, Reason: name + " header missing"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &core.MalformedResponseError{URL: rawURL, Reason: name + " header not numeric", Err: err}
	}
	if n < floor {
		return 0, &core.MalformedResponseError{URL: rawURL, Reason: name + " header out of range"}
	}
	return n, nil
}

// Filter selects packages from a listing. Empty fields match anything.
type Filter struct {
	Distro  string // exact distro_version, e.g. "el/7"
	Version string
	Name    string
	Type    string
	Match   string // substring of the filename
}

// Matches reports whether pkg passes every set criterion.
func (f Filter) Matches(pkg *core.Package) bool {
	switch {
	case f.Distro != "" && pkg.DistroVersion != f.Distro:
		return false
	case f.Version != "" && pkg.Version != f.Version:
		return false
	case f.Name != "" && pkg.Name != f.Name:
		return false
	case f.Type != "" && pkg.Type != f.Type:
		return false
	case f.Match != "" && !strings.Contains(pkg.Filename, f.Match):
		return false
	}
	return true
}

// Apply returns the packages of pkgs matching f, in order.
func (f Filter) Apply(pkgs []core.Package) []core.Package {
	var out []core.Package
	for i := range pkgs {
		if f.Matches(&pkgs[i]) {
			out = append(out, pkgs[i])
		}
	}
	return out
}
