// Package distro resolves distribution slugs such as "ubuntu/xenial" to
// the numeric distribution-version ids the upload API requires.
package distro

import (
	"context"
	"strings"
	"sync"

	"github.com/git-pkgs/packagecloud/internal/core"
	"go.uber.org/zap"
)

// Resolver fetches the distribution index and searches it. Without
// caching, every resolution fetches the index again.
type Resolver struct {
	client *core.Client
	urls   *core.URLs
	logger *zap.Logger
	cache  bool

	mu    sync.Mutex
	index core.Distributions
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache memoizes the index for the lifetime of the Resolver.
func WithCache() Option {
	return func(r *Resolver) {
		r.cache = true
	}
}

// New creates a Resolver.
func New(client *core.Client, urls *core.URLs, opts ...Option) *Resolver {
	r := &Resolver{
		client: client,
		urls:   urls,
		logger: client.Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Index returns the distribution index. With caching on, callers get
// their own copy of the cached index.
//
// GET /api/v1/distributions.json
func (r *Resolver) Index(ctx context.Context) (core.Distributions, error) {
	if r.cache {
		r.mu.Lock()
		cached := r.index
		r.mu.Unlock()
		if cached != nil {
			return clone(cached), nil
		}
	}

	var index core.Distributions
	if err := r.client.GetJSON(ctx, r.urls.Distributions(), &index); err != nil {
		return nil, err
	}
	if index == nil {
		index = core.Distributions{}
	}

	if r.cache {
		r.mu.Lock()
		if r.index == nil {
			r.index = index
		}
		index = r.index
		r.mu.Unlock()
		return clone(index), nil
	}
	return index, nil
}

func clone(index core.Distributions) core.Distributions {
	out := make(core.Distributions, len(index))
	for typ, dists := range index {
		copied := make([]core.Distribution, len(dists))
		for i, d := range dists {
			d.Versions = append([]core.DistroVersion(nil), d.Versions...)
			copied[i] = d
		}
		out[typ] = copied
	}
	return out
}

// ResolveID returns the distribution-version id for slug within pkgtype.
func (r *Resolver) ResolveID(ctx context.Context, pkgtype, slug string) (int, error) {
	index, err := r.Index(ctx)
	if err != nil {
		return 0, err
	}

	id, err := Lookup(index, pkgtype, slug)
	if err != nil {
		return 0, err
	}

	r.logger.Debug("resolved distribution",
		zap.String("type", pkgtype),
		zap.String("slug", slug),
		zap.Int("id", id))
	return id, nil
}

// Lookup searches index for slug within pkgtype.
func Lookup(index core.Distributions, pkgtype, slug string) (int, error) {
	name, codename, err := SplitSlug(slug)
	if err != nil {
		return 0, err
	}

	for _, dist := range index[pkgtype] {
		if dist.IndexName != name {
			continue
		}
		for _, ver := range dist.Versions {
			if ver.IndexName == codename {
				return ver.ID, nil
			}
		}
	}

	return 0, &core.NotFoundError{Kind: "distribution", Name: slug}
}

// SplitSlug splits "distro/version" into its parts.
func SplitSlug(slug string) (name, version string, err error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &core.InvalidSlugError{Slug: slug}
	}
	return parts[0], parts[1], nil
}
