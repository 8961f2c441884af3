// Package packagecloud is a client for the packagecloud.io REST API.
//
// It manages master and read tokens, lists, uploads, promotes, downloads
// and destroys packages, resolves distribution slugs and queries download
// statistics. Every call goes through a retrying HTTP primitive: at most
// three attempts, one second apart by default.
//
// Basic usage:
//
//	cfg, err := config.Load("packagecloud.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pc, err := packagecloud.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pc.Close()
//
//	pkg, err := pc.Packages.Create(ctx, "acme", "stable", "tool_1.0_amd64.deb", "ubuntu/xenial")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(pkg.Filename, pkg.PURL())
package packagecloud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/git-pkgs/packagecloud/client"
	"github.com/git-pkgs/packagecloud/config"
	"github.com/git-pkgs/packagecloud/fetch"
	"github.com/git-pkgs/packagecloud/internal/core"
	"github.com/git-pkgs/packagecloud/internal/distro"
	"github.com/git-pkgs/packagecloud/internal/log"
	"github.com/git-pkgs/packagecloud/internal/packages"
	"github.com/git-pkgs/packagecloud/internal/stats"
	"github.com/git-pkgs/packagecloud/internal/tokens"
	"github.com/git-pkgs/purl"
	"go.uber.org/zap"
)

// Re-export types from internal/core
type (
	MasterToken    = core.MasterToken
	ReadToken      = core.ReadToken
	Package        = core.Package
	SourceFile     = core.SourceFile
	Distributions  = core.Distributions
	Distribution   = core.Distribution
	DistroVersion  = core.DistroVersion
	DownloadDetail = core.DownloadDetail
	Series         = core.Series
	PackageType    = core.PackageType
)

// Re-export services
type (
	TokenService   = tokens.Service
	PackageService = packages.Service
	StatsService   = stats.Service
	Resolver       = distro.Resolver
	Fetcher        = fetch.Fetcher

	// Filter selects packages from a listing.
	Filter = packages.Filter

	// Range bounds a stats query.
	Range = stats.Range
)

// Package types accepted for upload.
const (
	RPM = core.RPM
	DEB = core.DEB
	DSC = core.DSC
)

// Re-export errors
var (
	ErrNotFound      = client.ErrNotFound
	ErrCircuitOpen   = client.ErrCircuitOpen
	ErrNoDownloadURL = fetch.ErrNoDownloadURL
	ErrNoSelfPath    = tokens.ErrNoSelfPath

	// ErrNoDefaultRepo is returned by the default-repository helpers when
	// RepoUser or Repo is not configured.
	ErrNoDefaultRepo = errors.New("packagecloud: default repository not configured")
)

// Error types
type (
	HTTPError              = client.HTTPError
	TransportError         = client.TransportError
	MalformedResponseError = client.MalformedResponseError
	NotFoundError          = core.NotFoundError
	UnsupportedTypeError   = core.UnsupportedTypeError
	InvalidSlugError       = core.InvalidSlugError
	DestroyError           = core.DestroyError
)

// Client groups the API services around one configured HTTP client.
type Client struct {
	Tokens        *TokenService
	Packages      *PackageService
	Stats         *StatsService
	Distributions *Resolver
	Fetcher       *Fetcher

	cfg    *config.Config
	http   *client.Client
	logger *zap.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	clientOpts []client.Option
}

// WithLogger uses l instead of the logger built from the config.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClientOptions applies opts to the HTTP client after the config.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// New builds a Client from cfg. cfg is validated and never modified.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("packagecloud: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		l, err := log.New(cfg)
		if err != nil {
			return nil, err
		}
		logger = l
	}

	hc := client.FromConfig(cfg, logger)
	for _, opt := range o.clientOpts {
		opt(hc)
	}

	urls := client.NewURLs(cfg)

	var distroOpts []distro.Option
	if cfg.CacheDistributions {
		distroOpts = append(distroOpts, distro.WithCache())
	}
	resolver := distro.New(hc, urls, distroOpts...)

	return &Client{
		Tokens:        tokens.New(hc, urls),
		Packages:      packages.New(hc, urls, resolver),
		Stats:         stats.New(hc, urls),
		Distributions: resolver,
		Fetcher:       fetch.NewFetcher(hc, urls),
		cfg:           cfg,
		http:          hc,
		logger:        logger,
	}, nil
}

// Config returns the configuration the client was built from.
func (c *Client) Config() *config.Config {
	return c.cfg
}

// HTTP returns the underlying retrying HTTP client.
func (c *Client) HTTP() *client.Client {
	return c.http
}

// Close flushes buffered log output.
func (c *Client) Close() error {
	err := c.logger.Sync()
	// Syncing stderr fails on some platforms; that is not a write failure.
	if err != nil && strings.Contains(err.Error(), "/dev/stderr") {
		return nil
	}
	return err
}

// ListPackages lists every package of the configured default repository.
func (c *Client) ListPackages(ctx context.Context) ([]Package, error) {
	if err := c.checkDefaultRepo(); err != nil {
		return nil, err
	}
	return c.Packages.ListAll(ctx, c.cfg.RepoUser, c.cfg.Repo)
}

// Upload uploads the file at path to the configured default repository.
// An empty slug is detected from the filename.
func (c *Client) Upload(ctx context.Context, path, slug string) (*Package, error) {
	if err := c.checkDefaultRepo(); err != nil {
		return nil, err
	}
	if slug == "" {
		detected, ok := distro.Detect(path)
		if !ok {
			return nil, &InvalidSlugError{Slug: slug}
		}
		slug = detected
	}
	return c.Packages.Create(ctx, c.cfg.RepoUser, c.cfg.Repo, path, slug)
}

func (c *Client) checkDefaultRepo() error {
	if c.cfg.RepoUser == "" || c.cfg.Repo == "" {
		return fmt.Errorf("%w: repo-user %q, repo %q", ErrNoDefaultRepo, c.cfg.RepoUser, c.cfg.Repo)
	}
	return nil
}

// DetectDistro maps a package filename with an embedded distribution
// code, such as "el7" or "xenial", to its slug.
func DetectDistro(filename string) (string, bool) {
	return distro.Detect(filename)
}

// TypeFromFilename infers the package type from the file extension.
func TypeFromFilename(filename string) (PackageType, error) {
	return core.TypeFromFilename(filename)
}

// PURL represents a parsed Package URL.
type PURL = purl.PURL

// ParsePURL parses a Package URL string, such as the one returned by
// Package.PURL, into its components.
func ParsePURL(purlStr string) (*PURL, error) {
	return purl.Parse(purlStr)
}
