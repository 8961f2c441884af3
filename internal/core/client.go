package core

import (
	"github.com/git-pkgs/packagecloud/client"
)

// Aliases so services only import core.
type (
	Client                 = client.Client
	Part                   = client.Part
	URLs                   = client.URLs
	HTTPError              = client.HTTPError
	TransportError         = client.TransportError
	MalformedResponseError = client.MalformedResponseError
)

var (
	ErrNotFound = client.ErrNotFound

	DefaultClient = client.DefaultClient
	NewClient     = client.NewClient
	NewURLs       = client.NewURLs
	WithQuery     = client.WithQuery
	Field         = client.Field
	File          = client.File
)
