// Package core provides the shared packagecloud types and errors.
package core

import "time"

// MasterToken is a repository-scoped credential that can mint read tokens.
type MasterToken struct {
	Name       string      `json:"name"`
	Value      string      `json:"value"`
	Paths      TokenPaths  `json:"paths"`
	ReadTokens []ReadToken `json:"read_tokens,omitempty"`
}

// TokenPaths holds the relative resource paths of a master token.
type TokenPaths struct {
	Self string `json:"self"`
}

// ReadToken is a read-only credential derived from a master token.
type ReadToken struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Package is one uploaded artifact as reported by the service. It is a
// snapshot and serves as the handle for destroy, promote, stats and
// download calls, which use the URLs it carries.
type Package struct {
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Filename      string    `json:"filename"`
	DistroVersion string    `json:"distro_version"`
	Version       string    `json:"version"`
	Release       string    `json:"release"`
	Epoch         int       `json:"epoch"`
	Architecture  string    `json:"architecture,omitempty"`
	Private       bool      `json:"private"`
	UploaderName  string    `json:"uploader_name"`
	SHA256Sum     string    `json:"sha256sum,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	PackageURL         string `json:"package_url"`
	PackageHTMLURL     string `json:"package_html_url"`
	RepositoryHTMLURL  string `json:"repository_html_url"`
	DownloadURL        string `json:"download_url"`
	DestroyURL         string `json:"destroy_url"`
	PromoteURL         string `json:"promote_url"`
	DownloadsDetailURL string `json:"downloads_detail_url"`
	DownloadsSeriesURL string `json:"downloads_series_url"`
	DownloadsCountURL  string `json:"downloads_count_url"`

	// SourceFiles lists the auxiliary files of a dsc package.
	SourceFiles []SourceFile `json:"source_files,omitempty"`
}

// IsSource reports whether p is a source (dsc) package.
func (p *Package) IsSource() bool {
	return PackageType(p.Type).IsSource()
}

// SourceFile is an auxiliary file referenced by a dsc package.
type SourceFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
	MD5Sum   string `json:"md5sum,omitempty"`
}

// Contents is the response of the contents registration endpoint.
type Contents struct {
	Files []SourceFile `json:"files"`
}

// Distributions maps a package type tag to its known distributions.
type Distributions map[string][]Distribution

// Distribution is one distribution with its versions.
type Distribution struct {
	DisplayName string          `json:"display_name"`
	IndexName   string          `json:"index_name"`
	Versions    []DistroVersion `json:"versions"`
}

// DistroVersion is a distribution version with the numeric id required on
// package creation.
type DistroVersion struct {
	ID            int    `json:"id"`
	DisplayName   string `json:"display_name"`
	IndexName     string `json:"index_name"`
	VersionNumber string `json:"version_number,omitempty"`
}

// DownloadDetail is one download log entry.
type DownloadDetail struct {
	DownloadedAt time.Time       `json:"downloaded_at"`
	IPAddress    string          `json:"ip_address"`
	UserAgent    string          `json:"user_agent"`
	Source       string          `json:"source"`
	ReadToken    *DownloadReader `json:"read_token"`
}

// DownloadReader identifies the read token behind a download.
type DownloadReader struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Series maps a period key (e.g. "20240101Z") to a download count.
type Series map[string]int
