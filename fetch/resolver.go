package fetch

import (
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/git-pkgs/packagecloud/internal/core"
)

// ErrNoDownloadURL is returned for a package handle without a download link.
var ErrNoDownloadURL = errors.New("no download URL available")

const downloadSegment = "/download"

// Target is one file to fetch.
type Target struct {
	URL      string
	Filename string
}

// Targets returns the files making up pkg: the package file first, then
// for a source package each auxiliary file in listed order.
func Targets(pkg *core.Package) ([]Target, error) {
	if pkg.DownloadURL == "" {
		return nil, ErrNoDownloadURL
	}

	filename := pkg.Filename
	if filename == "" {
		filename = filenameFromURL(pkg.DownloadURL)
	}
	targets := []Target{{URL: pkg.DownloadURL, Filename: safeName(filename)}}

	if !pkg.IsSource() {
		return targets, nil
	}
	for _, sf := range pkg.SourceFiles {
		if sf.Filename == "" {
			return nil, &core.MalformedResponseError{URL: pkg.DownloadURL, Reason: "source file without filename"}
		}
		u, err := SourceFileURL(pkg.DownloadURL, sf.Filename)
		if err != nil {
			return nil, err
		}
		targets = append(targets, Target{URL: u, Filename: safeName(sf.Filename)})
	}
	return targets, nil
}

// SourceFileURL derives the link of an auxiliary file from the package's
// download link by replacing its last /download segment with
// /files/<filename>/download.
func SourceFileURL(downloadURL, filename string) (string, error) {
	i := strings.LastIndex(downloadURL, downloadSegment)
	if i < 0 {
		return "", ErrNoDownloadURL
	}
	return downloadURL[:i] + "/files/" + url.PathEscape(filename) + downloadSegment + downloadURL[i+len(downloadSegment):], nil
}

func filenameFromURL(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		rawURL = u.Path
	}
	rawURL = strings.TrimSuffix(rawURL, downloadSegment)
	if idx := strings.LastIndex(rawURL, "/"); idx >= 0 {
		return rawURL[idx+1:]
	}
	return rawURL
}

// safeName keeps a service-supplied filename inside the target directory.
func safeName(name string) string {
	return path.Base("/" + strings.ReplaceAll(name, "\\", "/"))
}
