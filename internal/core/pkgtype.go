package core

import (
	"path/filepath"
	"strings"
)

// PackageType is the package type tag used by the API.
type PackageType string

const (
	RPM PackageType = "rpm"
	DEB PackageType = "deb"
	DSC PackageType = "dsc"
)

// SourceFileContentType is sent for the auxiliary files of a dsc upload.
const SourceFileContentType = "application/x-gzip"

// TypeFromFilename infers the package type from the file extension.
func TypeFromFilename(filename string) (PackageType, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	switch t := PackageType(ext); t {
	case RPM, DEB, DSC:
		return t, nil
	default:
		return "", &UnsupportedTypeError{Filename: filename, Extension: ext}
	}
}

// IsBinary reports whether t is uploaded with a single creation request.
func (t PackageType) IsBinary() bool {
	return t == RPM || t == DEB
}

// IsSource reports whether t references auxiliary source files.
func (t PackageType) IsSource() bool {
	return t == DSC
}

// ContentType returns the MIME type sent for the package file.
func (t PackageType) ContentType() string {
	return "application/x-" + string(t)
}
