package core

import (
	"strconv"
	"strings"

	packageurl "github.com/package-url/packageurl-go"
)

// purlTypes maps packagecloud type tags to PURL types.
var purlTypes = map[string]string{
	"rpm":    packageurl.TypeRPM,
	"deb":    packageurl.TypeDebian,
	"dsc":    packageurl.TypeDebian,
	"gem":    packageurl.TypeGem,
	"python": packageurl.TypePyPi,
	"node":   packageurl.TypeNPM,
}

// PURL returns the Package URL for p, e.g.
// "pkg:rpm/el/tool@1.0-1?arch=x86_64&distro=el-7".
func (p *Package) PURL() string {
	typ, ok := purlTypes[p.Type]
	if !ok {
		typ = packageurl.TypeGeneric
	}

	distro, release, _ := strings.Cut(p.DistroVersion, "/")

	var namespace string
	if typ == packageurl.TypeRPM || typ == packageurl.TypeDebian {
		namespace = distro
	}

	version := p.Version
	if p.Release != "" && typ == packageurl.TypeRPM {
		version += "-" + p.Release
	}

	var qualifiers packageurl.Qualifiers
	if arch := p.arch(); arch != "" {
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "arch", Value: arch})
	}
	if distro != "" && release != "" && namespace != "" {
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "distro", Value: distro + "-" + release})
	}
	if p.Epoch > 0 {
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "epoch", Value: strconv.Itoa(p.Epoch)})
	}

	return packageurl.NewPackageURL(typ, namespace, p.Name, version, qualifiers, "").ToString()
}

// arch returns the architecture, falling back to the one embedded in the
// filename: name-1.0-1.el7.x86_64.rpm or name_1.0-1_amd64.deb.
func (p *Package) arch() string {
	if p.Architecture != "" {
		return p.Architecture
	}
	switch p.Type {
	case "dsc":
		return "source"
	case "rpm":
		base := strings.TrimSuffix(p.Filename, ".rpm")
		if i := strings.LastIndex(base, "."); i >= 0 && i < len(base)-1 {
			return base[i+1:]
		}
	case "deb":
		base := strings.TrimSuffix(p.Filename, ".deb")
		if i := strings.LastIndex(base, "_"); i >= 0 && i < len(base)-1 {
			return base[i+1:]
		}
	}
	return ""
}
