package distro

import (
	"path/filepath"
	"strings"
)

type marker struct {
	code string
	slug string
}

var (
	rpmMarkers = []marker{
		{"el6", "el/6"},
		{"el7", "el/7"},
	}
	debMarkers = []marker{
		{"precise", "ubuntu/precise"},
		{"trusty", "ubuntu/trusty"},
		{"xenial", "ubuntu/xenial"},
		{"wheezy", "debian/wheezy"},
		{"jessie", "debian/jessie"},
		{"stretch", "debian/stretch"},
	}
)

// Detect guesses the distro slug from a filename that embeds a distro
// code, e.g. "tool-1.0-1.el7.x86_64.rpm" gives "el/7". It only knows
// a fixed set of codes.
func Detect(filename string) (string, bool) {
	filename = filepath.Base(filename)

	var markers []marker
	switch {
	case strings.Contains(filename, ".rpm"):
		markers = rpmMarkers
	case strings.Contains(filename, ".deb"):
		markers = debMarkers
	default:
		return "", false
	}

	for _, m := range markers {
		if strings.Contains(filename, m.code) {
			return m.slug, true
		}
	}
	return "", false
}
