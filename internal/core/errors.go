package core

import (
	"fmt"
)

// NotFoundError is returned when a lookup misses: an unresolvable distro
// slug, an absent token name.
type NotFoundError struct {
	Kind string // "distribution", "master token", "read token"
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Kind == "distribution" {
		return fmt.Sprintf("no distribution id found for: %s", e.Name)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// UnsupportedTypeError is returned for a filename whose extension is not
// an uploadable package type.
type UnsupportedTypeError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported package type %q for file: %s", e.Extension, e.Filename)
}

// InvalidSlugError is returned for a distro slug that is not "distro/version".
type InvalidSlugError struct {
	Slug string
}

func (e *InvalidSlugError) Error() string {
	return fmt.Sprintf("invalid distribution slug %q, want <distro>/<version>", e.Slug)
}

// DestroyError is returned when a DELETE succeeded at the HTTP level but
// did not answer with the status the service uses for a completed delete.
type DestroyError struct {
	Kind       string
	Name       string
	StatusCode int
}

func (e *DestroyError) Error() string {
	return fmt.Sprintf("destroying %s %s failed: HTTP %d", e.Kind, e.Name, e.StatusCode)
}
