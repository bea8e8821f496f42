package infrastructure

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/apperr"
)

// PathPolicy confines file paths to a storage root.
//
// Paths are canonicalized lexically: symbolic links below the root are not
// resolved, so a link pointing outside the root is still accepted.
type PathPolicy struct {
	root string // absolute, cleaned, '/'-separated
}

// NewPathPolicy canonicalizes root. Relative roots are taken from the working directory.
func NewPathPolicy(root string) (*PathPolicy, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is empty")
	}
	abs, err := filepath.Abs(filepath.FromSlash(toSlash(root)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %q: %w", root, err)
	}
	return &PathPolicy{root: filepath.ToSlash(filepath.Clean(abs))}, nil
}

// Root returns the canonical storage root.
func (p *PathPolicy) Root() string {
	return p.root
}

// Resolve canonicalizes candidate and checks that it lies strictly below the
// root. Relative candidates are taken relative to the root. The result always
// uses '/' as separator.
func (p *PathPolicy) Resolve(candidate string) (string, error) {
	c := toSlash(strings.TrimSpace(candidate))
	if c == "" {
		return "", apperr.PathRejected(candidate, p.root)
	}
	if !filepath.IsAbs(filepath.FromSlash(c)) && !path.IsAbs(c) {
		c = p.root + "/" + c
	}

	abs, err := filepath.Abs(filepath.FromSlash(c))
	if err != nil {
		return "", apperr.PathRejected(candidate, p.root)
	}
	resolved := filepath.ToSlash(filepath.Clean(abs))

	if !p.contains(resolved) {
		return "", apperr.PathRejected(candidate, p.root)
	}
	return resolved, nil
}

// Target works out where a record's file lives. An empty candidate means
// {root}/{name}{fileType}; a candidate ending in a separator is a directory
// and gets {name}{fileType} appended. The result is passed through Resolve.
func (p *PathPolicy) Target(candidate, name, fileType string) (string, error) {
	c := toSlash(strings.TrimSpace(candidate))
	switch {
	case c == "":
		c = p.root + "/" + name + fileType
	case IsDirectoryPath(c):
		c = c + name + fileType
	}
	return p.Resolve(c)
}

// contains compares case-insensitively; roots may sit on case-insensitive
// filesystems. The separator boundary keeps /data from containing /data-other.
func (p *PathPolicy) contains(resolved string) bool {
	prefix := strings.ToLower(strings.TrimSuffix(p.root, "/") + "/")
	lower := strings.ToLower(resolved)
	return strings.HasPrefix(lower, prefix) && len(lower) > len(prefix)
}

// IsDirectoryPath reports whether p names a directory by its trailing separator.
func IsDirectoryPath(p string) bool {
	return strings.HasSuffix(p, "/") || strings.HasSuffix(p, `\`)
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
