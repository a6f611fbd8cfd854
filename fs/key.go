// Package fs provides the on-disk cache store for documentation material.
// Every cache path is composed through ResolveCacheDir, which is the single
// trust boundary for filesystem writes: no other component may compose cache
// paths independently.
package fs

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/skilldhq/skilld"
)

var (
	// nameRe accepts optionally scoped package names. Path separators and
	// ".." cannot match.
	nameRe = regexp.MustCompile(`^(?:@[a-z0-9][-a-z0-9._]*/)?[a-z0-9][-a-z0-9._]*$`)

	// versionRe accepts concrete version strings verbatim.
	versionRe = regexp.MustCompile(`^[a-z0-9][-\w.+]*$`)
)

// CacheKey returns the cache key for (name, version): the version string is
// used verbatim, so exact versions are cached separately.
func CacheKey(name, version string) string {
	return name + "@" + version
}

// splitScope splits a package name into its scope (empty for unscoped names)
// and base name.
func splitScope(name string) (scope, base string) {
	if strings.HasPrefix(name, "@") {
		if i := strings.Index(name, "/"); i > 0 {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

// ValidateIdentifiers checks name and version against the identifier
// grammars. Returns EINVALID when either does not match.
func ValidateIdentifiers(name, version string) error {
	if !nameRe.MatchString(name) {
		return skilld.Errorf(skilld.EINVALID, "invalid package name %q", name)
	}
	if !versionRe.MatchString(version) {
		return skilld.Errorf(skilld.EINVALID, "invalid version %q", version)
	}
	return nil
}

// ResolveCacheDir validates (name, version) and composes the cache directory
// for the entry under root. Scoped packages nest one level under their scope:
// root/@scope/<base>@<version>. After composing, the path is re-resolved to
// an absolute path and rejected with ETRAVERSAL unless it lies strictly
// under root.
func ResolveCacheDir(root, name, version string) (string, error) {
	return resolveUnder(root, name, version, "")
}

// ResolveIndexPath composes the search-index database path for (name,
// version) under root, derived through the same key scheme and guards as
// ResolveCacheDir.
func ResolveIndexPath(root, name, version string) (string, error) {
	return resolveUnder(root, name, version, ".db")
}

func resolveUnder(root, name, version, suffix string) (string, error) {
	if err := ValidateIdentifiers(name, version); err != nil {
		return "", err
	}

	scope, base := splitScope(name)
	dir := filepath.Join(root, scope, CacheKey(base, version)+suffix)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absDir, absRoot+string(filepath.Separator)) {
		return "", skilld.Errorf(skilld.ETRAVERSAL, "cache path for %s escapes root %q", CacheKey(name, version), root)
	}

	return absDir, nil
}

// ensureWithin rejects a path unless it lies strictly under dir. It guards
// doc-relative paths and symlink targets with the same policy as
// ResolveCacheDir.
func ensureWithin(dir, path string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, absDir+string(filepath.Separator)) {
		return "", skilld.Errorf(skilld.ETRAVERSAL, "path %q escapes %q", path, dir)
	}
	return abs, nil
}
