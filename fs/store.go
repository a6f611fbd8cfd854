package fs

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/skilldhq/skilld"
)

// Ensure Store implements skilld.CacheStore at compile time.
var _ skilld.CacheStore = (*Store)(nil)

// Store owns the on-disk cache layout under one root directory. Entries are
// keyed name@version; at most one entry exists per package name, enforced by
// stale-version eviction after every write.
//
// Writes for the same package name are serialized by a per-name mutex so a
// concurrent pipeline cannot interleave its write with another's eviction.
// Concurrent OS processes sharing the root are not synchronized.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at root (typically <cacheDir>/references).
func NewStore(root string) *Store {
	return &Store{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// nameLock returns the mutex serializing writes for one package name.
func (s *Store) nameLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// IsCached reports whether an entry exists for (name, version).
func (s *Store) IsCached(name, version string) bool {
	dir, err := ResolveCacheDir(s.root, name, version)
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// HasSubdir reports whether the entry has the given subdirectory.
func (s *Store) HasSubdir(name, version, subdir string) bool {
	dir, err := ResolveCacheDir(s.root, name, version)
	if err != nil {
		return false
	}
	path, err := ensureWithin(dir, filepath.Join(dir, subdir))
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Write persists docs into the entry for (name, version), then evicts stale
// sibling versions of the same name. New data is durable before old data for
// other versions is removed, so a crash mid-eviction never loses the
// just-written version.
func (s *Store) Write(ctx context.Context, name, version string, docs []skilld.Doc) (string, error) {
	dir, err := ResolveCacheDir(s.root, name, version)
	if err != nil {
		return "", err
	}

	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		path, err := ensureWithin(dir, filepath.Join(dir, doc.Path))
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return "", err
		}
		if err := os.WriteFile(path, []byte(doc.Content), 0o600); err != nil {
			return "", err
		}
	}

	if err := s.cleanStaleVersions(name, version); err != nil {
		return "", err
	}

	return dir, nil
}

// CleanStaleVersions deletes every sibling entry of name cached at a
// different version. This is the sole eviction mechanism: one cached version
// per package name, no TTL, no LRU.
func (s *Store) CleanStaleVersions(name, version string) error {
	if err := ValidateIdentifiers(name, version); err != nil {
		return err
	}

	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	return s.cleanStaleVersions(name, version)
}

// cleanStaleVersions scans the parent directory (the scope subdirectory for
// scoped names) for entries whose name is prefixed name+"@" and is not the
// current cache key, and deletes each. Caller must hold the name lock.
func (s *Store) cleanStaleVersions(name, version string) error {
	scope, base := splitScope(name)
	parent := filepath.Join(s.root, scope)
	current := CacheKey(base, version)
	prefix := base + "@"

	entries, err := os.ReadDir(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix) || entry.Name() == current {
			continue
		}
		if err := os.RemoveAll(filepath.Join(parent, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// Read recursively walks the entry and returns every .md and .mdx file,
// keyed by path relative to the entry directory. Returns ENOTFOUND when the
// entry does not exist.
func (s *Store) Read(ctx context.Context, name, version string) ([]skilld.Doc, error) {
	dir, err := ResolveCacheDir(s.root, name, version)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, skilld.Errorf(skilld.ENOTFOUND, "no cache entry for %s", CacheKey(name, version))
	}

	var docs []skilld.Doc
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".md" && ext != ".mdx" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, skilld.Doc{Path: filepath.ToSlash(rel), Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// Clear deletes the entry for (name, version). Reports whether it existed.
func (s *Store) Clear(name, version string) (bool, error) {
	dir, err := ResolveCacheDir(s.root, name, version)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, err
	}
	return true, nil
}

// CachedVersion returns the version currently cached for name, if any.
func (s *Store) CachedVersion(name string) (string, bool) {
	scope, base := splitScope(name)
	parent := filepath.Join(s.root, scope)
	prefix := base + "@"

	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			return strings.TrimPrefix(entry.Name(), prefix), true
		}
	}
	return "", false
}

// List returns every cache key under the root, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), "@") {
			scoped, err := os.ReadDir(filepath.Join(s.root, entry.Name()))
			if err != nil {
				return nil, err
			}
			for _, sub := range scoped {
				if sub.IsDir() {
					keys = append(keys, entry.Name()+"/"+sub.Name())
				}
			}
			continue
		}
		keys = append(keys, entry.Name())
	}

	sort.Strings(keys)
	return keys, nil
}

// LinkInto projects the entry's subdir into targetDir/subdir. A pre-existing
// link or file at the target is removed first. When the cached subdir does
// not exist nothing is created, leaving the target absent rather than
// broken. Symlink failure falls back to a directory copy.
func (s *Store) LinkInto(targetDir, name, version, subdir string) (skilld.LinkResult, error) {
	dir, err := ResolveCacheDir(s.root, name, version)
	if err != nil {
		return skilld.LinkSkipped, err
	}
	src, err := ensureWithin(dir, filepath.Join(dir, subdir))
	if err != nil {
		return skilld.LinkSkipped, err
	}
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return skilld.LinkSkipped, nil
	}

	target := filepath.Join(targetDir, subdir)
	if err := os.MkdirAll(targetDir, 0o700); err != nil {
		return skilld.LinkSkipped, err
	}
	if err := os.RemoveAll(target); err != nil {
		return skilld.LinkSkipped, err
	}

	if err := os.Symlink(src, target); err == nil {
		return skilld.LinkCreated, nil
	}

	if err := copyDir(src, target); err != nil {
		return skilld.LinkSkipped, err
	}
	return skilld.LinkCopied, nil
}

// copyDir recursively copies src to dst.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(out, 0o700)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		w, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return err
		}
		defer w.Close()
		_, err = io.Copy(w, in)
		return err
	})
}
