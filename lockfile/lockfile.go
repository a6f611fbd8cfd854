// Package lockfile reads and writes the skilld-lock.yaml ledger that maps
// each installed artifact to the upstream package(s) and cache version that
// produced it.
//
// The on-disk grammar is a fixed YAML subset. The codec is a small, total
// parser/serializer for that exact schema: an ordered map of artifact names
// to typed fields, with stable key order, so existing lockfiles round-trip
// byte-identically.
package lockfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/skilldhq/skilld"
)

// LockFileName is the lockfile's name inside a skills directory.
const LockFileName = "skilld-lock.yaml"

// Lock is an ordered set of artifact records.
type Lock struct {
	names   []string
	records map[string]skilld.SkillInfo
}

// NewLock returns an empty Lock.
func NewLock() *Lock {
	return &Lock{records: make(map[string]skilld.SkillInfo)}
}

// Names returns artifact names in insertion order.
func (l *Lock) Names() []string {
	return append([]string(nil), l.names...)
}

// Get returns the record for an artifact.
func (l *Lock) Get(artifact string) (skilld.SkillInfo, bool) {
	info, ok := l.records[artifact]
	return info, ok
}

// Len returns the number of records.
func (l *Lock) Len() int {
	return len(l.names)
}

// set inserts or replaces a record, preserving insertion order.
func (l *Lock) set(artifact string, info skilld.SkillInfo) {
	if _, ok := l.records[artifact]; !ok {
		l.names = append(l.names, artifact)
	}
	l.records[artifact] = info
}

// delete removes a record.
func (l *Lock) delete(artifact string) {
	if _, ok := l.records[artifact]; !ok {
		return
	}
	delete(l.records, artifact)
	for i, n := range l.names {
		if n == artifact {
			l.names = append(l.names[:i], l.names[i+1:]...)
			break
		}
	}
}

func lockPath(skillsDir string) string {
	return filepath.Join(skillsDir, LockFileName)
}

// Read loads the lockfile in skillsDir. A missing file yields an empty Lock.
func Read(skillsDir string) (*Lock, error) {
	data, err := os.ReadFile(lockPath(skillsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return NewLock(), nil
		}
		return nil, err
	}
	return parse(data)
}

// Write records info for artifact, merging with any existing record, and
// rewrites the whole lockfile. Concurrent writers to the same lockfile are
// not synchronized; callers must serialize.
//
// Merge semantics: when the existing record's PackageName differs from the
// incoming one, the incoming package is appended to Packages, the primary
// PackageName/Version keep the first-ever inserted package, and descriptive
// fields are preserved from the existing record unless the incoming write
// explicitly supplies them.
func Write(skillsDir, artifact string, info skilld.SkillInfo) error {
	lock, err := Read(skillsDir)
	if err != nil {
		return err
	}

	existing, ok := lock.Get(artifact)
	if ok && existing.PackageName != info.PackageName {
		info = merge(existing, info)
	}
	lock.set(artifact, info)

	return save(skillsDir, lock)
}

// merge folds an incoming record for a different package into the existing
// artifact record.
func merge(existing, incoming skilld.SkillInfo) skilld.SkillInfo {
	merged := existing

	pairs := existing.Packages
	if pairs == "" {
		pairs = existing.PackageName + "@" + existing.Version
	}
	pair := incoming.PackageName + "@" + incoming.Version
	if !containsPair(pairs, pair) {
		pairs += ", " + pair
	}
	merged.Packages = pairs

	if incoming.Repo != "" {
		merged.Repo = incoming.Repo
	}
	if incoming.Source != "" {
		merged.Source = incoming.Source
	}
	if incoming.Generator != "" {
		merged.Generator = incoming.Generator
	}
	if incoming.Path != "" {
		merged.Path = incoming.Path
	}
	if incoming.Ref != "" {
		merged.Ref = incoming.Ref
	}
	if incoming.Commit != "" {
		merged.Commit = incoming.Commit
	}
	if incoming.SyncedAt != "" {
		merged.SyncedAt = incoming.SyncedAt
	}

	return merged
}

func containsPair(pairs, pair string) bool {
	for _, p := range strings.Split(pairs, ",") {
		if strings.TrimSpace(p) == pair {
			return true
		}
	}
	return false
}

// Remove deletes the record for artifact. When the last record is removed
// the lockfile file itself is deleted rather than left as an empty shell.
func Remove(skillsDir, artifact string) error {
	lock, err := Read(skillsDir)
	if err != nil {
		return err
	}
	if _, ok := lock.Get(artifact); !ok {
		return skilld.Errorf(skilld.ENOTFOUND, "artifact %q not in lockfile", artifact)
	}

	lock.delete(artifact)

	if lock.Len() == 0 {
		if err := os.Remove(lockPath(skillsDir)); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	return save(skillsDir, lock)
}

// MergeLocks reconciles multiple lockfiles for the same logical target. For
// each artifact name the record with the most recent SyncedAt wins; a
// missing SyncedAt is older than any present value. SyncedAt dates are
// YYYY-MM-DD, so lexicographic comparison agrees with chronological order.
func MergeLocks(locks ...*Lock) *Lock {
	merged := NewLock()
	for _, lock := range locks {
		if lock == nil {
			continue
		}
		for _, name := range lock.names {
			incoming := lock.records[name]
			existing, ok := merged.records[name]
			if !ok || incoming.SyncedAt > existing.SyncedAt {
				merged.set(name, incoming)
			}
		}
	}
	return merged
}

// save rewrites the whole lockfile atomically via a temp file and rename.
func save(skillsDir string, lock *Lock) error {
	if err := os.MkdirAll(skillsDir, 0o700); err != nil {
		return err
	}

	path := lockPath(skillsDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, serialize(lock), 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
