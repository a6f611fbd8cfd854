package skilld

// SkillInfo is one lockfile record: it maps an installed artifact to the
// upstream package(s), version and source that produced it.
//
// When multiple upstream packages are attributed to one artifact, Packages
// accumulates every "name@version" pair while PackageName and Version keep
// the identity of the first-ever inserted package. Records are mutated only
// through the lockfile's merge-write operation.
type SkillInfo struct {
	PackageName string
	Version     string

	// Packages is a comma-joined "name@version" list, set only for
	// multi-package bundles.
	Packages string

	Repo   string
	Source string

	// SyncedAt is a YYYY-MM-DD date. The ISO form makes lexicographic
	// comparison agree with chronological order, which MergeLocks relies on.
	SyncedAt string

	Generator string
	Path      string
	Ref       string
	Commit    string
}
