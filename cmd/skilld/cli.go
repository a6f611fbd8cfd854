package main

import (
	"context"
	"io"

	"github.com/skilldhq/skilld"
	"github.com/skilldhq/skilld/pipeline"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	CacheRoot string
	SkillsDir string

	Store   skilld.CacheStore
	Indexer skilld.Indexer
	Syncer  *pipeline.Syncer

	// CachedVersion reports the one cached version for a package name.
	CachedVersion func(name string) (string, bool)

	// ListCached enumerates every cached "name@version" key.
	ListCached func() ([]string, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Sync   SyncCmd   `cmd:"" help:"Fetch, cache and index documentation for packages"`
	Search SearchCmd `cmd:"" help:"Search a package's cached documentation"`
	List   ListCmd   `cmd:"" help:"List cached packages"`
	Clear  ClearCmd  `cmd:"" help:"Remove a package's cached documentation and index"`
	Link   LinkCmd   `cmd:"" help:"Project a cached subdirectory into a target directory"`
	Lock   LockCmd   `cmd:"" help:"Inspect or edit the lockfile"`
}

// SyncCmd is the "sync" subcommand.
type SyncCmd struct {
	Packages    []string `arg:"" help:"Package names, optionally pinned as name@version"`
	Force       bool     `short:"f" help:"Refetch even when the version is already cached"`
	Concurrency int      `short:"c" default:"5" help:"Concurrent package limit"`
	Issues      bool     `help:"Also fetch repository issues"`
	Discussions bool     `help:"Also fetch repository discussions"`
	Releases    bool     `help:"Also fetch release notes"`
	Sections    bool     `help:"Generate summarized sections (requires GEMINI_API_KEY)"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Package string   `arg:"" help:"Package name"`
	Query   string   `arg:"" help:"Search query"`
	Type    []string `short:"t" help:"Filter by document type (doc, issue, discussion, release)"`
	Limit   int      `short:"n" default:"10" help:"Maximum number of hits"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct{}

// ClearCmd is the "clear" subcommand.
type ClearCmd struct {
	Package string `arg:"" help:"Package name"`
}

// LinkCmd is the "link" subcommand.
type LinkCmd struct {
	Package string `arg:"" help:"Package name"`
	Target  string `arg:"" help:"Target directory"`
	Subdir  string `default:"issues" help:"Cached subdirectory to project"`
}

// LockCmd groups the lockfile subcommands.
type LockCmd struct {
	Show   LockShowCmd   `cmd:"" default:"1" help:"Show lockfile records"`
	Remove LockRemoveCmd `cmd:"" help:"Remove an artifact from the lockfile"`
}

// LockShowCmd is the "lock show" subcommand.
type LockShowCmd struct{}

// LockRemoveCmd is the "lock remove" subcommand.
type LockRemoveCmd struct {
	Artifact string `arg:"" help:"Artifact name"`
}
