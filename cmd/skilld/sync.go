package main

import (
	"fmt"
	"strings"

	"github.com/skilldhq/skilld"
	"github.com/skilldhq/skilld/pipeline"
)

// Run executes the sync command.
func (c *SyncCmd) Run(deps *Dependencies) error {
	names, version, err := splitPins(c.Packages)
	if err != nil {
		return err
	}

	deps.Syncer.Progress = func(event skilld.ProgressEvent) {
		switch event.Phase {
		case skilld.StatusDone:
			fmt.Fprintf(deps.Stdout, "%s@%s synced\n", event.Package, event.Version)
		case skilld.StatusError:
			fmt.Fprintf(deps.Stderr, "%s failed: %s\n", event.Package, event.Message)
		}
	}

	result, err := deps.Syncer.SyncMany(deps.Ctx, names, pipeline.FetchOptions{
		Version:          version,
		Force:            c.Force,
		WithIssues:       c.Issues,
		WithDiscussions:  c.Discussions,
		WithReleases:     c.Releases,
		GenerateSections: c.Sections,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "%d/%d packages synced\n", result.Succeeded, result.Total)
	if len(result.Failures) > 0 {
		return fmt.Errorf("%d package(s) failed", len(result.Failures))
	}
	return nil
}

// splitPins separates name@version pins from plain names. A version pin is
// only supported when syncing a single package; mixed multi-package pins
// would be ambiguous in progress output.
func splitPins(packages []string) (names []string, version string, err error) {
	for _, pkg := range packages {
		name, ver := splitPin(pkg)
		if ver != "" {
			if len(packages) > 1 {
				return nil, "", skilld.Errorf(skilld.EINVALID, "version pin %q requires syncing a single package", pkg)
			}
			return []string{name}, ver, nil
		}
		names = append(names, name)
	}
	return names, "", nil
}

// splitPin splits "name@version", keeping scoped names intact.
func splitPin(pkg string) (name, version string) {
	if i := strings.LastIndex(pkg, "@"); i > 0 {
		return pkg[:i], pkg[i+1:]
	}
	return pkg, ""
}
