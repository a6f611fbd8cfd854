package main

import (
	"fmt"

	"github.com/skilldhq/skilld/lockfile"
)

// Run executes the "lock show" command.
func (c *LockShowCmd) Run(deps *Dependencies) error {
	lock, err := lockfile.Read(deps.SkillsDir)
	if err != nil {
		return err
	}

	if lock.Len() == 0 {
		fmt.Fprintln(deps.Stdout, "Lockfile is empty.")
		return nil
	}

	for _, name := range lock.Names() {
		info, _ := lock.Get(name)
		packages := info.Packages
		if packages == "" {
			packages = info.PackageName + "@" + info.Version
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", name, packages, info.Source, info.SyncedAt)
	}
	return nil
}

// Run executes the "lock remove" command.
func (c *LockRemoveCmd) Run(deps *Dependencies) error {
	if err := lockfile.Remove(deps.SkillsDir, c.Artifact); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "%s removed from lockfile\n", c.Artifact)
	return nil
}
