package main

import (
	"fmt"

	"github.com/skilldhq/skilld"
	"github.com/skilldhq/skilld/fs"
)

// Run executes the clear command.
func (c *ClearCmd) Run(deps *Dependencies) error {
	name, version := splitPin(c.Package)
	if version == "" {
		cached, ok := deps.CachedVersion(name)
		if !ok {
			return skilld.Errorf(skilld.ENOTFOUND, "package %q is not cached", name)
		}
		version = cached
	}

	existed, err := deps.Store.Clear(name, version)
	if err != nil {
		return err
	}
	if !existed {
		return skilld.Errorf(skilld.ENOTFOUND, "package %q is not cached at version %s", name, version)
	}

	dbPath, err := fs.ResolveIndexPath(deps.CacheRoot, name, version)
	if err != nil {
		return err
	}
	if _, err := deps.Indexer.RemoveIndex(dbPath); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s@%s cleared\n", name, version)
	return nil
}
