package main

import (
	"fmt"

	"github.com/skilldhq/skilld"
)

// Run executes the link command.
func (c *LinkCmd) Run(deps *Dependencies) error {
	version, ok := deps.CachedVersion(c.Package)
	if !ok {
		return skilld.Errorf(skilld.ENOTFOUND, "package %q is not cached. Run 'skilld sync %s' first", c.Package, c.Package)
	}

	result, err := deps.Store.LinkInto(c.Target, c.Package, version, c.Subdir)
	if err != nil {
		return err
	}

	switch result {
	case skilld.LinkSkipped:
		fmt.Fprintf(deps.Stdout, "%s@%s has no %s/ directory, nothing linked\n", c.Package, version, c.Subdir)
	case skilld.LinkCopied:
		fmt.Fprintf(deps.Stdout, "%s/%s copied (symlinks unavailable)\n", c.Target, c.Subdir)
	default:
		fmt.Fprintf(deps.Stdout, "%s/%s linked\n", c.Target, c.Subdir)
	}
	return nil
}
