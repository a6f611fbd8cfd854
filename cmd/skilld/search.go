package main

import (
	"fmt"

	"github.com/skilldhq/skilld"
	"github.com/skilldhq/skilld/fs"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	version, ok := deps.CachedVersion(c.Package)
	if !ok {
		return skilld.Errorf(skilld.ENOTFOUND, "package %q is not cached. Run 'skilld sync %s' first", c.Package, c.Package)
	}

	dbPath, err := fs.ResolveIndexPath(deps.CacheRoot, c.Package, version)
	if err != nil {
		return err
	}

	var types []skilld.DocType
	for _, t := range c.Type {
		types = append(types, skilld.DocType(t))
	}

	hits, err := deps.Indexer.Search(deps.Ctx, dbPath, c.Query, skilld.SearchOptions{
		Types: types,
		Limit: c.Limit,
	})
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}

	for _, hit := range hits {
		fmt.Fprintf(deps.Stdout, "[%s] %s\n    %s\n", hit.Type, hit.Title, hit.Snippet)
	}
	return nil
}
