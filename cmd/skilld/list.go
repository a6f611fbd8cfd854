package main

import "fmt"

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	keys, err := deps.ListCached()
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		fmt.Fprintln(deps.Stdout, "No packages cached. Use 'skilld sync' to add one.")
		return nil
	}

	for _, key := range keys {
		fmt.Fprintln(deps.Stdout, key)
	}
	return nil
}
