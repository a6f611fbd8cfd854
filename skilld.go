// Package skilld keeps a local, versioned mirror of third-party package
// documentation so that downstream tools can consume it offline and
// deterministically. It resolves the best available documentation source for
// a package through a priority cascade, persists the material into a
// version-keyed cache with stale-version eviction, indexes it for search,
// and records provenance in a per-project lockfile.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., fs/, npm/, sqlite/, gemini/).
package skilld
