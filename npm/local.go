package npm

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/skilldhq/skilld"
)

// Ensure LocalResolver implements skilld.LocalResolver at compile time.
var _ skilld.LocalResolver = (*LocalResolver)(nil)

// LocalResolver resolves packages declared with the link: protocol in a
// consumer manifest. It is the cascade's lowest-priority path, invoked only
// when the registry reports the package missing.
type LocalResolver struct{}

// NewLocalResolver creates a LocalResolver.
func NewLocalResolver() *LocalResolver {
	return &LocalResolver{}
}

// manifest is a package.json trimmed to the fields local resolution needs.
type manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Homepage        string            `json:"homepage"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Repository      struct {
		URL string `json:"url"`
	} `json:"repository"`
}

func readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, skilld.Errorf(skilld.ENOTFOUND, "no package.json in %q", dir)
		}
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, skilld.Errorf(skilld.EINVALID, "malformed package.json in %q: %v", dir, err)
	}
	return &m, nil
}

// ResolveLocal resolves name from the consumer manifest at cwd: the package
// must be declared as a link: dependency, and metadata comes from the linked
// directory's own manifest. The linked package's README, when present, is
// returned as its documentation.
func (r *LocalResolver) ResolveLocal(ctx context.Context, name, cwd string) (*skilld.ResolvedPackage, []skilld.Doc, error) {
	consumer, err := readManifest(cwd)
	if err != nil {
		return nil, nil, err
	}

	spec, ok := consumer.Dependencies[name]
	if !ok {
		spec, ok = consumer.DevDependencies[name]
	}
	if !ok || !strings.HasPrefix(spec, "link:") {
		return nil, nil, skilld.Errorf(skilld.ENOTFOUND, "%q is not a link: dependency of %q", name, cwd)
	}

	target := strings.TrimPrefix(spec, "link:")
	if !filepath.IsAbs(target) {
		target = filepath.Join(cwd, target)
	}

	linked, err := readManifest(target)
	if err != nil {
		return nil, nil, err
	}

	version := linked.Version
	if version == "" {
		version = "0.0.0-local"
	}

	pkg := &skilld.ResolvedPackage{
		Name:        name,
		Version:     version,
		Description: linked.Description,
		RepoURL:     normalizeRepoURL(linked.Repository.URL),
		DocsURL:     filterDocsURL(linked.Homepage),
	}

	var docs []skilld.Doc
	for _, candidate := range []string{"README.md", "readme.md", "Readme.md"} {
		content, err := os.ReadFile(filepath.Join(target, candidate))
		if err == nil {
			docs = append(docs, skilld.Doc{Path: "docs/README.md", Content: string(content)})
			break
		}
	}

	return pkg, docs, nil
}
