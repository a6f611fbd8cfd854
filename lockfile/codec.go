package lockfile

import (
	"strings"

	"github.com/skilldhq/skilld"
)

// fieldOrder fixes the serialized key order so lockfiles diff cleanly.
var fieldOrder = []string{
	"packageName", "version", "packages", "repo", "source",
	"syncedAt", "generator", "path", "ref", "commit",
}

// serialize renders a Lock in the skilld-lock.yaml grammar:
//
//	skills:
//	  <artifactName>:
//	    packageName: <string>
//	    version: <string>
//	    packages: "<name>@<version>, <name>@<version>"
//	    ...
func serialize(lock *Lock) []byte {
	var b strings.Builder
	b.WriteString("skills:\n")

	for _, name := range lock.names {
		info := lock.records[name]
		b.WriteString("  ")
		b.WriteString(name)
		b.WriteString(":\n")
		for _, key := range fieldOrder {
			value := fieldValue(info, key)
			if value == "" {
				continue
			}
			b.WriteString("    ")
			b.WriteString(key)
			b.WriteString(": ")
			b.WriteString(quoteIfNeeded(value))
			b.WriteString("\n")
		}
	}

	return []byte(b.String())
}

func fieldValue(info skilld.SkillInfo, key string) string {
	switch key {
	case "packageName":
		return info.PackageName
	case "version":
		return info.Version
	case "packages":
		return info.Packages
	case "repo":
		return info.Repo
	case "source":
		return info.Source
	case "syncedAt":
		return info.SyncedAt
	case "generator":
		return info.Generator
	case "path":
		return info.Path
	case "ref":
		return info.Ref
	case "commit":
		return info.Commit
	}
	return ""
}

func setField(info *skilld.SkillInfo, key, value string) {
	switch key {
	case "packageName":
		info.PackageName = value
	case "version":
		info.Version = value
	case "packages":
		info.Packages = value
	case "repo":
		info.Repo = value
	case "source":
		info.Source = value
	case "syncedAt":
		info.SyncedAt = value
	case "generator":
		info.Generator = value
	case "path":
		info.Path = value
	case "ref":
		info.Ref = value
	case "commit":
		info.Commit = value
	}
	// Unknown keys are preserved-by-ignoring: the parser is total over the
	// schema and skips anything it does not model.
}

// quoteIfNeeded double-quotes values that YAML would otherwise mangle.
// Multi-package lists always quote, matching the historical on-disk shape.
func quoteIfNeeded(value string) string {
	if strings.ContainsAny(value, ",#:") || strings.TrimSpace(value) != value {
		return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	return value
}

func unquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return strings.ReplaceAll(value[1:len(value)-1], `\"`, `"`)
	}
	if len(value) >= 2 && strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") {
		return value[1 : len(value)-1]
	}
	return value
}

// parse reads the grammar back. Blank lines and comments are tolerated;
// content outside the skills: block is ignored.
func parse(data []byte) (*Lock, error) {
	lock := NewLock()

	var (
		inSkills bool
		artifact string
		current  skilld.SkillInfo
	)

	flush := func() {
		if artifact != "" {
			lock.set(artifact, current)
			artifact = ""
			current = skilld.SkillInfo{}
		}
	}

	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		switch {
		case !strings.HasPrefix(line, " "):
			flush()
			inSkills = trimmed == "skills:"

		case inSkills && strings.HasPrefix(line, "    "):
			if artifact == "" {
				return nil, skilld.Errorf(skilld.EINVALID, "lockfile field %q outside an artifact record", trimmed)
			}
			key, value, ok := strings.Cut(trimmed, ":")
			if !ok {
				return nil, skilld.Errorf(skilld.EINVALID, "malformed lockfile line %q", trimmed)
			}
			setField(&current, strings.TrimSpace(key), unquote(strings.TrimSpace(value)))

		case inSkills && strings.HasPrefix(line, "  "):
			flush()
			name, ok := strings.CutSuffix(trimmed, ":")
			if !ok {
				return nil, skilld.Errorf(skilld.EINVALID, "malformed artifact name line %q", trimmed)
			}
			artifact = name
		}
	}
	flush()

	return lock, nil
}
