package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/skilldhq/skilld/fs"
	"github.com/skilldhq/skilld/gemini"
	"github.com/skilldhq/skilld/github"
	"github.com/skilldhq/skilld/llmstxt"
	"github.com/skilldhq/skilld/npm"
	"github.com/skilldhq/skilld/pipeline"
	"github.com/skilldhq/skilld/resolve"
	skilldslog "github.com/skilldhq/skilld/slog"
	"github.com/skilldhq/skilld/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// CacheRoot is where documentation and search indexes live. Set before
	// calling Run().
	CacheRoot string

	// SkillsDir is where the lockfile lives.
	SkillsDir string
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		CacheRoot: defaultCacheRoot(),
		SkillsDir: defaultSkillsDir(),
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:       ctx,
		Stdout:    stdout,
		Stderr:    stderr,
		SkillsDir: m.SkillsDir,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("skilld"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'skilld --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := newLogger(stderr)

	// Documentation entries and their index databases live under
	// <cache>/references, keyed by name@version.
	referencesRoot := filepath.Join(m.CacheRoot, "references")
	deps.CacheRoot = referencesRoot

	store := fs.NewStore(referencesRoot)
	deps.Store = store
	deps.CachedVersion = store.CachedVersion
	deps.ListCached = store.List
	deps.Indexer = sqlite.NewIndexer()

	if cmd == "sync" {
		registryOpts := []npm.Option{}
		if registry := os.Getenv("SKILLD_REGISTRY"); registry != "" {
			registryOpts = append(registryOpts, npm.WithBaseURL(registry))
		}

		githubOpts := []github.Option{}
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			githubOpts = append(githubOpts, github.WithToken(token))
		}
		gh := github.NewClient(githubOpts...)

		cascade := &resolve.Cascade{
			Registry: npm.NewClient(registryOpts...),
			GitDocs:  gh,
			LlmsTxt:  llmstxt.NewFetcher(),
			Readme:   gh,
			Local:    npm.NewLocalResolver(),
		}

		fetcher := &pipeline.Fetcher{
			Resolver:  skilldslog.NewLoggingResolver(cascade, logger),
			Store:     skilldslog.NewLoggingStore(store, logger),
			Indexer:   deps.Indexer,
			Resources: gh,
			CacheRoot: referencesRoot,
			SkillsDir: m.SkillsDir,
		}

		if cli.Sync.Sections {
			apiKey := os.Getenv("GEMINI_API_KEY")
			if apiKey == "" {
				return fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
			}
			client, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
				return fmt.Errorf("failed to connect to Gemini API: %w", err)
			}
			fetcher.Summarizer = gemini.NewSummarizer(client)
		}

		deps.Syncer = &pipeline.Syncer{
			Fetcher:     fetcher,
			Concurrency: cli.Sync.Concurrency,
		}
	}

	return kongCtx.Run(deps)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("SKILLD_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func defaultCacheRoot() string {
	if path := os.Getenv("SKILLD_CACHE_DIR"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skilld-cache"
	}
	return filepath.Join(home, ".skilld", "cache")
}

func defaultSkillsDir() string {
	if path := os.Getenv("SKILLD_SKILLS_DIR"); path != "" {
		return path
	}
	return "."
}
