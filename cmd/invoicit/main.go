// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/invoicit"
	"github.com/poiesic/invoicit/ai/openai"
	"github.com/poiesic/invoicit/config"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/packs"
	"github.com/poiesic/invoicit/registry"
	"github.com/poiesic/invoicit/reindex"
	"github.com/poiesic/invoicit/requirements"
	"github.com/poiesic/invoicit/storage/badger"
	"github.com/poiesic/invoicit/web"
)

func main() {
	app := &cli.App{
		Name:  "invoicit",
		Usage: "RAG assistant for invoice data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "Path to dotenv file with INVOICIT_* variables",
				Value:   ".env",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the chat web interface",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides INVOICIT_HTTP_ADDR)",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask the assistant a question",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "plain",
						Usage: "Answer with retrieval QA only, without planning or conversation memory",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search invoice documents without asking the model",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top",
						Usage: "Maximum number of results",
						Value: 5,
					},
				},
			},
			{
				Name:  "packs",
				Usage: "Manage knowledge packs",
				Subcommands: []*cli.Command{
					{
						Name:   "install",
						Usage:  "Resolve the manifest and install the pinned pack versions",
						Action: packsInstallCommand,
						Flags:  packsFlags(),
					},
					{
						Name:   "resolve",
						Usage:  "Resolve the manifest and print the pins without installing",
						Action: packsResolveCommand,
						Flags:  packsFlags(),
					},
					{
						Name:   "verify",
						Usage:  "Check that the manifest is valid and satisfiable against the registry",
						Action: packsVerifyCommand,
						Flags:  packsFlags(),
					},
					{
						Name:   "list",
						Usage:  "List installed packs",
						Action: packsListCommand,
					},
					{
						Name:      "remove",
						Usage:     "Remove an installed pack and its documents",
						ArgsUsage: "NAME",
						Action:    packsRemoveCommand,
					},
				},
			},
			{
				Name:  "reindex",
				Usage: "Rebuild derived document indexes",
				Subcommands: []*cli.Command{
					{
						Name:   "embeddings",
						Usage:  "Regenerate the embedding vector of every document",
						Action: reindexEmbeddingsCommand,
						Flags:  reindexFlags(),
					},
					{
						Name:   "terms",
						Usage:  "Retokenize every document and rewrite the term index",
						Action: reindexTermsCommand,
						Flags:  reindexFlags(),
					},
				},
			},
			{
				Name:  "history",
				Usage: "Inspect or clear the conversation history",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print recent conversation turns",
						Action: historyShowCommand,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  "limit",
								Usage: "Number of turns to show",
								Value: 20,
							},
						},
					},
					{
						Name:   "clear",
						Usage:  "Delete the entire conversation history",
						Action: historyClearCommand,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func packsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "manifest",
			Usage: "Pack manifest path (overrides INVOICIT_PACK_MANIFEST)",
		},
		&cli.StringFlag{
			Name:  "registry",
			Usage: "Registry directory or base URL (overrides INVOICIT_REGISTRY)",
		},
	}
}

func reindexFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of documents to process in each batch",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N documents",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed operations",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func openAssistant(cfg *config.Config) (*invoicit.Assistant, error) {
	assistant, err := invoicit.NewAssistant(cfg.DBPath, invoicit.WithAIConfig(cfg.AIConfig()))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	return assistant, nil
}

// openRegistry picks the registry implementation from the location: an
// http(s) URL gets the HTTP client, anything else is a local directory.
func openRegistry(location string) (registry.Registry, error) {
	if location == "" {
		return nil, fmt.Errorf("registry location is required (set INVOICIT_REGISTRY or --registry)")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return registry.NewHTTPRegistry(location), nil
	}
	return registry.NewDirectoryRegistry(location), nil
}

func loadManifest(path string) (*requirements.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", path, err)
	}
	defer f.Close()

	file, err := requirements.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s:\n%w", path, err)
	}
	return file, nil
}

// lockfilePathFor places the lockfile next to the manifest, swapping the
// extension for .lock.
func lockfilePathFor(manifestPath string) string {
	ext := filepath.Ext(manifestPath)
	return strings.TrimSuffix(manifestPath, ext) + ".lock"
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	assistant, err := openAssistant(cfg)
	if err != nil {
		return err
	}
	defer assistant.Close()

	retriever, err := assistant.NewRetriever()
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}
	chatAgent, err := assistant.NewAgent()
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	server, err := web.NewServer(
		chatAgent,
		retriever,
		assistant.DocumentRepository(),
		assistant.ConversationRepository(),
		assistant.PackRepository(),
		cfg,
	)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	addr := c.String("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, addr)
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("question is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	assistant, err := openAssistant(cfg)
	if err != nil {
		return err
	}
	defer assistant.Close()

	ctx := context.Background()

	if c.Bool("plain") {
		chain, err := assistant.NewRetrievalQA()
		if err != nil {
			return fmt.Errorf("failed to create QA chain: %w", err)
		}
		answer, err := chain.Answer(ctx, question)
		if err != nil {
			return fmt.Errorf("question failed: %w", err)
		}
		fmt.Println(answer.Text)
		printSources(answer.Sources)
		return nil
	}

	chatAgent, err := assistant.NewAgent()
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	reply, err := chatAgent.Chat(ctx, question)
	if err != nil {
		return fmt.Errorf("question failed: %w", err)
	}
	fmt.Println(reply.Text)
	printSources(reply.Sources)
	return nil
}

func printSources(sources []*core.ScoredDocument) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for i, source := range sources {
		fmt.Printf("%d: [%0.3f] %s\n", i+1, source.Score, source.Document.Contents)
	}
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	assistant, err := openAssistant(cfg)
	if err != nil {
		return err
	}
	defer assistant.Close()

	retriever, err := assistant.NewRetriever()
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}

	results, err := retriever.Retrieve(context.Background(), query, c.Int("top"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%d)[%0.3f]\n", i, hit.Document.Contents, hit.Document.Id, hit.Score)
	}
	return nil
}

func packsInstallCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	manifestPath := c.String("manifest")
	if manifestPath == "" {
		manifestPath = cfg.PackManifest
	}
	registryLocation := c.String("registry")
	if registryLocation == "" {
		registryLocation = cfg.Registry
	}

	file, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}
	reg, err := openRegistry(registryLocation)
	if err != nil {
		return err
	}

	assistant, err := openAssistant(cfg)
	if err != nil {
		return err
	}
	defer assistant.Close()

	pipeline, err := assistant.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	installer, err := packs.NewInstaller(
		reg,
		pipeline,
		assistant.PackRepository(),
		assistant.DocumentRepository(),
		packs.WithLockfile(lockfilePathFor(manifestPath)),
	)
	if err != nil {
		return fmt.Errorf("failed to create installer: %w", err)
	}

	result, err := installer.Install(context.Background(), file)
	if err != nil {
		return err
	}

	for _, record := range result.Installed {
		fmt.Printf("installed %s (%d documents)\n", record.Pin(), record.Documents)
	}
	for _, record := range result.Skipped {
		fmt.Printf("up to date %s\n", record.Pin())
	}
	fmt.Printf("%d installed, %d already current\n", len(result.Installed), len(result.Skipped))
	return nil
}

func packsResolveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	manifestPath := c.String("manifest")
	if manifestPath == "" {
		manifestPath = cfg.PackManifest
	}
	registryLocation := c.String("registry")
	if registryLocation == "" {
		registryLocation = cfg.Registry
	}

	file, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := file.Validate(); err != nil {
		return err
	}
	reg, err := openRegistry(registryLocation)
	if err != nil {
		return err
	}

	resolution, err := packs.Resolve(context.Background(), file, reg)
	if err != nil {
		return err
	}

	return resolution.Encode(os.Stdout)
}

func packsVerifyCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	manifestPath := c.String("manifest")
	if manifestPath == "" {
		manifestPath = cfg.PackManifest
	}
	registryLocation := c.String("registry")
	if registryLocation == "" {
		registryLocation = cfg.Registry
	}

	file, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := file.Validate(); err != nil {
		return err
	}
	reg, err := openRegistry(registryLocation)
	if err != nil {
		return err
	}

	if _, err := packs.Resolve(context.Background(), file, reg); err != nil {
		return err
	}

	fmt.Println("OK: all pack requirements are satisfiable")
	return nil
}

func packsListCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	assistant, err := openAssistant(cfg)
	if err != nil {
		return err
	}
	defer assistant.Close()

	installs, err := assistant.PackRepository().ListInstalls(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list packs: %w", err)
	}
	if len(installs) == 0 {
		fmt.Println("No packs installed.")
		return nil
	}

	fmt.Printf("%-30s %-12s %9s  %s\n", "NAME", "VERSION", "DOCUMENTS", "INSTALLED")
	for _, record := range installs {
		fmt.Printf("%-30s %-12s %9d  %s\n",
			record.Name, record.Version, record.Documents,
			record.InstalledAt.Format(time.RFC3339))
	}
	return nil
}

func packsRemoveCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("pack name is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Remove never queries the registry, but the installer requires one.
	reg, err := openRegistry(cfg.Registry)
	if err != nil {
		return err
	}

	assistant, err := openAssistant(cfg)
	if err != nil {
		return err
	}
	defer assistant.Close()

	pipeline, err := assistant.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	installer, err := packs.NewInstaller(
		reg,
		pipeline,
		assistant.PackRepository(),
		assistant.DocumentRepository(),
	)
	if err != nil {
		return fmt.Errorf("failed to create installer: %w", err)
	}

	record, err := installer.Remove(context.Background(), name)
	if err != nil {
		return err
	}

	fmt.Printf("removed %s (%d documents)\n", record.Pin(), record.Documents)
	return nil
}

func reindexEmbeddingsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	reindexConfig, err := reindexConfigFromFlags(c)
	if err != nil {
		return err
	}

	// Open database
	backend, err := badger.OpenBackend(cfg.DBPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	checkpoints := badger.NewCheckpointRepository(backend)

	// Create embedder
	aiConfig := cfg.AIConfig()
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedder := reindex.NewReembedder(repo, checkpoints, embedder, reindexConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.DBPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func reindexTermsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	reindexConfig, err := reindexConfigFromFlags(c)
	if err != nil {
		return err
	}

	// Open database
	backend, err := badger.OpenBackend(cfg.DBPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	checkpoints := badger.NewCheckpointRepository(backend)

	rebuilder := reindex.NewTermRebuilder(repo, checkpoints, reindexConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.DBPath)
	fmt.Fprintln(os.Stderr)

	if err := rebuilder.Run(context.Background()); err != nil {
		return fmt.Errorf("term rebuild failed: %w", err)
	}
	return nil
}

func reindexConfigFromFlags(c *cli.Context) (*reindex.Config, error) {
	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reindexConfig.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}
	return reindexConfig, nil
}

func historyShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	backend, err := badger.OpenBackend(cfg.DBPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	conversations, err := badger.NewConversationRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer conversations.Close()

	turns, err := conversations.GetRecentTurns(context.Background(), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(turns) == 0 {
		fmt.Println("No conversation history.")
		return nil
	}

	// GetRecentTurns returns newest first; print oldest first for reading
	for i := len(turns) - 1; i >= 0; i-- {
		turn := turns[i]
		speaker := "user"
		if turn.Speaker == core.SpeakerTypeAssistant {
			speaker = "assistant"
		}
		fmt.Printf("[%s] %s: %s\n",
			turn.Timestamp.Format("2006-01-02 15:04:05"), speaker, turn.Contents)
	}
	return nil
}

func historyClearCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	backend, err := badger.OpenBackend(cfg.DBPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	conversations, err := badger.NewConversationRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer conversations.Close()

	if err := conversations.ClearTurns(context.Background()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Println("Conversation history cleared.")
	return nil
}

func setupLogger(c *cli.Context) error {
	// The flag wins when passed explicitly; otherwise INVOICIT_LOG_LEVEL
	// may override the default.
	levelStr := c.String("log-level")
	if !c.IsSet("log-level") {
		if cfg, err := config.Load(c.String("env-file")); err == nil && cfg.LogLevel != "" {
			levelStr = cfg.LogLevel
		}
	}
	levelStr = strings.ToLower(levelStr)

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
