// Command ghost is the Ghost Librarian CLI: a local RAG tool with context
// distillation. Documents are chunked and embedded into a vector store;
// questions are answered by a local LLM grounded in a distilled, budgeted
// context. The serve subcommand exposes the same engine as an MCP server
// on stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ghostlib/ghost/internal/config"
	"github.com/ghostlib/ghost/internal/distill"
	"github.com/ghostlib/ghost/internal/embedder"
	"github.com/ghostlib/ghost/internal/ingest"
	"github.com/ghostlib/ghost/internal/llm"
	"github.com/ghostlib/ghost/internal/mcp"
	"github.com/ghostlib/ghost/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const usage = `ghost - local RAG with context distillation

Usage:
  ghost add <path>              Add a document (.md, .txt, .text, .rst, .pdf)
  ghost ask [flags] <query>     Ask a question using distilled context
  ghost list                    List indexed documents
  ghost delete <filename>       Delete an indexed document by filename
  ghost stats                   Show index statistics
  ghost check                   Health check for Ollama and the store
  ghost serve                   Run as an MCP server on stdio
  ghost --version               Print version information

Flags for ask:
  -model string    LLM model to use (default from config, else llama3)
  -budget int      Context budget in tokens (default from config, else 3000)

Global flags:
  -config string   Path to config file (default ./ghost.yaml, then
                   ~/.config/ghost/config.yaml)
`

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(0)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if os.Args[1] == "--version" || os.Args[1] == "-version" {
		fmt.Printf("Ghost Librarian\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", store.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", store.DriverName)
		return
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "add":
		err = cmdAdd(args)
	case "ask":
		err = cmdAsk(args)
	case "list":
		err = cmdList(args)
	case "delete":
		err = cmdDelete(args)
	case "stats":
		err = cmdStats(args)
	case "check":
		err = cmdCheck(args)
	case "serve":
		err = cmdServe(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// app bundles the wired engine components for the CLI commands.
type app struct {
	cfg      *config.Config
	store    store.Store
	embedder embedder.Embedder
	llm      *llm.Client
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

func newApp(configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	gateway, err := store.New(store.Config{
		Type: cfg.Store.Type,
		Path: cfg.Store.Path,
		Qdrant: store.QdrantConfig{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Qdrant.Collection,
			Timeout:    cfg.Store.Qdrant.QdrantTimeout(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Embedder.Provider,
		BaseURL:   cfg.Embedder.BaseURL,
		APIKey:    cfg.Embedder.APIKey(),
		Model:     cfg.Embedder.Model,
		CacheSize: cfg.Embedder.CacheSize,
	})
	if err != nil {
		_ = gateway.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &app{
		cfg:      cfg,
		store:    gateway,
		embedder: emb,
		llm:      llm.NewClient(llm.Config{BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model}),
	}, nil
}

func (a *app) close() {
	_ = a.embedder.Close()
	_ = a.store.Close()
}

func cmdAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ghost add <path>")
	}
	path := fs.Arg(0)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ingester, err := ingest.New(a.embedder, a.store, ingest.Options{
		MaxChunkChars: a.cfg.Ingest.MaxChunkChars,
		BatchSize:     a.cfg.Ingest.BatchSize,
		Concurrency:   a.cfg.Ingest.Concurrency,
	})
	if err != nil {
		return err
	}

	stats, err := ingester.IngestFile(context.Background(), path)
	if err != nil {
		return err
	}

	fmt.Printf("\nSuccessfully indexed %d chunks from %s\n", stats.Chunks, path)
	return nil
}

func cmdAsk(args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	model := fs.String("model", "", "LLM model to use")
	budget := fs.Int("budget", 0, "context budget in tokens")
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: ghost ask [flags] <query>")
	}
	query := strings.Join(fs.Args(), " ")

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if *model != "" {
		a.llm = llm.NewClient(llm.Config{BaseURL: a.cfg.LLM.BaseURL, Model: *model})
	}

	ctx := context.Background()
	if !a.llm.HealthCheck(ctx) {
		return fmt.Errorf("ollama is not reachable\nStart it with: ollama serve")
	}

	opts := distill.Options{
		ContextBudget:  a.cfg.Distill.ContextBudget,
		TopK:           a.cfg.Distill.TopK,
		DedupThreshold: a.cfg.Distill.DedupThreshold,
	}
	if *budget > 0 {
		opts.ContextBudget = *budget
	}
	pipeline, err := distill.New(a.embedder, a.store, opts)
	if err != nil {
		return err
	}

	fmt.Println("Distilling context...")
	fmt.Println()
	result, err := pipeline.Distill(ctx, query)
	if err != nil {
		return err
	}

	if result.Context == "" {
		fmt.Println("No relevant documents found. Add documents first with: ghost add <path>")
		return nil
	}

	fmt.Println("--- Distillation Stats ---")
	fmt.Printf("  Chunks retrieved:   %d\n", result.ChunksRetrieved)
	fmt.Printf("  After dedup:        %d\n", result.ChunksAfterDedup)
	fmt.Printf("  Original tokens:    %d\n", result.OriginalTokens)
	fmt.Printf("  Distilled tokens:   %d\n", result.DistilledTokens)
	fmt.Printf("  Compression:        %.1f%%\n", result.CompressionRatio*100.0)
	fmt.Println("--------------------------")
	fmt.Println()

	fmt.Println("Generating answer...")
	fmt.Println()
	_, err = a.llm.Answer(ctx, query, result.Context, func(token string) {
		fmt.Print(token)
	})
	if err != nil {
		return err
	}
	fmt.Println()
	return nil
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	docs, err := a.store.ListDocuments(context.Background())
	if err != nil || len(docs) == 0 {
		fmt.Println("No documents indexed. Add one with: ghost add <path>")
		return nil
	}

	fmt.Println("Indexed documents:")
	fmt.Println()
	for _, doc := range docs {
		fmt.Printf("  %s  (%d chunks)\n", doc.Filename, doc.Chunks)
	}
	fmt.Printf("\n  Total: %d document(s)\n", len(docs))
	return nil
}

func cmdDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ghost delete <filename>")
	}
	filename := fs.Arg(0)

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	deleted, err := a.store.DeleteDocument(context.Background(), filename)
	if err != nil {
		fmt.Printf("No chunks found for: %s\n", filename)
		fmt.Println("Use `ghost list` to see indexed documents.")
		return nil
	}

	fmt.Printf("Deleted %d chunks for: %s\n", deleted, filename)
	return nil
}

func cmdStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	count, err := a.store.Count(context.Background())
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Println("No documents indexed. Add one with: ghost add <path>")
		return nil
	}

	fmt.Println("Ghost Library Stats")
	fmt.Printf("  Backend:     %s\n", a.cfg.Store.Type)
	fmt.Printf("  Documents:   %d chunks indexed\n", count)
	return nil
}

func cmdCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()

	fmt.Print("Ollama ...  ")
	if a.llm.HealthCheck(ctx) {
		fmt.Println("OK")
		models, err := a.llm.ListModels(ctx)
		switch {
		case err != nil:
			fmt.Printf("  Could not list models: %v\n", err)
		case len(models) == 0:
			fmt.Println("  No models found. Run: ollama pull llama3")
		default:
			fmt.Printf("  Models: %s\n", strings.Join(models, ", "))
		}
	} else {
		fmt.Println("UNREACHABLE. Run: ollama serve")
	}

	count, err := a.store.Count(ctx)
	if err != nil {
		fmt.Printf("Store  ...  FAILED (%v)\n", err)
		return nil
	}
	fmt.Printf("Store  ...  OK (%d chunks)\n", count)
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// Log startup info to stderr (stdout reserved for MCP protocol)
	log.Printf("Ghost MCP server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s", store.BuildMode, store.DriverName)

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Println("Server stopped")
	return nil
}
