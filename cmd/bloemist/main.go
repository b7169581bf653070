// Package main is the bloemist CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/bloemist/internal/cli"
	"github.com/hyperjump/bloemist/internal/config"
	"github.com/hyperjump/bloemist/internal/extract"
	"github.com/hyperjump/bloemist/internal/indexer"
	"github.com/hyperjump/bloemist/internal/keyword"
	"github.com/hyperjump/bloemist/internal/models"
	"github.com/hyperjump/bloemist/internal/render"
	"github.com/hyperjump/bloemist/internal/search"
	"github.com/hyperjump/bloemist/internal/server"
	"github.com/hyperjump/bloemist/internal/storage"
	"github.com/hyperjump/bloemist/internal/watcher"
	"github.com/hyperjump/bloemist/pkg/utils"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/bloemist/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// resolveConfigPath picks the config file: the --config flag, then $BLOEMIST_CONFIG,
// then config.yaml in the current directory (for development), then the default path.
func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := strings.TrimSpace(os.Getenv(config.EnvConfigPath)); p != "" {
		return p
	}
	if cwd, err := os.Getwd(); err == nil {
		fallback := filepath.Join(cwd, "config.yaml")
		if _, err := os.Stat(fallback); err == nil {
			return fallback
		}
	}
	return defaultConfigPath
}

// loadConfig loads the resolved config file and applies BLOEMIST_* overrides.
// A missing file at the default path yields the built-in defaults.
// Returns the config and the path that was loaded ("" for built-in defaults).
func loadConfig(flagPath string) (*config.Config, string, error) {
	path := resolveConfigPath(flagPath)
	cfg, err := config.Load(path)
	if err != nil {
		if path != defaultConfigPath || !errors.Is(err, os.ErrNotExist) {
			return nil, "", err
		}
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
		path = ""
	}
	config.ApplyEnv(cfg)
	return cfg, path, nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "highlight":
		runHighlight()
	case "intro":
		runIntro()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "delete":
		runDelete()
	case "catalog":
		runCatalog()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("bloemist version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// mustLoad loads config and a command logger, exiting on failure.
func mustLoad(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewCommandLogger(cfg.Debug || debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	return cfg, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (catalog changes, requests, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	var watchSvc server.WatchService
	if cfg.Catalog.Watch {
		w := watcher.New(
			cfg.Catalog.Directories,
			newCatalogSync(components.Indexer, cfg.Catalog.Extensions, logger),
			watcher.Options{
				Extensions: cfg.Catalog.Extensions,
				Recursive:  cfg.Catalog.RecursiveOrDefault(),
			},
			watcher.WithLogger(logger),
		)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		w.SyncExistingFiles()
		watchSvc = w
	} else {
		importDirectories(context.Background(), components.Indexer, cfg.Catalog.Directories, cfg.Catalog.Extensions, logger)
	}

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		cfg,
		logger,
		watchSvc,
		resolvedConfigPath,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// importDirectories imports configured catalog directories once when watching is off.
func importDirectories(ctx context.Context, idx *indexer.Indexer, dirs, exts []string, logger *zap.Logger) {
	for _, dir := range dirs {
		n, err := idx.IndexDirectory(ctx, dir, exts)
		if err != nil {
			logger.Warn("catalog import failed", zap.String("dir", dir), zap.Error(err))
			continue
		}
		logger.Info("catalog imported", zap.String("dir", dir), zap.Int("files", n))
	}
}

// catalogSync applies catalog file changes from the watcher to the catalog.
type catalogSync struct {
	indexer *indexer.Indexer
	exts    []string
	logger  *zap.Logger
}

func newCatalogSync(idx *indexer.Indexer, exts []string, logger *zap.Logger) *catalogSync {
	return &catalogSync{indexer: idx, exts: exts, logger: logger}
}

func (c *catalogSync) FileChanged(path string) {
	n, err := c.indexer.IndexFile(context.Background(), path, c.exts)
	if err != nil {
		c.logger.Warn("catalog file import failed", zap.String("path", path), zap.Error(err))
		return
	}
	c.logger.Info("catalog file imported", zap.String("path", path), zap.Int("categories", n))
}

func (c *catalogSync) FileRemoved(path string) {
	n, err := c.indexer.DeleteSource(context.Background(), path)
	if err != nil {
		c.logger.Warn("catalog file removal failed", zap.String("path", path), zap.Error(err))
		return
	}
	c.logger.Info("catalog file removed", zap.String("path", path), zap.Int("categories", n))
}

// keywordList collects repeated --keyword flags in order.
type keywordList []string

func (k *keywordList) String() string { return strings.Join(*k, ",") }

func (k *keywordList) Set(v string) error {
	*k = append(*k, v)
	return nil
}

// reorderArgs moves any flags (and their values) that appear after positional arguments
// to the front of the slice so that flag.Parse() sees them. Go's flag package stops at
// the first non-flag argument.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// readText returns the text to highlight: stdin when args is "-", else the joined args.
// One trailing newline from stdin is dropped.
func readText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		s := strings.TrimSuffix(string(b), "\n")
		return strings.TrimSuffix(s, "\r"), nil
	}
	return strings.Join(args, " "), nil
}

// defaultStyle picks terminal rendering for an interactive fd and plain text otherwise.
func defaultStyle(fd uintptr) string {
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return "terminal"
	}
	return "plain"
}

// outputOptions parses the --output and --format flags; an empty format uses fallback.
func outputOptions(output, format, fallback string) (cli.Options, error) {
	out, err := cli.ParseOutputFormat(output)
	if err != nil {
		return cli.Options{}, err
	}
	if format == "" {
		format = fallback
	}
	style, err := render.ParseFormat(format)
	if err != nil {
		return cli.Options{}, err
	}
	return cli.Options{Output: out, Style: style}, nil
}

func runHighlight() {
	fs := flag.NewFlagSet("highlight", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	var keywords keywordList
	fs.Var(&keywords, "keyword", "keyword to emphasize (repeatable; defaults to highlight.default_keywords)")
	format := fs.String("format", "", "rendering: plain, html, markdown, or terminal (default terminal on a tty, else plain)")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bloemist highlight [flags] <text | ->\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, logger := mustLoad(*configPath, false)
	defer logger.Sync()
	opts, err := outputOptions(*output, *format, defaultStyle(os.Stdout.Fd()))
	if err != nil {
		fatalf("%v", err)
	}
	text, err := readText(fs.Args(), os.Stdin)
	if err != nil {
		fatalf("Failed to read text: %v", err)
	}
	kws := []string(keywords)
	if len(kws) == 0 {
		kws = cfg.Highlight.DefaultKeywords
	}

	engine := search.NewEngine(nil, nil, &cfg.Search, &cfg.Highlight, search.WithLogger(logger))
	resp, err := engine.Highlight(&models.HighlightRequest{Text: text, Keywords: kws, Format: string(opts.Style)})
	if err != nil {
		fatalf("Highlight failed: %v", err)
	}
	if err := cli.WriteHighlight(os.Stdout, resp, opts); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runIntro() {
	fs := flag.NewFlagSet("intro", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)")
	format := fs.String("format", "", "rendering: plain, html, markdown, or terminal (default terminal on a tty, else plain)")
	output := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() != 1 {
		fmt.Println("Usage: bloemist intro [flags] <slug>")
		os.Exit(1)
	}
	slug := fs.Arg(0)
	opts, err := outputOptions(*output, *format, defaultStyle(os.Stdout.Fd()))
	if err != nil {
		fatalf("%v", err)
	}

	var resp models.IntroResponse
	if *serverURL != "" {
		target := fmt.Sprintf("%s/api/v1/categories/%s/intro?format=%s", *serverURL, url.PathEscape(slug), url.QueryEscape(string(opts.Style)))
		if err := getJSON(target, &resp); err != nil {
			fatalf("Intro failed: %v", err)
		}
	} else {
		cfg, logger := mustLoad(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fatalf("Failed to initialize: %v", err)
		}
		defer components.Close()
		r, err := components.Engine.Intro(context.Background(), slug, string(opts.Style))
		if err != nil {
			fatalf("Intro failed: %v", err)
		}
		resp = *r
	}
	if err := cli.WriteIntro(os.Stdout, &resp, opts); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 10, "number of results")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	format := fs.String("format", "", "rendering: plain, html, markdown, or terminal (default terminal on a tty, else plain)")
	output := fs.String("output", "text", "output format: text, compact, or json")
	maxIntro := fs.Int("max-intro", 200, "cut intros to this many characters (0 = whole intro)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bloemist search [flags] <query>\n\n")
		fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. When nothing matches exactly,\nthe search is retried with fuzzy matching.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		fs.Usage()
		os.Exit(1)
	}
	opts, err := outputOptions(*output, *format, defaultStyle(os.Stdout.Fd()))
	if err != nil {
		fatalf("%v", err)
	}
	opts.MaxIntro = *maxIntro

	query := &models.SearchQuery{Query: queryStr, Limit: *limit, Format: string(opts.Style), FuzzyEnabled: *fuzzy}
	var response *models.SearchResponse
	if *serverURL != "" {
		// Use HTTP API when server is running (avoids Bleve/SQLite lock conflict).
		var r models.SearchResponse
		if err := postJSON(*serverURL+"/api/v1/search", query, &r); err != nil {
			fatalf("Search failed: %v", err)
		}
		response = &r
	} else {
		cfg, logger := mustLoad(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fatalf("Failed to initialize: %v", err)
		}
		defer components.Close()
		response, err = components.Engine.Search(context.Background(), query)
		if err != nil {
			fatalf("Search failed: %v", err)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, opts); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() < 1 {
		fmt.Println("Usage: bloemist import [flags] <catalog-file-or-directory>...")
		os.Exit(1)
	}

	cfg, logger := mustLoad(*configPath, *debug)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	ctx := context.Background()
	for _, path := range fs.Args() {
		msg, err := importPath(ctx, components.Indexer, path, cfg.Catalog.Extensions)
		if err != nil {
			fatalf("Import failed: %v", err)
		}
		fmt.Println(msg)
	}
}

// importPath imports one catalog file, or every catalog file under a directory.
func importPath(ctx context.Context, idx *indexer.Indexer, path string, exts []string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		n, err := idx.IndexDirectory(ctx, path, exts)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Imported %d catalog file(s) from %s", n, path), nil
	}
	// Single file: no extension filter
	n, err := idx.IndexFile(ctx, path, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Imported %d categories from %s", n, path), nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() != 1 {
		fmt.Println("Usage: bloemist delete [flags] <slug | catalog-file>")
		os.Exit(1)
	}

	cfg, logger := mustLoad(*configPath, false)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	msg, err := deleteTarget(context.Background(), components, fs.Arg(0))
	if err != nil {
		fatalf("Deletion failed: %v", err)
	}
	fmt.Println(msg)
}

// deleteTarget removes the categories of a catalog file when target names an existing
// file, otherwise the category with slug target.
func deleteTarget(ctx context.Context, c *Components, target string) (string, error) {
	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		n, err := c.Indexer.DeleteSource(ctx, target)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted %d categories imported from %s", n, target), nil
	}
	cat, err := c.Storage.GetCategoryBySlug(ctx, target)
	if err != nil {
		return "", err
	}
	if err := c.Indexer.DeleteCategory(ctx, cat.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Category deleted: %s", cat.Slug), nil
}

func runCatalog() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: bloemist catalog <add|remove|list> [path]")
		fmt.Println("  bloemist catalog add <path>     Watch a catalog directory")
		fmt.Println("  bloemist catalog remove <path>  Stop watching a catalog directory")
		fmt.Println("  bloemist catalog list           List watched catalog directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(reorderArgs(os.Args[3:]))
	endpoint := *serverURL + "/api/v1/catalog/directories"
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fatalf("Usage: bloemist catalog add <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := postJSON(endpoint, map[string]interface{}{"path": path, "sync": true}, nil); err != nil {
			fatalf("Add failed: %v", err)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fatalf("Usage: bloemist catalog remove <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := doJSON(http.MethodDelete, endpoint+"?path="+url.QueryEscape(path), nil, nil); err != nil {
			fatalf("Remove failed: %v", err)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := getJSON(endpoint, &out); err != nil {
			fatalf("List failed: %v", err)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fatalf("Unknown catalog subcommand: %s", sub)
	}
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	DatabasePath    string   `json:"database_path,omitempty"`
	BleveIndexPath  string   `json:"bleve_index_path,omitempty"`
	DefaultFormat   string   `json:"default_format,omitempty"`
	DefaultKeywords []string `json:"default_keywords,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Categories         int64                 `json:"categories"`
	IndexSize          uint64                `json:"index_size"`
	CachedHighlighters int                   `json:"cached_highlighters"`
	WatchEnabled       bool                  `json:"watch_enabled"`
	CatalogDirectories []string              `json:"catalog_directories,omitempty"`
	DiskUsageBytes     *int64                `json:"disk_usage_bytes,omitempty"`
	Config             *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (direct storage mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	if *serverURL != "" {
		status = &statusResponse{}
		if err := getJSON(*serverURL+"/api/v1/status", status); err != nil {
			fatalf("Status failed: %v", err)
		}
	} else {
		cfg, logger := mustLoad(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fatalf("Failed to initialize: %v", err)
		}
		defer components.Close()
		status, err = collectStatus(context.Background(), components, cfg)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fatalf("Output failed: %v", err)
		}
	case "text":
		writeStatusText(os.Stdout, status)
	default:
		fatalf("Unknown output format %q; use text or json", *outputFormat)
	}
}

func collectStatus(ctx context.Context, c *Components, cfg *config.Config) (*statusResponse, error) {
	count, err := c.Storage.CountCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	status := &statusResponse{
		Categories: count,
		IndexSize:  c.Engine.IndexSize(),
		Config: &statusConfigResponse{
			DatabasePath:    cfg.Storage.DatabasePath,
			BleveIndexPath:  cfg.Storage.BleveIndexPath,
			DefaultFormat:   cfg.Highlight.Format,
			DefaultKeywords: cfg.Highlight.DefaultKeywords,
		},
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "categories:         %d   # categories in the catalog\n", status.Categories)
	fmt.Fprintf(w, "index_size:         %d   # categories in the search index\n", status.IndexSize)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # storage + index on disk\n", *status.DiskUsageBytes)
	}
	if status.WatchEnabled {
		fmt.Fprintf(w, "catalog_dirs:       %s\n", strings.Join(status.CatalogDirectories, ", "))
	}
	if status.Config != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		if status.Config.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", status.Config.DatabasePath)
		}
		if status.Config.BleveIndexPath != "" {
			fmt.Fprintf(w, "bleve_index_path:   %s\n", status.Config.BleveIndexPath)
		}
		fmt.Fprintf(w, "default_format:     %s\n", status.Config.DefaultFormat)
		if len(status.Config.DefaultKeywords) > 0 {
			fmt.Fprintf(w, "default_keywords:   %s\n", strings.Join(status.Config.DefaultKeywords, ", "))
		}
	}
}

func getJSON(target string, out interface{}) error {
	return doJSON(http.MethodGet, target, nil, out)
}

func postJSON(target string, body, out interface{}) error {
	return doJSON(http.MethodPost, target, body, out)
}

// doJSON sends body as JSON and decodes a 2xx response into out (when non-nil).
func doJSON(method, target string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Index   keyword.CategoryIndex
	Engine  *search.Engine
	Indexer *indexer.Indexer
}

func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	index, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize search index: %w", err)
	}
	c := &Components{
		Storage: store,
		Index:   index,
		Engine:  search.NewEngine(store, index, &cfg.Search, &cfg.Highlight, search.WithLogger(logger)),
		Indexer: indexer.NewIndexer(store, index, extract.NewExtractor(), indexer.WithLogger(logger)),
	}

	// Rebuild the search index when it was recreated or is out of step with storage.
	ctx := context.Background()
	count, err := store.CountCategories(ctx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("count categories: %w", err)
	}
	docs, err := index.DocCount()
	if err == nil && docs != uint64(count) {
		n, err := c.Indexer.SyncIndex(ctx)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("sync search index: %w", err)
		}
		logger.Info("search index synced", zap.Int("categories", n), zap.Uint64("previous_size", docs))
	}
	return c, nil
}

func printUsage() {
	fmt.Println(`bloemist - keyword highlighting for storefront category intros

Usage:
  bloemist server [flags]                     Start the HTTP server
  bloemist highlight [flags] <text | ->       Emphasize keywords in text (- reads stdin)
  bloemist intro [flags] <slug>               Show a category intro with its keywords emphasized
  bloemist search [flags] <query>             Search categories
  bloemist import [flags] <file-or-dir>...    Import catalog files (.json, .yaml, .yml, .xlsx)
  bloemist delete [flags] <slug | file>       Delete a category, or every category of a catalog file
  bloemist catalog <add|remove|list> [path]   Manage watched catalog directories
  bloemist status [flags]                     Show catalog/index status
  bloemist version                            Show version
  bloemist help                               Show this help

Common Flags:
  --config string    Config file path (default: $BLOEMIST_CONFIG, ./config.yaml, or /usr/local/etc/bloemist/config.yaml)
  --server string    Server URL for intro, search, status, catalog (default: http://localhost:8080).
                     Use --server "" to open storage directly when the server is not running.

Highlight Flags:
  --keyword string   Keyword to emphasize; repeat for more (default: highlight.default_keywords)
  --format string    plain, html, markdown, or terminal (default: terminal on a tty, else plain)
  --output string    text or json (default: text)

Search Flags:
  --limit int        Number of results (default: 10)
  --fuzzy            Enable fuzzy matching for typo tolerance
  --max-intro int    Cut intros to this many characters (default: 200)
  --output string    text, compact, or json (default: text)

Environment:
  BLOEMIST_CONFIG, BLOEMIST_DEBUG, BLOEMIST_HOST, BLOEMIST_PORT, BLOEMIST_DATABASE_PATH,
  BLOEMIST_BLEVE_INDEX_PATH, BLOEMIST_HIGHLIGHT_FORMAT, BLOEMIST_DEFAULT_KEYWORDS.
  Variables are also read from ./.env.

Examples:
  bloemist highlight --keyword "verse bloemen" --keyword bloemen "Verse bloemen, elke dag"
  echo "Rode rozen uit Aalsmeer" | bloemist highlight --keyword rozen --format html -
  bloemist intro --format markdown rozen
  bloemist search verse bloemen
  bloemist import catalog/seizoen.yaml
  bloemist catalog add ./catalog
  bloemist status --output json`)
}
