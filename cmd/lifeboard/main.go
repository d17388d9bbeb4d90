// Command lifeboard runs the personal dashboard: a local HTTP API over
// one persisted document of habits, metrics, bills, and Mission Control
// tasks, plus a handful of one-shot maintenance commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nugget/lifeboard/internal/api"
	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/buildinfo"
	"github.com/nugget/lifeboard/internal/config"
	"github.com/nugget/lifeboard/internal/dashboard"
	"github.com/nugget/lifeboard/internal/digestjob"
	"github.com/nugget/lifeboard/internal/events"
	"github.com/nugget/lifeboard/internal/httpkit"
	"github.com/nugget/lifeboard/internal/knowledge"
	"github.com/nugget/lifeboard/internal/mqtt"
	"github.com/nugget/lifeboard/internal/openclaw"
	"github.com/nugget/lifeboard/internal/storage"
)

func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. ctx controls the process lifetime, all
// output goes to stdout and stderr, and args is os.Args[1:]. Arguments
// are parsed by hand so tests can call run concurrently without the
// flag package's globals.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "today":
		return runToday(ctx, stdout, stderr, configPath, outputFmt)
	case "digest":
		day := ""
		if len(cmdArgs) > 0 {
			day = cmdArgs[0]
		}
		return runDigest(ctx, stdout, stderr, configPath, outputFmt, day)
	case "export":
		path := ""
		if len(cmdArgs) > 0 {
			path = cmdArgs[0]
		}
		return runExport(ctx, stdout, stderr, configPath, path)
	case "import":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: lifeboard import <backup.json>")
		}
		return runImport(ctx, stdout, stderr, configPath, cmdArgs[0])
	case "knowledge-index":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: lifeboard knowledge-index <workspace> [output]")
		}
		out := ""
		if len(cmdArgs) > 1 {
			out = cmdArgs[1]
		}
		return runKnowledgeIndex(stdout, stderr, configPath, cmdArgs[0], out)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.BuildInfo()
	if outputFmt == "json" {
		return writeJSON(w, info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Lifeboard - personal dashboard and Mission Control board")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: lifeboard [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                          Start the API server")
	fmt.Fprintln(w, "  init [dir]                     Write an example config.yaml (default: .)")
	fmt.Fprintln(w, "  today                          Show today's status, rules, and bills")
	fmt.Fprintln(w, "  digest [yyyy-MM-dd]            Show the Mission Control digest of a day")
	fmt.Fprintln(w, "  export [file]                  Write a JSON backup of the document")
	fmt.Fprintln(w, "  import <file>                  Replace the document with a JSON backup")
	fmt.Fprintln(w, "  knowledge-index <dir> [file]   Build the knowledge index from markdown notes")
	fmt.Fprintln(w, "  version                        Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/lifeboard/config.yaml, /etc/lifeboard/config.yaml")
	return nil
}

// runServe is the primary operating mode. It opens the store, loads the
// document, starts the optional background components, and serves the
// API until SIGINT or SIGTERM.
//
// The shutdown sequence is:
//  1. The signal cancels ctx, stopping the poller, digest job, and watcher
//  2. MQTT publishes offline and disconnects
//  3. The HTTP server drains in-flight requests
//  4. Pending document changes are flushed and the store is closed
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := config.NewLogger(stdout, slog.LevelInfo, "text")
	logger.Info("starting Lifeboard", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "branch", buildinfo.GitBranch, "built", buildinfo.BuildTime)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Validate has already accepted the level.
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger = config.NewLogger(stdout, level, cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"storage_driver", cfg.Storage.Driver,
		"data_dir", cfg.DataDir,
	)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("database opened", "path", cfg.StoragePath(), "driver", cfg.Storage.Driver)

	bus := events.New()
	doc := store.LoadDocument(ctx, cfg.Storage.Key, appdata.New(), logger)
	ctl := dashboard.New(doc, dashboard.Config{
		Store:    store,
		Key:      cfg.Storage.Key,
		Debounce: cfg.Storage.SaveDebounce,
		Bus:      bus,
		Logger:   logger.With("component", "dashboard"),
	})
	if ctl.Seed() {
		logger.Info("document seeded with starter data")
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Status gateway ---
	var gateway api.GatewayState
	if cfg.Gateway.Enabled {
		client := openclaw.NewClient(cfg.Gateway.URL,
			httpkit.NewClient(httpkit.WithTimeout(cfg.Gateway.Timeout)),
			logger.With("component", "openclaw"))
		poller := openclaw.NewPoller(openclaw.PollerConfig{
			Fetcher:  client,
			Interval: cfg.Gateway.PollInterval,
			Timeout:  cfg.Gateway.Timeout,
			Bus:      bus,
			Logger:   logger.With("component", "openclaw"),
		})
		poller.Start(ctx)
		defer poller.Stop()
		gateway = poller
		logger.Info("gateway polling enabled", "url", cfg.Gateway.URL, "interval", cfg.Gateway.PollInterval)
	} else {
		logger.Info("gateway polling disabled")
	}

	// --- Daily digest ---
	if cfg.Digest.Enabled {
		job, err := digestjob.New(digestjob.Config{
			Schedule:   cfg.Digest.Schedule,
			Source:     ctl,
			Archive:    store,
			RetainDays: cfg.Digest.RetainDays,
			Bus:        bus,
			Logger:     logger.With("component", "digest"),
		})
		if err != nil {
			return err
		}
		job.Start(ctx)
		defer job.Stop()
	}

	// --- Knowledge index ---
	loader := knowledge.NewLoader(cfg.Knowledge.Source,
		httpkit.NewClient(httpkit.WithTimeout(cfg.Knowledge.Timeout)),
		logger.With("component", "knowledge"))
	if cfg.Knowledge.Watch && !loader.Remote() {
		if err := loader.Watch(ctx, bus); err != nil {
			logger.Warn("knowledge index watch unavailable", "source", loader.Source(), "error", err)
		}
	}

	// --- MQTT publisher ---
	var mqttPub *mqtt.Publisher
	if cfg.MQTT.Configured() {
		instanceID, err := mqtt.LoadOrCreateInstanceID(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("load mqtt instance id: %w", err)
		}
		logger.Info("mqtt instance ID loaded", "instance_id", instanceID)

		mqttPub = mqtt.New(cfg.MQTT, instanceID, ctl, bus, logger.With("component", "mqtt"))
		go func() {
			if err := mqttPub.Start(ctx); err != nil {
				logger.Error("mqtt publisher failed", "error", err)
			}
		}()
		logger.Info("mqtt publishing enabled",
			"broker", cfg.MQTT.Broker,
			"device_name", cfg.MQTT.DeviceName,
			"interval", cfg.MQTT.PublishInterval,
		)
	} else {
		logger.Info("mqtt publishing disabled (not configured)")
	}

	server := api.NewServer(api.Config{
		Address:    cfg.Listen.Address,
		Port:       cfg.Listen.Port,
		Controller: ctl,
		Gateway:    gateway,
		Knowledge:  loader,
		Digests:    store,
		Logger:     logger.With("component", "api"),
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		if mqttPub != nil {
			offlineCtx, offlineCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer offlineCancel()
			if err := mqttPub.Stop(offlineCtx); err != nil {
				logger.Error("mqtt shutdown failed", "error", err)
			}
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := ctl.Flush(flushCtx); err != nil {
		logger.Error("final save failed", "error", err)
	}

	logger.Info("Lifeboard stopped")
	return nil
}

// loadConfig locates and parses the YAML configuration file. If explicit
// is non-empty, that exact path is used (and must exist). Otherwise,
// [config.FindConfig] searches the default locations.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// loadConfigOrDefault is loadConfig for the one-shot commands, which run
// on built-in defaults when no config file is found. An explicit path
// that does not exist is still an error.
func loadConfigOrDefault(explicit string) (*config.Config, error) {
	cfg, _, err := loadConfig(explicit)
	if err == nil {
		return cfg, nil
	}
	if explicit != "" {
		return nil, err
	}
	if _, findErr := config.FindConfig(""); findErr == nil {
		// A config was found but did not load.
		return nil, err
	}
	return config.Default(), nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}
	store, err := storage.Open(cfg.Storage.Driver, cfg.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.StoragePath(), err)
	}
	return store, nil
}

// session is what the one-shot commands share: a store and a controller
// over the stored document.
type session struct {
	cfg    *config.Config
	store  *storage.Store
	ctl    *dashboard.Controller
	logger *slog.Logger
}

// openSession loads config and the stored document. Logs go to stderr so
// stdout carries only command output. Controller changes are saved
// synchronously.
func openSession(ctx context.Context, stderr io.Writer, configPath string) (*session, error) {
	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	if level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	logger := config.NewLogger(stderr, level, cfg.LogFormat)

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	doc := store.LoadDocument(ctx, cfg.Storage.Key, appdata.New(), logger)
	ctl := dashboard.New(doc, dashboard.Config{
		Store:    store,
		Key:      cfg.Storage.Key,
		Debounce: -1,
		Logger:   logger,
	})
	return &session{cfg: cfg, store: store, ctl: ctl, logger: logger}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

func runToday(ctx context.Context, stdout, stderr io.Writer, configPath, outputFmt string) error {
	s, err := openSession(ctx, stderr, configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	today := s.ctl.Today()
	if outputFmt == "json" {
		return writeJSON(stdout, today)
	}
	renderToday(stdout, today)
	return nil
}

// runDigest prints the digest of day (today when empty). Past days come
// from the nightly archive when one exists.
func runDigest(ctx context.Context, stdout, stderr io.Writer, configPath, outputFmt, day string) error {
	s, err := openSession(ctx, stderr, configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	dg, err := digestFor(ctx, s, day)
	if err != nil {
		return err
	}
	if outputFmt == "json" {
		return writeJSON(stdout, dg)
	}
	renderDigest(stdout, dg)
	return nil
}

func runExport(ctx context.Context, stdout, stderr io.Writer, configPath, path string) error {
	s, err := openSession(ctx, stderr, configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if path == "" {
		path = storage.ExportFileName(s.ctl.Now())
	}
	if path == "-" {
		return storage.Export(stdout, s.ctl.Snapshot())
	}
	if err := storage.ExportFile(path, s.ctl.Snapshot()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(stdout, "Exported document to %s\n", path)
	return nil
}

// runImport replaces the stored document with a backup file. A file
// that does not parse leaves the store untouched.
func runImport(ctx context.Context, stdout, stderr io.Writer, configPath, path string) error {
	doc, err := storage.ImportFile(path)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	s, err := openSession(ctx, stderr, configPath)
	if err != nil {
		return err
	}
	defer s.Close()

	s.ctl.Replace(doc)
	if err := s.ctl.Flush(ctx); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(stdout, "Imported %d habits, %d bills, %d tasks from %s\n",
		len(doc.Habits), len(doc.Bills), len(doc.MissionControl.Tasks), path)
	return nil
}

// runKnowledgeIndex builds the index from the markdown notes under root.
// Without an output path it writes to the configured knowledge source.
func runKnowledgeIndex(stdout, stderr io.Writer, configPath, root, out string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("workspace: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace %s is not a directory", root)
	}

	if out == "" {
		cfg, err := loadConfigOrDefault(configPath)
		if err != nil {
			return err
		}
		if knowledge.NewLoader(cfg.Knowledge.Source, nil, nil).Remote() {
			return errors.New("knowledge source is a URL; pass an output path")
		}
		out = cfg.Knowledge.Source
	}

	logger := config.NewLogger(stderr, slog.LevelWarn, "text")
	idx := knowledge.Build(root, knowledge.DefaultSources, time.Now(), logger)
	if err := knowledge.WriteFile(out, idx); err != nil {
		return fmt.Errorf("write knowledge index: %w", err)
	}
	fmt.Fprintf(stdout, "Indexed %d notes into %s\n", len(idx.Items), out)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
