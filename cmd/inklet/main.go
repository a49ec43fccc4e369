package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nsharda/inklet/internal/backend"
	"github.com/nsharda/inklet/internal/library"
	"github.com/nsharda/inklet/internal/logging"
	"github.com/nsharda/inklet/internal/tui"
	"github.com/nsharda/inklet/internal/viewer"
)

const defaultBackendURL = "http://localhost:8000"

func main() {
	// A .env next to the binary is optional; flags and real env win.
	_ = godotenv.Load()

	backendURL := flag.String("backend", envOr("INKLET_BACKEND_URL", defaultBackendURL), "base URL of the document engine")
	viewerName := flag.String("viewer", "", "viewer strategy: browser, canvas, frame, or embed (default: auto)")
	dedupe := flag.Bool("dedupe-uploads", envBool("INKLET_DEDUPE_UPLOADS"), "replace existing library entries when re-uploading the same filename")
	logPath := flag.String("log", "", "log file path (default: user cache dir)")
	debug := flag.Bool("debug", false, "verbose logging")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	flag.Parse()

	logger, closeLog, err := logging.New(logging.Options{Path: *logPath, Debug: *debug})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging disabled:", err)
		logger = zap.NewNop()
		closeLog = func() {}
	}
	defer closeLog()

	strategy := viewer.StrategyBrowser
	pinned := false
	if *viewerName != "" {
		strategy, err = viewer.ParseStrategy(*viewerName)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		pinned = true
	}

	client := backend.New(backend.Config{BaseURL: *backendURL, Logger: logger})

	cache, err := viewer.NewDocumentCache(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "document cache unavailable:", err)
		os.Exit(1)
	}

	sdk := viewer.NewEmbedSDK("", os.Getenv("INKLET_EMBED_KEY"), nil)
	pane := &viewer.PaneHost{}
	bootstrap := viewer.NewBootstrap(cache, sdk, pane)

	policy := library.DuplicateAppend
	if *dedupe {
		policy = library.DuplicateReplace
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Backend:        client,
			Viewer:         bootstrap,
			Pane:           pane,
			Store:          library.NewStore(policy),
			Strategy:       strategy,
			StrategyPinned: pinned,
			Logger:         logger,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		logger.Error("program error", zap.Error(err))
		fmt.Fprintln(os.Stderr, "program error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envBool(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && value
}
