// Package main provides the replay TUI for recording browser interactions.
// It launches a visible browser on a target URL, shows captured interaction
// steps live in the terminal, and saves finished recordings as reusable
// test cases.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/replay/pkg/browser"
	appconfig "github.com/entrhq/replay/pkg/config"
	"github.com/entrhq/replay/pkg/recorder"
	"github.com/entrhq/replay/pkg/types"
)

const version = "0.1.0"

// cliConfig holds the command line configuration.
type cliConfig struct {
	URL            string
	Name           string
	ConfigPath     string
	Headless       bool
	VirtualDisplay bool
	Screenshots    bool
	Replay         string
	List           bool
	ShowVersion    bool
}

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("replay v%s\n", version)
		return
	}

	if err := cfg.validate(); err != nil {
		flag.Usage()
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func parseFlags() *cliConfig {
	cfg := &cliConfig{}

	flag.StringVar(&cfg.URL, "url", "", "URL to start recording on")
	flag.StringVar(&cfg.Name, "name", "recording", "Name for the recording session")
	flag.StringVar(&cfg.ConfigPath, "config", "", "Path to config file (default: ~/.replay/config.yaml)")
	flag.BoolVar(&cfg.Headless, "headless", false, "Permit a headless browser when no display is available (degrades capture)")
	flag.BoolVar(&cfg.VirtualDisplay, "virtual-display", false, "Use a virtual framebuffer when no display is available")
	flag.BoolVar(&cfg.Screenshots, "screenshots", false, "Capture a screenshot per recorded step")
	flag.StringVar(&cfg.Replay, "run", "", "Replay a saved test case by id instead of recording")
	flag.BoolVar(&cfg.List, "list", false, "List saved test cases and exit")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Replay - browser interaction recorder\n\n")
		fmt.Fprintf(os.Stderr, "Usage: replay [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  replay -url https://example.com -name login-flow\n")
		fmt.Fprintf(os.Stderr, "  replay -url https://example.com -virtual-display\n")
		fmt.Fprintf(os.Stderr, "  replay -list\n")
		fmt.Fprintf(os.Stderr, "  replay -run <test-case-id>\n")
	}

	flag.Parse()
	return cfg
}

func (c *cliConfig) validate() error {
	if c.List || c.Replay != "" {
		return nil
	}
	if c.URL == "" {
		return fmt.Errorf("a target URL is required (use -url)")
	}
	return nil
}

func run(ctx context.Context, cli *cliConfig) error {
	cfg, err := appconfig.Load(cli.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}

	store, err := recorder.NewTestCaseStore(dataDir)
	if err != nil {
		return err
	}

	if cli.List {
		return listTestCases(store)
	}

	manager := browser.NewManager()
	if err := manager.Initialize(); err != nil {
		return fmt.Errorf("browser initialization failed: %w", err)
	}
	defer func() {
		if err := manager.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "browser shutdown: %v\n", err)
		}
	}()

	rec := recorder.NewRecorder(manager, store)
	rec.SetDataDir(dataDir)
	if cfg.PollIntervalMs > 0 {
		rec.SetPollInterval(time.Duration(cfg.PollIntervalMs) * time.Millisecond)
	}

	if cli.Replay != "" {
		return replayTestCase(ctx, rec, store, cli.Replay)
	}

	settings := cfg.Recording
	if cli.Headless {
		settings.Headless = true
	}
	if cli.VirtualDisplay {
		settings.UseVirtualDisplay = true
	}
	if cli.Screenshots {
		settings.CaptureScreenshots = true
	}

	return runTUI(ctx, rec, cli.Name, cli.URL, settings)
}

func runTUI(ctx context.Context, rec *recorder.Recorder, name, url string, settings types.RecordingSettings) error {
	program := tea.NewProgram(newModel(rec, name, url, settings), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	m, ok := final.(model)
	if !ok {
		return nil
	}
	if m.err != nil {
		return m.err
	}
	if m.saved != nil {
		fmt.Printf("Saved test case %s (%q, %d steps)\n", m.saved.ID, m.saved.Name, len(m.saved.Steps))
	}
	return nil
}

func listTestCases(store *recorder.TestCaseStore) error {
	cases, err := store.List()
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Println("No saved test cases.")
		return nil
	}
	for _, tc := range cases {
		fmt.Printf("%s  %-24s  %2d steps  %s\n", tc.ID, tc.Name, len(tc.Steps), tc.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func replayTestCase(ctx context.Context, rec *recorder.Recorder, store *recorder.TestCaseStore, id string) error {
	tc, err := store.Get(id)
	if err != nil {
		return err
	}

	fmt.Printf("Replaying %q (%d steps) against %s\n", tc.Name, len(tc.Steps), tc.BaseURL)
	result, err := rec.RunTestCase(ctx, tc)
	if err != nil {
		return err
	}

	for _, sr := range result.Steps {
		mark := "ok"
		if sr.Error != "" {
			mark = "FAIL: " + sr.Error
		}
		fmt.Printf("  %3d %-8s %-30s %s\n", sr.Step.Order, sr.Step.Action, sr.Step.Selector, mark)
	}
	if !result.Passed {
		return fmt.Errorf("replay failed after %d of %d steps", len(result.Steps), len(tc.Steps))
	}
	fmt.Printf("Passed in %s\n", result.Duration.Round(time.Millisecond))
	return nil
}
