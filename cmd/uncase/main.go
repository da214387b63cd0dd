package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/uncase/dashboard/internal/app"
	"github.com/uncase/dashboard/internal/config"
	"github.com/uncase/dashboard/internal/tui"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "uncase",
		Short:        "uncase dashboard state",
		Long:         "uncase manages the local dashboard state: demo data, pipeline jobs and sandbox sessions.",
		RunE:         runTUI,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newDemoCommand())
	rootCmd.AddCommand(newJobsCommand())
	rootCmd.AddCommand(newSandboxCommand())
	rootCmd.AddCommand(newBootstrapCommand())
	rootCmd.AddCommand(newSeedsCommand())
	rootCmd.AddCommand(newToolsCommand())
	rootCmd.AddCommand(newConversationsCommand())
	rootCmd.AddCommand(newKnowledgeCommand())
	rootCmd.AddCommand(newScriptCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newStateCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// background loops must not write over the alt screen
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "uncase.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	a, err := app.Open(cfg, log.New(logFile, "", log.LstdFlags))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := a.Bus.SubscribeChan(ctx, 64)
	expired := a.Start(ctx)

	p := tea.NewProgram(tui.NewApp(a, changes, expired), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// openApp loads config and opens the configured store.
func openApp() (*app.App, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.Open(cfg, nil)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
