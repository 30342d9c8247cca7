package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"stokradar/internal/app"
	"stokradar/internal/relay"
	"stokradar/internal/tui"
)

const version = "1.0.0"

// tuiLogger writes structured logs to a file next to the config so the
// alternate-screen TUI stays clean. Failures fall back to a silent logger.
func tuiLogger() pslog.Logger {
	base, err := os.UserConfigDir()
	if err != nil {
		return pslog.NewWithOptions(io.Discard, pslog.Options{})
	}
	dir := filepath.Join(base, "stokradar")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pslog.NewWithOptions(io.Discard, pslog.Options{})
	}
	f, err := os.OpenFile(filepath.Join(dir, "stokradar.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return pslog.NewWithOptions(io.Discard, pslog.Options{})
	}
	return pslog.NewWithOptions(f, pslog.Options{Mode: pslog.ModeStructured, NoColor: true})
}

func loadApplication(configPath string, log pslog.Logger) (*app.Application, error) {
	if configPath == "" {
		configPath = app.DefaultConfigPath()
	}
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return app.NewApplication(cfg, log), nil
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:     "stokradar",
		Short:   "Stokradar - warehouse demand forecast client",
		Long:    "Stokradar is a terminal client for the warehouse demand forecast backend.\n\nUse without arguments for the interactive TUI; see 'stokradar relay' for the HTTP passthrough server.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := loadApplication(configPath, tuiLogger())
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.NewModel(application), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: user config dir)")

	relayCmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the HTTP passthrough server",
		Long:  "Run the thin HTTP relay the web client consumed: products, analyze, order and report routes forwarded to the forecast backend.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := pslog.LoggerFromEnv()

			path := configPath
			if path == "" {
				path = app.DefaultConfigPath()
			}
			cfg, err := app.LoadConfig(path)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    cfg.RelayAddr,
				Handler: relay.NewServer(cfg, log).Handler(),
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("relay listening", "addr", cfg.RelayAddr, "backend", cfg.BackendURL)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	root.AddCommand(relayCmd)

	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Print the flattened product catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := loadApplication(configPath, pslog.LoggerFromEnv())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			products, err := application.Products.Fetch(ctx)
			if err != nil {
				return err
			}
			for _, p := range products {
				fmt.Printf("%-24s %-40s stock=%-5d price=%s\n", p.ProductID, p.Title, p.Stock, p.Price)
			}
			return nil
		},
	}
	root.AddCommand(productsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
