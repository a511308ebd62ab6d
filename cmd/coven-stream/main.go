// ABOUTME: CLI for tailing a coven-gateway event stream with auto-reconnect.
// ABOUTME: Loads config, wires a stream.Session, and prints events until interrupted.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/coven-stream/internal/config"
	"github.com/2389/coven-stream/internal/stream"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the stream config file.
// Priority: COVEN_STREAM_CONFIG env var > XDG_CONFIG_HOME/coven/stream.yaml > ~/.config/coven/stream.yaml
func getConfigPath() string {
	if envPath := os.Getenv("COVEN_STREAM_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "stream.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "coven", "stream.yaml")
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: XDG config path)")
	server := flag.String("server", "", "Stream URL (overrides config)")
	transport := flag.String("transport", "", "Transport: sse or websocket (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("coven-stream %s\n", version)
		return
	}

	cfg, err := loadConfig(*configPath, *server, *transport)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Setup context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration from file and flag overrides.
func loadConfig(path, serverOverride, transportOverride string) (*config.Config, error) {
	var cfg *config.Config

	switch {
	case path != "":
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		// The default config file is optional when -server is given.
		loaded, err := config.Load(getConfigPath())
		if err == nil {
			cfg = loaded
		} else if serverOverride == "" {
			return nil, fmt.Errorf("no config file and no -server flag (tried %s): %w", getConfigPath(), err)
		} else {
			cfg = &config.Config{}
		}
	}

	if serverOverride != "" {
		cfg.Gateway.URL = serverOverride
	}
	if transportOverride != "" {
		cfg.Gateway.Transport = transportOverride
	}
	if cfg.Gateway.URL == "" {
		return nil, errors.New("gateway.url is required (set it in config or pass -server)")
	}

	return cfg, nil
}

// run tails the stream until the context ends or retries are exhausted.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	opts, err := streamOptions(cfg, logger)
	if err != nil {
		return err
	}

	exhausted := make(chan struct{})
	var exhaustOnce sync.Once

	cb := stream.Callbacks{
		OnOpen: func() {
			logger.Info("stream open", "url", cfg.Gateway.URL)
		},
		OnMessage: printEvent,
		OnError: func(ec stream.ErrorContext) {
			logger.Warn("stream error",
				"state", string(ec.TransportState),
				"retry_count", ec.RetryCount,
				"error", ec.Err,
			)
		},
		OnReconnectAttempt: func(attempt int) {
			logger.Info("reconnecting", "attempt", attempt)
		},
		OnReconnectExhausted: func() {
			exhaustOnce.Do(func() { close(exhausted) })
		},
		OnClose: func() {
			logger.Debug("stream closed")
		},
	}

	session := stream.NewSession(cfg.Gateway.URL, cb, opts)
	session.Connect()
	defer session.Close()

	select {
	case <-ctx.Done():
		fmt.Println("\nGoodbye!")
		return nil
	case <-exhausted:
		return fmt.Errorf("gave up after %d reconnect attempts", opts.MaxRetries)
	}
}

// streamOptions maps file configuration onto stream.Options.
func streamOptions(cfg *config.Config, logger *slog.Logger) (stream.Options, error) {
	opts := stream.Options{
		MaxRetries:        cfg.Stream.MaxRetries,
		InitialRetryDelay: cfg.Stream.InitialRetryDelay,
		MaxRetryDelay:     cfg.Stream.MaxRetryDelay,
		ConstantBackoff:   cfg.Stream.ConstantBackoff,
		DisableReconnect:  cfg.Stream.DisableReconnect,
		DialTimeout:       cfg.Stream.DialTimeout,
		HeartbeatInterval: cfg.Stream.HeartbeatInterval,
		StaleThreshold:    cfg.Stream.StaleThreshold,
		Logger:            logger,
	}

	if len(cfg.Gateway.Headers) > 0 {
		header := make(http.Header, len(cfg.Gateway.Headers))
		for key, value := range cfg.Gateway.Headers {
			header.Set(key, value)
		}
		opts.Header = header
	}

	switch cfg.Gateway.Transport {
	case "", "sse":
		opts.Transport = stream.NewSSETransport()
	case "websocket":
		opts.Transport = &stream.WSTransport{}
	default:
		return opts, fmt.Errorf("unknown transport %q", cfg.Gateway.Transport)
	}

	return opts, nil
}

// printEvent renders one stream event to stdout, colorized by event type.
func printEvent(p stream.Payload) {
	fields, _ := p.Value.(map[string]any)

	switch p.Type {
	case "thinking":
		if text, ok := fields["text"].(string); ok {
			color.New(color.Faint).Printf("[thinking] %s\n", truncate(text, 80))
		}

	case "text", "message", "":
		if text, ok := fields["text"].(string); ok {
			fmt.Print(text)
			return
		}
		if content, ok := fields["content"].(string); ok {
			fmt.Print(content)
			return
		}
		fmt.Println(p.Text())

	case "tool_use":
		color.Yellow("[tool] %v", fields["name"])

	case "tool_result":
		if isErr, _ := fields["is_error"].(bool); isErr {
			color.Red("[tool error] %s", truncate(fmt.Sprintf("%v", fields["output"]), 100))
		} else {
			color.New(color.Faint).Println("[result]")
		}

	case "error":
		color.Red("[error] %s", p.Text())

	case "done":
		fmt.Println()

	default:
		fmt.Printf("[%s] %s\n", p.Type, truncate(p.Text(), 120))
	}
}

// truncate shortens s to at most n runes, appending an ellipsis.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
