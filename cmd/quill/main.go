// quill: Document Generation MCP Server
//
// An MCP server that generates project documents (PRDs, technical
// specifications, design documents) from templates, enriched with
// reference material analyzed from a configured local directory.
//
// Usage:
//
//	quill serve    # Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/quill/internal/config"
	quillserver "github.com/HendryAvila/quill/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("quill v%s\n", quillserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	s, cleanup, err := quillserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

// configPath resolves the optional config file: the --config flag wins,
// then QUILL_CONFIG, then no file (defaults plus environment).
func configPath() string {
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}
	return os.Getenv("QUILL_CONFIG")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `quill v%s — Document Generation MCP Server

Usage:
  quill serve [--config path]   Start the MCP server (stdio transport)

Configuration:
  Settings come from built-in defaults, an optional YAML file
  (--config or QUILL_CONFIG), and QUILL_* environment variables,
  e.g. QUILL_SERVER_BASE_DIRECTORY=/path/to/references.

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "quill": {
        "command": "quill",
        "args": ["serve"],
        "env": {
          "QUILL_SERVER_BASE_DIRECTORY": "/path/to/references"
        }
      }
    }
  }
`, quillserver.Version)
}
