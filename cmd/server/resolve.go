package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/linkflyer/venued/pkg/catalog"
	"github.com/linkflyer/venued/pkg/mcpquic"
	"github.com/linkflyer/venued/pkg/pipeline"
	"github.com/linkflyer/venued/pkg/venue"
)

// cmdResolve resolves one venue name and prints the outcome as JSON.
// With --remote it calls a running server over MCP/QUIC; otherwise it
// opens the local database directly.
func cmdResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	name := fs.String("venue", "", "venue name to resolve (required)")
	locality := fs.String("locality", "", "locality hint")
	remote := fs.String("remote", "", "server address for remote resolution (e.g. localhost:8430)")
	dbPath := fs.String("db", "venues.db", "path to the venue database (local mode)")
	fs.Parse(args)

	if *name == "" {
		fmt.Fprintln(os.Stderr, "Usage: venued resolve --venue <name> [--locality <city>] [--remote <addr>]")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *remote != "" {
		resolveRemote(ctx, *remote, *name, *locality)
		return
	}
	resolveLocal(ctx, *dbPath, *name, *locality)
}

func resolveLocal(ctx context.Context, dbPath, name, locality string) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := catalog.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	cache := catalog.NewCache(store, logger)
	if err := cache.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}

	p := pipeline.New(venue.NewResolver(cache, venue.Options{}), nil, "", logger)
	out := p.Resolve(ctx, pipeline.Event{VenueName: name, Locality: locality})
	printJSON(out)
	if !out.Matched {
		os.Exit(2)
	}
}

func resolveRemote(ctx context.Context, addr, name, locality string) {
	client := mcpquic.NewClient(addr, nil)
	if err := client.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer client.Close()

	result, err := client.CallTool(ctx, "resolve_venue", map[string]any{
		"venue_name": name,
		"locality":   locality,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve_venue: %v\n", err)
		os.Exit(1)
	}
	if result.IsError {
		fmt.Fprintf(os.Stderr, "resolve_venue: %s\n", toolResultText(result))
		os.Exit(1)
	}

	// The tool returns the outcome as JSON text; re-indent it.
	var out pipeline.Outcome
	if err := json.Unmarshal([]byte(toolResultText(result)), &out); err != nil {
		fmt.Println(toolResultText(result))
		return
	}
	printJSON(out)
	if !out.Matched {
		os.Exit(2)
	}
}

func toolResultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
