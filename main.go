// Command pagebuilder edits a multi-page website document over HTTP or MCP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pagebuilder/internal/app"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch command := os.Args[1]; command {
	case "serve":
		err = run(ctx, (*app.App).ServeHTTP)
	case "mcp":
		err = run(ctx, (*app.App).ServeMCP)
	case "show":
		err = show(ctx)
	case "version":
		fmt.Printf("pagebuilder version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts background work and blocks in serve until it returns.
func run(ctx context.Context, serve func(*app.App, context.Context) error) error {
	a, err := app.New(ctx, version)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if err := a.Start(ctx); err != nil {
		return err
	}
	return serve(a, ctx)
}

func show(ctx context.Context) error {
	a, err := app.New(ctx, version)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(a.Summary())
}

func printUsage() {
	fmt.Println("pagebuilder - build multi-page sites out of typed blocks")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pagebuilder serve     Serve the JSON API on PAGEBUILDER_HTTP_ADDR")
	fmt.Println("  pagebuilder mcp       Serve MCP tools on stdin/stdout")
	fmt.Println("  pagebuilder show      Print an outline of the stored site")
	fmt.Println("  pagebuilder version   Show version")
	fmt.Println("  pagebuilder help      Show this help")
	fmt.Println()
	fmt.Println("Configuration comes from PAGEBUILDER_* environment variables or a .env file.")
}
