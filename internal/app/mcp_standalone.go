package app

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects
// or ctx is cancelled. Logs go to stderr so they never corrupt the stream.
func (a *App) ServeMCP(ctx context.Context) error {
	stdio := server.NewStdioServer(a.mcp.MCPServer())
	a.logger.Info("starting MCP stdio server", zap.String("site", a.cfg.Site.ID))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
