package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ironsheep/frame-cleaner/internal/cleaner"
	"github.com/ironsheep/frame-cleaner/internal/history"
	"github.com/ironsheep/frame-cleaner/internal/outcome"
)

// Name is the MCP implementation name.
const Name = "frame-cleaner"

// History is the run history the server reads. *history.Store satisfies it.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.RunInfo, error)
	Run(ctx context.Context, id string) (*outcome.Run, error)
}

// Server exposes the cleaning pipeline as MCP tools.
type Server struct {
	cleaner *cleaner.Cleaner
	history History
	cache   *InspectionCache
	log     *zap.Logger
	mcp     *mcp.Server
}

// New creates a server for c. hist may be nil, in which case the history
// tools are not offered.
func New(c *cleaner.Cleaner, hist History, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cleaner: c,
		history: hist,
		cache:   NewInspectionCache(),
		log:     logger,
		mcp:     mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil),
	}
	s.Register(s.mcp)
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Register adds every tool to srv.
func (s *Server) Register(srv *mcp.Server) {
	for _, tool := range GetToolDefinitions(s.history != nil) {
		srv.AddTool(tool, s.toolHandler(tool.Name))
	}
}

// Run serves MCP over stdin and stdout until the client disconnects or ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("serving MCP on stdio")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// toolHandler wraps executeTool in MCP's content format. The tool result is
// returned as pretty-printed JSON text; failures are tool errors, not
// protocol errors.
func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}

		log := s.log.With(zap.String("tool", name))
		log.Debug("tool call")

		result, err := s.executeTool(ctx, name, args)
		if err != nil {
			log.Warn("tool failed", zap.Error(err))
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: mustMarshalJSON(result)}},
		}, nil
	}
}
