package mcp

import (
	"context"
	"errors"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/phraseclip/internal/loader"
	"github.com/dshills/phraseclip/internal/logger"
	"github.com/dshills/phraseclip/internal/phraseindex"
	"github.com/dshills/phraseclip/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "phraseclip"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// PhraseIndex is the read side of phraseindex.Index
type PhraseIndex interface {
	Search(ctx context.Context, query string) (*phraseindex.SearchResponse, error)
	GetByID(ctx context.Context, id int64) (*types.Phrase, error)
	Stats(ctx context.Context) (*types.Stats, error)
}

// ManifestLoader imports clip manifests
type ManifestLoader interface {
	Load(ctx context.Context, path string, rebuild bool) (*loader.Statistics, error)
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	index  PhraseIndex
	loader ManifestLoader
	log    *logger.Logger
}

// NewServer creates an MCP server over index. The load_manifest tool is
// only registered when ld is non-nil.
func NewServer(index PhraseIndex, ld ManifestLoader, log *logger.Logger) (*Server, error) {
	if index == nil {
		return nil, errors.New("phrase index is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		index:  index,
		loader: ld,
		log:    log,
	}
	s.registerTools()
	return s, nil
}

// Serve runs the protocol on stdio until ctx is cancelled or stdin closes.
// Nothing else may write to stdout while it runs.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("MCP server listening on stdio", "name", ServerName, "version", ServerVersion)
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchPhrasesTool(), s.handleSearchPhrases)
	s.mcp.AddTool(getPhraseTool(), s.handleGetPhrase)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)

	if s.loader != nil {
		s.mcp.AddTool(loadManifestTool(), s.handleLoadManifest)
	}
}
