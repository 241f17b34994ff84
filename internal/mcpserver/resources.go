package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/fscontext/mcp-server/internal/tools"
)

// registerResources wires the two resource endpoints spec.md §6 names:
// a static instructions document and the ResourceStore-backed
// filesystem-mcp://result/{uuid} template.
func registerResources(s *server.MCPServer, sess *tools.Session) {
	instructions := mcp.NewResource("internal://instructions", "Instructions",
		mcp.WithResourceDescription("Usage notes for this server's tools"),
		mcp.WithMIMEType("text/markdown"),
	)
	s.AddResource(instructions, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "internal://instructions",
				MIMEType: "text/markdown",
				Text:     instructionsDoc,
			},
		}, nil
	})

	resultTemplate := mcp.NewResourceTemplate("filesystem-mcp://result/{id}", "Materialized tool result",
		mcp.WithTemplateDescription("Full content for a tool result too large to return inline"),
	)
	s.AddResourceTemplate(resultTemplate, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		content, mimeType, ok := sess.Store.GetText(req.Params.URI)
		if !ok {
			return nil, errs.New(errs.NotFound, "resource not found or evicted").WithPath(req.Params.URI)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: mimeType,
				Text:     content,
			},
		}, nil
	})
}
