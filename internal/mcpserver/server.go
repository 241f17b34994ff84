// Package mcpserver registers every FileOpsPrimitive from internal/tools
// as an MCP tool against mark3labs/mcp-go, plus the two resource
// endpoints spec.md §6 describes. Grounded on the teacher's server.go
// (mcp.NewTool/mcp.With*/s.AddTool/mcp.NewStructuredToolHandler), scaled
// from six tools to the full §6 catalog and generalized to the
// compat-vs-structured output split the teacher already distinguished
// with --compat.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fscontext/mcp-server/internal/tools"
)

// instructionsDoc is served at internal://instructions (spec.md §6), a
// short primer a client can surface to a model before it starts calling
// tools.
const instructionsDoc = `# fs-context-mcp

Every path argument is resolved against the server's allowed roots
(see the ` + "`roots`" + ` tool). Paths that resolve outside every allowed
root, including through a symlink, fail with ` + "`E_ACCESS_DENIED`" + `.

Large text results are truncated and exposed as a
` + "`filesystem-mcp://result/{uuid}`" + ` resource; read it with a normal
resource read to get the full content.
`

// adapt wraps a tools.Invoke-style handler into the
// mcp.StructuredToolHandlerFunc shape the teacher's server.go already
// used (req.BindArguments into TArgs, return TResult).
func adapt[A, R any](sess *tools.Session, name string, fn func(context.Context, *tools.Session, A) (R, error)) mcp.StructuredToolHandlerFunc[A, R] {
	return func(ctx context.Context, _ mcp.CallToolRequest, args A) (R, error) {
		return tools.Invoke(ctx, sess, name, args, fn)
	}
}

// editOpSchema describes one {oldText, newText} pair for edit's edits[]
// array argument.
var editOpSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"oldText": map[string]any{"type": "string"},
		"newText": map[string]any{"type": "string"},
	},
	"required": []string{"oldText", "newText"},
}

// New builds the MCP server and registers every tool and resource.
// compat mirrors the teacher's --compat flag: plain-text tool results
// instead of the mcp-go structured-output schema, for clients that
// don't yet speak structured tool output.
func New(sess *tools.Session, compat bool) *server.MCPServer {
	s := server.NewMCPServer("fs-context-mcp", "0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
	)

	register(s, sess, compat, "roots", "List the currently allowed root directories.",
		nil, adapt(sess, "roots", tools.Roots))

	register(s, sess, compat, "ls", "List a directory's immediate entries.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Description("Directory to list (default '.')")),
			mcp.WithBoolean("includeIgnored", mcp.Description("Include .gitignore-matched entries")),
			mcp.WithBoolean("includeHidden", mcp.Description("Include dotfiles")),
			mcp.WithString("sortBy", mcp.Enum("name", "size", "modified"), mcp.Description("Sort order (default name)")),
		}, adapt(sess, "ls", tools.Ls))

	register(s, sess, compat, "find", "Find paths under a directory matching a glob pattern.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("Directory to search under")),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("Glob pattern, supports ** for recursion")),
			mcp.WithArray("excludePatterns", mcp.Items(map[string]any{"type": "string"}), mcp.Description("Glob patterns to exclude")),
			mcp.WithNumber("maxResults", mcp.Min(1), mcp.Description("Maximum matches to return")),
			mcp.WithNumber("maxDepth", mcp.Min(0), mcp.Description("Maximum recursion depth (0 = unlimited)")),
		}, adapt(sess, "find", tools.Find))

	register(s, sess, compat, "tree", "Render a recursive, depth-capped directory tree.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("Directory to render")),
			mcp.WithNumber("maxDepth", mcp.Min(0), mcp.Description("Maximum recursion depth (0 = unlimited)")),
			mcp.WithNumber("maxEntries", mcp.Min(1), mcp.Description("Maximum entries to return")),
			mcp.WithBoolean("includeHidden", mcp.Description("Include dotfiles")),
			mcp.WithBoolean("includeIgnored", mcp.Description("Include .gitignore-matched entries")),
		}, adapt(sess, "tree", tools.Tree))

	register(s, sess, compat, "read", "Read a file's content, optionally windowed by head/tail/line range.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("File to read")),
			mcp.WithNumber("head", mcp.Min(1), mcp.Description("Return only the first N lines")),
			mcp.WithNumber("tail", mcp.Min(1), mcp.Description("Return only the last N lines")),
			mcp.WithNumber("lineStart", mcp.Min(1), mcp.Description("1-based inclusive start line; requires lineEnd")),
			mcp.WithNumber("lineEnd", mcp.Min(1), mcp.Description("1-based inclusive end line; requires lineStart")),
			mcp.WithBoolean("skipBinary", mcp.Description("Fail with E_BINARY_FILE instead of returning binary content")),
			mcp.WithNumber("maxFileSize", mcp.Min(1), mcp.Description("Byte cap for a whole-file read")),
		}, adapt(sess, "read", tools.Read))

	register(s, sess, compat, "read_many", "Read several files in parallel with per-entry error capture.",
		[]mcp.ToolOption{
			mcp.WithArray("paths", mcp.Required(), mcp.Items(map[string]any{"type": "string"}), mcp.Description("Files to read")),
			mcp.WithNumber("head", mcp.Min(1), mcp.Description("Return only the first N lines of each file")),
			mcp.WithNumber("maxTotalSize", mcp.Min(1), mcp.Description("Per-entry byte cap")),
		}, adapt(sess, "read_many", tools.ReadMany))

	register(s, sess, compat, "stat", "Return metadata for a single path without dereferencing symlinks.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to stat")),
		}, adapt(sess, "stat", tools.Stat))

	register(s, sess, compat, "stat_many", "Stat several paths in parallel with per-entry error capture.",
		[]mcp.ToolOption{
			mcp.WithArray("paths", mcp.Required(), mcp.Items(map[string]any{"type": "string"}), mcp.Description("Paths to stat")),
		}, adapt(sess, "stat_many", tools.StatMany))

	register(s, sess, compat, "grep", "Search files recursively for a literal substring or regex.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Description("Directory to search under (default '.')")),
			mcp.WithString("pattern", mcp.Required(), mcp.Description("Substring or regex to find")),
			mcp.WithBoolean("isRegex", mcp.Description("Interpret pattern as a regular expression")),
			mcp.WithString("filePattern", mcp.Description("Glob restricting candidate files (default '**/*')")),
			mcp.WithNumber("contextLines", mcp.Min(0), mcp.Description("Lines of context before and after each match")),
			mcp.WithBoolean("caseSensitive", mcp.Description("Case-sensitive matching")),
			mcp.WithBoolean("wholeWord", mcp.Description("Require word boundaries around the match")),
			mcp.WithBoolean("isLiteral", mcp.Description("Force literal (non-regex) matching")),
			mcp.WithNumber("maxResults", mcp.Min(1), mcp.Description("Maximum matches to return")),
			mcp.WithNumber("timeoutMs", mcp.Min(1), mcp.Description("Per-file scan timeout in milliseconds")),
		}, adapt(sess, "grep", tools.Grep))

	register(s, sess, compat, "mkdir", "Create a directory and its parents.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("Directory to create")),
		}, adapt(sess, "mkdir", tools.Mkdir))

	register(s, sess, compat, "write", "Create or overwrite a file atomically.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("Target file path")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Content to write")),
			mcp.WithString("mode", mcp.Pattern("^0?[0-7]{3,4}$"), mcp.Description("File mode in octal; defaults to 0644")),
		}, adapt(sess, "write", tools.Write))

	register(s, sess, compat, "edit", "Apply sequential oldText/newText replacements to a file.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("Target text file")),
			mcp.WithArray("edits", mcp.Required(), mcp.Items(editOpSchema), mcp.Description("Ordered {oldText, newText} replacements")),
			mcp.WithBoolean("dryRun", mcp.Description("Preview the diff without writing")),
		}, adapt(sess, "edit", tools.Edit))

	register(s, sess, compat, "mv", "Move or rename a file, falling back to copy+delete across devices.",
		[]mcp.ToolOption{
			mcp.WithString("source", mcp.Required(), mcp.Description("Existing path")),
			mcp.WithString("destination", mcp.Required(), mcp.Description("New path")),
		}, adapt(sess, "mv", tools.Mv))

	register(s, sess, compat, "rm", "Remove a file or directory.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to remove")),
			mcp.WithBoolean("recursive", mcp.Description("Required to remove a non-empty directory")),
			mcp.WithBoolean("ignoreIfNotExists", mcp.Description("Succeed as a no-op if the path is already absent")),
		}, adapt(sess, "rm", tools.Rm))

	register(s, sess, compat, "calculate_hash", "Compute a SHA-256 (file) or composite (directory) content hash.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("File or directory to hash")),
		}, adapt(sess, "calculate_hash", tools.CalculateHash))

	register(s, sess, compat, "diff_files", "Produce a unified diff between two files.",
		[]mcp.ToolOption{
			mcp.WithString("original", mcp.Required(), mcp.Description("Original file")),
			mcp.WithString("modified", mcp.Required(), mcp.Description("Modified file")),
			mcp.WithNumber("context", mcp.Min(0), mcp.Description("Context lines around each hunk (default 3)")),
		}, adapt(sess, "diff_files", tools.DiffFiles))

	register(s, sess, compat, "apply_patch", "Apply a unified diff to a file, with fuzz-tolerant context matching.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Required(), mcp.Description("File to patch")),
			mcp.WithString("patch", mcp.Required(), mcp.Description("Unified diff text")),
			mcp.WithBoolean("dryRun", mcp.Description("Preview without writing")),
			mcp.WithNumber("fuzzFactor", mcp.Min(0), mcp.Description("Tolerated mismatching context lines per hunk")),
			mcp.WithNumber("maxFileSize", mcp.Min(1), mcp.Description("Byte cap on the target file and patch text")),
		}, adapt(sess, "apply_patch", tools.ApplyPatch))

	register(s, sess, compat, "search_and_replace", "Search and replace across files matching a glob.",
		[]mcp.ToolOption{
			mcp.WithString("path", mcp.Description("Directory to search under (default '.')")),
			mcp.WithString("filePattern", mcp.Description("Glob restricting candidate files (default '**/*')")),
			mcp.WithString("searchPattern", mcp.Required(), mcp.Description("Substring or regex to find")),
			mcp.WithString("replacement", mcp.Required(), mcp.Description("Replacement text")),
			mcp.WithBoolean("isRegex", mcp.Description("Interpret searchPattern as a regular expression")),
			mcp.WithBoolean("caseSensitive", mcp.Description("Case-sensitive matching")),
			mcp.WithBoolean("dryRun", mcp.Description("Report matches without writing")),
		}, adapt(sess, "search_and_replace", tools.SearchAndReplace))

	registerResources(s, sess)

	return s
}

// register mirrors the teacher's compat/structured split: WithOutputSchema
// plus mcp.NewStructuredToolHandler when compat is off, a text-formatting
// wrapper when it's on.
func register[A, R any](s *server.MCPServer, sess *tools.Session, compat bool, name, desc string, opts []mcp.ToolOption, handler mcp.StructuredToolHandlerFunc[A, R]) {
	full := append([]mcp.ToolOption{mcp.WithDescription(desc)}, opts...)
	if !compat {
		full = append(full, mcp.WithOutputSchema[R]())
	}
	tool := mcp.NewTool(name, full...)
	if compat {
		s.AddTool(tool, wrapTextHandler(handler))
		return
	}
	s.AddTool(tool, mcp.NewStructuredToolHandler(handler))
}

// wrapTextHandler adapts a structured handler to mcp-go's plain
// CallToolResult shape, the same pattern the teacher's server.go used
// for --compat mode, generalized with fmt.Sprintf("%+v", ...) since the
// full catalog's result types are too numerous to hand-format one by
// one the way the teacher did for its six tools.
func wrapTextHandler[A, R any](h mcp.StructuredToolHandlerFunc[A, R]) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args A
		if err := req.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}
		res, err := h(ctx, req, args)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(fmt.Sprintf("%+v", res)), nil
	}
}
