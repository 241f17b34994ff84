// Command fs-context-mcp is the stdio entrypoint: it parses CLI flags
// and environment, wires internal/roots, internal/sandbox,
// internal/errs, internal/resources, and internal/tools into one
// Session, registers every tool and resource via internal/mcpserver,
// and serves the MCP stdio transport. Grounded on the teacher's
// main()/getRoot(), generalized from a single fixed root to the
// dynamic multi-root model.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mark3labs/mcp-go/server"

	"github.com/fscontext/mcp-server/internal/concurrency"
	"github.com/fscontext/mcp-server/internal/config"
	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/fscontext/mcp-server/internal/mcpserver"
	"github.com/fscontext/mcp-server/internal/resources"
	"github.com/fscontext/mcp-server/internal/roots"
	"github.com/fscontext/mcp-server/internal/sandbox"
	"github.com/fscontext/mcp-server/internal/tools"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fatal(err)
	}

	logger := log.New(os.Stderr, "fs-context-mcp: ", log.LstdFlags)
	supervisor := roots.New(cfg.AllowedRoots, cfg.AllowCWD, nil, logger)
	supervisor.OnInitialized(context.Background())

	sensitive := sandbox.NewSensitiveList(cfg.AllowSensitiveOverride, cfg.AllowlistPatterns)
	sb := sandbox.New(supervisor, sensitive)

	diag := errs.NewDiagnostics(cfg.DiagnosticsEnabled, cfg.DiagnosticsDetail)
	if cfg.ToolLogErrors {
		subscribeErrorLogger(diag, logger)
	}

	store := resources.New(resources.DefaultMaxEntries, resources.DefaultMaxTotalBytes)
	sess := tools.NewSession(sb, supervisor, store, diag, concurrency.DefaultParallelism)

	printBanner(supervisor.Roots(), cfg.AllowCWD)

	srv := mcpserver.New(sess, cfg.Compat)
	if err := server.ServeStdio(srv); err != nil {
		logger.Printf("server error: %v", err)
		fatal(err)
	}
}

// subscribeErrorLogger mirrors the teacher's dprintf debug channel, but
// as a Diagnostics subscriber instead of a hand-rolled global logger, so
// FS_CONTEXT_TOOL_LOG_ERRORS can be toggled without touching call sites.
func subscribeErrorLogger(diag *errs.Diagnostics, logger *log.Logger) {
	events, _ := diag.SubscribeTool(32)
	go func() {
		for ev := range events {
			if ev.Phase == "end" && !ev.OK {
				logger.Printf("tool %s failed: %s", ev.Tool, ev.Error)
			}
		}
	}()
}

// printBanner writes a startup summary to stderr, colorized when stderr
// is a terminal (github.com/fatih/color + github.com/mattn/go-isatty,
// the same pair mutagen-io/mutagen uses to gate CLI colorization).
func printBanner(allowedRoots []string, allowCWD bool) {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	bold := color.New(color.Bold)
	faint := color.New(color.FgHiBlack)
	if !useColor {
		bold.DisableColor()
		faint.DisableColor()
	}
	bold.Fprintln(os.Stderr, "fs-context-mcp starting")
	faint.Fprintf(os.Stderr, "  allow-cwd: %v\n", allowCWD)
	for _, r := range allowedRoots {
		faint.Fprintf(os.Stderr, "  root: %s\n", r)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
