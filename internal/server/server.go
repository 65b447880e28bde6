// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools and resources that depend on them. No
// business logic lives here, only wiring.
package server

import (
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HendryAvila/quill/internal/analyzer"
	"github.com/HendryAvila/quill/internal/config"
	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/HendryAvila/quill/internal/limits"
	"github.com/HendryAvila/quill/internal/pathguard"
	"github.com/HendryAvila/quill/internal/processors"
	"github.com/HendryAvila/quill/internal/resources"
	"github.com/HendryAvila/quill/internal/sanitize"
	"github.com/HendryAvila/quill/internal/seclog"
	"github.com/HendryAvila/quill/internal/templates"
	"github.com/HendryAvila/quill/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools and
// resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function flushes the logger and closes the
// audit database, and must be called on shutdown (typically via
// defer). It is always non-nil and safe to call even if audit init
// failed.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	// stdout carries the MCP transport, so the structured log goes to
	// stderr.
	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return nil, noop, fmt.Errorf("creating logger: %w", err)
	}

	// --- Security event log ---
	//
	// The audit store is an independent subsystem: if the SQLite
	// database cannot be opened, events still reach the structured log
	// and the server keeps working. We log a warning and run without
	// persistent audit history.

	logOpts := []seclog.Option{seclog.WithUserInputLogging(cfg.Logging.LogUserInput)}
	cleanup := func() { _ = logger.Sync() }

	var audit *seclog.Store
	if cfg.Security.AuditDBPath != "" {
		audit, err = seclog.OpenStore(cfg.Security.AuditDBPath)
		if err != nil {
			log.Printf("WARNING: audit store disabled: %v", err)
			audit = nil
		} else {
			logOpts = append(logOpts, seclog.WithSink(audit))
			store := audit
			cleanup = func() {
				if cerr := store.Close(); cerr != nil {
					log.Printf("WARNING: audit store close: %v", cerr)
				}
				_ = logger.Sync()
			}
		}
	}
	events := seclog.New(logger, logOpts...)

	// --- Ingestion pipeline ---

	fail := func(err error) (*server.MCPServer, func(), error) {
		cleanup()
		return nil, noop, err
	}

	guard, err := pathguard.New(cfg.Server.BaseDirectory, pathguard.Options{
		AllowAbsolutePaths: cfg.Security.AllowAbsolutePaths,
	}, events)
	if err != nil {
		return fail(fmt.Errorf("creating path guard: %w", err))
	}

	registry := processors.NewRegistry()
	sanitizer := sanitize.New(cfg.Security.MaxInputLength, events)
	limiter := limits.New(limits.Config{
		MaxFileSizeBytes:  cfg.Limits.MaxFileSizeBytes,
		FileTimeout:       time.Duration(cfg.Limits.FileTimeoutSeconds) * time.Second,
		BatchTimeout:      time.Duration(cfg.Limits.MaxProcessingSeconds) * time.Second,
		MaxConcurrent:     int64(cfg.Limits.MaxConcurrentFiles),
		RequestsPerMinute: cfg.Limits.MaxRequestsPerMinute,
	}, events)
	resourceAnalyzer := analyzer.New(guard, registry, sanitizer, limiter, events)

	// --- Document generation ---

	templateStore := templates.NewStore(events)
	if cfg.Server.TemplatesDir != "" {
		if err := templateStore.LoadDir(cfg.Server.TemplatesDir); err != nil {
			return fail(fmt.Errorf("loading templates: %w", err))
		}
	}
	service := docgen.NewService(templateStore, sanitizer)
	docStore, err := docgen.NewStore(cfg.Server.OutputDir)
	if err != nil {
		return fail(fmt.Errorf("creating document store: %w", err))
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		cfg.Server.Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register generation tools ---

	prdTool := tools.NewGeneratePRDTool(service, resourceAnalyzer)
	s.AddTool(prdTool.Definition(), prdTool.Handle)

	specTool := tools.NewGenerateSpecTool(service, resourceAnalyzer)
	s.AddTool(specTool.Definition(), specTool.Handle)

	designTool := tools.NewGenerateDesignTool(service, resourceAnalyzer)
	s.AddTool(designTool.Definition(), designTool.Handle)

	// --- Register analysis tools ---

	analyzeTool := tools.NewAnalyzeResourcesTool(resourceAnalyzer, service)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	formatsTool := tools.NewListFormatsTool(registry)
	s.AddTool(formatsTool.Definition(), formatsTool.Handle)

	// --- Register template tools ---

	listTemplatesTool := tools.NewListTemplatesTool(templateStore)
	s.AddTool(listTemplatesTool.Definition(), listTemplatesTool.Handle)

	customizeTool := tools.NewCustomizeTemplateTool(templateStore)
	s.AddTool(customizeTool.Definition(), customizeTool.Handle)

	// --- Register document tools ---

	saveTool := tools.NewSaveDocumentTool(docStore, sanitizer)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	validateTool := tools.NewValidateContentTool()
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	statsTool := tools.NewStatisticsTool(service, audit)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(registry, templateStore)
	s.AddResource(resourceHandler.FormatsResource(), resourceHandler.HandleFormats)
	s.AddResource(resourceHandler.TemplatesResource(), resourceHandler.HandleTemplates)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used before the logger exists.
func noop() {}

// newLogger builds the production JSON logger writing to stderr.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// serverInstructions returns the system instructions that tell the AI
// how to use quill effectively.
func serverInstructions() string {
	return `You have access to quill, a document generation MCP server.

## What quill does
quill generates project documents (PRDs, technical specifications, design
documents) from templates, optionally enriched with reference material
analyzed from a configured directory.

## CRITICAL: How the generate tools work
The generate tools are ASSEMBLY tools. They fill templates with content
YOU provide as parameters. The workflow for each document is:

1. TALK to the user to understand the project
2. GENERATE substantive content for each section yourself
3. CALL generate_prd / generate_spec / generate_design with that content
4. Review the assembled document, then persist it with save_generated_document

NEVER call a generate tool with placeholder text like "TBD". Sections you
omit keep a visible {placeholder} so the gap is obvious in the output.

## Reference material
When the server is configured with a base directory, set
include_references=true on a generate tool (or call analyze_resources
directly) to pull in local reference files. The analysis pipeline:
- only reads files inside the configured base directory
- extracts text from markdown, plain text, JSON, YAML, PDF and images
- sanitizes everything before it can reach a document
- skips files that fail any check and reports the reason per file

A rejected file never fails the run. If a file you expected is missing
from the results, check the rejected list for the reason.

## Templates
- list_templates shows the available templates with their placeholders
- customize_template derives a new template from an existing one;
  section bodies may only use {snake_case} placeholders
- pass template=<name> to a generate tool to use a custom template

## Validation
Before saving, validate_generated_content checks that a document has the
required sections for its type. Fix reported gaps, then save.

## Good practice
- Start with list_templates to see what sections a document type needs
- Provide content for every section parameter the tool accepts
- Use analyze_resources first when you want to inspect the reference
  material before embedding it
- Check get_generation_statistics to see what has been generated in
  this session`
}
