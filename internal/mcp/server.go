package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/fuabioo/xlcodec/internal/accel"
	"github.com/fuabioo/xlcodec/internal/codec"
	"github.com/fuabioo/xlcodec/internal/config"
	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/verify"
)

// Server wraps the MCP server
type Server struct {
	mcpServer *server.MCPServer
	cfg       *config.Config
	log       logrus.FieldLogger
	reader    *codec.Reader
	writer    *codec.Writer
}

// New creates a new MCP server with all tools registered. A nil cfg uses
// config.Default; a nil log writes to stderr at the configured level.
func New(cfg *config.Config, log logrus.FieldLogger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		l.SetLevel(cfg.Level())
		log = l
	}

	readerOpts := []codec.Option{codec.WithLogger(log)}
	if cfg.Accelerate {
		bridge := accel.New(accel.WithLogger(log))
		if err := bridge.EnsureLoaded(context.Background()); err != nil {
			log.WithError(err).Info("accelerated parser unavailable, using structural parsers")
		} else {
			readerOpts = append(readerOpts, codec.WithAccelerator(bridge))
		}
	}

	s := server.NewMCPServer(
		"xlcodec",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		cfg:       cfg,
		log:       log,
		reader:    codec.NewReader(readerOpts...),
		writer:    codec.NewWriter(codec.WithLogger(log)),
	}
	srv.registerTools()

	return srv
}

// Run starts the MCP server on stdio
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	// export_workbook tool - Write a JSON workbook document as xlsx
	s.mcpServer.AddTool(mcp.NewTool("export_workbook",
		mcp.WithDescription("Write a workbook, given as a JSON document (sheets, cells, styles, merges, hyperlinks, comments), to an xlsx file"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path for the xlsx file")),
		mcp.WithObject("workbook", mcp.Required(), mcp.Description(`Workbook document: {"sheets":[{"name":"Sheet1","cells":[{"ref":"A1","value":"hi"}]}]}`)),
		mcp.WithBoolean("overwrite", mcp.Description("Allow overwriting an existing file (default: false)")),
		mcp.WithBoolean("inline_strings", mcp.Description("Store text inline instead of in the shared-string table")),
		mcp.WithNumber("compression", mcp.Description("Deflate level -2..9 (0: default)")),
	), s.handleExport)

	// import_workbook tool - Read an xlsx file into a JSON workbook document
	s.mcpServer.AddTool(mcp.NewTool("import_workbook",
		mcp.WithDescription("Read an xlsx file into a JSON workbook document with warnings and statistics (max 10000 rows per sheet)"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to xlsx file")),
		mcp.WithArray("sheets", mcp.Description("Sheet names to import (default: all)"), mcp.WithStringItems()),
		mcp.WithNumber("max_rows", mcp.Description("Rows per sheet (default: 1000, max: 10000)")),
		mcp.WithBoolean("skip_styles", mcp.Description("Do not resolve cell styles")),
	), s.handleImport)

	// inspect_package tool - List parts and sheet summaries
	s.mcpServer.AddTool(mcp.NewTool("inspect_package",
		mcp.WithDescription("List the parts of an xlsx package and summarize each sheet (rows, columns, headers)"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to xlsx file")),
	), s.handleInspect)

	// verify_package tool - Cross-check with an independent reader
	s.mcpServer.AddTool(mcp.NewTool("verify_package",
		mcp.WithDescription("Import an xlsx file and compare the result with what excelize reads from the same file"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to xlsx file")),
	), s.handleVerify)
}

// Tool handlers

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file := request.GetString("file", "")
	overwrite := request.GetBool("overwrite", false)

	var args struct {
		Workbook json.RawMessage `json:"workbook"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse workbook: %v", err)), nil
	}
	if len(args.Workbook) == 0 {
		return mcp.NewToolResultError("no workbook provided"), nil
	}
	wb, err := model.ParseDocument(args.Workbook)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	validPath, err := ValidateWritePath(file, overwrite)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := s.cfg.Export
	opts.InlineStrings = request.GetBool("inline_strings", opts.InlineStrings)
	opts.CompressionLevel = request.GetInt("compression", opts.CompressionLevel)

	if err := s.writer.ExportFile(validPath, wb, opts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := os.Stat(validPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"success": true,
		"file":    validPath,
		"sheets":  wb.SheetNames(),
		"bytes":   info.Size(),
	})
}

func (s *Server) readPackage(file string) ([]byte, string, error) {
	validPath, err := ValidateFilePath(file)
	if err != nil {
		return nil, "", err
	}
	info, err := os.Stat(validPath)
	if err != nil {
		return nil, "", err
	}
	if info.Size() > MaxPackageBytes {
		return nil, "", fmt.Errorf("package too large (%d bytes, max %d bytes)", info.Size(), MaxPackageBytes)
	}
	data, err := os.ReadFile(validPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, validPath, nil
}

func (s *Server) handleImport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file := request.GetString("file", "")

	limit := request.GetInt("max_rows", DefaultRowLimit)
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	if limit > MaxRowLimit {
		limit = MaxRowLimit
	}

	var args struct {
		Sheets []string `json:"sheets"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse sheets: %v", err)), nil
	}

	data, _, err := s.readPackage(file)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := s.cfg.Import
	if len(args.Sheets) > 0 {
		opts.Sheets = args.Sheets
		opts.SheetIndexes = nil
	}
	opts.MaxRows = limit
	opts.SkipStyles = request.GetBool("skip_styles", opts.SkipStyles)

	res, err := s.reader.Import(data, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	truncated := false
	for _, w := range res.Warnings {
		if w.Code == codec.WarnRowsTruncated {
			truncated = true
		}
	}
	return jsonResultWithMetadata(map[string]any{
		"workbook": model.NewDocument(res.Workbook),
		"stats":    res.Stats,
		"warnings": res.Warnings,
	}, res.Stats.Cells, truncated, limit)
}

func (s *Server) handleInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _, err := s.readPackage(request.GetString("file", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := verify.Inspect(data, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(info)
}

func (s *Server) handleVerify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _, err := s.readPackage(request.GetString("file", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.reader.Import(data, codec.ImportOptions{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := verify.Check(data, res.Workbook)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"ok":       report.OK(),
		"report":   report,
		"warnings": res.Warnings,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("JSON encoding error: %v", err)), nil
	}

	// Check output size limit
	if len(data) > MaxOutputBytes {
		return mcp.NewToolResultError(fmt.Sprintf("Output too large (%d bytes, max %d bytes). Try selecting fewer sheets or rows.", len(data), MaxOutputBytes)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func jsonResultWithMetadata(data any, cellsReturned int, truncated bool, limit int) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"data": data,
		"metadata": map[string]any{
			"cells_returned": cellsReturned,
			"truncated":      truncated,
			"row_limit":      limit,
		},
	})
}
