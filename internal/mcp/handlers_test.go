package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/fuabioo/xlcodec/internal/codec"
	"github.com/fuabioo/xlcodec/internal/config"
	"github.com/fuabioo/xlcodec/internal/model"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	originalPaths := AllowedBasePaths
	t.Cleanup(func() {
		AllowedBasePaths = originalPaths
	})

	dir := t.TempDir()
	if err := InitAllowedPaths([]string{dir}); err != nil {
		t.Fatalf("InitAllowedPaths failed: %v", err)
	}

	cfg := config.Default()
	cfg.Accelerate = false
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(cfg, log), dir
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]any) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}
	if result == nil {
		t.Fatal("result is nil")
	}
	textContent, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent type")
	}
	return textContent.Text, result.IsError
}

var testDocument = map[string]any{
	"sheets": []any{
		map[string]any{
			"name":   "Report",
			"merges": []any{"A3:B3"},
			"cells": []any{
				map[string]any{"ref": "A1", "value": "item"},
				map[string]any{"ref": "B1", "value": "qty"},
				map[string]any{"ref": "A2", "value": "bolts"},
				map[string]any{"ref": "B2", "value": 42},
				map[string]any{"ref": "A3", "value": "total", "hyperlink": map[string]any{"target": "https://example.com"}},
				map[string]any{"ref": "C3", "formula": "SUM(B2:B2)", "value": 42},
			},
		},
		map[string]any{
			"name":  "Empty",
			"cells": []any{},
		},
	},
}

func writeTestPackage(t *testing.T, dir string) string {
	t.Helper()
	wb, err := model.ParseDocument(mustJSON(t, testDocument))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	path := filepath.Join(dir, "report.xlsx")
	if err := codec.NewWriter().ExportFile(path, wb, codec.ExportOptions{}); err != nil {
		t.Fatalf("ExportFile failed: %v", err)
	}
	return path
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	return data
}

func TestHandleExport(t *testing.T) {
	srv, dir := newTestServer(t)
	target := filepath.Join(dir, "out.xlsx")

	text, isErr := callTool(t, srv.handleExport, "export_workbook", map[string]any{
		"file":     target,
		"workbook": testDocument,
	})
	if isErr {
		t.Fatalf("expected success, got error: %s", text)
	}

	var got struct {
		Success bool     `json:"success"`
		File    string   `json:"file"`
		Sheets  []string `json:"sheets"`
		Bytes   int64    `json:"bytes"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("failed to parse result JSON: %v", err)
	}
	if !got.Success {
		t.Error("expected success to be true")
	}
	if strings.Join(got.Sheets, ",") != "Report,Empty" {
		t.Errorf("sheets = %v; want [Report Empty]", got.Sheets)
	}
	if got.Bytes <= 0 {
		t.Errorf("bytes = %d; want > 0", got.Bytes)
	}

	res, err := codec.NewReader().ImportFile(target, codec.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	s := res.Workbook.Sheet("Report")
	if s == nil {
		t.Fatal("sheet Report missing after export")
	}
	if c, ok := s.Cell(1, 1); !ok || !model.Equal(c.Value, model.Number(42)) {
		t.Errorf("B2 = %+v; want 42", c)
	}
}

func TestHandleExportErrors(t *testing.T) {
	srv, dir := newTestServer(t)
	existing := writeTestPackage(t, dir)

	tests := []struct {
		name     string
		args     map[string]any
		errorMsg string
	}{
		{
			name:     "missing workbook",
			args:     map[string]any{"file": filepath.Join(dir, "a.xlsx")},
			errorMsg: "no workbook provided",
		},
		{
			name:     "empty path",
			args:     map[string]any{"workbook": testDocument},
			errorMsg: "file path cannot be empty",
		},
		{
			name:     "existing file without overwrite",
			args:     map[string]any{"file": existing, "workbook": testDocument},
			errorMsg: "file already exists",
		},
		{
			name:     "outside allowed paths",
			args:     map[string]any{"file": filepath.Join(t.TempDir(), "x.xlsx"), "workbook": testDocument},
			errorMsg: "access denied",
		},
		{
			name: "invalid document",
			args: map[string]any{
				"file":     filepath.Join(dir, "bad.xlsx"),
				"workbook": map[string]any{"sheets": []any{map[string]any{"name": "S", "cells": []any{map[string]any{"ref": "not a ref"}}}}},
			},
			errorMsg: "invalid cell reference",
		},
		{
			name:     "invalid compression",
			args:     map[string]any{"file": filepath.Join(dir, "c.xlsx"), "workbook": testDocument, "compression": 42},
			errorMsg: "invalid options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := callTool(t, srv.handleExport, "export_workbook", tt.args)
			if !isErr {
				t.Fatalf("expected error, got: %s", text)
			}
			if !strings.Contains(text, tt.errorMsg) {
				t.Errorf("expected error containing %q, got: %s", tt.errorMsg, text)
			}
		})
	}

	text, isErr := callTool(t, srv.handleExport, "export_workbook", map[string]any{
		"file":      existing,
		"workbook":  testDocument,
		"overwrite": true,
	})
	if isErr {
		t.Errorf("overwrite should succeed, got: %s", text)
	}
}

func TestHandleImport(t *testing.T) {
	srv, dir := newTestServer(t)
	path := writeTestPackage(t, dir)

	text, isErr := callTool(t, srv.handleImport, "import_workbook", map[string]any{
		"file":   path,
		"sheets": []any{"Report"},
	})
	if isErr {
		t.Fatalf("expected success, got error: %s", text)
	}

	var got struct {
		Data struct {
			Workbook model.Document `json:"workbook"`
			Stats    codec.Stats    `json:"stats"`
			Warnings []codec.Warning
		} `json:"data"`
		Metadata struct {
			CellsReturned int  `json:"cells_returned"`
			Truncated     bool `json:"truncated"`
			RowLimit      int  `json:"row_limit"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("failed to parse result JSON: %v", err)
	}
	if len(got.Data.Workbook.Sheets) != 1 || got.Data.Workbook.Sheets[0].Name != "Report" {
		t.Fatalf("sheets = %+v; want only Report", got.Data.Workbook.Sheets)
	}
	sheet := got.Data.Workbook.Sheets[0]
	if len(sheet.Merges) != 1 || sheet.Merges[0] != "A3:B3" {
		t.Errorf("merges = %v; want [A3:B3]", sheet.Merges)
	}
	if got.Metadata.RowLimit != DefaultRowLimit {
		t.Errorf("row_limit = %d; want %d", got.Metadata.RowLimit, DefaultRowLimit)
	}
	if got.Metadata.Truncated {
		t.Error("small sheet should not be truncated")
	}
	if got.Metadata.CellsReturned != got.Data.Stats.Cells || got.Data.Stats.Cells == 0 {
		t.Errorf("cells_returned = %d, stats.cells = %d", got.Metadata.CellsReturned, got.Data.Stats.Cells)
	}
}

func TestHandleImportRowLimit(t *testing.T) {
	srv, dir := newTestServer(t)
	path := writeTestPackage(t, dir)

	tests := []struct {
		name          string
		maxRows       any
		wantLimit     int
		wantTruncated bool
	}{
		{"one row", 1, 1, true},
		{"zero falls back to default", 0, DefaultRowLimit, false},
		{"capped at max", MaxRowLimit * 2, MaxRowLimit, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := callTool(t, srv.handleImport, "import_workbook", map[string]any{
				"file":     path,
				"max_rows": tt.maxRows,
			})
			if isErr {
				t.Fatalf("expected success, got error: %s", text)
			}
			var got struct {
				Metadata struct {
					Truncated bool `json:"truncated"`
					RowLimit  int  `json:"row_limit"`
				} `json:"metadata"`
			}
			if err := json.Unmarshal([]byte(text), &got); err != nil {
				t.Fatalf("failed to parse result JSON: %v", err)
			}
			if got.Metadata.RowLimit != tt.wantLimit {
				t.Errorf("row_limit = %d; want %d", got.Metadata.RowLimit, tt.wantLimit)
			}
			if got.Metadata.Truncated != tt.wantTruncated {
				t.Errorf("truncated = %v; want %v", got.Metadata.Truncated, tt.wantTruncated)
			}
		})
	}
}

func TestHandleImportErrors(t *testing.T) {
	srv, dir := newTestServer(t)

	notZip := filepath.Join(dir, "notes.xlsx")
	if err := os.WriteFile(notZip, []byte("plain text"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name     string
		file     string
		errorMsg string
	}{
		{"empty path", "", "file path cannot be empty"},
		{"missing file", filepath.Join(dir, "missing.xlsx"), "file not found"},
		{"not a package", notZip, "invalid package archive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := callTool(t, srv.handleImport, "import_workbook", map[string]any{"file": tt.file})
			if !isErr {
				t.Fatalf("expected error, got: %s", text)
			}
			if !strings.Contains(text, tt.errorMsg) {
				t.Errorf("expected error containing %q, got: %s", tt.errorMsg, text)
			}
		})
	}
}

func TestHandleInspect(t *testing.T) {
	srv, dir := newTestServer(t)
	path := writeTestPackage(t, dir)

	text, isErr := callTool(t, srv.handleInspect, "inspect_package", map[string]any{"file": path})
	if isErr {
		t.Fatalf("expected success, got error: %s", text)
	}

	var got struct {
		Parts []struct {
			Name string `json:"name"`
		} `json:"parts"`
		Sheets []struct {
			Name    string   `json:"name"`
			Rows    int      `json:"rows"`
			Headers []string `json:"headers"`
		} `json:"sheets"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("failed to parse result JSON: %v", err)
	}

	names := make([]string, 0, len(got.Parts))
	for _, p := range got.Parts {
		names = append(names, p.Name)
	}
	for _, want := range []string{"[Content_Types].xml", "xl/workbook.xml", "xl/worksheets/sheet1.xml"} {
		if !strings.Contains(strings.Join(names, " "), want) {
			t.Errorf("parts %v missing %s", names, want)
		}
	}
	if len(got.Sheets) != 2 {
		t.Fatalf("sheets = %d; want 2", len(got.Sheets))
	}
	if got.Sheets[0].Rows != 3 {
		t.Errorf("Report rows = %d; want 3", got.Sheets[0].Rows)
	}
	if strings.Join(got.Sheets[0].Headers, ",") != "item,qty" {
		t.Errorf("headers = %v; want [item qty]", got.Sheets[0].Headers)
	}
}

func TestHandleVerify(t *testing.T) {
	srv, dir := newTestServer(t)
	path := writeTestPackage(t, dir)

	text, isErr := callTool(t, srv.handleVerify, "verify_package", map[string]any{"file": path})
	if isErr {
		t.Fatalf("expected success, got error: %s", text)
	}

	var got struct {
		OK     bool `json:"ok"`
		Report struct {
			Sheets     int `json:"sheets"`
			Merges     int `json:"merges"`
			Hyperlinks int `json:"hyperlinks"`
		} `json:"report"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("failed to parse result JSON: %v", err)
	}
	if !got.OK {
		t.Errorf("verify reported mismatches: %s", text)
	}
	if got.Report.Sheets != 2 || got.Report.Merges != 1 || got.Report.Hyperlinks != 1 {
		t.Errorf("report = %+v", got.Report)
	}
}
