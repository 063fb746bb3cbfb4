package mcp

import (
	"io"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/fuabioo/xlcodec/internal/config"
)

func TestNewServer(t *testing.T) {
	cfg := config.Default()
	cfg.Accelerate = false
	log := logrus.New()
	log.SetOutput(io.Discard)

	srv := New(cfg, log)
	if srv == nil {
		t.Fatal("New() returned nil")
	}
	if srv.mcpServer == nil {
		t.Error("mcpServer is nil")
	}
	if srv.reader == nil || srv.writer == nil {
		t.Error("codec reader or writer is nil")
	}
}

func TestNewServerDefaults(t *testing.T) {
	srv := New(nil, nil)
	if srv.cfg == nil {
		t.Fatal("expected default config")
	}
	if srv.log == nil {
		t.Error("expected default logger")
	}
}

func TestJsonResult(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		shouldErr bool
	}{
		{
			name:  "simple string slice",
			input: []string{"a", "b", "c"},
		},
		{
			name:  "map",
			input: map[string]string{"key": "value"},
		},
		{
			name:  "nil",
			input: nil,
		},
		{
			name:      "unencodable",
			input:     map[string]any{"ch": make(chan int)},
			shouldErr: true,
		},
		{
			name:      "too large",
			input:     strings.Repeat("x", MaxOutputBytes+1),
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := jsonResult(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result == nil {
				t.Fatal("result is nil")
			}
			if result.IsError != tt.shouldErr {
				t.Errorf("IsError = %v; want %v", result.IsError, tt.shouldErr)
			}
		})
	}
}

func TestJsonResultWithMetadata(t *testing.T) {
	result, err := jsonResultWithMetadata([]int{1, 2}, 2, true, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := result.Content[0].(mcp.TextContent).Text
	for _, want := range []string{`"cells_returned":2`, `"truncated":true`, `"row_limit":10`, `"data":[1,2]`} {
		if !strings.Contains(text, want) {
			t.Errorf("result %s missing %s", text, want)
		}
	}
}
