package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "content", err: ContentError("bad frontmatter").Build(), expected: 9},
		{name: "render", err: RenderError("template failed").Build(), expected: 11},
		{name: "wrapped render", err: fmt.Errorf("build: %w", RenderError("template failed").Build()), expected: 11},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified", err: fmt.Errorf("plain"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	internal := InternalError("nil node").Build()
	require.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(internal))
	require.Contains(t, verbose.FormatError(internal), "nil node")

	cfg := ConfigError("content.dir is required").Build()
	require.Equal(t, "Error: [config:error] content.dir is required", quiet.FormatError(cfg))

	require.Equal(t, "Error: plain", quiet.FormatError(fmt.Errorf("plain")))
	require.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)

	err := RenderError("write page").WithContext("path", "/a/").Build()
	code := adapter.Report(&out, err)

	require.Equal(t, 11, code)
	require.Contains(t, out.String(), "write page")
	require.Contains(t, logs.String(), "category=render")
	require.Contains(t, logs.String(), "path=/a/")
}
