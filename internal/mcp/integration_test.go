package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/mcq-extractor/internal/descriptions"
)

// handle sends one JSON-RPC message through the MCP server and returns the
// encoded response.
func handle(t *testing.T, s *Server, message string) string {
	t.Helper()
	resp := s.mcpServer.HandleMessage(context.Background(), json.RawMessage(message))
	if resp == nil {
		t.Fatalf("no response to %s", message)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
	return string(data)
}

func TestServerToolsRegistration(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := handle(t, env.server, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	for _, name := range descriptions.GetAllToolNames() {
		if !strings.Contains(resp, `"name":"`+name+`"`) {
			t.Errorf("tool %s not registered: %s", name, resp)
		}
	}
}

func TestServerIntegration(t *testing.T) {
	env := newTestEnv(t, map[string][]string{
		"anatomy.pdf": {deltoidPage, absencePage},
	})
	path := filepath.Join(env.dir, "anatomy.pdf")

	call := func(name string, args map[string]interface{}) string {
		params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
		if err != nil {
			t.Fatalf("failed to encode params: %v", err)
		}
		return handle(t, env.server, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":`+string(params)+`}`)
	}

	resp := call("detect_format", map[string]interface{}{"path": path})
	if !strings.Contains(resp, "NUMBER_DOT (1 files)") {
		t.Errorf("expected number_dot detection, got: %s", resp)
	}

	resp = call("extract_questions", map[string]interface{}{"path": path, "save": true})
	if !strings.Contains(resp, "Saved 2 question(s)") {
		t.Errorf("expected questions to be saved, got: %s", resp)
	}

	resp = call("bank_stats", map[string]interface{}{})
	if !strings.Contains(resp, "Total questions: 2") {
		t.Errorf("expected bank statistics, got: %s", resp)
	}

	resp = call("find_similar", map[string]interface{}{})
	if !strings.Contains(resp, "No similar questions found at threshold 0.80") {
		t.Errorf("expected no similar pairs, got: %s", resp)
	}
}

func TestServerConfiguration(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := handle(t, env.server, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`)

	if !strings.Contains(resp, `"name":"test-server"`) {
		t.Errorf("expected server name in initialize response, got: %s", resp)
	}
	if !strings.Contains(resp, `"version":"`+env.config.Version+`"`) {
		t.Errorf("expected server version in initialize response, got: %s", resp)
	}
}

func TestToolDescriptions(t *testing.T) {
	names := descriptions.GetAllToolNames()
	if len(names) != 5 {
		t.Errorf("expected 5 tools, got %d", len(names))
	}
	for _, name := range names {
		if descriptions.GetToolDescription(name) == "Tool description not available" {
			t.Errorf("tool %s has no description", name)
		}
	}
	if descriptions.GetToolDescription("pdf_read_file") != "Tool description not available" {
		t.Error("expected fallback description for unknown tool")
	}
}
