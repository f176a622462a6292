package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/kortex-labs/memory-enforce/internal/tools"
	"github.com/kortex-labs/memory-enforce/pkg/protocol"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "Echo the input back" }

func (echoTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {"value": {"type": "string"}}}`)
}

func (echoTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var params struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, err
	}
	return map[string]string{"value": params.Value}, nil
}

type noopClientHandler struct{}

func (noopClientHandler) Handle(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) {}

func newTestClient(t *testing.T) *jsonrpc2.Conn {
	t.Helper()

	registry := tools.NewRegistry()
	if err := registry.Register(echoTool{}); err != nil {
		t.Fatal(err)
	}
	server := NewServer(registry)

	clientSide, serverSide := net.Pipe()
	ctx := context.Background()

	go server.Serve(ctx, serverSide)

	client := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.PlainObjectCodec{}),
		noopClientHandler{})
	t.Cleanup(func() { client.Close() })

	return client
}

func TestInitializeNegotiatesVersion(t *testing.T) {
	client := newTestClient(t)

	var result protocol.InitializeResult
	err := client.Call(context.Background(), "initialize", map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]string{"name": "test", "version": "1.0"},
	}, &result)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("negotiated %s, want echo of supported client version", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "memory-enforce" {
		t.Errorf("server name = %s", result.ServerInfo.Name)
	}
}

func TestInitializeFallsBackOnUnknownVersion(t *testing.T) {
	client := newTestClient(t)

	var result protocol.InitializeResult
	err := client.Call(context.Background(), "initialize", map[string]interface{}{
		"protocolVersion": "1999-01-01",
	}, &result)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if result.ProtocolVersion != "2025-06-18" {
		t.Errorf("fallback version = %s", result.ProtocolVersion)
	}
}

func TestListAndCallTool(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	var list protocol.ListToolsResult
	if err := client.Call(ctx, "tools/list", struct{}{}, &list); err != nil {
		t.Fatalf("tools/list: %v", err)
	}
	if len(list.Tools) != 1 || list.Tools[0].Name != "echo" {
		t.Fatalf("tools = %+v", list.Tools)
	}

	var result protocol.ToolResult
	err := client.Call(ctx, "tools/call", map[string]interface{}{
		"name":      "echo",
		"arguments": map[string]string{"value": "institutional memory"},
	}, &result)
	if err != nil {
		t.Fatalf("tools/call: %v", err)
	}

	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("content = %+v", result.Content)
	}
	if !strings.Contains(result.Content[0].Text, "institutional memory") {
		t.Errorf("text = %s", result.Content[0].Text)
	}
}

func TestUnknownMethodAndTool(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.Call(ctx, "no/such/method", struct{}{}, &struct{}{})
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc2.CodeMethodNotFound {
		t.Fatalf("unknown method error = %v", err)
	}

	err = client.Call(ctx, "tools/call", map[string]interface{}{"name": "missing"}, &struct{}{})
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32601 {
		t.Fatalf("unknown tool error = %v", err)
	}
}
