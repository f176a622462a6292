package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/kortex-labs/memory-enforce/internal/tools"
	"github.com/kortex-labs/memory-enforce/pkg/protocol"
	"github.com/kortex-labs/memory-enforce/pkg/version"
)

type handler struct {
	server *Server
}

func newHandler(s *Server) *handler {
	return &handler{server: s}
}

func (h *handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	switch req.Method {
	case "initialize":
		h.reply(ctx, conn, req, h.handleInitialize(req))
	case "ping":
		h.reply(ctx, conn, req, struct{}{})
	case "tools/list":
		h.reply(ctx, conn, req, h.handleListTools())
	case "tools/call":
		result, err := h.handleCallTool(ctx, req)
		if err != nil {
			h.replyError(ctx, conn, req, err)
			return
		}
		h.reply(ctx, conn, req, result)
	case "notifications/initialized", "initialized":
		// notification, nothing to send back
	default:
		if req.Notif {
			return
		}
		h.replyError(ctx, conn, req, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		})
	}
}

func (h *handler) reply(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, result interface{}) {
	if req.Notif {
		return
	}
	if err := conn.Reply(ctx, req.ID, result); err != nil {
		log.Error("reply failed", "method", req.Method, "error", err)
	}
}

func (h *handler) replyError(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, err error) {
	if req.Notif {
		return
	}

	rpcErr, ok := err.(*jsonrpc2.Error)
	if !ok {
		code := int64(jsonrpc2.CodeInternalError)
		if toolErr, isTool := err.(*tools.ToolError); isTool {
			code = int64(toolErr.Code)
		}
		rpcErr = &jsonrpc2.Error{Code: code, Message: err.Error()}
	}

	if replyErr := conn.ReplyWithError(ctx, req.ID, rpcErr); replyErr != nil {
		log.Error("error reply failed", "method", req.Method, "error", replyErr)
	}
}

func (h *handler) handleInitialize(req *jsonrpc2.Request) *protocol.InitializeResult {
	var params struct {
		ProtocolVersion string `json:"protocolVersion"`
		ClientInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"clientInfo"`
	}
	if req.Params != nil {
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			log.Warn("unparseable initialize params", "error", err)
		}
	}

	log.Info("client initialized",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version)

	return &protocol.InitializeResult{
		ProtocolVersion: negotiateProtocolVersion(params.ProtocolVersion),
		Capabilities: protocol.Capabilities{
			Tools: map[string]interface{}{},
		},
		ServerInfo: protocol.ServerInfo{
			Name:    "memory-enforce",
			Version: version.Version,
		},
	}
}

func negotiateProtocolVersion(clientVersion string) string {
	for _, v := range version.SupportedProtocolVersions {
		if clientVersion == v {
			return v
		}
	}
	return version.ProtocolVersion
}

func (h *handler) handleListTools() *protocol.ListToolsResult {
	registered := h.server.registry.List()
	out := make([]protocol.Tool, 0, len(registered))

	for _, t := range registered {
		var schema interface{}
		if err := json.Unmarshal(t.Schema(), &schema); err != nil {
			schema = json.RawMessage(t.Schema())
		}

		tool := protocol.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: schema,
		}
		if annotated, ok := t.(tools.AnnotatedTool); ok {
			tool.Title = annotated.Title()
			tool.Annotations = annotated.Annotations()
		}
		out = append(out, tool)
	}

	return &protocol.ListToolsResult{Tools: out}
}

func (h *handler) handleCallTool(ctx context.Context, req *jsonrpc2.Request) (result *protocol.ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool execution panicked: %v", r)
			log.Error("tool panic recovered", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if req.Params == nil {
		return nil, fmt.Errorf("tools/call requires params")
	}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, fmt.Errorf("parse tool call: %w", err)
	}
	if params.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if params.Arguments == nil {
		params.Arguments = json.RawMessage(`{}`)
	}

	raw, err := h.server.registry.ExecuteWithTimeout(ctx, params.Name, params.Arguments, h.server.toolTimeout)
	if err != nil {
		return nil, err
	}

	payload, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}

	return protocol.TextResult(string(payload)), nil
}
