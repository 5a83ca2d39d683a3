package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/pkg/protocol"
	"github.com/richard-senior/podds-au/pkg/tools"
	"github.com/richard-senior/podds-au/pkg/transport"
)

// ToolPrefix is added to tool names by some clients and stripped on lookup
const ToolPrefix = "mcp___"

// Server represents an MCP server
type Server struct {
	transport transport.Transport
	info      protocol.ServerInfo

	mu           sync.Mutex
	handlers     map[string]HandlerFunc
	tools        []protocol.Tool
	toolHandlers map[string]HandlerFunc
}

// HandlerFunc is a function that handles an MCP request
type HandlerFunc func(params interface{}) (interface{}, error)

// NewServer creates a server reading from t with the built-in methods registered
func NewServer(t transport.Transport, name, version string) *Server {
	s := &Server{
		transport:    t,
		info:         protocol.ServerInfo{Name: name, Version: version},
		handlers:     make(map[string]HandlerFunc),
		toolHandlers: make(map[string]HandlerFunc),
	}
	s.handlers[string(protocol.MethodInitialize)] = s.handleInitialize
	s.handlers[string(protocol.MethodToolsList)] = s.handleToolsList
	s.handlers[string(protocol.MethodToolsCall)] = s.handleToolsCall
	s.handlers[string(protocol.MethodPing)] = s.handlePing
	s.handlers[string(protocol.MethodShutdown)] = s.handlePing
	return s
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimPrefix(tool.Name, ToolPrefix)
	if _, exists := s.toolHandlers[name]; exists {
		for i := range s.tools {
			if strings.TrimPrefix(s.tools[i].Name, ToolPrefix) == name {
				s.tools[i] = tool
			}
		}
	} else {
		s.tools = append(s.tools, tool)
	}
	s.toolHandlers[name] = handler
	logger.Info("Registered tool:", tool.Name)
}

// RegisterDefaultTools registers every tool of the toolset
func (s *Server) RegisterDefaultTools(ts *tools.Toolset) {
	logger.Info("Registering default tools...")
	for _, d := range ts.Definitions() {
		s.RegisterTool(d.Tool, d.Handle)
	}
}

// GetTools returns the list of registered tools
func (s *Server) GetTools() []protocol.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

func (s *Server) toolHandler(name string) HandlerFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.toolHandlers[name]; ok {
		return h
	}
	return s.toolHandlers[strings.TrimPrefix(name, ToolPrefix)]
}

// Start starts the server and begins processing requests
func (s *Server) Start() error {
	logger.Info("Starting MCP server", s.info.Name, s.info.Version)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ProcessRequests()
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Info("Received signal:", sig)
		return nil
	}
}

// ProcessRequests continuously processes incoming requests until the input closes
func (s *Server) ProcessRequests() error {
	for {
		req, err := s.transport.ReadRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("Input closed")
				return nil
			}
			var rpcErr *protocol.JsonRpcError
			if errors.As(err, &rpcErr) {
				logger.Warn("Rejected request:", rpcErr.Message)
				if err := s.transport.WriteResponse(protocol.NewJsonRpcErrorResponse(rpcErr.Code, rpcErr.Message, nil, nil)); err != nil {
					return err
				}
				continue
			}
			return err
		}

		// a nil response means none is required
		resp := s.handleRequest(req)
		if resp == nil {
			continue
		}
		if err := s.transport.WriteResponse(resp); err != nil {
			return err
		}
	}
}

// handleRequest processes a request and returns a response
func (s *Server) handleRequest(req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)
	if reqBytes, err := json.Marshal(req); err == nil {
		logger.Debug("Full request:", string(reqBytes))
	}

	if strings.HasPrefix(req.Method, protocol.NotificationPrefix) {
		logger.Info("Received notification:", req.Method)
		return nil
	}

	resp := &protocol.JsonRpcResponse{
		JsonRPC: protocol.JsonRpcVersion,
		ID:      req.ID,
	}

	var handler HandlerFunc
	var params any

	if req.Method == string(protocol.MethodInvokeTool) {
		// invoke_tool carries {"name":..., "parameters":{...}} and answers with the raw tool output
		var invokeParams map[string]any
		if err := json.Unmarshal(req.Params, &invokeParams); err != nil {
			resp.Error = &protocol.JsonRpcError{
				Code:    protocol.ErrInvalidParams,
				Message: "Invalid parameters for invoke_tool: " + err.Error(),
			}
			return resp
		}
		toolName, ok := invokeParams["name"].(string)
		if !ok {
			resp.Error = &protocol.JsonRpcError{
				Code:    protocol.ErrInvalidParams,
				Message: "Missing tool name in invoke_tool parameters",
			}
			return resp
		}
		logger.Info("Tool invocation requested for:", toolName)
		handler = s.toolHandler(toolName)
		params = invokeParams["parameters"]
	} else {
		handler = s.handlers[req.Method]
		params = req.Params
	}

	if handler == nil {
		resp.Error = &protocol.JsonRpcError{
			Code:    protocol.ErrMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
		return resp
	}

	result, err := handler(params)
	if req.IsNotification() {
		return nil
	}
	if err != nil {
		code := protocol.ErrToolExecutionFailed
		var rpcErr *protocol.JsonRpcError
		if errors.As(err, &rpcErr) {
			code = rpcErr.Code
		}
		resp.Error = &protocol.JsonRpcError{Code: code, Message: err.Error()}
		if rpcErr != nil {
			resp.Error.Message = rpcErr.Message
		}
		return resp
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		resp.Error = &protocol.JsonRpcError{
			Code:    protocol.ErrInternal,
			Message: "Failed to marshal result: " + err.Error(),
		}
		return resp
	}
	resp.Result = resultBytes
	logger.Debug("Full response:", string(resultBytes))
	return resp
}

// decodeParams accepts the raw params of a request or an already decoded value
func decodeParams(params any, v any) error {
	var raw []byte
	switch p := params.(type) {
	case nil:
		return nil
	case json.RawMessage:
		if len(p) == 0 {
			return nil
		}
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		raw = b
	}
	return json.Unmarshal(raw, v)
}

// handleInitialize answers with the requested protocol version and our tool capability
func (s *Server) handleInitialize(params interface{}) (interface{}, error) {
	var req struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid initialize parameters: " + err.Error()}
	}
	version := req.ProtocolVersion
	if version == "" {
		version = protocol.DefaultProtocolVersion
	}
	logger.Info("Handling initialize request with", len(s.GetTools()), "tools, protocol version", version)

	capabilities := map[string]any{}
	if len(s.GetTools()) > 0 {
		capabilities["tools"] = map[string]any{
			"listChanged": true,
		}
	}
	return protocol.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    capabilities,
		ServerInfo:      s.info,
	}, nil
}

// handleToolsList handles the tools/list method
func (s *Server) handleToolsList(params interface{}) (interface{}, error) {
	logger.Info("Handling tools/list request")
	return protocol.ToolsResponse{Tools: s.GetTools()}, nil
}

// handleToolsCall runs a tool. Failures of the tool itself are reported
// inside the result with isError set, not as JSON-RPC errors.
func (s *Server) handleToolsCall(params any) (any, error) {
	var call protocol.ToolCallParams
	if err := decodeParams(params, &call); err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid tools/call parameters: " + err.Error()}
	}
	if call.Name == "" {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "missing tool name"}
	}
	logger.Info("Tool call requested for:", call.Name)

	handler := s.toolHandler(call.Name)
	if handler == nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrMethodNotFound, Message: "tool not found: " + call.Name}
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	out, err := handler(args)
	if err != nil {
		logger.Warn("Tool failed:", call.Name, err)
		return protocol.NewToolError(err), nil
	}
	result, err := protocol.NewToolResult(out)
	if err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInternal, Message: "failed to encode tool result: " + err.Error()}
	}
	return result, nil
}

func (s *Server) handlePing(params interface{}) (interface{}, error) {
	return struct{}{}, nil
}
