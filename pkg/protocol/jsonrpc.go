package protocol

import (
	"encoding/json"
	"fmt"
)

/**
https://modelcontextprotocol.info/specification/draft/basic/lifecycle/
Flow:
	The client starts the server process and sends 'initialize':
	  {"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"client","version":"0.1.0"}},"jsonrpc":"2.0","id":0}
	We answer with our name and the fact that we serve tools.
	The client acknowledges with the notification {"method":"notifications/initialized","jsonrpc":"2.0"}
	and then asks for {"method":"tools/list","params":{},"jsonrpc":"2.0","id":1}
	Tools are run with {"method":"tools/call","params":{"name":"au_match_prediction","arguments":{...}},"jsonrpc":"2.0","id":2}
*/

// MethodType defines the possible JSON-RPC method types
type MethodType string

const (
	MethodInitialize  MethodType = "initialize"
	MethodInitialized MethodType = "notifications/initialized"
	MethodToolsList   MethodType = "tools/list"
	MethodToolsCall   MethodType = "tools/call"
	MethodPing        MethodType = "ping"
	MethodShutdown    MethodType = "shutdown"
	// older clients call tools directly with invoke_tool
	MethodInvokeTool MethodType = "invoke_tool"
)

// NotificationPrefix marks methods that never receive a response
const NotificationPrefix = "notifications/"

// DefaultProtocolVersion is answered when the client does not send one
const DefaultProtocolVersion = "2024-11-05"

// Version is the JSON-RPC protocol version
const JsonRpcVersion = "2.0"

// Request represents a JSON-RPC 2.0 request object
type JsonRpcRequest struct {
	// MUST be exactly "2.0".
	JsonRPC string `json:"jsonrpc"`

	Method string `json:"method"`

	// This member MAY be omitted.
	Params json.RawMessage `json:"params,omitempty"`

	// If it is not included the request is a notification.
	ID interface{} `json:"id,omitempty"`
}

// IsNotification reports whether the sender expects no response
func (r *JsonRpcRequest) IsNotification() bool {
	return r.ID == nil
}

// Response represents a JSON-RPC 2.0 response object
type JsonRpcResponse struct {
	JsonRPC string `json:"jsonrpc"`

	// This member MUST NOT exist if there was an error invoking the method.
	Result json.RawMessage `json:"result,omitempty"`

	// This member MUST NOT exist if there was no error triggered during invocation.
	Error *JsonRpcError `json:"error,omitempty"`

	// It MUST be the same as the value of the id member in the Request Object.
	ID any `json:"id"`
}

// Error represents a JSON-RPC 2.0 error object
type JsonRpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ToolProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type InputSchema struct {
	Type                 string                  `json:"type"`
	Properties           map[string]ToolProperty `json:"properties,omitempty"`
	Required             []string                `json:"required"`
	AdditionalProperties bool                    `json:"additionalProperties"`
}

// Tool describes a callable tool to the client
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// ToolsResponse represents the response to a tools/list request
type ToolsResponse struct {
	Tools []Tool `json:"tools"`
}

// ToolCallParams are the params of a tools/call request
type ToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Content is one block of a tool result
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the result of tools/call
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// NewToolResult renders v as a single text block, strings are sent as they are
func NewToolResult(v any) (*CallToolResult, error) {
	if s, ok := v.(string); ok {
		return &CallToolResult{Content: []Content{{Type: "text", Text: s}}}, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &CallToolResult{Content: []Content{{Type: "text", Text: string(b)}}}, nil
}

// NewToolError reports a tool failure inside a successful JSON-RPC response
func NewToolError(err error) *CallToolResult {
	return &CallToolResult{Content: []Content{{Type: "text", Text: err.Error()}}, IsError: true}
}

// ServerInfo names this server in the initialize result
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result of initialize
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

// Standard error codes defined by the JSON-RPC 2.0 specification
const (
	// Parse error: Invalid JSON was received by the server.
	ErrParse = -32700

	// Invalid Request: The JSON sent is not a valid Request object.
	ErrInvalidRequest = -32600

	// Method not found: The method does not exist / is not available.
	ErrMethodNotFound = -32601

	// Invalid params: Invalid method parameter(s).
	ErrInvalidParams = -32602

	// Internal error: Internal JSON-RPC error.
	ErrInternal = -32603

	// Tool execution failed, from the -32000 to -32099 server range
	ErrToolExecutionFailed = -32000
)

// Error returns a string representation of the error
func (e *JsonRpcError) Error() string {
	return fmt.Sprintf("jsonrpc error: code=%d message=%s", e.Code, e.Message)
}

// NewJsonRpcRequest creates a new JSON-RPC 2.0 request
func NewJsonRpcRequest(method string, params interface{}, id interface{}) (*JsonRpcRequest, error) {
	var paramsJSON json.RawMessage
	if params != nil {
		var err error
		paramsJSON, err = json.Marshal(params)
		if err != nil {
			return nil, err
		}
	}

	return &JsonRpcRequest{
		JsonRPC: JsonRpcVersion,
		Method:  method,
		Params:  paramsJSON,
		ID:      id,
	}, nil
}

// NewJsonRpcResponse creates a new JSON-RPC 2.0 success response
func NewJsonRpcResponse(result interface{}, id interface{}) (*JsonRpcResponse, error) {
	var resultJSON json.RawMessage
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return nil, err
		}
	}

	return &JsonRpcResponse{
		JsonRPC: JsonRpcVersion,
		Result:  resultJSON,
		ID:      id,
	}, nil
}

// NewJsonRpcErrorResponse creates a new JSON-RPC 2.0 error response
func NewJsonRpcErrorResponse(code int, message string, data interface{}, id interface{}) *JsonRpcResponse {
	return &JsonRpcResponse{
		JsonRPC: JsonRpcVersion,
		Error: &JsonRpcError{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

// ParseJsonRpcRequest parses a JSON-RPC 2.0 request from raw JSON
func ParseJsonRpcRequest(data []byte) (*JsonRpcRequest, error) {
	var req JsonRpcRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &JsonRpcError{Code: ErrParse, Message: err.Error()}
	}
	if req.JsonRPC != JsonRpcVersion {
		return nil, &JsonRpcError{Code: ErrInvalidRequest, Message: fmt.Sprintf("invalid JSON-RPC version: %s", req.JsonRPC)}
	}
	if req.Method == "" {
		return nil, &JsonRpcError{Code: ErrInvalidRequest, Message: "method is required"}
	}
	return &req, nil
}
