package transport

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/pkg/protocol"
)

// StdioTransport exchanges one JSON value per message over a reader and writer.
// Messages may span lines; anything between values is ignored whitespace.
type StdioTransport struct {
	decoder *json.Decoder
	mu      sync.Mutex
	writer  *bufio.Writer
}

// NewStdioTransport creates a new transport that uses stdin/stdout
func NewStdioTransport() *StdioTransport {
	return NewStreamTransport(os.Stdin, os.Stdout)
}

// NewStreamTransport creates a transport over any reader and writer
func NewStreamTransport(r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{
		decoder: json.NewDecoder(bufio.NewReader(r)),
		writer:  bufio.NewWriter(w),
	}
}

// ReadRequest reads the next JSON-RPC request.
// io.EOF is returned once the client disconnects. A malformed message that
// is still valid JSON returns a *protocol.JsonRpcError and the stream stays usable.
func (t *StdioTransport) ReadRequest() (*protocol.JsonRpcRequest, error) {
	var raw json.RawMessage
	if err := t.decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			logger.Info("Received EOF on stdin, client disconnected")
			return nil, io.EOF
		}
		logger.Error("Error reading from stdin:", err)
		return nil, err
	}
	logger.Debug("Received raw request:", string(raw))

	request, err := protocol.ParseJsonRpcRequest(raw)
	if err != nil {
		logger.Error("Failed to parse JSON-RPC request:", err)
		return nil, err
	}
	return request, nil
}

// WriteResponse writes a JSON-RPC response followed by a newline
func (t *StdioTransport) WriteResponse(response *protocol.JsonRpcResponse) error {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal response:", err)
		return err
	}
	responseBytes = append(responseBytes, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.writer.Write(responseBytes); err != nil {
		logger.Error("Failed to write response:", err)
		return err
	}
	if err := t.writer.Flush(); err != nil {
		logger.Error("Failed to flush response:", err)
		return err
	}
	logger.Debug("Sending response:", string(responseBytes))
	return nil
}
