package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJsonRpcRequest(t *testing.T) {
	req, err := ParseJsonRpcRequest([]byte(`{"jsonrpc":"2.0","method":"tools/list","id":3}`))
	require.NoError(t, err)
	assert.Equal(t, "tools/list", req.Method)
	assert.Equal(t, float64(3), req.ID)
	assert.False(t, req.IsNotification())

	req, err = ParseJsonRpcRequest([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	assert.True(t, req.IsNotification())
}

func TestParseJsonRpcRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code int
	}{
		{"malformed", `{"jsonrpc":`, ErrParse},
		{"wrong version", `{"jsonrpc":"1.0","method":"ping","id":1}`, ErrInvalidRequest},
		{"no method", `{"jsonrpc":"2.0","id":1}`, ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJsonRpcRequest([]byte(tt.in))
			var rpcErr *JsonRpcError
			require.True(t, errors.As(err, &rpcErr))
			assert.Equal(t, tt.code, rpcErr.Code)
		})
	}
}

func TestNewToolResult(t *testing.T) {
	res, err := NewToolResult(map[string]any{"league": "A-LEAGUE"})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "text", res.Content[0].Type)
	assert.JSONEq(t, `{"league":"A-LEAGUE"}`, res.Content[0].Text)

	b, err := json.Marshal(NewToolError(errors.New("bad league")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"bad league"}],"isError":true}`, string(b))
}
