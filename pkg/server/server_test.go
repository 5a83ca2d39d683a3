package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/richard-senior/podds-au/pkg/protocol"
	"github.com/richard-senior/podds-au/pkg/tools"
	"github.com/richard-senior/podds-au/pkg/transport"
	"github.com/richard-senior/podds-au/pkg/util/podds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testToolset() *tools.Toolset {
	teams := map[podds.TeamID]*podds.Team{
		"10": {ID: "10", Name: "Sydney FC"},
		"20": {ID: "20", Name: "Perth Glory"},
	}
	src := podds.DataSourceFunc(func(context.Context) (*podds.Dataset, error) {
		return &podds.Dataset{Teams: teams}, nil
	})
	return tools.NewToolset(podds.NewService(nil, nil, src), nil)
}

// run feeds the lines to a server and returns the decoded responses
func run(t *testing.T, lines ...string) []protocol.JsonRpcResponse {
	t.Helper()
	var out bytes.Buffer
	s := NewServer(transport.NewStreamTransport(strings.NewReader(strings.Join(lines, "\n")), &out), "podds-au", "test")
	s.RegisterDefaultTools(testToolset())
	require.NoError(t, s.ProcessRequests())

	var responses []protocol.JsonRpcResponse
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var resp protocol.JsonRpcResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp), scanner.Text())
		responses = append(responses, resp)
	}
	return responses
}

func TestInitializeHandshake(t *testing.T) {
	responses := run(t,
		`{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"client","version":"0.1.0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
	)
	// the notification gets no response
	require.Len(t, responses, 2)

	var init protocol.InitializeResult
	require.NoError(t, json.Unmarshal(responses[0].Result, &init))
	assert.Equal(t, "2025-03-26", init.ProtocolVersion)
	assert.Equal(t, "podds-au", init.ServerInfo.Name)
	assert.Contains(t, init.Capabilities, "tools")
	assert.EqualValues(t, 0, responses[0].ID)

	assert.Nil(t, responses[1].Error)
	assert.JSONEq(t, `{}`, string(responses[1].Result))
}

func TestInitializeDefaultsProtocolVersion(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","id":"a","method":"initialize"}`)
	require.Len(t, responses, 1)
	var init protocol.InitializeResult
	require.NoError(t, json.Unmarshal(responses[0].Result, &init))
	assert.Equal(t, protocol.DefaultProtocolVersion, init.ProtocolVersion)
	assert.Equal(t, "a", responses[0].ID)
}

func TestToolsList(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	require.Len(t, responses, 1)
	var list protocol.ToolsResponse
	require.NoError(t, json.Unmarshal(responses[0].Result, &list))
	require.Len(t, list.Tools, 4)
	assert.Equal(t, "au_match_prediction", list.Tools[0].Name)
	assert.Equal(t, []string{"homeId", "awayId", "league"}, list.Tools[0].InputSchema.Required)
}

func TestToolsCall(t *testing.T) {
	responses := run(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"au_match_prediction","arguments":{"homeId":"10","awayId":"20","league":"A-LEAGUE"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"mcp___au_match_prediction","arguments":{"homeId":"10","awayId":"20","league":"EPL"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"no_such_tool","arguments":{}}}`,
	)
	require.Len(t, responses, 3)

	var ok protocol.CallToolResult
	require.NoError(t, json.Unmarshal(responses[0].Result, &ok))
	assert.False(t, ok.IsError)
	require.Len(t, ok.Content, 1)
	assert.Equal(t, "text", ok.Content[0].Type)
	var res podds.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(ok.Content[0].Text), &res))
	assert.Equal(t, "A-League Men", res.League)
	// no history, both sides predicted from the default averages
	assert.NotEmpty(t, res.PredictedScore)

	var failed protocol.CallToolResult
	require.NoError(t, json.Unmarshal(responses[1].Result, &failed))
	assert.True(t, failed.IsError)
	assert.Contains(t, failed.Content[0].Text, "only Australian leagues are supported")

	require.NotNil(t, responses[2].Error)
	assert.Equal(t, protocol.ErrMethodNotFound, responses[2].Error.Code)
}

func TestInvokeTool(t *testing.T) {
	responses := run(t,
		`{"jsonrpc":"2.0","id":7,"method":"invoke_tool","params":{"name":"mcp___au_leagues","parameters":{}}}`,
		`{"jsonrpc":"2.0","id":8,"method":"invoke_tool","params":{"parameters":{}}}`,
	)
	require.Len(t, responses, 2)
	var out struct {
		Leagues []podds.LeagueConfig `json:"leagues"`
	}
	require.NoError(t, json.Unmarshal(responses[0].Result, &out))
	assert.Len(t, out.Leagues, len(podds.AustralianLeagueCodes))

	require.NotNil(t, responses[1].Error)
	assert.Equal(t, protocol.ErrInvalidParams, responses[1].Error.Code)
}

func TestUnknownMethodAndBadInput(t *testing.T) {
	responses := run(t,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"1.0","id":2,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)
	require.Len(t, responses, 3)
	assert.Equal(t, protocol.ErrMethodNotFound, responses[0].Error.Code)
	assert.Equal(t, protocol.ErrInvalidRequest, responses[1].Error.Code)
	assert.Nil(t, responses[2].Error)
}

func TestRegisterToolReplacesByName(t *testing.T) {
	s := NewServer(nil, "podds-au", "test")
	tool := protocol.Tool{Name: "echo"}
	s.RegisterTool(tool, func(params any) (any, error) { return "one", nil })
	s.RegisterTool(protocol.Tool{Name: ToolPrefix + "echo"}, func(params any) (any, error) { return nil, errors.New("two") })
	assert.Len(t, s.GetTools(), 1)

	out, err := s.handleToolsCall(map[string]any{"name": "echo"})
	require.NoError(t, err)
	assert.True(t, out.(*protocol.CallToolResult).IsError)
}
