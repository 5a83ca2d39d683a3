package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/richard-senior/podds-au/pkg/protocol"
	"github.com/richard-senior/podds-au/pkg/transport"
	"github.com/richard-senior/podds-au/pkg/util"
	"github.com/richard-senior/podds-au/pkg/util/podds"
)

// Definition pairs a tool description with its handler
type Definition struct {
	Tool   protocol.Tool
	Handle func(params any) (any, error)
}

// Toolset holds what the tools need to answer. Store may be nil, in which
// case results cannot be imported.
type Toolset struct {
	Service *podds.Service
	Store   *podds.Store
	Fetch   podds.Fetcher
}

// NewToolset fetches pages with transport.GetHTML
func NewToolset(svc *podds.Service, store *podds.Store) *Toolset {
	return &Toolset{
		Service: svc,
		Store:   store,
		Fetch:   transport.GetHTML,
	}
}

// Definitions lists every tool in registration order
func (ts *Toolset) Definitions() []Definition {
	return []Definition{
		{Tool: MatchPredictionTool(), Handle: ts.HandleMatchPrediction},
		{Tool: LeaguesTool(ts.Service.Leagues()), Handle: ts.HandleLeagues},
		{Tool: TeamFormTool(), Handle: ts.HandleTeamForm},
		{Tool: ResultsImportTool(), Handle: ts.HandleResultsImport},
	}
}

// context bounded by the configured HTTP timeout
func (ts *Toolset) context() (context.Context, context.CancelFunc) {
	timeout := ts.Service.Config().HTTPTimeout
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

// arguments accepts decoded maps or raw JSON
func arguments(params any) (map[string]any, error) {
	switch p := params.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return p, nil
	case json.RawMessage:
		m := map[string]any{}
		if len(p) == 0 {
			return m, nil
		}
		if err := json.Unmarshal(p, &m); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("Couldn't format the parameters as a map, got %T", params)
	}
}

// stringArg returns an empty string for absent or null arguments
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, err := util.GetAsString(v)
	if err != nil {
		return "", fmt.Errorf("parameter %s: %w", key, err)
	}
	return strings.TrimSpace(s), nil
}
