package tools

import (
	"fmt"

	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/pkg/protocol"
	"github.com/richard-senior/podds-au/pkg/util/podds"
)

func leagueCodes(leagues []podds.LeagueConfig) []string {
	codes := make([]string, 0, len(leagues))
	for _, l := range leagues {
		codes = append(codes, l.Code)
	}
	return codes
}

func MatchPredictionTool() protocol.Tool {
	return protocol.Tool{
		Name: "au_match_prediction",
		Description: `
		Predicts the outcome of an Australian football fixture using a Poisson model of recent form.
		Returns the expected goals (lambda) of each side, the home win / draw / away win probabilities,
		the single most likely score and the probability of more than 2.5 goals.
		Only Australian leagues are supported (A-LEAGUE, A-LEAGUE-W and the state NPL leagues).
		Use au_leagues to list the supported league codes.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"homeId": {
					Type:        "string",
					Description: "The id of the home team ie. '10'",
				},
				"awayId": {
					Type:        "string",
					Description: "The id of the away team",
				},
				"league": {
					Type:        "string",
					Description: "The league code ie. A-LEAGUE",
				},
			},
			Required: []string{"homeId", "awayId", "league"},
		},
	}
}

// HandleMatchPrediction runs one prediction through the service
func (ts *Toolset) HandleMatchPrediction(params any) (any, error) {
	args, err := arguments(params)
	if err != nil {
		return nil, err
	}
	homeID, err := stringArg(args, "homeId")
	if err != nil {
		return nil, err
	}
	awayID, err := stringArg(args, "awayId")
	if err != nil {
		return nil, err
	}
	league, err := stringArg(args, "league")
	if err != nil {
		return nil, err
	}
	logger.Info("Predicting", homeID, "v", awayID, "in", league)

	ctx, cancel := ts.context()
	defer cancel()
	return ts.Service.Predict(ctx, homeID, awayID, league)
}

// LeaguesTool lists the given leagues in its description
func LeaguesTool(leagues []podds.LeagueConfig) protocol.Tool {
	return protocol.Tool{
		Name:        "au_leagues",
		Description: fmt.Sprintf("Lists the supported Australian leagues with their average goals and home advantage. Codes: %v", leagueCodes(leagues)),
		InputSchema: protocol.InputSchema{
			Type:     "object",
			Required: []string{},
		},
	}
}

func (ts *Toolset) HandleLeagues(params any) (any, error) {
	return map[string]any{
		"leagues": ts.Service.Leagues(),
	}, nil
}

func TeamFormTool() protocol.Tool {
	return protocol.Tool{
		Name: "au_team_form",
		Description: `
		Returns the recent scoring form of a team in a league: the number of matches considered
		and the average goals scored and conceded, as used by au_match_prediction.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"teamId": {
					Type:        "string",
					Description: "The id of the team",
				},
				"league": {
					Type:        "string",
					Description: "The league code ie. NPL-VIC",
				},
			},
			Required: []string{"teamId", "league"},
		},
	}
}

func (ts *Toolset) HandleTeamForm(params any) (any, error) {
	args, err := arguments(params)
	if err != nil {
		return nil, err
	}
	teamID, err := stringArg(args, "teamId")
	if err != nil {
		return nil, err
	}
	league, err := stringArg(args, "league")
	if err != nil {
		return nil, err
	}
	ctx, cancel := ts.context()
	defer cancel()
	return ts.Service.TeamForm(ctx, teamID, league)
}
