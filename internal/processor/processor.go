package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/pkg/util/podds"
)

// PredictRequest is the one-shot request read by the predict CLI.
// Ids may be JSON strings or numbers.
type PredictRequest struct {
	RequestID string       `json:"requestId,omitempty"`
	HomeID    podds.TeamID `json:"homeId"`
	AwayID    podds.TeamID `json:"awayId"`
	League    string       `json:"league"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Error codes of an ErrorResponse
const (
	CodeInvalidRequest    = "invalid_request"
	CodeMissingParameter  = "missing_parameter"
	CodeUnsupportedLeague = "unsupported_league"
	CodeUnknownTeam       = "unknown_team"
	CodeSourceUnavailable = "source_unavailable"
	CodeInternal          = "internal_error"
)

// createErrorResponse creates an error response
func createErrorResponse(code, message, requestID string) ([]byte, error) {
	var response ErrorResponse
	response.RequestID = requestID
	response.Error.Code = code
	response.Error.Message = message

	return json.MarshalIndent(response, "", "  ")
}

// errorCode classifies a service error
func errorCode(err error) string {
	switch {
	case errors.Is(err, podds.ErrMissingParameter):
		return CodeMissingParameter
	case errors.Is(err, podds.ErrUnsupportedLeague):
		return CodeUnsupportedLeague
	case errors.Is(err, podds.ErrUnknownTeam):
		return CodeUnknownTeam
	case errors.Is(err, podds.ErrSourceUnavailable):
		return CodeSourceUnavailable
	default:
		return CodeInternal
	}
}

// ProcessRequest runs one prediction request. On failure the returned bytes
// hold an ErrorResponse and the error is returned as well.
func ProcessRequest(ctx context.Context, svc *podds.Service, input []byte) ([]byte, error) {
	var request PredictRequest
	if err := json.Unmarshal(input, &request); err != nil {
		logger.Error("Failed to parse input JSON", err)
		out, mErr := createErrorResponse(CodeInvalidRequest, fmt.Sprintf("Invalid JSON: %v", err), "")
		return out, errors.Join(err, mErr)
	}

	logger.Info("Processing request", request.HomeID, request.AwayID, request.League)

	result, err := svc.Predict(ctx, string(request.HomeID), string(request.AwayID), request.League)
	if err != nil {
		logger.Error("Prediction error", err)
		out, mErr := createErrorResponse(errorCode(err), err.Error(), request.RequestID)
		return out, errors.Join(err, mErr)
	}

	jsonResult, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("Failed to marshal response to JSON", err)
		out, mErr := createErrorResponse(CodeInternal, "Failed to create response", request.RequestID)
		return out, errors.Join(err, mErr)
	}
	return jsonResult, nil
}
