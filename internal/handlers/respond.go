package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/logging"
)

// apiResponse is the success envelope every endpoint returns.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiErrorResponse is the error envelope every failed request returns.
type apiErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// RespondError converts any error into the standard error envelope. Unknown
// failures are logged with their cause and downgraded to a generic 500.
func RespondError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := apperrors.From(err)

	logger := logging.FromContext(ctx)
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", appErr.Status, "error", appErr.Unwrap())
	} else {
		logger.Warn("request rejected", "status", appErr.Status, "message", appErr.Message)
	}

	details := appErr.Details
	if details == nil {
		details = []string{}
	}

	writeJSON(ctx, w, appErr.Status, apiErrorResponse{
		StatusCode: appErr.Status,
		Message:    appErr.Message,
		Success:    false,
		Errors:     details,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
