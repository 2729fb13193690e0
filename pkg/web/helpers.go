package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// InternalErrorMessage is the message returned to clients for unexpected failures.
const InternalErrorMessage = "Something went wrong! We are looking into resolving this."

// InternalErrorResponse is the body of a 500 response. ID correlates the response with the server logs.
type InternalErrorResponse struct {
	ID           string `json:"id"`
	ErrorMessage string `json:"errorMessage"`
}

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// RespondInternalError logs err under a fresh correlation id and answers with a 500 carrying that id.
// The error itself never reaches the client.
func RespondInternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	errorID := uuid.NewString()
	logger.ErrorContext(r.Context(), "Unexpected error", "error_id", errorID, "error", err)
	RespondJSON(w, logger, http.StatusInternalServerError, InternalErrorResponse{
		ID:           errorID,
		ErrorMessage: InternalErrorMessage,
	})
}
