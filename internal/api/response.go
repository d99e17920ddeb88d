package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// Pre-marshaled fallback responses to avoid runtime JSON encoding failures
var (
	fallbackErrorResponse []byte
)

// init validates that our fallback responses can be marshaled
func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal first so encoding errors are caught before headers go out
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// writeError maps domain errors onto HTTP status codes. Transition errors
// keep their message so callers see the booking's current status.
func writeError(w http.ResponseWriter, op string, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrTranscriptNotFound),
		errors.Is(err, models.ErrFlowNotFound),
		errors.Is(err, models.ErrTenantNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrSlotUnavailable):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrEmptyTenantCode),
		errors.Is(err, models.ErrServiceNotFound):
		status, msg = http.StatusBadRequest, err.Error()
	}
	if status == http.StatusInternalServerError {
		slog.Error("Server."+op+" failed", "error", err)
	} else {
		slog.Warn("Server."+op+" rejected", "status", status, "error", err)
	}
	writeJSONResponse(w, status, models.Error(msg))
}
