package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BTreeMap/SiteBot/internal/flow"
	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/validation"
)

// cancelRequest is the body of POST /bookings/{id}/cancel.
type cancelRequest struct {
	Reason string `json:"reason"`
}

// flowValidation is the result of flow validation.
type flowValidation struct {
	Valid   bool         `json:"valid"`
	Issues  []flow.Issue `json:"issues,omitempty"`
	Mermaid string       `json:"mermaid,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing request body"))
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		slog.Warn("Server.decodeJSON: failed to decode JSON", "path", r.URL.Path, "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return false
	}
	return true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"service": "sitebot"}))
}

func (s *Server) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.deps.Bookings.Get(r.Context(), id)
	if err != nil {
		writeError(w, "getBookingHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(b))
}

func (s *Server) updateBookingHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var upd models.BookingDetailsUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	if upd.IsEmpty() {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("No fields to update"))
		return
	}
	if upd.ServiceDate != nil {
		if _, err := validation.ParseDate(*upd.ServiceDate); err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error(validation.MsgDate))
			return
		}
	}
	if upd.Phone != nil && !validation.Phone(*upd.Phone, nil) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(validation.MsgPhone))
		return
	}
	b, err := s.deps.Bookings.UpdateDetails(r.Context(), id, upd)
	if err != nil {
		writeError(w, "updateBookingHandler", err)
		return
	}
	slog.Info("Server.updateBookingHandler: booking updated", "bookingID", id)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Booking updated", b))
}

func (s *Server) deleteBookingHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Bookings.Delete(r.Context(), id); err != nil {
		writeError(w, "deleteBookingHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Booking deleted", nil))
}

func (s *Server) confirmBookingHandler(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Bookings.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "confirmBookingHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Booking confirmed", b))
}

func (s *Server) completeBookingHandler(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Bookings.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "completeBookingHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Booking completed", b))
}

// cancelBookingHandler accepts an optional {"reason": "..."} body.
func (s *Server) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.ContentLength != 0 && r.Body != nil {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	b, err := s.deps.Bookings.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, "cancelBookingHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Booking cancelled", b))
}

func (s *Server) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenant, service, date := q.Get("tenant"), q.Get("service"), q.Get("date")
	if tenant == "" || service == "" || date == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("tenant, service and date are required"))
		return
	}
	a, err := s.deps.Checker.CheckAvailability(r.Context(), tenant, service, date, q.Get("time"))
	if err != nil {
		writeError(w, "availabilityHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(a))
}

func (s *Server) timeSlotsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenant, service, date := q.Get("tenant"), q.Get("service"), q.Get("date")
	if tenant == "" || service == "" || date == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("tenant, service and date are required"))
		return
	}
	slots, err := s.deps.Checker.AvailableTimeSlots(r.Context(), tenant, service, date)
	if err != nil {
		writeError(w, "timeSlotsHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(slots))
}

func validate(def *models.FlowDefinition) flowValidation {
	err := flow.ValidateDefinition(def)
	if err == nil {
		return flowValidation{Valid: true, Mermaid: flow.Mermaid(def)}
	}
	res := flowValidation{Valid: false}
	if defErr, ok := err.(*flow.DefinitionError); ok {
		res.Issues = defErr.Issues
	} else {
		res.Issues = []flow.Issue{{Message: err.Error()}}
	}
	return res
}

// validateFlowHandler reports authoring issues without publishing.
func (s *Server) validateFlowHandler(w http.ResponseWriter, r *http.Request) {
	var def models.FlowDefinition
	if !decodeJSON(w, r, &def) {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(validate(&def)))
}

// publishFlowHandler stores a flow after it passes validation. The tenant in
// the path wins over any tenant code in the body.
func (s *Server) publishFlowHandler(w http.ResponseWriter, r *http.Request) {
	tenant := strings.TrimSpace(chi.URLParam(r, "tenant"))
	var def models.FlowDefinition
	if !decodeJSON(w, r, &def) {
		return
	}
	def.TenantCode = tenant
	if _, err := s.deps.Store.GetWebsite(r.Context(), tenant); err != nil {
		writeError(w, "publishFlowHandler", err)
		return
	}
	res := validate(&def)
	if !res.Valid {
		slog.Warn("Server.publishFlowHandler: flow rejected", "tenantCode", tenant, "issues", len(res.Issues))
		writeJSONResponse(w, http.StatusUnprocessableEntity, models.ErrorWithResult("Flow failed validation", res))
		return
	}
	if err := s.deps.Store.SaveFlow(r.Context(), def); err != nil {
		writeError(w, "publishFlowHandler", err)
		return
	}
	slog.Info("Server.publishFlowHandler: flow published", "tenantCode", tenant, "steps", len(def.Steps))
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow published", res))
}

func (s *Server) getFlowHandler(w http.ResponseWriter, r *http.Request) {
	def, err := s.deps.Store.GetFlow(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeError(w, "getFlowHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(def))
}

func (s *Server) transcriptHandler(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Store.GetTranscript(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		writeError(w, "transcriptHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(t))
}
