// Package testutil provides common test fixtures and helpers for SiteBot tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BTreeMap/SiteBot/internal/models"
	"github.com/BTreeMap/SiteBot/internal/store"
)

// TenantCode is the tenant every fixture belongs to.
const TenantCode = "acme"

// ServiceName is the bookable service used by BookingFlow.
const ServiceName = "AC Repair"

// PhoneErrorMessage is the configured error of PhoneFlow's phone step.
const PhoneErrorMessage = "Please enter 10 to 15 digits."

// EndMessage is the end message of every fixture flow.
const EndMessage = "Thanks, we'll be in touch."

// Website returns the fixture tenant directory entry.
func Website() models.Website {
	return models.Website{
		TenantCode:   TenantCode,
		Title:        "Acme Cooling",
		ContactPhone: "+15550000000",
		ContactEmail: "hello@acme.test",
	}
}

// PhoneFlow is the name, phone, end flow: start(text) then phone(phone)
// then end.
func PhoneFlow() models.FlowDefinition {
	return models.FlowDefinition{
		TenantCode:     TenantCode,
		WelcomeMessage: "Welcome to Acme!",
		EndMessage:     EndMessage,
		Steps: []models.Step{
			{StepID: "start", Type: models.StepTypeText, Question: "What's your name?", IsStart: true, FieldType: models.FieldName, DefaultNextStepID: "phone"},
			{StepID: "phone", Type: models.StepTypePhone, Question: "What's your phone number?", DefaultNextStepID: "end",
				Validation: &models.ValidationRule{Required: true, Pattern: `^\d{10,15}$`, ErrorMessage: PhoneErrorMessage}},
			{StepID: "end", Type: models.StepTypeText, IsEnd: true},
		},
	}
}

// BranchFlow routes a dropdown: A to x, B to y, anything else to z.
func BranchFlow() models.FlowDefinition {
	return models.FlowDefinition{
		TenantCode: TenantCode,
		EndMessage: EndMessage,
		Steps: []models.Step{
			{StepID: "choose", Type: models.StepTypeDropdown, Question: "Pick one", IsStart: true,
				Options: []string{"A", "B"},
				OptionConnections: []models.OptionConnection{
					{OptionValue: "A", NextStepID: "x"},
					{OptionValue: "B", NextStepID: "y"},
				},
				DefaultNextStepID: "z"},
			{StepID: "x", Type: models.StepTypeText, Question: "You chose A", DefaultNextStepID: "done"},
			{StepID: "y", Type: models.StepTypeText, Question: "You chose B", DefaultNextStepID: "done"},
			{StepID: "z", Type: models.StepTypeText, Question: "Something else", DefaultNextStepID: "done"},
			{StepID: "done", Type: models.StepTypeText, IsEnd: true},
		},
	}
}

// BookingFlow collects a name, service, date and time slot and books on
// reaching its end step.
func BookingFlow() models.FlowDefinition {
	return models.FlowDefinition{
		TenantCode:     TenantCode,
		WelcomeMessage: "Welcome to Acme!",
		EndMessage:     EndMessage,
		Steps: []models.Step{
			{StepID: "step-name", Type: models.StepTypeText, Question: "What's your name?", IsStart: true,
				ResponseTemplate: "Nice to meet you, {name}.", DefaultNextStepID: "step-service"},
			{StepID: "step-service", Type: models.StepTypeDropdown, Question: "Which service do you need?",
				Options: []string{ServiceName}, DefaultNextStepID: "step-date"},
			{StepID: "step-date", Type: models.StepTypeDate, Question: "Which day suits you?",
				IsBookingStep: true, DefaultNextStepID: "step-time"},
			{StepID: "step-time", Type: models.StepTypeTime, Question: "Which time?", DefaultNextStepID: "booked"},
			{StepID: "booked", Type: models.StepTypeText, Question: "Booking {service} on {date} at {time}.",
				CompletesBooking: true, IsEnd: true},
		},
	}
}

// SeedTenant stores the fixture website, the flow and a capacity for
// ServiceName.
func SeedTenant(t testing.TB, s store.Store, flow models.FlowDefinition, capacity int) {
	t.Helper()
	ctx := context.Background()
	if err := s.SaveWebsite(ctx, Website()); err != nil {
		t.Fatalf("failed to save website: %v", err)
	}
	if err := s.SaveFlow(ctx, flow); err != nil {
		t.Fatalf("failed to save flow: %v", err)
	}
	if capacity > 0 {
		c := models.ServiceCapacity{TenantCode: TenantCode, Service: ServiceName, HowManyBookingsAllowed: capacity}
		if err := s.SaveServiceCapacity(ctx, c); err != nil {
			t.Fatalf("failed to save capacity: %v", err)
		}
	}
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t testing.TB, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t testing.TB, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t testing.TB, method, url string, body interface{}) *http.Request {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t testing.TB, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
