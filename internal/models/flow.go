// Package models defines flow definition types authored by tenants.
package models

// StepType represents the kind of input a step collects.
type StepType string

const (
	StepTypeText        StepType = "text"
	StepTypeNumber      StepType = "number"
	StepTypeDate        StepType = "date"
	StepTypeTime        StepType = "time"
	StepTypeDropdown    StepType = "dropdown"
	StepTypeMultiselect StepType = "multiselect"
	StepTypeAddress     StepType = "address"
	StepTypePhone       StepType = "phone"
	StepTypeEmail       StepType = "email"
	StepTypePackage     StepType = "package"
)

// IsValidStepType checks if the given step type is supported.
func IsValidStepType(st StepType) bool {
	switch st {
	case StepTypeText, StepTypeNumber, StepTypeDate, StepTypeTime, StepTypeDropdown,
		StepTypeMultiselect, StepTypeAddress, StepTypePhone, StepTypeEmail, StepTypePackage:
		return true
	default:
		return false
	}
}

// IsChoice reports whether the step presents an option list.
func (st StepType) IsChoice() bool {
	return st == StepTypeDropdown || st == StepTypeMultiselect
}

// FieldType names the booking or contact field a step's answer fills.
type FieldType string

const (
	FieldName     FieldType = "name"
	FieldPhone    FieldType = "phone"
	FieldEmail    FieldType = "email"
	FieldAddress  FieldType = "address"
	FieldCategory FieldType = "category"
	FieldService  FieldType = "service"
	FieldDate     FieldType = "date"
	FieldTime     FieldType = "time"
)

// KnownFieldTypes lists every field a step may declare, in projection order.
var KnownFieldTypes = []FieldType{
	FieldName, FieldPhone, FieldEmail, FieldAddress, FieldCategory, FieldService, FieldDate, FieldTime,
}

// IsKnownFieldType checks if the given field type is one of KnownFieldTypes.
func IsKnownFieldType(ft FieldType) bool {
	for _, known := range KnownFieldTypes {
		if ft == known {
			return true
		}
	}
	return false
}

// ValidationRule is the per-step input rule configured by the tenant.
type ValidationRule struct {
	Required     bool   `json:"required" yaml:"required"`
	Pattern      string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
}

// OptionConnection routes one option value of a choice step to a step.
type OptionConnection struct {
	OptionValue string `json:"optionValue" yaml:"optionValue"`
	NextStepID  string `json:"nextStepId,omitempty" yaml:"nextStepId,omitempty"`
}

// Step is a single node of a tenant flow.
type Step struct {
	StepID             string             `json:"stepId" yaml:"stepId"`
	Type               StepType           `json:"type" yaml:"type"`
	Question           string             `json:"question" yaml:"question"`
	ResponseTemplate   string             `json:"responseTemplate,omitempty" yaml:"responseTemplate,omitempty"`
	Validation         *ValidationRule    `json:"validation,omitempty" yaml:"validation,omitempty"`
	Options            []string           `json:"options,omitempty" yaml:"options,omitempty"`
	OptionConnections  []OptionConnection `json:"optionConnections,omitempty" yaml:"optionConnections,omitempty"`
	DefaultNextStepID  string             `json:"defaultNextStepId,omitempty" yaml:"defaultNextStepId,omitempty"`
	IsStart            bool               `json:"isStart,omitempty" yaml:"isStart,omitempty"`
	IsEnd              bool               `json:"isEnd,omitempty" yaml:"isEnd,omitempty"`
	FieldType          FieldType          `json:"fieldType,omitempty" yaml:"fieldType,omitempty"`
	IsBookingStep      bool               `json:"isBookingStep,omitempty" yaml:"isBookingStep,omitempty"`
	RequiresAI         bool               `json:"requiresAI,omitempty" yaml:"requiresAI,omitempty"`
	CompletesBooking   bool               `json:"completesBooking,omitempty" yaml:"completesBooking,omitempty"`
	CompletesComplaint bool               `json:"completesComplaint,omitempty" yaml:"completesComplaint,omitempty"`
}

// EffectiveFieldType returns the declared field type, falling back to the
// "step-<field>" naming convention on the step id.
func (s *Step) EffectiveFieldType() FieldType {
	if s.FieldType != "" {
		return s.FieldType
	}
	const prefix = "step-"
	if len(s.StepID) > len(prefix) && s.StepID[:len(prefix)] == prefix {
		ft := FieldType(s.StepID[len(prefix):])
		if IsKnownFieldType(ft) {
			return ft
		}
	}
	return ""
}

// FlowDefinition is a tenant-authored conversation graph. It is immutable
// for the duration of a session.
type FlowDefinition struct {
	TenantCode     string `json:"tenantCode" yaml:"tenantCode"`
	BotName        string `json:"botName,omitempty" yaml:"botName,omitempty"`
	WelcomeMessage string `json:"welcomeMessage" yaml:"welcomeMessage"`
	EndMessage     string `json:"endMessage" yaml:"endMessage"`
	AIEnabled      bool   `json:"aiEnabled,omitempty" yaml:"aiEnabled,omitempty"`
	Steps          []Step `json:"steps" yaml:"steps"`
}
