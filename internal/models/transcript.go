package models

import "time"

// Sender identifies the author of a transcript entry.
type Sender string

const (
	SenderSystem Sender = "system"
	SenderUser   Sender = "user"
	SenderBot    Sender = "bot"
)

// TranscriptStatus is the lifecycle status of a transcript.
type TranscriptStatus string

const (
	TranscriptActive    TranscriptStatus = "active"
	TranscriptCompleted TranscriptStatus = "completed"
	TranscriptAbandoned TranscriptStatus = "abandoned"
)

// CanTransition reports whether a transcript may move from s to next.
// Only active transcripts may change, and only to a terminal status.
func (s TranscriptStatus) CanTransition(next TranscriptStatus) bool {
	return s == TranscriptActive && (next == TranscriptCompleted || next == TranscriptAbandoned)
}

// TranscriptEntry is one message of a conversation.
type TranscriptEntry struct {
	Sender    Sender    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// CollectedFields is the denormalized projection of selected answers.
type CollectedFields struct {
	Name        string `json:"name,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Email       string `json:"email,omitempty"`
	Category    string `json:"category,omitempty"`
	Service     string `json:"service,omitempty"`
	Address     string `json:"address,omitempty"`
	ServiceDate string `json:"serviceDate,omitempty"`
	TimeSlot    string `json:"timeSlot,omitempty"`
}

// Set assigns the projection slot for a field type. Unknown fields are ignored.
func (c *CollectedFields) Set(field FieldType, value string) bool {
	switch field {
	case FieldName:
		c.Name = value
	case FieldPhone:
		c.Contact = value
	case FieldEmail:
		c.Email = value
	case FieldCategory:
		c.Category = value
	case FieldService:
		c.Service = value
	case FieldAddress:
		c.Address = value
	case FieldDate:
		c.ServiceDate = value
	case FieldTime:
		c.TimeSlot = value
	default:
		return false
	}
	return true
}

// Transcript is the persisted record of one session.
type Transcript struct {
	ChatID     string            `json:"chatId"`
	SessionID  string            `json:"sessionId,omitempty"`
	TenantCode string            `json:"tenantCode"`
	Messages   []TranscriptEntry `json:"messages"`
	Fields     CollectedFields   `json:"fields"`
	Status     TranscriptStatus  `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
