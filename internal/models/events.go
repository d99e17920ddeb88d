package models

// InboundType names an event received from the chat widget.
type InboundType string

const (
	InboundStartChat       InboundType = "start_chat"
	InboundUserMessage     InboundType = "user_message"
	InboundOptionSelected  InboundType = "option_selected"
	InboundDateSelected    InboundType = "date_selected"
	InboundTimeSelected    InboundType = "time_selected"
	InboundEndConversation InboundType = "end_conversation"
	InboundBookingComplete InboundType = "booking_completed"
)

// EventType names an event sent to the chat widget.
type EventType string

const (
	EventWebsiteInfo    EventType = "website_info"
	EventAIReply        EventType = "ai_reply"
	EventAIComplete     EventType = "ai_complete"
	EventShowOptions    EventType = "show_options"
	EventShowDatePicker EventType = "show_date_picker"
	EventShowTimeSlots  EventType = "show_time_slots"
	EventBookingDone    EventType = "booking_done"
	EventContactDetails EventType = "blueace_contact_details"
)

// OutgoingEvent is one message produced by the engine for the widget.
type OutgoingEvent struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ReplyPayload carries bot text. The gateway may split Chunk further.
type ReplyPayload struct {
	Chunk string `json:"chunk"`
}

// OptionsPayload carries a choice list for dropdown and multiselect steps.
type OptionsPayload struct {
	StepID   string   `json:"stepId"`
	Options  []string `json:"options"`
	Multiple bool     `json:"multiple,omitempty"`
}

// DatePickerPayload asks the widget to render a date picker.
type DatePickerPayload struct {
	StepID  string `json:"stepId"`
	MinDate string `json:"minDate,omitempty"`
}

// TimeSlotsPayload lists the free slots for the chosen date.
type TimeSlotsPayload struct {
	StepID string   `json:"stepId"`
	Date   string   `json:"date"`
	Slots  []string `json:"slots"`
}

// BookingDonePayload confirms a persisted booking.
type BookingDonePayload struct {
	BookingID string `json:"bookingId"`
	Message   string `json:"message"`
}

// ContactDetailsPayload is the tenant contact card.
type ContactDetailsPayload struct {
	Title   string `json:"title,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Reply builds an ai_reply event.
func Reply(text string) OutgoingEvent {
	return OutgoingEvent{Type: EventAIReply, Data: ReplyPayload{Chunk: text}}
}

// Input is one inbound turn for the engine.
type Input struct {
	Type  InboundType `json:"type"`
	Value string      `json:"value"`
}
