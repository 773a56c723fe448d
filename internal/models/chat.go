package models

// ChatRequest is one inbound conversational turn from the customer surface
type ChatRequest struct {
	PhoneNumber string     `json:"phone_number"`
	Name        string     `json:"name"`
	TableID     string     `json:"table_id"`
	UserInput   string     `json:"user_input"`
	CurrentCart []CartItem `json:"current_cart"` // client echo, advisory only
}

// VoiceResponse is the structured reply spoken and displayed by the frontend
type VoiceResponse struct {
	VoiceText   string     `json:"voice_text"`
	DisplayText string     `json:"display_text"`
	Action      string     `json:"action"`
	Items       []CartItem `json:"items"`
	TableID     string     `json:"table_id"`
	TokenNumber string     `json:"token_number,omitempty"`
}

// Reconciler action signals
const (
	ActionNone        = "NONE"
	ActionOrderPlaced = "ORDER_PLACED"
)
