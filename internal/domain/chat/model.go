package chat

import (
	"time"

	"github.com/google/uuid"
)

// Disclaimer is appended to every chat reply.
const Disclaimer = "\n---\n\n**Your HealthGuard AI Companion - Personalized Medical Guidance at Your Fingertips**\n\n*Note:* This assistant provides general information only and does not replace a doctor's advice.\n"

// Exchange is one question and the answer given to it.
type Exchange struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// Record is a persisted chat log row.
type Record struct {
	ID          uuid.UUID `json:"id"`
	PatientID   string    `json:"patientId"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}
