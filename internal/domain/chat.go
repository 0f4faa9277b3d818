package domain

import "time"

// ChatIntent classifies what a chat message is asking for.
type ChatIntent string

const (
	IntentImageGeneration    ChatIntent = "image_generation"
	IntentWebDevelopment     ChatIntent = "web_development"
	IntentBackendDevelopment ChatIntent = "backend_development"
	IntentDebugging          ChatIntent = "debugging"
	IntentLearning           ChatIntent = "learning"
	IntentGeneral            ChatIntent = "general"
)

// ConversationMessage is one stored turn of a chat conversation.
type ConversationMessage struct {
	ID             string
	ConversationID string
	UserID         string
	Role           string
	Content        string
	Intent         ChatIntent
	CreatedAt      time.Time
}
