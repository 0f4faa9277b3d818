// Package chat implements the assistant endpoint: intent classification
// and model-backed replies.
package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/providers/llm"
)

// Reply is a chat answer plus the intent it was classified under.
type Reply struct {
	Message  string
	Intent   domain.ChatIntent
	Degraded bool
}

// Responder produces assistant replies. Provider failures degrade to a
// canned apology instead of propagating, so the chat endpoint never 500s
// on a model hiccup.
type Responder struct {
	gen    llm.TextGenerator
	logger zerolog.Logger
}

func NewResponder(gen llm.TextGenerator, logger zerolog.Logger) *Responder {
	return &Responder{gen: gen, logger: logger}
}

// Respond answers a text message.
func (r *Responder) Respond(ctx context.Context, message string) Reply {
	intent := ClassifyIntent(message)
	out, err := r.gen.GenerateText(ctx, r.prompt(message, intent))
	if err != nil {
		r.logger.Error().Err(err).Str("intent", string(intent)).Msg("chat generation failed")
		return Reply{Message: degradedMessage, Intent: intent, Degraded: true}
	}
	return Reply{Message: out, Intent: intent}
}

// RespondWithImage answers a message that carries an image attachment.
func (r *Responder) RespondWithImage(ctx context.Context, message, mimeType string, image []byte) Reply {
	intent := ClassifyIntent(message)
	out, err := r.gen.GenerateWithImage(ctx, r.prompt(message, intent), mimeType, image)
	if err != nil {
		r.logger.Error().Err(err).Str("intent", string(intent)).Msg("chat image generation failed")
		return Reply{Message: degradedMessage, Intent: intent, Degraded: true}
	}
	return Reply{Message: out, Intent: intent}
}

const degradedMessage = "Sorry, I could not process that right now. Please try again in a moment."

func (r *Responder) prompt(message string, intent domain.ChatIntent) string {
	var b strings.Builder
	b.WriteString("You are a helpful coding assistant for a project generation service.\n")
	switch intent {
	case domain.IntentWebDevelopment:
		b.WriteString("The user is asking about frontend or web development.\n")
	case domain.IntentBackendDevelopment:
		b.WriteString("The user is asking about backend or API development.\n")
	case domain.IntentDebugging:
		b.WriteString("The user is debugging a problem. Ask for missing details if needed and suggest concrete steps.\n")
	case domain.IntentLearning:
		b.WriteString("The user wants to learn a concept. Explain clearly with a short example.\n")
	case domain.IntentImageGeneration:
		b.WriteString("The user is asking about images or visual design.\n")
	}
	b.WriteString("\nUser message:\n")
	b.WriteString(message)
	return b.String()
}

// intentKeywords is ordered: the first bucket with a hit wins.
var intentKeywords = []struct {
	intent   domain.ChatIntent
	keywords []string
}{
	{domain.IntentImageGeneration, []string{"image", "logo", "picture", "draw", "illustration", "icon"}},
	{domain.IntentDebugging, []string{"error", "bug", "fix", "broken", "not working", "crash", "exception", "traceback"}},
	{domain.IntentBackendDevelopment, []string{"api", "backend", "database", "server", "endpoint", "sql", "auth"}},
	{domain.IntentWebDevelopment, []string{"html", "css", "frontend", "react", "vue", "website", "ui", "component", "page"}},
	{domain.IntentLearning, []string{"how do", "how to", "what is", "explain", "learn", "difference between", "teach"}},
}

// ClassifyIntent buckets a message by keyword. Messages that match nothing
// are general.
func ClassifyIntent(message string) domain.ChatIntent {
	lower := strings.ToLower(message)
	for _, bucket := range intentKeywords {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.intent
			}
		}
	}
	return domain.IntentGeneral
}
