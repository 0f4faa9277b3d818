package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/providers/chat"
)

type chatRequest struct {
	UserID         string `json:"userId"`
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	Image          string `json:"image"`
	ImageMimeType  string `json:"imageMimeType"`
}

// Chat handles POST /chat.
func (a *App) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		a.error(w, http.StatusBadRequest, "message is required")
		return
	}

	reply := a.Assistant.Respond(r.Context(), req.Message)
	a.respondChat(w, r, req, reply)
}

// ChatImage handles POST /chat/image: the message plus a base64 image.
func (a *App) ChatImage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		a.error(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Image == "" {
		a.error(w, http.StatusBadRequest, "image is required")
		return
	}
	payload, err := base64.StdEncoding.DecodeString(stripDataURL(req.Image))
	if err != nil {
		a.error(w, http.StatusBadRequest, "image must be base64 encoded")
		return
	}

	reply := a.Assistant.RespondWithImage(r.Context(), req.Message, req.ImageMimeType, payload)
	a.respondChat(w, r, req, reply)
}

// ChatHistory handles GET /chat/{conversation_id}: the stored turns of a
// conversation, oldest first.
func (a *App) ChatHistory(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")
	messages, err := a.Conversations.List(r.Context(), conversationID)
	if err != nil {
		a.fail(w, err)
		return
	}

	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		out = append(out, map[string]any{
			"id":        m.ID,
			"role":      m.Role,
			"content":   m.Content,
			"intent":    m.Intent,
			"createdAt": m.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"conversationId": conversationID,
		"messages":       out,
	})
}

func (a *App) respondChat(w http.ResponseWriter, r *http.Request, req chatRequest, reply chat.Reply) {
	if req.ConversationID != "" {
		a.saveTurn(r, req, reply)
	}
	a.json(w, http.StatusOK, map[string]any{
		"success":  !reply.Degraded,
		"message":  reply.Message,
		"intent":   reply.Intent,
		"degraded": reply.Degraded,
	})
}

// saveTurn appends the user message and the reply to the conversation.
// History is best-effort: a failed write does not fail the chat response.
func (a *App) saveTurn(r *http.Request, req chatRequest, reply chat.Reply) {
	now := time.Now().UTC()
	turns := []*domain.ConversationMessage{
		{
			ID:             uuid.NewString(),
			ConversationID: req.ConversationID,
			UserID:         req.UserID,
			Role:           "user",
			Content:        req.Message,
			Intent:         reply.Intent,
			CreatedAt:      now,
		},
		{
			ID:             uuid.NewString(),
			ConversationID: req.ConversationID,
			UserID:         req.UserID,
			Role:           "assistant",
			Content:        reply.Message,
			Intent:         reply.Intent,
			CreatedAt:      now,
		},
	}
	for _, m := range turns {
		if err := a.Conversations.Insert(r.Context(), m); err != nil {
			a.Logger.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("save chat turn")
			return
		}
	}
}

func stripDataURL(s string) string {
	if i := strings.Index(s, ";base64,"); i >= 0 {
		return s[i+len(";base64,"):]
	}
	return s
}
