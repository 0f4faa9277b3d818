package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/github"
	"server/internal/providers/chat"
)

func chatRouter(env *testEnv) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/chat", env.app.Chat)
	r.Post("/chat/image", env.app.ChatImage)
	r.Get("/chat/{conversation_id}", env.app.ChatHistory)
	r.Post("/github/push", env.app.GithubPush)
	return r
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)
	conv := &stubConversations{}
	env.app.Assistant = &stubChat{reply: chat.Reply{Message: "use flexbox", Intent: domain.IntentWebDevelopment}}
	env.app.Conversations = conv
	router := chatRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/chat", map[string]any{
		"userId":         "u1",
		"message":        "center a div",
		"conversationId": "c1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "use flexbox" || body["intent"] != "web_development" {
		t.Fatalf("unexpected body: %v", body)
	}
	// Both the user turn and the assistant turn are recorded.
	if len(conv.saved) != 2 {
		t.Fatalf("expected 2 saved turns, got %d", len(conv.saved))
	}
	if conv.saved[0].Role != "user" || conv.saved[1].Role != "assistant" {
		t.Fatalf("unexpected roles: %+v", conv.saved)
	}
}

func TestChatHistory(t *testing.T) {
	env := newTestEnv(t)
	conv := &stubConversations{}
	env.app.Conversations = conv
	env.app.Assistant = &stubChat{reply: chat.Reply{Message: "use flexbox", Intent: domain.IntentWebDevelopment}}
	router := chatRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/chat", map[string]any{
		"userId":         "u1",
		"message":        "center a div",
		"conversationId": "c1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/chat/c1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["conversationId"] != "c1" {
		t.Fatalf("unexpected body: %v", body)
	}
	messages, _ := body["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "center a div" {
		t.Fatalf("unexpected first message: %v", first)
	}

	// An unknown conversation is an empty history, not an error.
	rec = doJSON(t, router, http.MethodGet, "/chat/nope", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	body = decodeBody(t, rec)
	if messages, _ := body["messages"].([]any); len(messages) != 0 {
		t.Fatalf("expected empty history, got %v", messages)
	}
}

func TestChatWithoutConversationSkipsHistory(t *testing.T) {
	env := newTestEnv(t)
	conv := &stubConversations{}
	env.app.Conversations = conv
	env.app.Assistant = &stubChat{reply: chat.Reply{Message: "hi", Intent: domain.IntentGeneral}}
	router := chatRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/chat", map[string]any{"message": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	if len(conv.saved) != 0 {
		t.Fatal("no conversationId means no history writes")
	}
}

func TestChatRequiresMessage(t *testing.T) {
	env := newTestEnv(t)
	router := chatRouter(env)
	rec := doJSON(t, router, http.MethodPost, "/chat", map[string]any{"userId": "u1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func TestChatImage(t *testing.T) {
	env := newTestEnv(t)
	env.app.Assistant = &stubChat{reply: chat.Reply{Message: "a cat", Intent: domain.IntentGeneral}}
	router := chatRouter(env)

	encoded := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	rec := doJSON(t, router, http.MethodPost, "/chat/image", map[string]any{
		"message": "what is this",
		"image":   "data:image/png;base64," + encoded,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "a cat" {
		t.Fatalf("unexpected body: %v", body)
	}

	rec = doJSON(t, router, http.MethodPost, "/chat/image", map[string]any{
		"message": "what is this",
		"image":   "%%%not-base64%%%",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid base64: got %d, want 400", rec.Code)
	}
}

func TestGithubPush(t *testing.T) {
	env := newTestEnv(t)
	seedProject(env)
	pusher := &stubPusher{result: &github.PushResult{RepoURL: "https://github.com/o/r"}}
	env.app.Pusher = pusher
	router := chatRouter(env)

	token := "ghp_" + strings.Repeat("a", 36)
	rec := doJSON(t, router, http.MethodPost, "/github/push", map[string]any{
		"userId":    "u1",
		"projectId": "p1",
		"token":     token,
		"owner":     "o",
		"repoName":  "r",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["repoUrl"] != "https://github.com/o/r" {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(pusher.last.Files) != 1 {
		t.Fatal("project files should be handed to the pusher")
	}
}

func TestGithubPushRejectsBadTokenAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	seedProject(env)
	router := chatRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/github/push", map[string]any{
		"userId":    "u1",
		"projectId": "p1",
		"token":     "bad-token",
		"owner":     "o",
		"repoName":  "r",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad token: got %d, want 400", rec.Code)
	}

	token := "ghp_" + strings.Repeat("a", 36)
	rec = doJSON(t, router, http.MethodPost, "/github/push", map[string]any{
		"userId":    "intruder",
		"projectId": "p1",
		"token":     token,
		"owner":     "o",
		"repoName":  "r",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ownership: got %d, want 403", rec.Code)
	}
}
