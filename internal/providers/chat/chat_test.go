package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) GenerateText(context.Context, string) (string, error) {
	return s.text, s.err
}

func (s *stubGenerator) GenerateWithImage(context.Context, string, string, []byte) (string, error) {
	return s.text, s.err
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		message string
		want    domain.ChatIntent
	}{
		{"generate a logo for my shop", domain.IntentImageGeneration},
		{"my react app throws an error on load", domain.IntentDebugging},
		{"how should I structure my api endpoints", domain.IntentBackendDevelopment},
		{"center a div with css", domain.IntentWebDevelopment},
		{"what is a closure", domain.IntentLearning},
		{"hello there", domain.IntentGeneral},
	}
	for _, tt := range tests {
		if got := ClassifyIntent(tt.message); got != tt.want {
			t.Errorf("ClassifyIntent(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}

func TestRespond(t *testing.T) {
	r := NewResponder(&stubGenerator{text: "use flexbox"}, zerolog.Nop())
	reply := r.Respond(context.Background(), "center a div with css")
	if reply.Message != "use flexbox" || reply.Degraded {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Intent != domain.IntentWebDevelopment {
		t.Fatalf("unexpected intent: %s", reply.Intent)
	}
}

func TestRespondDegradesOnProviderFailure(t *testing.T) {
	r := NewResponder(&stubGenerator{err: errors.New("timeout")}, zerolog.Nop())
	reply := r.Respond(context.Background(), "hello")
	if !reply.Degraded {
		t.Fatal("expected degraded reply")
	}
	if reply.Message == "" {
		t.Fatal("degraded reply should still carry a message")
	}
}

func TestRespondWithImage(t *testing.T) {
	r := NewResponder(&stubGenerator{text: "that is a cat"}, zerolog.Nop())
	reply := r.RespondWithImage(context.Background(), "what is in this image", "image/png", []byte{1})
	if reply.Message != "that is a cat" || reply.Degraded {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}
