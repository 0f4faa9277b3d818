package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubResolver struct {
	country string
	err     error
}

func (s stubResolver) CountryCode(string) (string, error) {
	return s.country, s.err
}

func localeProbe(t *testing.T, resolver stubResolver, setup func(*http.Request)) string {
	t.Helper()
	var got string
	h := I18N(resolver, "en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetLocale(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4711"
	if setup != nil {
		setup(req)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestI18NHeaderWins(t *testing.T) {
	got := localeProbe(t, stubResolver{country: "FR"}, func(r *http.Request) {
		r.Header.Set("X-Locale", "id")
		r.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	})
	if got != "id" {
		t.Fatalf("expected id, got %q", got)
	}
}

func TestI18NAcceptLanguage(t *testing.T) {
	got := localeProbe(t, stubResolver{country: "FR"}, func(r *http.Request) {
		r.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")
	})
	if got != "pt" {
		t.Fatalf("expected pt, got %q", got)
	}
}

func TestI18NGeoIPFallback(t *testing.T) {
	if got := localeProbe(t, stubResolver{country: "ID"}, nil); got != "id" {
		t.Fatalf("expected id from geoip, got %q", got)
	}
}

func TestI18NDefault(t *testing.T) {
	if got := localeProbe(t, stubResolver{err: errors.New("no db")}, nil); got != "en" {
		t.Fatalf("expected default en, got %q", got)
	}
}

func TestI18NUnsupportedLocaleIgnored(t *testing.T) {
	got := localeProbe(t, stubResolver{country: "XX"}, func(r *http.Request) {
		r.Header.Set("X-Locale", "tlh")
	})
	if got != "en" {
		t.Fatalf("expected fallback en, got %q", got)
	}
}
