package middleware

import (
	"context"
	"net/http"
	"strings"

	"server/internal/infra/geoip"
)

const localeKey ctxKey = "locale"

var supportedLocales = map[string]bool{
	"en": true,
	"id": true,
	"es": true,
	"fr": true,
	"de": true,
	"pt": true,
	"ja": true,
}

// countryLocales maps GeoIP country codes to a default locale for
// localized upsell copy.
var countryLocales = map[string]string{
	"ID": "id",
	"ES": "es",
	"MX": "es",
	"AR": "es",
	"FR": "fr",
	"DE": "de",
	"AT": "de",
	"BR": "pt",
	"PT": "pt",
	"JP": "ja",
}

// I18N resolves the request locale: the X-Locale header wins, then
// Accept-Language, then the GeoIP country of the client IP, then the
// configured default.
func I18N(resolver geoip.CountryResolver, defaultLocale string) func(http.Handler) http.Handler {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := resolveLocale(r, resolver, defaultLocale)
			ctx := context.WithValue(r.Context(), localeKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLocale returns the locale stored by I18N, defaulting to en.
func GetLocale(ctx context.Context) string {
	if l, ok := ctx.Value(localeKey).(string); ok && l != "" {
		return l
	}
	return "en"
}

func resolveLocale(r *http.Request, resolver geoip.CountryResolver, fallback string) string {
	if l := normalizeLocale(r.Header.Get("X-Locale")); l != "" {
		return l
	}
	if l := localeFromAcceptLanguage(r.Header.Get("Accept-Language")); l != "" {
		return l
	}
	if resolver != nil {
		if country, err := resolver.CountryCode(clientIP(r)); err == nil {
			if l, ok := countryLocales[country]; ok {
				return l
			}
		}
	}
	return fallback
}

func localeFromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		lang := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if l := normalizeLocale(lang); l != "" {
			return l
		}
	}
	return ""
}

func normalizeLocale(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if i := strings.IndexAny(raw, "-_"); i > 0 {
		raw = raw[:i]
	}
	if supportedLocales[raw] {
		return raw
	}
	return ""
}
