// Package httpapi assembles the HTTP routing tree.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra/geoip"
	"server/internal/middleware"
)

// NewRouter wires middleware and routes around the handler app.
func NewRouter(app *handlers.App, resolver geoip.CountryResolver) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(app.Config.AllowedOrigins))
	r.Use(middleware.I18N(resolver, app.Config.DefaultLocale))

	limiter := middleware.NewRateLimiter(app.Config.RateLimitPerMin)
	r.Use(limiter.Middleware)

	r.Get("/", app.Root)
	r.Get("/healthz", app.Healthz)

	r.Post("/generate", app.Generate)

	r.Get("/projects/{user_id}", app.ListProjects)
	r.Route("/project/{project_id}", func(r chi.Router) {
		r.Get("/", app.GetProject)
		r.Put("/", app.UpdateProject)
		r.Delete("/", app.DeleteProject)
		r.Get("/files", app.ProjectFiles)
	})
	r.Get("/download/{project_id}", app.DownloadProject)
	r.Post("/fix-project/{project_id}", app.FixProject)

	r.Post("/github/push", app.GithubPush)

	r.Post("/chat", app.Chat)
	r.Post("/chat/image", app.ChatImage)
	r.Get("/chat/{conversation_id}", app.ChatHistory)

	r.Get("/simple-check/{user_id}", app.SimpleCheck)
	r.Get("/debug/user/{user_id}", app.DebugUser)
	r.Post("/migrate-users", app.MigrateUsers)

	return r
}
