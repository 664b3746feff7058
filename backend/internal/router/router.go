package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ebrain/board/backend/internal/setup"
	mw "github.com/ebrain/board/shared/middleware"
	"github.com/ebrain/board/shared/middleware/metrics"
	rl "github.com/ebrain/board/shared/middleware/ratelimiter"
)

const limiterCleanupInterval = 10 * time.Minute

// New creates and configures a chi router with all the routes.
// Rate limiter buckets are swept until done is closed.
func New(deps *setup.Dependencies, done <-chan struct{}) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	// downloads carry their own Content-Length, so only JSON is compressed
	r.Use(middleware.Compress(5, "application/json"))

	// admin and member clients live on other origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", mw.CSRFHeader},
		ExposedHeaders:   []string{"X-File-Name", "X-File-Size", "X-File-Extension", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeaders(deps.Config.Public.SecureCookies, ""))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	createLimiter := rl.PerMinute(5)
	commentLimiter := rl.PerMinute(20)
	viewLimiter := rl.PerMinute(60)
	for _, l := range []*rl.UserRateLimiter{createLimiter, commentLimiter, viewLimiter} {
		l.StartCleanup(limiterCleanupInterval, done)
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(mw.CSRF(deps.Config.Public.SecureCookies))

		// Admin routes
		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(authMw.AdminOnly())

			admin.Get("/boards/{kind}", h.ListPosts)
			admin.Post("/boards/{kind}", h.CreatePost)
			admin.Get("/boards/{kind}/fixed-count", h.CountFixed)
			admin.Get("/boards/{kind}/{id}", h.GetPost)
			admin.Put("/boards/{kind}/{id}", h.UpdatePost)
			admin.Delete("/boards/{kind}/{id}", h.ModeratePost)
			admin.Get("/boards/{kind}/{id}/comments", h.ListComments)
			admin.Post("/boards/{kind}/{id}/comments", h.CreateComment)
			admin.Delete("/comments/{commentId}", h.DeleteAnyComment)

			admin.Get("/boards/inquiry/{id}/answer", h.GetAnswer)
			admin.Post("/boards/inquiry/{id}/answer", h.CreateAnswer)
			admin.Put("/boards/inquiry/{id}/answer", h.UpdateAnswer)
			admin.Delete("/boards/inquiry/{id}/answer", h.DeleteAnswer)
		})

		// Member routes: reads are open, writes need a token
		v1.Group(func(public chi.Router) {
			public.Use(authMw.OptionalAuth())

			public.Get("/boards/{kind}", h.ListPosts)
			public.Get("/boards/{kind}/{id}", h.GetPost)
			public.Get("/boards/{kind}/{id}/comments", h.ListComments)
			public.With(mw.RateLimit(viewLimiter, mw.GetIdentityOrIP)).Post("/boards/{kind}/{id}/views", h.IncreaseViewCount)
			public.Get("/categories/{kind}", h.ListCategories)
			public.Get("/files/{fileId}", h.DownloadFile)
			public.Get("/files/{fileId}/thumbnail", h.DownloadThumbnail)
		})

		v1.Group(func(member chi.Router) {
			member.Use(authMw.NeedAuth())

			member.With(mw.RateLimit(createLimiter, mw.GetIdentityOrIP)).Post("/boards/{kind}", h.CreatePost)
			member.Put("/boards/{kind}/{id}", h.UpdatePost)
			member.Delete("/boards/{kind}/{id}", h.DeletePost)
			member.Get("/boards/{kind}/{id}/author-check", h.CheckAuthor)
			member.With(mw.RateLimit(commentLimiter, mw.GetIdentityOrIP)).Post("/boards/{kind}/{id}/comments", h.CreateComment)
			member.Delete("/comments/{commentId}", h.DeleteComment)
		})
	})

	return r
}
