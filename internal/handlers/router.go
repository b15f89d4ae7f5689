package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	mW "github.com/foxcode/shorter/internal/middleware"
	"github.com/foxcode/shorter/internal/services"
)

type RouterOptions struct {
	Accounts   *AccountHandler
	Shortlinks *ShortlinkHandler
	Sessions   *SessionHandler
	Payments   *PaymentHandler
	Redis      *redis.Client
	JWTSecret  []byte
	// SwaggerURL is where the UI loads doc.json from. Empty disables the UI.
	SwaggerURL     string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter wires middleware and every route.
func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", healthHandler(opts.Redis))

	if opts.SwaggerURL != "" {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(opts.SwaggerURL)))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.AuthMiddleware(opts.JWTSecret))

		r.Post("/accounts", opts.Accounts.CreateAccount)
		r.Get("/accounts/{identity}", opts.Accounts.GetAccount)
		r.Get("/accounts/{identity}/transactions", opts.Accounts.ListTransactions)

		r.Post("/accounts/{identity}/shortlinks", opts.Shortlinks.CreateShortlink)
		r.Get("/accounts/{identity}/shortlinks", opts.Shortlinks.ListShortlinks)
		r.Get("/shortlinks/{code}", opts.Shortlinks.GetShortlink)
		r.Delete("/shortlinks/{code}", opts.Shortlinks.DeleteShortlink)

		r.Post("/accounts/{identity}/payments", opts.Payments.CreatePayment)
		r.Get("/accounts/{identity}/payments", opts.Payments.ListPayments)

		r.Get("/sessions/{identity}/terms", opts.Sessions.GetSession)
		r.Put("/sessions/{identity}/terms", opts.Sessions.AcceptTerms)

		r.Group(func(r chi.Router) {
			r.Use(mW.RequireAdmin)

			r.Put("/accounts/{identity}/balance", opts.Accounts.AdjustBalance)
			r.Put("/accounts/{identity}/status", opts.Accounts.SetStatus)
			r.Post("/admin/shortlinks/expire", opts.Shortlinks.ExpireOverdue)
			r.Get("/admin/payments", opts.Payments.ListAll)
			r.Put("/admin/payments/{id}", opts.Payments.ProcessPayment)
		})
	})

	r.Get("/{code}", opts.Shortlinks.Redirect)

	return r
}

// healthHandler reports liveness and whether Redis answers.
func healthHandler(rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redisStatus := "disabled"
		if rdb != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			redisStatus = "up"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "down"
			}
		}
		services.SendJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"redis":  redisStatus,
		})
	}
}
