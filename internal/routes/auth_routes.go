package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"authapi/internal/config"
	"authapi/internal/handlers"
	mw "authapi/internal/middleware"
	"authapi/internal/repository"
	"authapi/internal/services"
)

func newMailer(cfg *config.Config) services.EmailSender {
	if cfg.EmailProvider == "smtp" {
		return &services.SMTPSender{
			Host:   cfg.SMTPHost,
			Port:   cfg.SMTPPort,
			User:   cfg.SMTPUser,
			Pass:   cfg.SMTPPassword,
			From:   cfg.EmailFrom,
			UseTLS: cfg.SMTPUseTLS,
		}
	}
	return services.NewPostmarkClient(cfg.PostmarkServerToken, cfg.EmailFrom)
}

func RegisterAuthRoutes(router chi.Router, db *sql.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg, newMailer(cfg))
	tokenAuth := mw.TokenAuth(repository.NewTokenRepository(db))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/user/create", authHandler.Register)
		r.Post("/token", authHandler.Login)
		r.Post("/password-reset/request", authHandler.RequestPasswordReset)
		r.Post("/password-reset/confirm", authHandler.ConfirmPasswordReset)

		r.Group(func(r chi.Router) {
			r.Use(tokenAuth)
			r.Delete("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})
	})
}
