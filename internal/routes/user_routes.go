package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"authapi/internal/handlers"
	mw "authapi/internal/middleware"
	"authapi/internal/repository"
)

func RegisterUserRoutes(router chi.Router, db *sql.DB) {
	userHandler := handlers.NewUserHandler(repository.NewUserRepository(db))
	tokenAuth := mw.TokenAuth(repository.NewTokenRepository(db))

	router.Route("/users", func(r chi.Router) {
		r.Use(tokenAuth)

		r.Get("/", userHandler.ListUsers)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", userHandler.GetUser)
			r.Put("/password", userHandler.ChangePassword)
		})
	})
}
