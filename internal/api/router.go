package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Post("/logout", apiHandler.LogoutHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Routes that need a logged-in user
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.SessionRequiredMiddleware)

			r.Get("/me", apiHandler.MeHandler)
			r.Put("/subscription", apiHandler.UpdateSubscriptionHandler)
			r.Patch("/profile", apiHandler.UpdateProfileHandler)
			r.Post("/usage/free", apiHandler.IncrementFreeUsageHandler)

			r.Get("/chats", apiHandler.ListChatsHandler)
			r.Put("/chats", apiHandler.SaveChatHandler)
			r.Post("/chats/messages", apiHandler.PostMessageHandler)
			r.Get("/chats/{sessionID}", apiHandler.GetChatHandler)
		})
	})

	return r
}
