package httpserver

import (
	"net/http"

	"booknook-go/internal/config"
	"booknook-go/internal/metrics"
	"booknook-go/internal/transport/httpserver/handler"
	authmw "booknook-go/internal/transport/httpserver/middleware"
	"booknook-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, auth *authmw.SupabaseAuth, m *metrics.Metrics, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(authmw.AccessLog(log))
	r.Use(chimw.Recoverer)
	r.Use(m.Middleware)
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	r.Handle("/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(cfg.RequestTimeout))

			r.Get("/health", handlers.Common.Health)
			r.Post("/auth/signup", handlers.Common.SignUp)
			r.Post("/auth/signin", handlers.Common.SignIn)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			// Long-lived; the request timeout would cut the stream.
			r.Get("/notifications/stream", handlers.Notifications.Stream)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(cfg.RequestTimeout))

				r.Get("/auth/me", handlers.Common.AuthMe)
				r.Post("/auth/signout", handlers.Common.SignOut)
				r.Put("/auth/password", handlers.Common.UpdatePassword)

				r.Get("/profile", handlers.Common.GetProfile)
				r.Patch("/profile", handlers.Common.UpdateProfile)
				r.Put("/profile/photo", handlers.Common.UpdatePhoto)

				r.Get("/clubs", handlers.Clubs.ListClubs)
				r.Post("/clubs", handlers.Clubs.CreateClub)
				r.Post("/clubs/join", handlers.Clubs.JoinClub)

				r.Route("/clubs/{club_id}", func(r chi.Router) {
					r.Use(authmw.ClubScope)

					r.Get("/", handlers.Clubs.GetClub)
					r.Patch("/", handlers.Clubs.UpdateClub)
					r.Delete("/", handlers.Clubs.DeleteClub)
					r.Post("/leave", handlers.Clubs.LeaveClub)
					r.Post("/transfer", handlers.Clubs.TransferOwnership)
					r.Get("/members", handlers.Clubs.ListMembers)
					r.Patch("/members/{user_id}", handlers.Clubs.SetMemberRole)
					r.Delete("/members/{user_id}", handlers.Clubs.RemoveMember)

					r.Get("/discussions", handlers.Discussions.ListDiscussions)
					r.Post("/discussions", handlers.Discussions.CreateDiscussion)
					r.Get("/discussions/{discussion_id}", handlers.Discussions.GetDiscussion)
					r.Patch("/discussions/{discussion_id}", handlers.Discussions.UpdateDiscussion)
					r.Delete("/discussions/{discussion_id}", handlers.Discussions.DeleteDiscussion)
					r.Post("/discussions/{discussion_id}/comments", handlers.Discussions.AddComment)
					r.Delete("/comments/{comment_id}", handlers.Discussions.DeleteComment)

					r.Get("/books", handlers.Books.ListClubBooks)
					r.Post("/books", handlers.Books.AddClubBook)
					r.Delete("/books/{book_id}", handlers.Books.RemoveClubBook)
					r.Get("/shelf", handlers.Books.ListShelf)
					r.Post("/books/{book_id}/reviews", handlers.Books.CreateReview)
					r.Patch("/reviews/{review_id}", handlers.Books.UpdateReview)
					r.Delete("/reviews/{review_id}", handlers.Books.DeleteReview)
					r.Post("/reviews/{review_id}/comments", handlers.Books.AddReviewComment)
					r.Delete("/review-comments/{comment_id}", handlers.Books.DeleteReviewComment)

					r.Get("/events", handlers.Events.List)
					r.Post("/events", handlers.Events.Create)
					r.Delete("/events/{event_id}", handlers.Events.Delete)
				})

				r.Get("/notifications", handlers.Notifications.List)
				r.Post("/notifications/read-all", handlers.Notifications.MarkAllRead)
				r.Patch("/notifications/{notification_id}/read", handlers.Notifications.MarkRead)

				r.Get("/books/search", handlers.Books.Search)
				r.Get("/searchBooks/route", handlers.Books.LegacySearch)
				r.Post("/searchBooks/route", handlers.Books.LegacyAddBook)
			})
		})
	})

	return r
}
