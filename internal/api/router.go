package api

import (
	"net/http"
	"time"

	"bandroom/internal/api/handler"
	appmiddleware "bandroom/internal/api/middleware"
	"bandroom/internal/app/service"
	"bandroom/internal/common/security"
	"bandroom/internal/domain/repository"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	bandService *service.BandService,
	userRepo repository.UserRepository,
	memberRepo repository.MembershipRepository,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifier extracts the bearer token from "Authorization: Bearer <t>" and
	// leaves the verification result in the request context. Authenticator
	// turns that into an attached identity on the protected subtrees below.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService)
	bandHandler := handler.NewBandHandler(bandService, memberRepo)

	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		v1.Route("/auth", func(auth chi.Router) {
			authHandler.RegisterPublicRoutes(auth)

			auth.Group(func(protected chi.Router) {
				protected.Use(appmiddleware.Authenticator(userRepo))
				authHandler.RegisterProtectedRoutes(protected)
			})
		})

		// Band routes (authenticated; member/admin guards applied per route)
		v1.Route("/bands", func(bands chi.Router) {
			bands.Use(appmiddleware.Authenticator(userRepo))
			bandHandler.RegisterRoutes(bands)
		})
	})

	return r
}
