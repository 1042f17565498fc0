package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosterhub/platform/internal/auth"
	"github.com/rosterhub/platform/internal/guard"
	"github.com/rosterhub/platform/internal/handler"
	adminhandler "github.com/rosterhub/platform/internal/handler/admin"
	"github.com/rosterhub/platform/internal/licensing"
	"github.com/rosterhub/platform/internal/projection"
	"github.com/rosterhub/platform/internal/repository"
	"github.com/rosterhub/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool          *pgxpool.Pool
	JWTMgr        *auth.JWTManager
	Logger        *slog.Logger
	AllowedOrigin string
}

// Services bundles the constructed service layer so callers (startup hooks,
// the outbox consumer) can reach it alongside the router.
type Services struct {
	Accounts  *service.AccountService
	Teams     *service.TeamService
	Events    *service.EventService
	Licensing *service.LicensingService
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) (chi.Router, *Services) {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	teamRepo := repository.NewTeamRepository()
	licenseRepo := repository.NewLicenseRepository()
	requestRepo := repository.NewLicenseRequestRepository()
	userRepo := repository.NewUserRepository()
	eventRepo := repository.NewEventRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Licensing engine
	engine := licensing.NewEngine(teamRepo, licenseRepo, requestRepo, outboxRepo)

	// Services
	accountSvc := service.NewAccountService(pool, userRepo, teamRepo, outboxRepo, jwtMgr, logger)
	teamSvc := service.NewTeamService(pool, teamRepo, userRepo, eventRepo, licenseRepo, outboxRepo, logger)
	eventSvc := service.NewEventService(pool, teamRepo, eventRepo, logger)
	statusCache := projection.NewInMemoryStore()
	licensingSvc := service.NewLicensingService(pool, engine, teamRepo, licenseRepo, requestRepo, userRepo, statusCache, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(accountSvc)
	teamHandler := handler.NewTeamHandler(teamSvc, accountSvc)
	eventHandler := handler.NewEventHandler(eventSvc, accountSvc)
	activationLimiter := guard.NewRateLimiter(10, time.Minute)
	licenseHandler := handler.NewLicenseHandler(licensingSvc, teamSvc, accountSvc, activationLimiter)

	// Staff handlers
	licensesAdmin := adminhandler.NewLicensesHandler(licensingSvc)
	requestsAdmin := adminhandler.NewRequestsHandler(licensingSvc)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.AllowedOrigin))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Auth routes (no auth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Member-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateMember(jwtMgr))

		r.Get("/me", authHandler.Me)
		r.Delete("/me", authHandler.DeleteAccount)

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", teamHandler.ListMine)
			r.Post("/", teamHandler.Create)
			r.Post("/join", teamHandler.Join)

			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", teamHandler.Get)
				r.Patch("/", teamHandler.Update)
				r.Delete("/", teamHandler.Delete)
				r.Post("/join-code", teamHandler.RotateJoinCode)

				r.Post("/admins", teamHandler.AddAdmin)
				r.Delete("/admins/{userID}", teamHandler.RemoveAdmin)

				r.Route("/events", func(r chi.Router) {
					r.Get("/", eventHandler.List)
					r.Post("/", eventHandler.Create)
				})

				r.Route("/license", func(r chi.Router) {
					r.Get("/", licenseHandler.Status)
					r.Post("/activate", licenseHandler.Activate)
					r.Get("/requests", licenseHandler.ListRequests)
					r.Post("/requests", licenseHandler.SubmitRequest)
				})
			})
		})
	})

	// Staff-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateStaff(jwtMgr))

		r.Route("/licenses", func(r chi.Router) {
			r.Get("/", licensesAdmin.List)
			r.Post("/", licensesAdmin.Create)
			r.Delete("/{licenseID}", licensesAdmin.Delete)
		})

		r.Post("/teams/{teamID}/license", licensesAdmin.Assign)

		r.Route("/license-requests", func(r chi.Router) {
			r.Get("/", requestsAdmin.List)
			r.Post("/{requestID}/review", requestsAdmin.Review)
		})
	})

	return r, &Services{
		Accounts:  accountSvc,
		Teams:     teamSvc,
		Events:    eventSvc,
		Licensing: licensingSvc,
	}
}
